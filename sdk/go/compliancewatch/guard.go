package compliancewatch

import "context"

// ActionFunc is the function signature that Wrap guards. The payload
// describes the business action about to be committed.
type ActionFunc func(ctx context.Context, payload map[string]any) (any, error)

// Wrap returns a new ActionFunc that assesses the payload before calling fn.
// If the level reaches the blocking threshold, it returns a *BlockedError
// without calling fn. Assessment errors are returned as-is and fn is not
// called.
func (c *Client) Wrap(category Category, fn ActionFunc) ActionFunc {
	return func(ctx context.Context, payload map[string]any) (any, error) {
		result, err := c.Check(ctx, category, payload)
		if err != nil {
			return nil, err
		}
		if result.Blocked {
			return nil, &BlockedError{Category: category, Result: result}
		}
		return fn(ctx, payload)
	}
}
