// Package compliancewatch provides in-process compliance gating for Go
// business systems. It assesses decisions, procurements and contracts
// before they are committed and refuses the ones whose risk level reaches
// a configured threshold.
//
// Usage:
//
//	cw, err := compliancewatch.New(compliancewatch.WithBlockAt(compliancewatch.LevelHigh))
//	submit := cw.Wrap(compliancewatch.Procurement, submitPurchaseOrder)
//	_, err = submit(ctx, map[string]any{
//	    "title":              "Server purchase",
//	    "procurement_method": "single_source",
//	    "amount":             1500000,
//	})
//	var blocked *compliancewatch.BlockedError
//	if errors.As(err, &blocked) { ... }
//
// The SDK links directly against internal packages, so no server process
// is needed. External users import
// github.com/ppiankov/compliancewatch/sdk/go/compliancewatch.
package compliancewatch
