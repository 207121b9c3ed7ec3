package compliancewatch

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// maxBodySize bounds the request body the middleware reads.
const maxBodySize = 1 << 20

// Middleware returns an http.Handler that assesses each request's JSON
// body as a payload of category before passing it to next. The body is
// restored for next. Blocked requests receive a 403 with a JSON body.
func (c *Client) Middleware(category Category, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read request body"})
			return
		}
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		result, err := c.Check(r.Context(), category, string(body))
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
			return
		}
		if result.Blocked {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"blocked":       true,
				"assessment_id": result.AssessmentID,
				"level":         string(result.Level),
				"probability":   result.Probability,
				"signals":       result.SignalCodes(),
				"follow_ups":    result.FollowUps,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
