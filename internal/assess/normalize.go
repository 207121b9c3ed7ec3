package assess

import (
	"encoding/json"
	"strings"

	"github.com/ppiankov/compliancewatch/internal/model"
)

// NormalizePayload coerces whatever the caller sent into a payload map.
// It never fails:
//
//   - a map is used as-is
//   - a string holding a JSON object is decoded; a string whose keys were
//     over-escaped (\" instead of ") is repaired first
//   - any other JSON value becomes {"value": v}
//   - text that is not JSON becomes {"text": raw}
//   - empty input and unsupported types become {}
func NormalizePayload(raw any) model.Payload {
	switch v := raw.(type) {
	case nil:
		return model.Payload{}
	case model.Payload:
		if v == nil {
			return model.Payload{}
		}
		return v
	case map[string]any:
		if v == nil {
			return model.Payload{}
		}
		return model.Payload(v)
	case string:
		return parseString(v)
	case []byte:
		return parseString(string(v))
	case json.RawMessage:
		return parseString(string(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return model.Payload{}
		}
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
			return model.Payload{}
		}
		return model.Payload(obj)
	}
}

func parseString(s string) model.Payload {
	content := strings.TrimSpace(s)
	if content == "" {
		return model.Payload{}
	}

	if strings.Contains(content, `\"`) {
		fixed := strings.ReplaceAll(content, `\"`, `"`)
		var obj any
		if err := json.Unmarshal([]byte(fixed), &obj); err == nil {
			if m, ok := obj.(map[string]any); ok {
				return model.Payload(m)
			}
		}
	}

	var obj any
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return model.Payload{"text": content}
	}
	if m, ok := obj.(map[string]any); ok {
		return model.Payload(m)
	}
	return model.Payload{"value": obj}
}
