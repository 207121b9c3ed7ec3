package knowledge

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/compliancewatch/internal/model"
)

// File is the on-disk knowledge base format.
//
//	policies:
//	  - id: POL-900
//	    title: ...
//	    content: ...
//	cases:
//	  - id: CASE-900
//	    summary: ...
//	    decision: non_compliant
//	    reasons: ...
//	    tags: [procurement]
type File struct {
	Policies []model.PolicyDocument `yaml:"policies"`
	Cases    []model.CaseDocument   `yaml:"cases"`
}

// LoadFile reads a YAML knowledge base. A missing file is an error: unlike
// the config file, a knowledge file is only loaded when named explicitly.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read knowledge file", goerr.V("path", path))
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, goerr.Wrap(err, "failed to parse knowledge file", goerr.V("path", path))
	}
	return &f, nil
}

// IngestFile ingests every document in f. It stops at the first invalid
// document; documents before it stay ingested.
func (s *Store) IngestFile(f *File) (Counts, error) {
	for _, p := range f.Policies {
		if _, err := s.IngestPolicy(p); err != nil {
			return s.Counts(), err
		}
	}
	for _, c := range f.Cases {
		if _, err := s.IngestCase(c); err != nil {
			return s.Counts(), err
		}
	}
	return s.Counts(), nil
}

// ParseTags accepts tags as a native list or as a JSON-array string.
// A blank string is no tags; malformed JSON degrades to a single tag
// holding the raw string; any other JSON value becomes one tag.
func ParseTags(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []string:
		return append([]string{}, v...)
	case []any:
		return stringifyAll(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return []string{}
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return []string{v}
		}
		if list, ok := decoded.([]any); ok {
			return stringifyAll(list)
		}
		return []string{model.Stringify(decoded)}
	default:
		return []string{model.Stringify(v)}
	}
}

func stringifyAll(values []any) []string {
	out := make([]string, 0, len(values))
	for _, t := range values {
		out = append(out, model.Stringify(t))
	}
	return out
}
