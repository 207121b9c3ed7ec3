// Package knowledge holds the policy and case documents that assessments
// cite. The store is in-memory, unindexed and lives for the process lifetime.
package knowledge

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ppiankov/compliancewatch/internal/model"
)

// ErrInvalidDocument is returned when a document cannot be ingested.
var ErrInvalidDocument = errors.New("invalid document")

// Counts reports the number of stored documents per collection.
type Counts struct {
	Policies int `json:"policies"`
	Cases    int `json:"cases"`
}

// Store keeps policies and cases keyed by id. Re-ingesting an id replaces
// the document in place and keeps its original position, so ranking ties
// resolve in first-ingest order. Concurrent writers to the same id are
// last-write-wins.
type Store struct {
	mu          sync.RWMutex
	policies    map[string]model.PolicyDocument
	policyOrder []string
	cases       map[string]model.CaseDocument
	caseOrder   []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		policies: make(map[string]model.PolicyDocument),
		cases:    make(map[string]model.CaseDocument),
	}
}

// Counts returns current collection sizes.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countsLocked()
}

func (s *Store) countsLocked() Counts {
	return Counts{Policies: len(s.policies), Cases: len(s.cases)}
}

// IsEmpty reports whether neither collection holds a document.
func (s *Store) IsEmpty() bool {
	c := s.Counts()
	return c.Policies == 0 && c.Cases == 0
}

// IngestPolicy inserts or replaces a policy by id.
func (s *Store) IngestPolicy(doc model.PolicyDocument) (Counts, error) {
	doc.ID = strings.TrimSpace(doc.ID)
	if doc.ID == "" {
		return s.Counts(), goerr.Wrap(ErrInvalidDocument, "policy id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.policies[doc.ID]; !exists {
		s.policyOrder = append(s.policyOrder, doc.ID)
	}
	s.policies[doc.ID] = doc
	return s.countsLocked(), nil
}

// IngestCase inserts or replaces a case by id. The decision must be one of
// compliant, non_compliant or unknown.
func (s *Store) IngestCase(doc model.CaseDocument) (Counts, error) {
	doc.ID = strings.TrimSpace(doc.ID)
	if doc.ID == "" {
		return s.Counts(), goerr.Wrap(ErrInvalidDocument, "case id is required")
	}
	decision, err := model.ParseDecision(string(doc.Decision))
	if err != nil {
		return s.Counts(), goerr.Wrap(err, "failed to ingest case", goerr.V("case_id", doc.ID))
	}
	doc.Decision = decision
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	doc.Tags = append([]string(nil), doc.Tags...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[doc.ID]; !exists {
		s.caseOrder = append(s.caseOrder, doc.ID)
	}
	s.cases[doc.ID] = doc
	return s.countsLocked(), nil
}

// PolicyTexts projects every policy to (id, "title\ncontent").
func (s *Store) PolicyTexts() []model.DocumentText {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.DocumentText, 0, len(s.policyOrder))
	for _, id := range s.policyOrder {
		out = append(out, model.DocumentText{ID: id, Text: s.policies[id].Text()})
	}
	return out
}

// CaseTexts projects every case to (id, "summary\nreasons").
func (s *Store) CaseTexts() []model.DocumentText {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.DocumentText, 0, len(s.caseOrder))
	for _, id := range s.caseOrder {
		out = append(out, model.DocumentText{ID: id, Text: s.cases[id].Text()})
	}
	return out
}

// Policy returns a copy of the policy with the given id.
func (s *Store) Policy(id string) (model.PolicyDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	return p, ok
}

// Case returns a copy of the case with the given id.
func (s *Store) Case(id string) (model.CaseDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if ok {
		c.Tags = append([]string(nil), c.Tags...)
	}
	return c, ok
}

// CaseDecision returns the stored outcome for a case id.
func (s *Store) CaseDecision(id string) (model.Decision, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return "", false
	}
	return c.Decision, true
}

// PolicyJSON returns the JSON snapshot of a policy, or "" when unknown.
func (s *Store) PolicyJSON(id string) string {
	p, ok := s.Policy(id)
	if !ok {
		return ""
	}
	return snapshot(p)
}

// CaseJSON returns the JSON snapshot of a case, or "" when unknown.
func (s *Store) CaseJSON(id string) string {
	c, ok := s.Case(id)
	if !ok {
		return ""
	}
	return snapshot(c)
}

// Get looks an id up in policies first, then cases. Unknown ids return "".
func (s *Store) Get(id string) string {
	if out := s.PolicyJSON(id); out != "" {
		return out
	}
	return s.CaseJSON(id)
}

func snapshot(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
