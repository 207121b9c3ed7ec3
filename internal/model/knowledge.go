package model

// PolicyDocument is a policy clause in the knowledge base.
type PolicyDocument struct {
	ID            string `json:"doc_id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	EffectiveFrom string `json:"effective_from,omitempty" yaml:"effective_from,omitempty"`
	Scope         string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Content       string `json:"content" yaml:"content"`
}

// Text is the projection used for similarity ranking.
func (p PolicyDocument) Text() string {
	return p.Title + "\n" + p.Content
}

// CaseDocument is a historical compliance case with its recorded outcome.
type CaseDocument struct {
	ID       string   `json:"case_id" yaml:"id"`
	Summary  string   `json:"summary" yaml:"summary"`
	Decision Decision `json:"decision" yaml:"decision"`
	Reasons  string   `json:"reasons" yaml:"reasons"`
	Tags     []string `json:"tags" yaml:"tags"`
}

// Text is the projection used for similarity ranking.
func (c CaseDocument) Text() string {
	return c.Summary + "\n" + c.Reasons
}

// DocumentText pairs a document id with its ranking text.
type DocumentText struct {
	ID   string
	Text string
}
