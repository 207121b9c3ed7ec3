package scenario

// Case is one assessment with its expected outcome. Every expectation is
// optional; a case with none only checks that the assessment succeeds.
type Case struct {
	Name           string         `yaml:"name,omitempty"`
	Category       string         `yaml:"category"`
	Payload        map[string]any `yaml:"payload"`
	Expect         string         `yaml:"expect,omitempty"` // risk level
	ExpectSignals  []string       `yaml:"expect_signals,omitempty"`
	ForbidSignals  []string       `yaml:"forbid_signals,omitempty"`
	MinProbability *float64       `yaml:"min_probability,omitempty"`
	MaxProbability *float64       `yaml:"max_probability,omitempty"`
}

// Scenario is a named collection of assessment cases.
type Scenario struct {
	Name string `yaml:"name"`
	// Knowledge selects the knowledge base the cases run against:
	// "demo" (default) or "empty".
	Knowledge string `yaml:"knowledge,omitempty"`
	Cases     []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index       int      `json:"index"`
	Name        string   `json:"name,omitempty"`
	Category    string   `json:"category"`
	Passed      bool     `json:"passed"`
	Expected    string   `json:"expected,omitempty"`
	Actual      string   `json:"actual"`
	Probability float64  `json:"probability"`
	Signals     []string `json:"signals"`
	Failures    []string `json:"failures,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
