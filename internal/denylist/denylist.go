// Package denylist matches counterparties against a list of barred
// suppliers. A match raises the blocking supplier_blacklist signal.
package denylist

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Patterns holds the raw entries as written in the YAML file.
type Patterns struct {
	// Suppliers are name patterns. Matching is case-insensitive and
	// whitespace-normalized; * matches any run of characters.
	Suppliers []string `yaml:"suppliers"`
	// CreditCodes are exact registration identifiers (e.g. unified social
	// credit codes).
	CreditCodes []string `yaml:"credit_codes"`
}

// Denylist holds compiled patterns.
type Denylist struct {
	mu          sync.RWMutex
	names       []*regexp.Regexp
	creditCodes map[string]struct{}
	raw         Patterns
}

// New compiles p. Patterns that fail to compile are skipped.
func New(p Patterns) *Denylist {
	d := &Denylist{creditCodes: make(map[string]struct{})}
	for _, s := range p.Suppliers {
		d.addSupplier(s)
	}
	for _, c := range p.CreditCodes {
		d.addCreditCode(c)
	}
	return d
}

// NewDefault returns an empty denylist. There are no built-in suppliers.
func NewDefault() *Denylist {
	return New(DefaultPatterns)
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".compliancewatch", "denylist.yaml")
}

// Load reads a denylist from a YAML file. Falls back to defaults if the file
// doesn't exist.
func Load(path string) (*Denylist, error) {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return NewDefault(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, goerr.Wrap(err, "failed to read denylist", goerr.V("path", path))
	}

	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, goerr.Wrap(err, "failed to parse denylist", goerr.V("path", path))
	}
	return New(p), nil
}

// IsBlocked checks a supplier by name and optional credit code.
// Returns (blocked, reason).
func (d *Denylist) IsBlocked(name, creditCode string) (bool, string) {
	if d == nil {
		return false, ""
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if code := normalizeCode(creditCode); code != "" {
		if _, ok := d.creditCodes[code]; ok {
			return true, "credit code denylisted: " + code
		}
	}

	normalized := normalizeName(name)
	if normalized == "" {
		return false, ""
	}
	for _, re := range d.names {
		if re.MatchString(normalized) {
			return true, "supplier name denylisted: " + re.String()
		}
	}
	return false, ""
}

// AddPattern adds an entry at runtime. Category is "suppliers" or
// "credit_codes".
func (d *Denylist) AddPattern(category, pattern string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch category {
	case "suppliers":
		d.addSupplier(pattern)
	case "credit_codes":
		d.addCreditCode(pattern)
	default:
		return goerr.New("unknown denylist category", goerr.V("category", category))
	}
	return nil
}

// Len returns the number of entries.
func (d *Denylist) Len() int {
	if d == nil {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names) + len(d.creditCodes)
}

// ToMap returns the raw patterns for serialization.
func (d *Denylist) ToMap() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return map[string]any{
		"suppliers":    append([]string{}, d.raw.Suppliers...),
		"credit_codes": append([]string{}, d.raw.CreditCodes...),
	}
}

func (d *Denylist) addSupplier(pattern string) {
	n := normalizeName(pattern)
	if n == "" {
		return
	}
	if compiled, err := regexp.Compile("^" + patternToRegex(n) + "$"); err == nil {
		d.names = append(d.names, compiled)
		d.raw.Suppliers = append(d.raw.Suppliers, pattern)
	}
}

func (d *Denylist) addCreditCode(code string) {
	c := normalizeCode(code)
	if c == "" {
		return
	}
	d.creditCodes[c] = struct{}{}
	d.raw.CreditCodes = append(d.raw.CreditCodes, code)
}

// patternToRegex converts a glob-like pattern to a regex.
func patternToRegex(pattern string) string {
	escaped := regexp.QuoteMeta(pattern)
	return strings.ReplaceAll(escaped, `\*`, ".*")
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
