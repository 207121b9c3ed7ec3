package assess

import "github.com/ppiankov/compliancewatch/internal/model"

// subjectKeys name the payload fields that identify what is being assessed,
// most specific first.
var subjectKeys = []string{
	"title", "project_name", "contract_name", "topic", "summary", "supplier_name", "text",
}

const subjectRunes = 80

// Subject returns a one-line label for the assessed payload, or "" when
// none of the identifying fields is set.
func (r *Result) Subject() string {
	return PayloadSubject(r.NormalizedPayload)
}

// PayloadSubject is Subject for a bare payload.
func PayloadSubject(p model.Payload) string {
	s := []rune(p.FirstString(subjectKeys...))
	if len(s) > subjectRunes {
		s = append(s[:subjectRunes-1], '…')
	}
	return string(s)
}

// SignalCodes lists the codes of r's signals in order.
func (r *Result) SignalCodes() []string {
	codes := make([]string, 0, len(r.Signals))
	for _, s := range r.Signals {
		codes = append(codes, s.Code)
	}
	return codes
}
