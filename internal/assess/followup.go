package assess

import (
	"github.com/ppiankov/compliancewatch/internal/model"
	"github.com/ppiankov/compliancewatch/internal/rules"
)

// MaxFollowUps bounds the follow-up question list.
const MaxFollowUps = 5

const (
	askSingleSourceBasis = "Provide the uniqueness basis or urgency justification for single-source purchasing, with the approval documents."
	askMaterials         = "Provide the key attachments (budget basis, requirements, comparison materials or contract text)."
	askDisclosure        = "Provide the related-party disclosure and confirm whether the recusal procedure was followed."
	askContractClauses   = "Confirm the key contract clauses (liability for breach, audit and oversight cooperation) are complete; add them if needed."
)

var followUpByCode = map[string]string{
	rules.CodeMissingSingleSourceReason:    askSingleSourceBasis,
	rules.CodeMissingAttachments:           askMaterials,
	rules.CodeDecisionMissingProcMaterials: askMaterials,
	rules.CodeMissingContractMaterials:     askMaterials,
	rules.CodeRelatedPartyDisclosure:       askDisclosure,
	rules.CodeContractMissingPenalty:       askContractClauses,
	rules.CodeContractMissingAuditClause:   askContractClauses,
}

// FollowUps maps signals to questions in signal order. Repeated questions
// are kept; the list is cut at MaxFollowUps.
func FollowUps(signals []model.RiskSignal) []string {
	out := []string{}
	for _, s := range signals {
		if q, ok := followUpByCode[s.Code]; ok {
			out = append(out, q)
		}
	}
	if len(out) > MaxFollowUps {
		out = out[:MaxFollowUps]
	}
	return out
}
