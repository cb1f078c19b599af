package pipeline

import "github.com/tactful-app/tactful-backend/internal/plan"

// SafetyDisclaimer is constant across all responses.
const SafetyDisclaimer = "These drafts are suggestions, not legal or professional advice. " +
	"Review before sending; if you are in danger or facing a legal dispute, contact a qualified professional."

// FinalResponse is the package-shaped contract returned to the caller.
// Unlicensed fields are null, never omitted, so the shape is stable for all
// callers.
type FinalResponse struct {
	Package          string  `json:"package"`
	MessageText      *string `json:"message_text"`
	EmailText        *string `json:"email_text"`
	AnalysisReport   *string `json:"analysis_report"`
	Notes            *string `json:"notes"`
	SafetyDisclaimer string  `json:"safety_disclaimer"`
}

// Assemble merges stage results into the final response, keeping only the
// fields the plan licenses. Anything a model produced outside its schema was
// already rejected during stage validation; the plan check here makes the
// licensing enforcement server-side and independent of model behaviour.
func Assemble(p *plan.OutputPlan, results []StageResult) FinalResponse {
	out := FinalResponse{
		Package:          p.Package,
		SafetyDisclaimer: SafetyDisclaimer,
	}

	for _, res := range results {
		if res.State != StateDone {
			continue
		}
		for field, text := range res.Fields {
			switch {
			case field == plan.FieldMessage && p.WantMessage:
				out.MessageText = ptr(text)
			case field == plan.FieldEmail && p.WantEmail:
				out.EmailText = ptr(text)
			case field == plan.FieldAnalysis && p.WantAnalysis:
				out.AnalysisReport = ptr(text)
			case field == plan.FieldNotes && p.WantAnalysis:
				out.Notes = ptr(text)
			}
		}
	}

	return out
}

func ptr(s string) *string { return &s }
