// Package plan resolves a package id into the licensed output fields and
// their budgets. The table here is the single source of truth: both the
// prompt composer and the response assembler must consult the same resolved
// *OutputPlan instance — never two independent lookups — so what is requested
// of the model can never drift from what is returned.
package plan

import (
	"fmt"
	"strings"
)

// Stage names one generation step. A stage produces one or more related
// output fields in a single model call.
type Stage string

const (
	StageMessage  Stage = "message"
	StageEmail    Stage = "email"
	StageAnalysis Stage = "analysis"
)

// Field names in the final response, as they appear on the wire.
const (
	FieldMessage  = "message_text"
	FieldEmail    = "email_text"
	FieldAnalysis = "analysis_report"
	FieldNotes    = "notes"
)

// StageFields returns the exact JSON keys a stage's model output must carry.
// Extra, missing, non-string, or empty keys are schema violations.
func StageFields(s Stage) []string {
	switch s {
	case StageMessage:
		return []string{FieldMessage}
	case StageEmail:
		return []string{FieldEmail}
	case StageAnalysis:
		return []string{FieldAnalysis, FieldNotes}
	default:
		return nil
	}
}

// FieldBudget is the character window a delivered field must land in.
type FieldBudget struct {
	Min int
	Max int
}

// OutputPlan is the resolved entitlement for one package id.
type OutputPlan struct {
	Package string

	WantMessage  bool
	WantEmail    bool
	WantAnalysis bool

	MessageBudget  FieldBudget
	EmailBudget    FieldBudget
	AnalysisBudget FieldBudget
	NotesBudget    FieldBudget

	// TokenBudgets holds the fixed per-stage generator token budget for this
	// package. Sized from the character budgets above, not computed
	// dynamically.
	TokenBudgets map[Stage]int
}

// Stages returns the generation stages this plan is entitled to, in a fixed
// order. At least one stage is always present.
func (p *OutputPlan) Stages() []Stage {
	var out []Stage
	if p.WantMessage {
		out = append(out, StageMessage)
	}
	if p.WantEmail {
		out = append(out, StageEmail)
	}
	if p.WantAnalysis {
		out = append(out, StageAnalysis)
	}
	return out
}

// Budget returns the character budget for a delivered field.
func (p *OutputPlan) Budget(field string) FieldBudget {
	switch field {
	case FieldMessage:
		return p.MessageBudget
	case FieldEmail:
		return p.EmailBudget
	case FieldAnalysis:
		return p.AnalysisBudget
	case FieldNotes:
		return p.NotesBudget
	default:
		return FieldBudget{}
	}
}

// UnknownPackageError reports a package id outside the closed set.
type UnknownPackageError struct {
	ID string
}

func (e *UnknownPackageError) Error() string {
	return fmt.Sprintf("unknown package %q", e.ID)
}

// ─── PACKAGE TABLE ────────────────────────────────────────────────────────────

var (
	messageBudget  = FieldBudget{Min: 160, Max: 800}
	emailBudget    = FieldBudget{Min: 320, Max: 1600}
	analysisBudget = FieldBudget{Min: 210, Max: 1050}
	notesBudget    = FieldBudget{Min: 40, Max: 400}
)

// Resolve maps a package id to its OutputPlan. "bundle" is accepted as a
// legacy alias of "total". Ids outside the closed set fail with
// UnknownPackageError.
func Resolve(id string) (*OutputPlan, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "bundle" {
		key = "total"
	}

	p := &OutputPlan{
		Package:        key,
		MessageBudget:  messageBudget,
		EmailBudget:    emailBudget,
		AnalysisBudget: analysisBudget,
		NotesBudget:    notesBudget,
	}

	switch key {
	case "message":
		p.WantMessage = true
		p.TokenBudgets = map[Stage]int{StageMessage: 400}
	case "email":
		p.WantEmail = true
		p.TokenBudgets = map[Stage]int{StageEmail: 700}
	case "analysis_message":
		p.WantMessage = true
		p.WantAnalysis = true
		p.TokenBudgets = map[Stage]int{StageMessage: 400, StageAnalysis: 600}
	case "analysis_email":
		p.WantEmail = true
		p.WantAnalysis = true
		p.TokenBudgets = map[Stage]int{StageEmail: 700, StageAnalysis: 600}
	case "total":
		p.WantMessage = true
		p.WantEmail = true
		p.WantAnalysis = true
		p.TokenBudgets = map[Stage]int{StageMessage: 400, StageEmail: 700, StageAnalysis: 700}
	default:
		return nil, &UnknownPackageError{ID: id}
	}

	return p, nil
}
