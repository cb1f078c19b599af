// Package prompt assembles the system/user prompt pair for each generation
// stage from store-fetched templates, decision metadata, and a few-shot
// example. Section order is fixed and significant; wording lives in the
// template store, structure lives here.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tactful-app/tactful-backend/internal/decision"
	"github.com/tactful-app/tactful-backend/internal/normalize"
	"github.com/tactful-app/tactful-backend/internal/plan"
	"github.com/tactful-app/tactful-backend/internal/templates"
)

// Composer builds prompts for the stage runner. It holds the template store
// (normally the TTL cache) and nothing else — composition is otherwise pure.
type Composer struct {
	store  templates.Store
	logger *slog.Logger
}

// NewComposer returns a Composer backed by the given template store.
func NewComposer(store templates.Store, logger *slog.Logger) *Composer {
	return &Composer{store: store, logger: logger}
}

// Compose builds the system and user prompt for one stage.
//
// The system prompt is assembled in a fixed order: hard output-contract
// statement, safety rules, risk overrides, format rules, intent structure
// guide, relationship wording guide, tone micro-style, per-field minimum
// length requirements, one few-shot example, the JSON schema the stage must
// satisfy, and a closing restatement of the output contract. The contract
// must appear at both ends; do not fold the restatement into the header.
//
// Template fetch failures for required sections are returned as-is (the
// pipeline maps them to an upstream-fetch failure); the few-shot cascade
// tolerates misses and bottoms out at a hard-coded literal.
func (c *Composer) Compose(
	ctx context.Context,
	in normalize.CanonicalInput,
	d decision.EngineDecision,
	p *plan.OutputPlan,
	stage plan.Stage,
) (system, user string, err error) {
	var sb strings.Builder

	contract, err := c.store.Fetch(ctx, "contract/header")
	if err != nil {
		return "", "", fmt.Errorf("compose %s: %w", stage, err)
	}
	section(&sb, contract)

	safety, err := c.store.Fetch(ctx, "safety/rules")
	if err != nil {
		return "", "", fmt.Errorf("compose %s: %w", stage, err)
	}
	section(&sb, safety)

	// Risk overrides: record-safe wording is a different template, not a
	// parameterised variant of the standard one.
	riskID := "risk/standard"
	if d.RecordSafeLevel > 0 {
		riskID = "risk/record_safe"
	}
	risk, err := c.store.Fetch(ctx, riskID)
	if err != nil {
		return "", "", fmt.Errorf("compose %s: %w", stage, err)
	}
	section(&sb, risk)

	format, err := c.store.Fetch(ctx, "format/"+formatID(in, stage))
	if err != nil {
		return "", "", fmt.Errorf("compose %s: %w", stage, err)
	}
	section(&sb, format)

	intent, err := c.store.Fetch(ctx, "intent/"+string(in.Intent))
	if err != nil {
		return "", "", fmt.Errorf("compose %s: %w", stage, err)
	}
	section(&sb, intent)

	rel, err := c.store.Fetch(ctx, "relationship/"+string(in.Relationship))
	if err != nil {
		return "", "", fmt.Errorf("compose %s: %w", stage, err)
	}
	section(&sb, rel)

	tone, err := c.store.Fetch(ctx, "tone/"+string(d.ToneRecommendation))
	if err != nil {
		return "", "", fmt.Errorf("compose %s: %w", stage, err)
	}
	section(&sb, tone)

	section(&sb, lengthRequirements(p, stage))
	section(&sb, c.fewShotExample(ctx, in, d))
	section(&sb, schemaBlock(stage))
	sb.WriteString(contractRestatement(stage))

	return sb.String(), c.userPrompt(in, d, p, stage), nil
}

// section writes one block followed by a blank separator line.
func section(sb *strings.Builder, text string) {
	sb.WriteString(strings.TrimSpace(text))
	sb.WriteString("\n\n")
}

// formatID picks the format-rules template. The analysis stage has its own
// rules; message/email stages follow the caller's requested format enum.
func formatID(in normalize.CanonicalInput, stage plan.Stage) string {
	switch stage {
	case plan.StageEmail:
		return "email"
	case plan.StageAnalysis:
		return "analysis"
	default:
		return "message"
	}
}

// lengthRequirements renders the per-field minimum length lines for the
// stage. Maximums are enforced by the postprocessor; minimums are stated to
// the model so padding rarely triggers.
func lengthRequirements(p *plan.OutputPlan, stage plan.Stage) string {
	var sb strings.Builder
	sb.WriteString("Length requirements:\n")
	for _, field := range plan.StageFields(stage) {
		b := p.Budget(field)
		fmt.Fprintf(&sb, "- %s: at least %d characters, at most %d characters\n", field, b.Min, b.Max)
	}
	return sb.String()
}

// userPrompt serialises the situation and decision metadata into the user
// message. The analysis text of other stages is never included here: internal
// analysis must not leak into recipient-facing drafts.
func (c *Composer) userPrompt(
	in normalize.CanonicalInput,
	d decision.EngineDecision,
	p *plan.OutputPlan,
	stage plan.Stage,
) string {
	var sb strings.Builder

	sb.WriteString("Situation account:\n")
	sb.WriteString(in.Facts)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "relationship: %s\n", in.Relationship)
	fmt.Fprintf(&sb, "intent: %s\n", in.Intent)
	fmt.Fprintf(&sb, "requested_tone: %s\n", in.ToneRequested)
	fmt.Fprintf(&sb, "recommended_tone: %s\n", d.ToneRecommendation)
	fmt.Fprintf(&sb, "detail: %s\n", d.DetailRecommendation)

	if len(in.MainConcerns) > 0 {
		tokens := make([]string, len(in.MainConcerns))
		for i, mc := range in.MainConcerns {
			tokens[i] = string(mc)
		}
		fmt.Fprintf(&sb, "concerns: %s\n", strings.Join(tokens, ", "))
	}
	for _, constraint := range in.Constraints {
		fmt.Fprintf(&sb, "user_constraint: %s\n", constraint)
	}

	// The analysis stage sees the classification it is asked to explain.
	// Drafting stages only get the style outcome, never the risk internals.
	if stage == plan.StageAnalysis {
		fmt.Fprintf(&sb, "risk_level: %s\n", d.RiskLevel)
		fmt.Fprintf(&sb, "candor: %s\n", d.InsightCandorLevel)
		fmt.Fprintf(&sb, "direction_suggestion: %s\n", d.DirectionSuggestion)
	}

	return sb.String()
}
