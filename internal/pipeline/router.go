// Package pipeline drives the generation stages: it routes each stage to a
// model tier and token budget, runs the call/validate/repair/fallback state
// machine, deterministically enforces length and structure on the results,
// and assembles the package-shaped final response.
package pipeline

import (
	"github.com/tactful-app/tactful-backend/internal/ai"
	"github.com/tactful-app/tactful-backend/internal/decision"
	"github.com/tactful-app/tactful-backend/internal/plan"
)

// Route is the model tier and token budget for one stage call.
type Route struct {
	Tier      ai.Tier
	MaxTokens int
}

// RouteStage picks the capability tier for a stage. Analysis stages, or any
// stage under record-safe level 2 or high risk, go to the strong model;
// everything else takes the low-latency default. Token budgets come from the
// plan's fixed per-(stage,package) table.
func RouteStage(d decision.EngineDecision, p *plan.OutputPlan, stage plan.Stage) Route {
	tier := ai.TierDefault
	if stage == plan.StageAnalysis || d.RecordSafeLevel == 2 || d.RiskLevel == decision.RiskHigh {
		tier = ai.TierStrong
	}
	return Route{
		Tier:      tier,
		MaxTokens: p.TokenBudgets[stage],
	}
}
