package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tactful-app/tactful-backend/internal/ai"
	"github.com/tactful-app/tactful-backend/internal/decision"
	"github.com/tactful-app/tactful-backend/internal/fault"
	"github.com/tactful-app/tactful-backend/internal/normalize"
	"github.com/tactful-app/tactful-backend/internal/plan"
	"github.com/tactful-app/tactful-backend/internal/prompt"
)

// ─── STATE MACHINE ────────────────────────────────────────────────────────────

// State is one node of the stage state machine:
//
//	PENDING → CALLED → {VALID, PARSE_FAILED}
//	PARSE_FAILED → REPAIR_CALLED → {VALID, FALLBACK}
//	{VALID, FALLBACK} → DONE
//
// Only DONE results ever reach the postprocessor; PARSE_FAILED and
// REPAIR_CALLED text never leaves this file.
type State int

const (
	StatePending State = iota
	StateCalled
	StateValid
	StateParseFailed
	StateRepairCalled
	StateFallback
	StateDone
)

var stateNames = [...]string{"PENDING", "CALLED", "VALID", "PARSE_FAILED", "REPAIR_CALLED", "FALLBACK", "DONE"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StageResult is the outcome of one stage run. Fields holds the validated
// value for every key the stage's schema requires — either model output that
// passed validation or static fallback text, never anything in between.
type StageResult struct {
	Stage        plan.Stage
	State        State
	Fields       map[string]string
	RawText      string // last raw model text, for logging only
	UsedFallback bool
	Repaired     bool
}

// generation temperatures: drafting gets some variety, repair gets none.
const (
	draftTemperature  = 0.7
	repairTemperature = 0
)

// StageRunner executes one stage end to end.
type StageRunner struct {
	gen      ai.Generator
	composer *prompt.Composer
	logger   *slog.Logger
}

// NewStageRunner constructs a StageRunner.
func NewStageRunner(gen ai.Generator, composer *prompt.Composer, logger *slog.Logger) *StageRunner {
	return &StageRunner{gen: gen, composer: composer, logger: logger}
}

// Run drives a stage from PENDING to DONE. It returns an error only for
// terminal failures (template store unreachable, generator failed after the
// retry policy); schema violations are always recovered via repair or
// fallback and never surface as errors.
func (r *StageRunner) Run(
	ctx context.Context,
	in normalize.CanonicalInput,
	d decision.EngineDecision,
	p *plan.OutputPlan,
	stage plan.Stage,
) (StageResult, error) {
	res := StageResult{Stage: stage, State: StatePending}
	log := r.logger.With("stage", string(stage))

	system, user, err := r.composer.Compose(ctx, in, d, p, stage)
	if err != nil {
		return res, fault.Wrap(fault.KindUpstreamFetch, string(stage), "template store unavailable", err)
	}

	route := RouteStage(d, p, stage)

	// ── CALLED ────────────────────────────────────────────────────────────────
	res.State = StateCalled
	raw, err := r.gen.Generate(ctx, ai.Request{
		Tier:        route.Tier,
		System:      system,
		User:        user,
		MaxTokens:   route.MaxTokens,
		Temperature: draftTemperature,
	})
	if err != nil {
		return res, fault.Wrap(fault.KindGenerationFailed, string(stage), "generator call failed", err)
	}
	res.RawText = raw

	fields, verr := parseStageJSON(raw, plan.StageFields(stage))
	if verr == nil {
		res.State = StateValid
		res.Fields = fields
		res.State = StateDone
		return res, nil
	}

	// ── PARSE_FAILED → REPAIR_CALLED ──────────────────────────────────────────
	res.State = StateParseFailed
	log.Warn("stage: output failed validation, attempting repair", "error", verr)

	res.State = StateRepairCalled
	repaired, err := r.gen.Generate(ctx, ai.Request{
		Tier:        route.Tier,
		System:      repairSystemPrompt(stage),
		User:        raw,
		MaxTokens:   route.MaxTokens,
		Temperature: repairTemperature,
	})
	if err == nil {
		res.RawText = repaired
		if fields, verr = parseStageJSON(repaired, plan.StageFields(stage)); verr == nil {
			res.State = StateValid
			res.Fields = fields
			res.Repaired = true
			res.State = StateDone
			return res, nil
		}
	}

	// ── FALLBACK ──────────────────────────────────────────────────────────────
	// The repair call either errored or produced invalid output again. Both
	// are resolved locally with static safe text; the caller still gets a
	// well-formed response.
	log.Warn("stage: repair failed, using static fallback",
		"generate_error", err,
		"validation_error", verr,
	)
	res.State = StateFallback
	res.Fields = fallbackFields(stage)
	res.UsedFallback = true
	res.State = StateDone
	return res, nil
}

// repairSystemPrompt is the minimal fix-it instruction for the one-shot
// repair call. The malformed text is passed as the user message.
func repairSystemPrompt(stage plan.Stage) string {
	return fmt.Sprintf(
		"The following text was meant to be a JSON object with exactly these string keys: %s. "+
			"Rewrite it into exactly that — a single valid JSON object, every value a non-empty string, "+
			"no extra keys, no markdown fences, no commentary. Preserve the content as written; fix only the structure.",
		strings.Join(plan.StageFields(stage), ", "),
	)
}

// ─── VALIDATION ───────────────────────────────────────────────────────────────

// parseStageJSON validates raw model text against a stage's fixed key schema:
// a single JSON object with exactly the given keys, every value a non-empty
// string. Markdown fences are stripped first — models add them despite
// instructions.
func parseStageJSON(raw string, keys []string) (map[string]string, error) {
	raw = stripFences(raw)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}

	if len(obj) != len(keys) {
		return nil, fmt.Errorf("expected exactly %d keys, got %d", len(keys), len(obj))
	}

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		rawVal, ok := obj[key]
		if !ok {
			return nil, fmt.Errorf("missing key %q", key)
		}
		var val string
		if err := json.Unmarshal(rawVal, &val); err != nil {
			return nil, fmt.Errorf("key %q is not a string", key)
		}
		if strings.TrimSpace(val) == "" {
			return nil, fmt.Errorf("key %q is empty", key)
		}
		out[key] = val
	}
	return out, nil
}

// stripFences removes accidental markdown code fences around a JSON body.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
