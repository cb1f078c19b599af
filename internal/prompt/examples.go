package prompt

import (
	"context"

	"github.com/tactful-app/tactful-backend/internal/decision"
	"github.com/tactful-app/tactful-backend/internal/normalize"
)

// literalExample is the last rung of the few-shot cascade. It must always be
// available, so it is compiled in rather than fetched.
const literalExample = `Example of the expected output style:

"Thanks for taking the time on Tuesday. I want to be clear about one thing
going forward: please send schedule changes before the end of the prior day.
That keeps things workable on my side. Happy to talk it through if that's
easier."

Notice: factual, specific, no blame language, one clear ask.`

// fewShotExample picks one example by priority cascade:
//
//  1. record-safe example for the specific intent
//  2. record-safe default for the relationship
//  3. generic default for the relationship
//  4. hard-coded literal
//
// Unlike the required sections, a miss anywhere in the cascade is tolerated —
// the next rung is tried and the literal always succeeds.
func (c *Composer) fewShotExample(
	ctx context.Context,
	in normalize.CanonicalInput,
	d decision.EngineDecision,
) string {
	var ids []string
	if d.RecordSafeLevel > 0 {
		ids = append(ids,
			"examples/record_safe/"+string(in.Intent),
			"examples/record_safe/default_"+string(in.Relationship),
		)
	}
	ids = append(ids, "examples/default/"+string(in.Relationship))

	for _, id := range ids {
		text, err := c.store.Fetch(ctx, id)
		if err == nil && text != "" {
			return text
		}
		c.logger.Debug("prompt: few-shot example unavailable, trying next",
			"template_id", id,
			"error", err,
		)
	}

	return literalExample
}
