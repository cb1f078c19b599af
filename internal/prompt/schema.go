package prompt

import (
	"fmt"
	"strings"

	"github.com/tactful-app/tactful-backend/internal/plan"
)

// schemaBlock renders the exact JSON schema the stage's output must satisfy.
// The stage runner validates against the same key set, so the instruction and
// the check can never disagree.
func schemaBlock(stage plan.Stage) string {
	fields := plan.StageFields(stage)

	var sb strings.Builder
	sb.WriteString("Respond ONLY with a valid JSON object matching this exact schema, no markdown fences, no preamble:\n{\n")
	for i, f := range fields {
		sb.WriteString(fmt.Sprintf("  %q: \"...\"", f))
		if i < len(fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\nEvery value must be a non-empty string. Do not add keys.")
	return sb.String()
}

// contractRestatement closes the system prompt by restating the output
// contract already given in the header.
func contractRestatement(stage plan.Stage) string {
	return fmt.Sprintf(
		"Final reminder: your entire response is a single JSON object with exactly these keys: %s. No other text.",
		strings.Join(plan.StageFields(stage), ", "),
	)
}
