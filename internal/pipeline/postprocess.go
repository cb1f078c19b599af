package pipeline

import (
	"strings"

	"github.com/tactful-app/tactful-backend/internal/plan"
)

// The postprocessor is the last line of defense on the output contract. It is
// deterministic and generator-free: whatever the model produced (or the
// fallback substituted), delivered fields land inside their [min,max] budget
// and the analysis report has exactly 3 non-empty lines. No network, ever.

// clarifiers are fixed content-neutral sentences appended when a field is
// under its minimum. They add no facts.
var clarifiers = []string{
	"I want to keep this straightforward and respectful.",
	"My aim is that we are both clear on where things stand.",
	"I am open to discussing this further if that would help.",
}

// backstopSentence is appended (repeatedly if necessary) after the clarifier
// list runs out. It guarantees the minimum is always reachable.
const backstopSentence = "Thank you for taking the time to read this."

// analysisSlots is the 3-slot template for synthesising missing analysis
// lines: risk posture, strategy, bounded next step.
var analysisSlots = [3]string{
	"Overall this situation carries meaningful risk and deserves a deliberate, unhurried response.",
	"Keep your approach factual and consistent, and avoid speculation or escalating language.",
	"As a bounded next step, state your position once, clearly, and allow time for a reply.",
}

// Postprocess enforces every field budget on a DONE stage result, in place.
// The analysis field additionally gets the fixed 3-line structure.
func Postprocess(res *StageResult, p *plan.OutputPlan) {
	for field, text := range res.Fields {
		budget := p.Budget(field)
		if field == plan.FieldAnalysis {
			res.Fields[field] = ShapeAnalysis(text, budget)
		} else {
			res.Fields[field] = EnforceBudget(text, budget)
		}
	}
}

// EnforceBudget fits text into [b.Min, b.Max]: hard-truncate above the
// maximum, pad with clarifiers (then the backstop) below the minimum.
func EnforceBudget(text string, b plan.FieldBudget) string {
	text = strings.TrimSpace(text)
	text = truncateRunes(text, b.Max)
	text = padToMin(text, b.Min)
	return truncateRunes(text, b.Max)
}

// ShapeAnalysis forces the analysis report into exactly 3 non-empty lines:
// extra lines are dropped, missing lines are synthesised from the slot
// template, then the character budget is re-applied without ever collapsing
// a line to empty.
func ShapeAnalysis(text string, b plan.FieldBudget) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) > 3 {
		lines = lines[:3]
	}
	for len(lines) < 3 {
		lines = append(lines, analysisSlots[len(lines)])
	}

	// Over budget: clamp each line to an even share so all three survive.
	if totalLen(lines) > b.Max {
		perLine := (b.Max - 2) / 3 // 2 newline runes
		for i := range lines {
			lines[i] = truncateRunes(lines[i], perLine)
		}
	}

	// Under budget: extend the last line; a fourth line would break the shape.
	if totalLen(lines) < b.Min {
		deficit := b.Min - totalLen(lines) + len([]rune(lines[2]))
		lines[2] = padToMin(lines[2], deficit)
	}

	// Padding may have overshot; trim the tail of the last line only.
	if over := totalLen(lines) - b.Max; over > 0 {
		last := []rune(lines[2])
		if keep := len(last) - over; keep > 0 {
			lines[2] = strings.TrimSpace(string(last[:keep]))
		}
	}

	return strings.Join(lines, "\n")
}

// padToMin appends clarifier sentences, then the backstop as many times as
// needed, until text reaches min runes.
func padToMin(text string, min int) string {
	for i := 0; len([]rune(text)) < min; i++ {
		var extra string
		if i < len(clarifiers) {
			extra = clarifiers[i]
		} else {
			extra = backstopSentence
		}
		if text == "" {
			text = extra
		} else {
			text = text + " " + extra
		}
	}
	return text
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}

func totalLen(lines []string) int {
	n := len(lines) - 1 // newlines
	for _, l := range lines {
		n += len([]rune(l))
	}
	return n
}
