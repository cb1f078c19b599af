// Package normalize maps the heterogeneous payload shapes the frontend has
// shipped over time (flat strings, {value: ...} wrappers, nested paths) into
// one CanonicalInput. Resolution is driven by an explicit prioritized-alias
// table per field rather than ad hoc fallback chains, so adding a new alias
// is a one-line change in one place.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ─── CANONICAL INPUT ──────────────────────────────────────────────────────────

// RiskScan is the user's own two-axis read of the situation.
type RiskScan struct {
	Impact     Impact
	Continuity Continuity
}

// CanonicalInput is the single normalized representation of a situation.
// It is immutable once built: the normalizer returns it by value and nothing
// downstream writes to it.
type CanonicalInput struct {
	Relationship  Relationship
	Intent        Intent
	ToneRequested Tone
	Format        Format
	RiskScan      RiskScan
	Facts         string
	MainConcerns  []Concern // at most 2, deduplicated, input order
	Constraints   []string
	Package       Package
}

// ─── ERRORS ───────────────────────────────────────────────────────────────────

// MissingFieldError reports a required field absent from every probed path.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// InvalidEnumError reports a token outside a field's closed allow-list.
type InvalidEnumError struct {
	Field string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q", e.Value, e.Field)
}

// FactsTooShortError reports a facts string below the configured minimum.
type FactsTooShortError struct {
	Min int
	Got int
}

func (e *FactsTooShortError) Error() string {
	return fmt.Sprintf("facts must be at least %d characters, got %d", e.Min, e.Got)
}

// ─── ALIAS TABLE ──────────────────────────────────────────────────────────────
// Per field: explicit canonical path first, then the legacy nested path, then
// the top-level alias. First non-empty match wins.

var fieldPaths = map[string][]string{
	"relationship":        {"relationship", "context.relationship", "relationship_type"},
	"intent":              {"intent", "context.intent", "goal"},
	"tone_requested":      {"tone_requested", "style.tone", "tone"},
	"format":              {"format", "output.format", "channel"},
	"risk_scan.impact":    {"risk_scan.impact", "risk.impact", "impact"},
	"risk_scan.continuity": {"risk_scan.continuity", "risk.continuity", "continuity"},
	"facts":               {"facts", "situation.facts", "description"},
	"main_concerns":       {"main_concerns", "risk.concerns", "concerns"},
	"constraints":         {"constraints", "style.constraints"},
	"package":             {"package", "purchase.package", "plan"},
}

// ─── NORMALIZER ───────────────────────────────────────────────────────────────

// Normalizer converts raw request payloads into CanonicalInput.
type Normalizer struct {
	// MinFacts is the minimum length (in runes, after trimming) of the facts
	// field. Requests below it are rejected before any downstream work.
	MinFacts int
}

// New returns a Normalizer with the given facts minimum.
func New(minFacts int) *Normalizer {
	return &Normalizer{MinFacts: minFacts}
}

// Normalize parses the raw JSON payload and resolves every canonical field
// through the alias table. It fails with MissingFieldError, InvalidEnumError,
// or FactsTooShortError; it never partially succeeds.
func (n *Normalizer) Normalize(payload []byte) (CanonicalInput, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return CanonicalInput{}, fmt.Errorf("normalize: parse payload: %w", err)
	}

	var in CanonicalInput
	var err error

	if in.Relationship, err = resolveEnum(doc, "relationship", relationships); err != nil {
		return CanonicalInput{}, err
	}
	if in.Intent, err = resolveEnum(doc, "intent", intents); err != nil {
		return CanonicalInput{}, err
	}
	if in.ToneRequested, err = resolveEnum(doc, "tone_requested", tones); err != nil {
		return CanonicalInput{}, err
	}
	if in.Format, err = resolveEnum(doc, "format", formats); err != nil {
		return CanonicalInput{}, err
	}
	if in.RiskScan.Impact, err = resolveEnum(doc, "risk_scan.impact", impacts); err != nil {
		return CanonicalInput{}, err
	}
	if in.RiskScan.Continuity, err = resolveEnum(doc, "risk_scan.continuity", continuities); err != nil {
		return CanonicalInput{}, err
	}
	if in.Package, err = resolveEnum(doc, "package", packages); err != nil {
		return CanonicalInput{}, err
	}

	facts, ok := resolveString(doc, "facts")
	if !ok {
		return CanonicalInput{}, &MissingFieldError{Field: "facts"}
	}
	facts = strings.TrimSpace(facts)
	if got := len([]rune(facts)); got < n.MinFacts {
		return CanonicalInput{}, &FactsTooShortError{Min: n.MinFacts, Got: got}
	}
	in.Facts = facts

	if in.MainConcerns, err = resolveConcerns(doc); err != nil {
		return CanonicalInput{}, err
	}
	in.Constraints = resolveStringList(doc, "constraints")

	return in, nil
}

// ─── FIELD RESOLUTION ─────────────────────────────────────────────────────────

// resolveEnum resolves one field through its alias paths and validates the
// token against the field's allow-list.
func resolveEnum[T ~string](doc map[string]any, field string, allowed map[string]T) (T, error) {
	raw, ok := resolveString(doc, field)
	if !ok || strings.TrimSpace(raw) == "" {
		var zero T
		return zero, &MissingFieldError{Field: field}
	}
	v, ok := allowed[canonToken(raw)]
	if !ok {
		var zero T
		return zero, &InvalidEnumError{Field: field, Value: raw}
	}
	return v, nil
}

// resolveConcerns resolves the main_concerns list. Each token must be in the
// concerns allow-list; duplicates are dropped and at most two survive, in
// input order. An absent list is valid (no concerns flagged).
func resolveConcerns(doc map[string]any) ([]Concern, error) {
	raw := resolveStringList(doc, "main_concerns")
	if len(raw) == 0 {
		return nil, nil
	}

	seen := make(map[Concern]bool, len(raw))
	out := make([]Concern, 0, 2)
	for _, tok := range raw {
		c, ok := concerns[canonToken(tok)]
		if !ok {
			return nil, &InvalidEnumError{Field: "main_concerns", Value: tok}
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		if len(out) < 2 {
			out = append(out, c)
		}
	}
	return out, nil
}

// resolveString probes the field's alias paths and returns the first
// non-empty string value, unwrapping {value: ...} wrappers along the way.
func resolveString(doc map[string]any, field string) (string, bool) {
	for _, path := range fieldPaths[field] {
		v, ok := lookupPath(doc, path)
		if !ok {
			continue
		}
		if s, ok := asString(v); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// resolveStringList probes the field's alias paths for an array of strings.
// Entries that are {value: ...} wrappers are unwrapped; non-string entries
// are skipped here and caught by enum validation where it matters.
func resolveStringList(doc map[string]any, field string) []string {
	for _, path := range fieldPaths[field] {
		v, ok := lookupPath(doc, path)
		if !ok {
			continue
		}
		arr, ok := v.([]any)
		if !ok {
			// A single string where a list is expected — historical payloads
			// sent main_concerns as one scalar.
			if s, ok := asString(v); ok && s != "" {
				return []string{s}
			}
			continue
		}
		out := make([]string, 0, len(arr))
		for _, el := range arr {
			if s, ok := asString(el); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// lookupPath walks a dotted path through nested maps.
func lookupPath(doc map[string]any, path string) (any, bool) {
	cur := any(doc)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// asString extracts a string from either a bare value or a {value: ...}
// wrapper object.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]any:
		if inner, ok := t["value"]; ok {
			s, ok := inner.(string)
			return s, ok
		}
	}
	return "", false
}
