// Package decision implements the deterministic risk classification engine.
// Decide is a pure function of CanonicalInput: same input, bit-identical
// output, no I/O, no error paths — every branch has a total default.
package decision

import (
	"github.com/tactful-app/tactful-backend/internal/normalize"
)

// ─── POLICY CONSTANTS ─────────────────────────────────────────────────────────
// The weights and band boundaries are product policy, not derived values.
// Treat them as configuration constants to revisit with product, never as
// algorithmically necessary numbers.

const (
	weightShortTerm = 1 // continuity mid
	weightOngoing   = 2 // continuity high
	weightRepeat    = 1

	weightEmotionalFallout         = 1
	weightReputationImpact         = 2
	weightDocumentationSensitivity = 2
	weightLeverage                 = 3

	// Band boundaries, inclusive on the lower edge: score 3 is moderate,
	// score 6 is high.
	moderateFloor = 3
	highFloor     = 6
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// RiskLevel is the three-band classification of a situation.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// ContinuityBucket maps the raw low/mid/high continuity axis onto the
// relationship-duration vocabulary the prompts use.
type ContinuityBucket string

const (
	BucketOneTime   ContinuityBucket = "one_time"
	BucketShortTerm ContinuityBucket = "short_term"
	BucketOngoing   ContinuityBucket = "ongoing"
)

// Direction is the engine's suggestion for where the relationship should go.
// It is always computed; callers decide whether to display it.
type Direction string

const (
	DirectionMaintain  Direction = "maintain"
	DirectionReset     Direction = "reset"
	DirectionDisengage Direction = "disengage"
)

// ToneRecommendation is the writing tone the engine settles on, which may
// override what the user requested.
type ToneRecommendation string

const (
	ToneFormal  ToneRecommendation = "formal"
	ToneNeutral ToneRecommendation = "neutral"
	ToneCalm    ToneRecommendation = "calm"
)

// DetailRecommendation is how much ground the drafts should cover.
type DetailRecommendation string

const (
	DetailDetailed DetailRecommendation = "detailed"
	DetailStandard DetailRecommendation = "standard"
	DetailConcise  DetailRecommendation = "concise"
)

// ControlFlags are the intermediate booleans the score is built from. Every
// flag is a pure function of CanonicalInput only — never of generated text.
type ControlFlags struct {
	ContinuityBucket         ContinuityBucket
	Repeat                   bool
	Leverage                 bool
	DocumentationSensitivity bool
	ReputationImpact         bool
	EmotionalFallout         bool
	Ongoing                  bool
}

// Constraints are the generation-time guardrails derived from the decision.
type Constraints struct {
	ToneSoftenIfHighRisk     bool `json:"tone_soften_if_high_risk"`
	RecordSafeMode           bool `json:"record_safe_mode"`
	ForbiddenPatternsEnabled bool `json:"forbidden_patterns_enabled"`
}

// EngineDecision is the full classification output.
type EngineDecision struct {
	RiskScore            int
	RiskLevel            RiskLevel
	RecordSafeLevel      int // 0, 1, or 2; 2 forces formal tone
	ToneRecommendation   ToneRecommendation
	DetailRecommendation DetailRecommendation
	InsightCandorLevel   RiskLevel
	DirectionSuggestion  Direction
	Constraints          Constraints
	Flags                ControlFlags
}

// ─── FLAG DERIVATION ──────────────────────────────────────────────────────────

// DeriveFlags computes the control flags from canonical input via one fixed
// mapping table over main_concerns, risk_scan.impact, and the relationship
// category.
func DeriveFlags(in normalize.CanonicalInput) ControlFlags {
	highImpact := in.RiskScan.Impact == normalize.ImpactHigh
	closeRelationship := in.Relationship == normalize.RelationshipPersonal ||
		in.Relationship == normalize.RelationshipFamily ||
		in.Relationship == normalize.RelationshipRomantic
	formalRelationship := in.Relationship == normalize.RelationshipProfessional ||
		in.Relationship == normalize.RelationshipTransactional

	f := ControlFlags{
		ContinuityBucket:         bucketFor(in.RiskScan.Continuity),
		Repeat:                   hasConcern(in, normalize.ConcernRepeat),
		Leverage:                 hasConcern(in, normalize.ConcernLeverage),
		EmotionalFallout:         highImpact || closeRelationship || hasConcern(in, normalize.ConcernEmotional),
		ReputationImpact:         highImpact || hasConcern(in, normalize.ConcernReputation),
		DocumentationSensitivity: hasConcern(in, normalize.ConcernDocumentation) || (formalRelationship && highImpact),
	}
	f.Ongoing = f.ContinuityBucket == BucketOngoing
	return f
}

func bucketFor(c normalize.Continuity) ContinuityBucket {
	switch c {
	case normalize.ContinuityHigh:
		return BucketOngoing
	case normalize.ContinuityMid:
		return BucketShortTerm
	default:
		return BucketOneTime
	}
}

func hasConcern(in normalize.CanonicalInput, c normalize.Concern) bool {
	for _, mc := range in.MainConcerns {
		if mc == c {
			return true
		}
	}
	return false
}

// ─── DECIDE ───────────────────────────────────────────────────────────────────

// Decide classifies the situation. Increasing the continuity bucket with all
// else fixed never decreases RiskScore, and RecordSafeLevel==2 always implies
// a formal tone recommendation.
func Decide(in normalize.CanonicalInput) EngineDecision {
	flags := DeriveFlags(in)

	score := continuityWeight(flags.ContinuityBucket)
	if flags.Repeat {
		score += weightRepeat
	}
	if flags.EmotionalFallout {
		score += weightEmotionalFallout
	}
	if flags.ReputationImpact {
		score += weightReputationImpact
	}
	if flags.DocumentationSensitivity {
		score += weightDocumentationSensitivity
	}
	if flags.Leverage {
		score += weightLeverage
	}

	level := levelFor(score)

	recordSafe := 0
	switch {
	case flags.DocumentationSensitivity:
		recordSafe = 2
	case flags.ReputationImpact:
		recordSafe = 1
	}

	var tone ToneRecommendation
	switch {
	case recordSafe == 2:
		tone = ToneFormal
	case level == RiskHigh || level == RiskModerate:
		tone = ToneNeutral
	default:
		tone = ToneCalm
	}

	var detail DetailRecommendation
	switch {
	case recordSafe == 2:
		detail = DetailDetailed
	case level == RiskHigh || level == RiskModerate || flags.Ongoing:
		detail = DetailStandard
	default:
		detail = DetailConcise
	}

	var direction Direction
	switch {
	case level == RiskLow && flags.ContinuityBucket == BucketOneTime && !flags.Repeat:
		direction = DirectionMaintain
	case recordSafe == 2 && flags.Leverage && flags.Ongoing && flags.Repeat:
		direction = DirectionDisengage
	default:
		direction = DirectionReset
	}

	return EngineDecision{
		RiskScore:            score,
		RiskLevel:            level,
		RecordSafeLevel:      recordSafe,
		ToneRecommendation:   tone,
		DetailRecommendation: detail,
		InsightCandorLevel:   level,
		DirectionSuggestion:  direction,
		Constraints: Constraints{
			ToneSoftenIfHighRisk:     level == RiskHigh,
			RecordSafeMode:           recordSafe > 0,
			ForbiddenPatternsEnabled: recordSafe > 0 || level != RiskLow,
		},
		Flags: flags,
	}
}

func continuityWeight(b ContinuityBucket) int {
	switch b {
	case BucketOngoing:
		return weightOngoing
	case BucketShortTerm:
		return weightShortTerm
	default:
		return 0
	}
}

func levelFor(score int) RiskLevel {
	switch {
	case score >= highFloor:
		return RiskHigh
	case score >= moderateFloor:
		return RiskModerate
	default:
		return RiskLow
	}
}
