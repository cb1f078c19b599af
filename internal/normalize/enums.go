package normalize

import "strings"

// ─── CLOSED ENUM SETS ─────────────────────────────────────────────────────────
// Every enum field is checked against one of these allow-lists after case
// normalisation. Unrecognised tokens fail closed — they are never silently
// defaulted, since silent coercion would let malformed input reach the
// generator.

// Relationship is the broad category of the counterpart in the situation.
type Relationship string

const (
	RelationshipProfessional  Relationship = "professional"
	RelationshipPersonal      Relationship = "personal"
	RelationshipFamily        Relationship = "family"
	RelationshipRomantic      Relationship = "romantic"
	RelationshipTransactional Relationship = "transactional"
)

// Intent is what the user wants the communication to achieve.
type Intent string

const (
	IntentSetBoundary   Intent = "set_boundary"
	IntentClarify       Intent = "clarify"
	IntentRequestChange Intent = "request_change"
	IntentApologize     Intent = "apologize"
	IntentDeescalate    Intent = "deescalate"
	IntentFollowUp      Intent = "follow_up"
)

// Tone is the writing tone the user asked for. The decision engine may
// override it; the requested value is still carried for prompt wording.
type Tone string

const (
	ToneCalm    Tone = "calm"
	ToneNeutral Tone = "neutral"
	ToneFirm    Tone = "firm"
	ToneWarm    Tone = "warm"
	ToneFormal  Tone = "formal"
)

// Format selects the recipient-facing deliverable shape.
type Format string

const (
	FormatMessage Format = "message"
	FormatEmail   Format = "email"
)

// Impact is the user's own read of how bad the fallout could be.
type Impact string

const (
	ImpactLow  Impact = "low"
	ImpactHigh Impact = "high"
)

// Continuity is how long the relationship is expected to continue.
type Continuity string

const (
	ContinuityLow  Continuity = "low"
	ContinuityMid  Continuity = "mid"
	ContinuityHigh Continuity = "high"
)

// Concern is a pre-defined worry the user can flag (at most two).
type Concern string

const (
	ConcernRepeat        Concern = "repeat"
	ConcernEmotional     Concern = "emotional"
	ConcernReputation    Concern = "reputation"
	ConcernDocumentation Concern = "documentation"
	ConcernLeverage      Concern = "leverage"
)

// Package is the caller's deliverable selection. "bundle" is accepted on the
// wire as a legacy alias of "total" and canonicalised during normalisation.
type Package string

const (
	PackageMessage         Package = "message"
	PackageEmail           Package = "email"
	PackageAnalysisMessage Package = "analysis_message"
	PackageAnalysisEmail   Package = "analysis_email"
	PackageTotal           Package = "total"
)

// ─── ALLOW-LISTS ──────────────────────────────────────────────────────────────

var relationships = map[string]Relationship{
	"professional":  RelationshipProfessional,
	"personal":      RelationshipPersonal,
	"family":        RelationshipFamily,
	"romantic":      RelationshipRomantic,
	"transactional": RelationshipTransactional,
}

var intents = map[string]Intent{
	"set_boundary":   IntentSetBoundary,
	"clarify":        IntentClarify,
	"request_change": IntentRequestChange,
	"apologize":      IntentApologize,
	"deescalate":     IntentDeescalate,
	"follow_up":      IntentFollowUp,
}

var tones = map[string]Tone{
	"calm":    ToneCalm,
	"neutral": ToneNeutral,
	"firm":    ToneFirm,
	"warm":    ToneWarm,
	"formal":  ToneFormal,
}

var formats = map[string]Format{
	"message": FormatMessage,
	"email":   FormatEmail,
}

var impacts = map[string]Impact{
	"low":  ImpactLow,
	"high": ImpactHigh,
}

var continuities = map[string]Continuity{
	"low":  ContinuityLow,
	"mid":  ContinuityMid,
	"high": ContinuityHigh,
}

var concerns = map[string]Concern{
	"repeat":        ConcernRepeat,
	"emotional":     ConcernEmotional,
	"reputation":    ConcernReputation,
	"documentation": ConcernDocumentation,
	"leverage":      ConcernLeverage,
}

var packages = map[string]Package{
	"message":          PackageMessage,
	"email":            PackageEmail,
	"analysis_message": PackageAnalysisMessage,
	"analysis_email":   PackageAnalysisEmail,
	"total":            PackageTotal,
	"bundle":           PackageTotal, // legacy alias
}

// canonToken lower-cases and trims an enum token before allow-list lookup.
func canonToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
