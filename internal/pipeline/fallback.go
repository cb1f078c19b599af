package pipeline

import "github.com/tactful-app/tactful-backend/internal/plan"

// Static safe text substituted when both the primary and repair calls fail
// validation. These must never be empty — the postprocessor pads them to the
// field minimum, but the contract that every delivered field is a non-empty
// string starts here.

const fallbackMessage = "I wanted to follow up on the situation between us. " +
	"I'd like to talk it through directly so we're both clear on where things stand " +
	"and can agree on how to handle it going forward. Let me know a time that works for you."

const fallbackEmail = "Hello,\n\n" +
	"I'm writing to follow up on our recent interaction. I would like to set up a time " +
	"to discuss it directly, so that we are both clear on the facts and can agree on how " +
	"to proceed from here. Please let me know when you are available.\n\n" +
	"Thank you."

const fallbackAnalysis = "The situation carries some risk and is worth handling deliberately rather than reactively.\n" +
	"Keep your communication factual and specific, and avoid speculation about motives.\n" +
	"A reasonable next step is to state your position once, clearly, and give the other party room to respond."

const fallbackNotes = "Automatic analysis was unavailable for this request; the guidance above is general-purpose."

// fallbackFields returns the static text for every field a stage delivers.
func fallbackFields(stage plan.Stage) map[string]string {
	switch stage {
	case plan.StageMessage:
		return map[string]string{plan.FieldMessage: fallbackMessage}
	case plan.StageEmail:
		return map[string]string{plan.FieldEmail: fallbackEmail}
	case plan.StageAnalysis:
		return map[string]string{
			plan.FieldAnalysis: fallbackAnalysis,
			plan.FieldNotes:    fallbackNotes,
		}
	default:
		return nil
	}
}
