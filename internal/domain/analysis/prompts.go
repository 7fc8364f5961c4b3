package analysis

const (
	TypeSentiment       = "sentiment"
	TypeSummary         = "summary"
	TypeFeedbackQuality = "feedback_quality"
	TypeGoalSMART       = "goal_smart"
)

var Types = []string{TypeSentiment, TypeSummary, TypeFeedbackQuality, TypeGoalSMART}

type prompt struct {
	system string
	// structured prompts ask the gateway for a JSON object.
	structured bool
}

var prompts = map[string]prompt{
	TypeSentiment: {
		system: `You analyse workplace text written in Spanish or English. Reply with a JSON object:
{"sentiment": "positive"|"neutral"|"negative", "score": number between -1 and 1, "highlights": [short phrases]}.`,
		structured: true,
	},
	TypeSummary: {
		system: `You summarise HR documents for busy managers. Reply with at most five concise bullet points
in the language of the input. Do not add facts that are not in the text.`,
	},
	TypeFeedbackQuality: {
		system: `You review performance feedback for usefulness. Reply with a JSON object:
{"score": integer 1-5, "specific": bool, "actionable": bool, "balanced": bool, "suggestions": [strings]}.
Flag personal remarks that are not about work as a suggestion.`,
		structured: true,
	},
	TypeGoalSMART: {
		system: `You check whether a goal is SMART. Reply with a JSON object:
{"specific": bool, "measurable": bool, "achievable": bool, "relevant": bool, "timeBound": bool,
"score": integer 0-5, "rewrite": string}.`,
		structured: true,
	},
}
