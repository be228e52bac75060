package screenllm

import "strings"

// classificationPrompt builds the system prompt for screen classification.
// The model must answer with a JSON object naming one of the provided
// categories verbatim.
func classificationPrompt(categories []string) string {
	var builder strings.Builder
	builder.WriteString("You are an activity classifier for a focus-tracking tool. ")
	builder.WriteString("You receive a capture of the user's screen and must decide what kind of activity it shows. ")
	builder.WriteString("Choose exactly one category from this list, copying it verbatim:\n")
	for _, category := range categories {
		builder.WriteString("- ")
		builder.WriteString(category)
		builder.WriteString("\n")
	}
	builder.WriteString("\nRespond with JSON only, shaped as ")
	builder.WriteString(`{"type": "<category>", "reasoning": "<one short sentence>"}. `)
	builder.WriteString("The reasoning must describe what is visible on screen, not restate the category.")
	return builder.String()
}

const summaryPrompt = `You are summarizing a completed focus session for the person who just finished it.
You receive the session's activity log as a JSON array of entries with a category, reasoning, and duration in seconds.
Write 2-4 sentences in second person describing how the session went: what the person mostly worked on, notable distractions or time away, and anything worth celebrating.
Plain text only, no lists or headings.`
