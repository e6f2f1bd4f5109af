package llm

import "strings"

// BuildQAPrompt creates the grounded-generation prompt for one batch of
// block texts from a single page context.
func BuildQAPrompt(blockTexts []string, sourceURL, pageType string) string {
	var prompt strings.Builder

	prompt.WriteString("You are generating high-quality training data.\n\n")
	prompt.WriteString("SOURCE URL: ")
	prompt.WriteString(sourceURL)
	prompt.WriteString("\nPAGE TYPE: ")
	prompt.WriteString(pageType)
	prompt.WriteString("\n\nCONTENT:\n\"\"\"\n")
	prompt.WriteString(strings.Join(blockTexts, "\n\n"))
	prompt.WriteString("\n\"\"\"\n\n")
	prompt.WriteString(`TASK:
- Generate question-answer pairs ONLY if the content explicitly supports them.
- Do NOT infer, guess, or add outside knowledge.
- If no valid questions can be formed, return an empty JSON array [].
- Answers must be fully grounded in the text.
- Return STRICT JSON only.

FORMAT:
[
  {"question": "...", "answer": "..."}
]
`)

	return prompt.String()
}
