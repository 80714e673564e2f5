// Package prompt assembles the system prompts for the diagnostic
// conversation and the structured insight extraction. Builders are pure
// string assembly; retrieval and model calls live elsewhere.
package prompt

import (
	"fmt"
	"strings"

	"org-diagnostics-be/internal/constant"
)

func stageName(stage string) string {
	if name, ok := constant.StageLabels[stage]; ok {
		return name
	}
	return stage
}

// BuildConversationPrompt creates the system prompt for one streaming
// consultation turn. The retrieved context is injected verbatim, including
// the no-results sentinel when retrieval came back empty.
func BuildConversationPrompt(stage, ragContext string) string {
	name := stageName(stage)

	var b strings.Builder

	fmt.Fprintf(&b, "You are a senior organizational management consultant specializing in %s.\n\n", name)
	b.WriteString("Your task is to provide precise, practical consulting advice grounded in the professional knowledge base below.\n\n")

	b.WriteString("## Reference Material (from knowledge base)\n\n")
	b.WriteString(ragContext)
	b.WriteString("\n\n")

	b.WriteString("## Current Diagnostic Progress\n\n")
	fmt.Fprintf(&b, "Currently assessing: the %s dimension\n\n", name)

	b.WriteString("## Conversation Principles\n\n")
	fmt.Fprintf(&b, "1. **Professional depth**: demonstrate deep understanding of %s\n", name)
	b.WriteString("2. **Practical orientation**: give concrete, actionable recommendations\n")
	b.WriteString("3. **Evidence based**: cite best practices from the reference material\n")
	b.WriteString("4. **Interactive guidance**: ask questions to understand the user's situation\n")
	b.WriteString("5. **Structured output**: use bullet points and lists for clarity\n\n")

	b.WriteString("## Answer Format\n\n")
	b.WriteString("- Opening: respond directly to the user's question\n")
	b.WriteString("- Body: provide 2-4 key points\n")
	b.WriteString("- Closing: ask a follow-up question to deepen the conversation\n\n")

	b.WriteString("## Notes\n\n")
	b.WriteString("- If the reference material is insufficient, supplement with general management knowledge\n")
	b.WriteString("- Avoid being overly theoretical; use concrete examples\n")

	return b.String()
}

// BuildExtractionPrompt creates the system prompt that turns a stage's
// transcript into a single strict-JSON insight object.
func BuildExtractionPrompt(stage string) string {
	name := stageName(stage)

	var b strings.Builder

	b.WriteString("You are an organizational management data analyst. Your task is to extract structured data from a conversation.\n\n")

	fmt.Fprintf(&b, "## Current Analysis Dimension: %s\n\n", name)

	b.WriteString("## Task\n\n")
	fmt.Fprintf(&b, "Analyze the conversation transcript and extract structured insights about \"%s\".\n\n", name)

	b.WriteString("## Output Format (strict JSON)\n\n")
	b.WriteString("Output exactly the following JSON shape, with no other text:\n\n")
	b.WriteString("```json\n")
	b.WriteString("{\n")
	b.WriteString("  \"score\": <number 0-100>,\n")
	b.WriteString("  \"tags\": [\"tag1\", \"tag2\", \"tag3\"],\n")
	b.WriteString("  \"key_issues\": [\"issue1\", \"issue2\"],\n")
	b.WriteString("  \"summary\": \"<short summary>\",\n")
	b.WriteString("  \"recommendations\": [\"recommendation1\", \"recommendation2\"]\n")
	b.WriteString("}\n")
	b.WriteString("```\n\n")

	b.WriteString("## Scoring Bands\n\n")
	b.WriteString("- **score (0-100)**:\n")
	b.WriteString("  - 90-100: excellent (industry leading)\n")
	b.WriteString("  - 70-89: good (above average)\n")
	b.WriteString("  - 50-69: fair (meets basic standards)\n")
	b.WriteString("  - 30-49: poor (clear problems)\n")
	b.WriteString("  - 0-29: severe (urgent improvement needed)\n\n")
	b.WriteString("- **tags**: 3-5 keywords or labels\n")
	b.WriteString("- **key_issues**: 2-4 key problems\n")
	b.WriteString("- **summary**: one sentence describing the current state\n")
	b.WriteString("- **recommendations**: 2-3 improvement suggestions\n\n")

	b.WriteString("## Rules\n\n")
	b.WriteString("1. Output strict JSON only, no explanatory text\n")
	b.WriteString("2. If the conversation lacks information, give a conservative estimate\n")
	b.WriteString("3. Scores must be justified by the conversation content\n")
	b.WriteString("4. Tags and issues must be specific, not generic\n")

	return b.String()
}
