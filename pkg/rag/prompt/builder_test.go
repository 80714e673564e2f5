package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildConversationPromptInjectsContext(t *testing.T) {
	ragContext := "[Source 1] docs/structure/spans.md\nSpans of control beyond eight strain managers.\n[Similarity: 88.0%]"

	p := BuildConversationPrompt("structure", ragContext)

	assert.Contains(t, p, "Organizational Structure")
	assert.Contains(t, p, ragContext)
	assert.Contains(t, p, "2-4 key points")
	assert.Contains(t, p, "follow-up question")
}

func TestBuildConversationPromptUnknownStageFallsBack(t *testing.T) {
	p := BuildConversationPrompt("mystery", "ctx")
	assert.Contains(t, p, "mystery")
}

func TestBuildConversationPromptCarriesSentinel(t *testing.T) {
	sentinel := "No relevant information found in the knowledge base."
	p := BuildConversationPrompt("talent", sentinel)
	assert.Contains(t, p, sentinel)
}

func TestBuildExtractionPromptShape(t *testing.T) {
	p := BuildExtractionPrompt("compensation")

	assert.Contains(t, p, "Compensation & Incentives")
	assert.Contains(t, p, `"score"`)
	assert.Contains(t, p, `"key_issues"`)
	assert.Contains(t, p, "90-100")
	assert.Contains(t, p, "0-29")
	assert.Contains(t, p, "conservative estimate")
	assert.Contains(t, p, "strict JSON")
}

func TestBuildExtractionPromptPerStage(t *testing.T) {
	seen := map[string]bool{}
	for _, stage := range []string{"strategy", "structure", "performance", "compensation", "talent"} {
		p := BuildExtractionPrompt(stage)
		assert.False(t, seen[p], "prompt for %s duplicates another stage", stage)
		seen[p] = true
		assert.True(t, strings.Contains(p, stageName(stage)))
	}
}
