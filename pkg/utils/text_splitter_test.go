package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short", 100, 10)
	assert.Equal(t, []string{"short"}, chunks)
}

func TestSplitTextChunksWithOverlap(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := SplitText(text, 100, 20)

	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	// Consecutive chunks share the overlap region.
	assert.Equal(t, chunks[0][80:], chunks[1][:20])
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("xyz ", 600)
	chunks := SplitText(text, DefaultChunkSize, DefaultChunkOverlap)

	var rebuilt strings.Builder
	step := DefaultChunkSize - DefaultChunkOverlap
	for i, chunk := range chunks {
		if i == len(chunks)-1 {
			rebuilt.WriteString(chunk)
			break
		}
		rebuilt.WriteString(chunk[:step])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitTextMultibyte(t *testing.T) {
	text := strings.Repeat("组织管理", 100)
	chunks := SplitText(text, 50, 10)

	for _, chunk := range chunks {
		assert.True(t, len([]rune(chunk)) <= 50)
	}
	assert.Equal(t, text[:3], chunks[0][:3])
}
