package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashishjangde/gen-ai-bot/internal/tools"
	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
)

func TestBuildContextEmpty(t *testing.T) {
	assert.Empty(t, BuildContext(nil, nil))
	assert.Empty(t, BuildContext(tools.PartialResult{}, nil))
}

func TestBuildContextSectionOrder(t *testing.T) {
	results := tools.PartialResult{
		"memory":          {{Content: "likes tea"}},
		"finance":         {{Content: "Live Data for TCS"}},
		"web":             {{Title: "News", Source: "https://n.example", Content: "headline"}},
		"rag":             {{Title: "report.pdf", Content: "chunk"}},
		"history_matches": {{Content: "[USER] earlier message"}},
	}
	history := []memory.Entry{{Role: "user", Content: "hi"}}

	ctx := BuildContext(results, history)
	sections := strings.Split(ctx, sectionSeparator)
	require.Len(t, sections, 5)

	assert.True(t, strings.HasPrefix(sections[0], "CONVERSATION HISTORY:\nUSER: hi"))
	assert.True(t, strings.HasPrefix(sections[1], "WEB SEARCH RESULTS:\n[News] (https://n.example)\nheadline"))
	assert.True(t, strings.HasPrefix(sections[2], "DOCUMENT SEARCH RESULTS:\n[report.pdf]\nchunk"))
	assert.True(t, strings.HasPrefix(sections[3], "FINANCIAL DATA:\nLive Data for TCS"))
	assert.True(t, strings.HasPrefix(sections[4], "MEMORY & HISTORY:\nFacts/Preferences:\n- likes tea"))
	assert.Contains(t, sections[4], "Related Past Conversation:\n[USER] earlier message")
}

func TestBuildContextHistoryWindow(t *testing.T) {
	history := make([]memory.Entry, 8)
	for i := range history {
		history[i] = memory.Entry{Role: "user", Content: string(rune('a' + i))}
	}

	ctx := BuildContext(nil, history)
	assert.NotContains(t, ctx, "USER: c")
	assert.Contains(t, ctx, "USER: d")
	assert.Contains(t, ctx, "USER: h")
}

func TestBuildContextSkipsEmptyCategories(t *testing.T) {
	results := tools.PartialResult{
		"web": {{Title: "Only", Source: "https://o.example", Content: "result"}},
	}
	ctx := BuildContext(results, nil)
	assert.NotContains(t, ctx, "DOCUMENT SEARCH RESULTS")
	assert.NotContains(t, ctx, "FINANCIAL DATA")
	assert.NotContains(t, ctx, "MEMORY & HISTORY")
	assert.NotContains(t, ctx, sectionSeparator)
}
