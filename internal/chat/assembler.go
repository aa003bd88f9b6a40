package chat

import (
	"fmt"
	"strings"

	"github.com/ashishjangde/gen-ai-bot/internal/tools"
	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
)

// historyWindow bounds how many recent entries feed the context block.
const historyWindow = 5

const sectionSeparator = "\n\n---\n\n"

// BuildContext renders the tool results and recent history into the context
// block injected into the generation prompt. Section order is fixed so the
// model sees sources in a stable layout. Returns "" when there is nothing
// to inject.
func BuildContext(results tools.PartialResult, history []memory.Entry) string {
	var sections []string

	if len(history) > 0 {
		start := len(history) - historyWindow
		if start < 0 {
			start = 0
		}
		var lines []string
		for _, e := range history[start:] {
			lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(e.Role), e.Content))
		}
		sections = append(sections, "CONVERSATION HISTORY:\n"+strings.Join(lines, "\n"))
	}

	if web := results["web"]; len(web) > 0 {
		var parts []string
		for _, r := range web {
			parts = append(parts, fmt.Sprintf("[%s] (%s)\n%s", r.Title, r.Source, r.Content))
		}
		sections = append(sections, "WEB SEARCH RESULTS:\n"+strings.Join(parts, "\n\n"))
	}

	if rag := results["rag"]; len(rag) > 0 {
		var parts []string
		for _, r := range rag {
			parts = append(parts, fmt.Sprintf("[%s]\n%s", r.Title, r.Content))
		}
		sections = append(sections, "DOCUMENT SEARCH RESULTS:\n"+strings.Join(parts, "\n\n"))
	}

	if fin := results["finance"]; len(fin) > 0 {
		var parts []string
		for _, r := range fin {
			parts = append(parts, r.Content)
		}
		sections = append(sections, "FINANCIAL DATA:\n"+strings.Join(parts, "\n"))
	}

	var memText strings.Builder
	if mem := results["memory"]; len(mem) > 0 {
		memText.WriteString("Facts/Preferences:")
		for _, r := range mem {
			memText.WriteString("\n- " + r.Content)
		}
	}
	if matches := results["history_matches"]; len(matches) > 0 {
		if memText.Len() > 0 {
			memText.WriteString("\n\n")
		}
		memText.WriteString("Related Past Conversation:")
		for _, r := range matches {
			memText.WriteString("\n" + r.Content)
		}
	}
	if memText.Len() > 0 {
		sections = append(sections, "MEMORY & HISTORY:\n"+memText.String())
	}

	return strings.Join(sections, sectionSeparator)
}
