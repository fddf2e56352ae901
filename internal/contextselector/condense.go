package contextselector

import (
	"fmt"
	"strings"
)

const maxSolutions = 3

// Condense shortens a Select block for prompts that only need past solutions and a few
// customer/agent exchanges. The block is split on "---"; the text following a marker
// section is read as that marker's body.
//
// Output:
//
//	Historical Solutions:
//	1. For <issue>: <solution>
//
//	Relevant Conversation:
//	Customer: ...
//	Agent: ...
func Condense(blob string) string {
	if strings.TrimSpace(blob) == "" {
		return noContextMessage
	}

	sections := strings.Split(blob, "---")
	var solutions []string
	var exchanges strings.Builder

	for i, section := range sections {
		body := section
		if i+1 < len(sections) && !hasMarker(sections[i+1]) {
			body += sections[i+1]
		}
		switch {
		case strings.Contains(section, HistoricalMarker):
			solutions = append(solutions, extractSolutions(body)...)
		case strings.Contains(section, ConversationMarker):
			extractExchanges(body, &exchanges)
		}
	}

	var b strings.Builder
	b.WriteString("Historical Solutions:\n")
	for i, s := range firstN(solutions, maxSolutions) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	if exchanges.Len() > 0 {
		b.WriteString("\nRelevant Conversation:\n")
		b.WriteString(exchanges.String())
	}
	return b.String()
}

func extractSolutions(body string) []string {
	var out []string
	var issue, solution string
	var haveIssue, haveSolution bool

	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		switch {
		case strings.HasPrefix(line, "Issue:"):
			issue, haveIssue = strings.TrimSpace(strings.TrimPrefix(line, "Issue:")), true
		case strings.HasPrefix(line, "Solution:"):
			solution, haveSolution = strings.TrimSpace(strings.TrimPrefix(line, "Solution:")), true
		}
		if haveIssue && haveSolution {
			out = append(out, fmt.Sprintf("For %s: %s", issue, solution))
			haveIssue, haveSolution = false, false
		}
	}
	return out
}

// extractExchanges keeps agent lines that directly follow a customer line.
func extractExchanges(body string, b *strings.Builder) {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	for i, line := range lines {
		if strings.Contains(line, "Customer:") {
			continue
		}
		if strings.Contains(line, "Agent:") && i > 0 && strings.Contains(lines[i-1], "Customer:") {
			b.WriteString(lines[i-1] + "\n" + line + "\n")
		}
	}
}

func hasMarker(section string) bool {
	return strings.Contains(section, HistoricalMarker) || strings.Contains(section, ConversationMarker)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
