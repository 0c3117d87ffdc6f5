package command

import (
	"encoding/json"
	"strings"

	"nutriplan-llm-be/internal/constant"
)

// Command is a frontend command object embedded in model output.
type Command map[string]any

// Extract scans the response text for JSON objects by brace counting and
// keeps the ones whose "type" is in the accepted vocabulary. Matches are
// non-overlapping; an unmatched opening brace advances the scan by one
// character so a truncated object never swallows the rest of the text.
func Extract(response string) []Command {
	var commands []Command

	idx := 0
	for idx < len(response) {
		start := strings.IndexByte(response[idx:], '{')
		if start == -1 {
			break
		}
		start += idx

		openBraces := 0
		end := start
		found := false
		for i := start; i < len(response); i++ {
			switch response[i] {
			case '{':
				openBraces++
			case '}':
				openBraces--
			}
			if openBraces == 0 {
				end = i + 1
				found = true
				break
			}
		}

		if !found {
			idx = start + 1
			continue
		}

		var obj Command
		if err := json.Unmarshal([]byte(response[start:end]), &obj); err == nil {
			if cmdType, ok := obj["type"].(string); ok && constant.AcceptedCommandTypes[cmdType] {
				commands = append(commands, obj)
			}
		}
		idx = end
	}

	return commands
}
