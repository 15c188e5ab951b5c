package command

import (
	"strings"
)

// Command represents a parsed console command.
type Command struct {
	Name      string
	Args      []string
	Raw       string
	Remainder string
}

// Parse parses a console line. The leading "/" is optional. Blank lines
// report false.
func Parse(input string) (Command, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Command{}, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(trimmed, "/"))
	if raw == "" {
		return Command{Name: "", Raw: ""}, true
	}
	fields := strings.Fields(raw)
	name := strings.ToLower(fields[0])
	args := []string{}
	if len(fields) > 1 {
		args = fields[1:]
	}
	return Command{
		Name:      name,
		Args:      args,
		Raw:       raw,
		Remainder: remainderAfterTokens(raw, 1),
	}, true
}

func remainderAfterTokens(raw string, count int) string {
	i := 0
	remaining := count
	for remaining > 0 && i < len(raw) {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		for i < len(raw) && !isSpace(raw[i]) {
			i++
		}
		remaining--
	}
	if i >= len(raw) {
		return ""
	}
	return strings.TrimSpace(raw[i:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
