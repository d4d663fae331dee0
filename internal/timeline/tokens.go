package timeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tokenize splits sign grammar on whitespace and lower-cases each token so it
// matches clip file names. Order is preserved.
func Tokenize(grammar string) []string {
	fields := strings.Fields(grammar)
	if len(fields) == 0 {
		return nil
	}
	// Casers carry state and are not safe to share between goroutines.
	lower := cases.Lower(language.Und)
	tokens := make([]string, len(fields))
	for i, field := range fields {
		tokens[i] = lower.String(field)
	}
	return tokens
}
