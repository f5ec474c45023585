package research

import (
	"strings"

	"github.com/rankscout/rankscout/internal/ai"
)

// affirmations is the fixed vocabulary of short confirmation phrases.
var affirmations = map[string]struct{}{
	"yes":            {},
	"y":              {},
	"yeah":           {},
	"yep":            {},
	"ok":             {},
	"okay":           {},
	"sure":           {},
	"go":             {},
	"go ahead":       {},
	"proceed":        {},
	"please proceed": {},
	"continue":       {},
	"do it":          {},
	"sounds good":    {},
	"looks good":     {},
	"confirm":        {},
	"that works":     {},
}

func isAffirmation(message string) bool {
	norm := strings.ToLower(strings.TrimSpace(message))
	norm = strings.TrimRight(norm, ".!? ")
	if norm == "" {
		return false
	}
	if len(strings.Fields(norm)) > 4 {
		return false
	}
	_, ok := affirmations[norm]
	return ok
}

// InferCategory picks the market category a turn is about. Confirmation
// phrases ("yes", "sounds good", ...) carry no category, so the most recent
// user message that is not itself a confirmation is used instead.
func InferCategory(message string, history []ai.Message) string {
	if !isAffirmation(message) {
		return strings.TrimSpace(message)
	}
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Role != "user" || isAffirmation(m.Content) {
			continue
		}
		return strings.TrimSpace(m.Content)
	}
	return strings.TrimSpace(message)
}
