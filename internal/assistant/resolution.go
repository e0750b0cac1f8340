package assistant

import "strings"

// resolutionPhrases are scanned as case-insensitive substrings of the
// raw model output. The set is deliberately literal: a match only means
// the model sounded like it finished, so the bot offers closure, it
// never closes on its own.
var resolutionPhrases = []string{
	"проблема решена",
	"надеюсь, это помогло",
	"вопрос закрыт",
}

// SignalsResolution reports whether the reply text suggests the appeal
// may be resolved.
func SignalsResolution(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range resolutionPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
