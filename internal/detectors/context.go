package detectors

import "strings"

// Keywords is a lower-cased list of words whose presence near a value raises
// suspicion.
type Keywords []string

// DefaultKeywords returns the built-in keyword list.
func DefaultKeywords() Keywords {
	return Keywords{
		"secret", "password", "passwd", "pwd", "token",
		"apikey", "api_key", "auth", "private", "jwt", "rsa", "ssh",
	}
}

// NewKeywords normalises words to lower case and drops blanks.
func NewKeywords(words ...string) Keywords {
	out := make(Keywords, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Score counts how many keywords occur in the line or the value. The count is
// not capped.
func (k Keywords) Score(line, value string) int {
	hay := strings.ToLower(line + " " + value)
	n := 0
	for _, w := range k {
		if strings.Contains(hay, w) {
			n++
		}
	}
	return n
}
