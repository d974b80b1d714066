package storage

import (
	"strings"
	"unicode"
)

var stopWords = map[string]bool{
	"a": true, "o": true, "e": true, "de": true, "da": true, "do": true, "das": true, "dos": true,
	"os": true, "as": true, "um": true, "uma": true, "que": true, "com": true, "por": true,
	"para": true, "em": true, "no": true, "na": true, "nos": true, "nas": true, "se": true,
	"the": true, "of": true, "and": true, "is": true, "are": true, "what": true, "which": true,
	"qual": true, "quais": true, "quantos": true, "quantas": true, "how": true, "many": true,
}

// Terms splits text into lower-cased words and counts them. Stop words and
// single characters are dropped.
func Terms(text string) map[string]int {
	counts := map[string]int{}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, w := range words {
		if len([]rune(w)) < 2 || stopWords[w] {
			continue
		}
		counts[w]++
	}
	return counts
}
