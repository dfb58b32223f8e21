package classifier

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "am": {}, "an": {}, "and": {}, "are": {}, "be": {},
	"can": {}, "do": {}, "does": {}, "for": {}, "how": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "keeps": {}, "me": {}, "my": {}, "of": {}, "on": {},
	"so": {}, "the": {}, "there": {}, "this": {}, "to": {}, "up": {},
	"what": {}, "while": {}, "why": {}, "with": {}, "your": {},
}

// suffixes are stripped longest first; the remaining stem must keep at least
// three letters.
var suffixes = []string{"ing", "ies", "ly", "ed", "es", "s"}

// Tokenize lowercases text, splits on anything that is not a letter or digit,
// drops stop words and applies light suffix stemming.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, stem(f))
	}
	return tokens
}

func stem(word string) string {
	for _, suffix := range suffixes {
		if !strings.HasSuffix(word, suffix) || len(word)-len(suffix) < 3 {
			continue
		}
		if suffix == "s" && strings.HasSuffix(word, "ss") {
			return word
		}
		if suffix == "ies" {
			return strings.TrimSuffix(word, suffix) + "y"
		}
		return strings.TrimSuffix(word, suffix)
	}
	return word
}
