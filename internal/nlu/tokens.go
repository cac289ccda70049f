package nlu

import (
	"strings"
	"unicode"
)

// Token is one word-like unit of an utterance. Text keeps the original
// casing; Lower is used for matching. Start/End are byte offsets into
// the source string so rules can recover free-text tails.
type Token struct {
	Text  string
	Lower string
	Start int
	End   int
}

// IsDigits reports whether the token is all ASCII digits
func (t Token) IsDigits() bool {
	if t.Text == "" {
		return false
	}
	for _, r := range t.Text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Tokenize splits an utterance into word tokens. A token is a maximal
// run of letters (plus inner hyphens) or a run of digits; everything
// else separates. "10:30am" tokenizes as "10", "30", "am".
func Tokenize(s string) []Token {
	var tokens []Token
	runes := []rune(s)
	i := 0
	byteOff := 0

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsLetter(r):
			start := byteOff
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || runes[j] == '-') {
				byteOff += len(string(runes[j]))
				j++
			}
			// trailing hyphens are separators, not part of the word
			for j > i && runes[j-1] == '-' {
				j--
				byteOff--
			}
			text := string(runes[i:j])
			tokens = append(tokens, Token{
				Text:  text,
				Lower: strings.ToLower(text),
				Start: start,
				End:   byteOff,
			})
			i = j
		case unicode.IsDigit(r):
			start := byteOff
			j := i
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				byteOff += len(string(runes[j]))
				j++
			}
			text := string(runes[i:j])
			tokens = append(tokens, Token{
				Text:  text,
				Lower: text,
				Start: start,
				End:   byteOff,
			})
			i = j
		default:
			byteOff += len(string(r))
			i++
		}
	}

	return tokens
}

// HasToken reports whether any token equals word (lowercase match)
func HasToken(tokens []Token, word string) bool {
	for _, t := range tokens {
		if t.Lower == word {
			return true
		}
	}
	return false
}

// HasAnyToken reports whether any of the given words appears as a token
func HasAnyToken(tokens []Token, words ...string) bool {
	for _, w := range words {
		if HasToken(tokens, w) {
			return true
		}
	}
	return false
}

// HasPrefixToken reports whether any token starts with the given stem
func HasPrefixToken(tokens []Token, stem string) bool {
	for _, t := range tokens {
		if strings.HasPrefix(t.Lower, stem) {
			return true
		}
	}
	return false
}

// HasPhrase reports whether the words of phrase appear as consecutive
// tokens of the utterance
func HasPhrase(tokens []Token, phrase string) bool {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return false
	}
	return phraseIndex(tokens, words) >= 0
}

// phraseIndex returns the index of the first token of the phrase, or -1
func phraseIndex(tokens []Token, words []string) int {
	for i := 0; i+len(words) <= len(tokens); i++ {
		match := true
		for j, w := range words {
			if tokens[i+j].Lower != w {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// tailAfter returns the original text following the token at index i,
// with surrounding whitespace and trailing sentence punctuation removed
func tailAfter(text string, tokens []Token, i int) string {
	if i < 0 || i >= len(tokens)-1 {
		return ""
	}
	tail := text[tokens[i].End:]
	tail = strings.TrimSpace(tail)
	tail = strings.TrimRight(tail, ".?! ")
	return tail
}

// isCapitalized reports whether the token looks like a proper name:
// leading uppercase letter and at least three letters overall
func isCapitalized(t Token) bool {
	runes := []rune(t.Text)
	if len(runes) < 3 {
		return false
	}
	return unicode.IsUpper(runes[0])
}
