package nlu

import (
	"strconv"
	"strings"
)

// Condition is a weather condition the user asked a yes/no question
// about, canonicalized to the service's vocabulary
type Condition string

const (
	ConditionSnow         Condition = "snow"
	ConditionRain         Condition = "rain"
	ConditionClouds       Condition = "clouds"
	ConditionClearSky     Condition = "clear sky"
	ConditionMist         Condition = "mist"
	ConditionThunderstorm Condition = "thunderstorm"
)

// TimeOfDay is a clock time extracted from an utterance
type TimeOfDay struct {
	Hour   int // 0-23
	Minute int // 0-59
}

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

// ExtractPlace resolves the place slot. Priority order: "there" defers
// to the last remembered place; "in X" and "weather X" take the
// following word; otherwise the last capitalized word-like token is
// assumed to be a place name. Returns "" when nothing matches.
func ExtractPlace(text, lastPlace string) string {
	tokens := Tokenize(text)

	if HasToken(tokens, "there") {
		return lastPlace
	}

	for i, t := range tokens {
		if t.Lower == "in" && i+1 < len(tokens) && !tokens[i+1].IsDigits() {
			return tokens[i+1].Text
		}
	}

	for i, t := range tokens {
		if t.Lower == "weather" && i+1 < len(tokens) && !tokens[i+1].IsDigits() {
			return tokens[i+1].Text
		}
	}

	for i := len(tokens) - 1; i >= 0; i-- {
		if isCapitalized(tokens[i]) {
			return tokens[i].Text
		}
	}

	return ""
}

// ExtractDay returns "today", "tomorrow" or a lowercase weekday name,
// or "" when the utterance names no day
func ExtractDay(text string) string {
	tokens := Tokenize(text)

	if HasToken(tokens, "today") {
		return "today"
	}
	if HasToken(tokens, "tomorrow") {
		return "tomorrow"
	}
	for _, d := range Days {
		if HasToken(tokens, d) {
			return d
		}
	}
	return ""
}

// ExtractNextNDays matches "next <N> days" with N numeric or spelled
// out one through seven. The result is clamped to [1, 7].
func ExtractNextNDays(text string) (int, bool) {
	tokens := Tokenize(text)

	for i := 0; i+2 < len(tokens); i++ {
		if tokens[i].Lower != "next" || tokens[i+2].Lower != "days" {
			continue
		}

		mid := tokens[i+1]
		if mid.IsDigits() {
			n, err := strconv.Atoi(mid.Text)
			if err != nil {
				continue
			}
			if n < 1 {
				n = 1
			}
			if n > 7 {
				n = 7
			}
			return n, true
		}
		if n, ok := wordNumbers[mid.Lower]; ok && n >= 1 && n <= 7 {
			return n, true
		}
	}

	return 0, false
}

// ExtractCondition finds the weather condition of a yes/no question.
// Checks run in a fixed order, first match wins.
func ExtractCondition(text string) (Condition, bool) {
	tokens := Tokenize(text)

	switch {
	case HasToken(tokens, "snow"):
		return ConditionSnow, true
	case HasToken(tokens, "rain"):
		return ConditionRain, true
	case HasPrefixToken(tokens, "cloud"):
		return ConditionClouds, true
	case HasPrefixToken(tokens, "clear"):
		return ConditionClearSky, true
	case HasPrefixToken(tokens, "mist"), HasPrefixToken(tokens, "fog"):
		return ConditionMist, true
	case HasPrefixToken(tokens, "thunder"), HasPrefixToken(tokens, "storm"):
		return ConditionThunderstorm, true
	}

	return "", false
}

// titleBoundaries end a free-text title: the next clause usually starts
// with one of these
var titleBoundaries = map[string]bool{
	"for": true, "on": true, "at": true, "tomorrow": true, "today": true,
}

// ExtractTitle returns the text after "titled", "called" or "named",
// truncated at the next clause boundary. Casing and inner punctuation
// of the original text are preserved.
func ExtractTitle(text string) string {
	tokens := Tokenize(text)

	for i, t := range tokens {
		if t.Lower != "titled" && t.Lower != "called" && t.Lower != "named" {
			continue
		}

		end := len(text)
		for j := i + 1; j < len(tokens); j++ {
			if titleBoundaries[tokens[j].Lower] {
				end = tokens[j].Start
				break
			}
		}

		title := strings.TrimSpace(text[t.End:end])
		title = strings.TrimRight(title, ".?! ")
		if title != "" {
			return title
		}
	}

	return ""
}

// ExtractDeleteTitle resolves the target title of a delete command. It
// accepts the "titled/called/named" form and the bare form
// "delete/remove appointment|meeting|event <title>".
func ExtractDeleteTitle(text string) string {
	if title := ExtractTitle(text); title != "" {
		return title
	}

	tokens := Tokenize(text)

	verb := -1
	for i, t := range tokens {
		if t.Lower == "delete" || t.Lower == "remove" {
			verb = i
			break
		}
	}
	if verb < 0 {
		return ""
	}

	for i := verb + 1; i < len(tokens); i++ {
		switch tokens[i].Lower {
		case "appointment", "meeting", "event":
			return tailAfter(text, tokens, i)
		}
	}

	return ""
}

// ExtractLocation returns the text after the first "to" or "in",
// trailing punctuation stripped. Used for location updates.
func ExtractLocation(text string) string {
	tokens := Tokenize(text)

	for i, t := range tokens {
		if t.Lower == "to" || t.Lower == "in" {
			return tailAfter(text, tokens, i)
		}
	}

	return ""
}

// ExtractTargetDay finds the day a calendar command refers to:
// "tomorrow", "today" or a lowercase weekday name
func ExtractTargetDay(text string) string {
	tokens := Tokenize(text)

	if HasToken(tokens, "tomorrow") {
		return "tomorrow"
	}
	if HasToken(tokens, "today") {
		return "today"
	}
	for _, d := range Days {
		if HasToken(tokens, d) {
			return d
		}
	}
	return ""
}

// ExtractTimeOfDay matches "H am/pm", "H:MM am/pm" and spelled-out
// hours one through twelve. The hour is normalized mod 12 with 12 added
// for "pm". A minute outside 0-59 fails the match.
func ExtractTimeOfDay(text string) (TimeOfDay, bool) {
	tokens := Tokenize(text)

	for i := 1; i < len(tokens); i++ {
		if tokens[i].Lower != "am" && tokens[i].Lower != "pm" {
			continue
		}

		hour, minute, ok := clockBefore(text, tokens, i)
		if !ok {
			continue
		}

		hour = hour % 12
		if tokens[i].Lower == "pm" {
			hour += 12
		}
		return TimeOfDay{Hour: hour, Minute: minute}, true
	}

	return TimeOfDay{}, false
}

// clockBefore reads the hour (and optional ":MM") directly preceding
// the am/pm token at index i
func clockBefore(text string, tokens []Token, i int) (hour, minute int, ok bool) {
	prev := tokens[i-1]

	// spelled-out hour: "ten pm"
	if n, found := wordNumbers[prev.Lower]; found {
		return n, 0, true
	}

	if !prev.IsDigits() || len(prev.Text) > 2 {
		return 0, 0, false
	}

	// "10:30 pm" tokenizes as 10, 30, pm with a colon between the digits
	if len(prev.Text) == 2 && i >= 2 && tokens[i-2].IsDigits() && len(tokens[i-2].Text) <= 2 &&
		strings.Contains(text[tokens[i-2].End:prev.Start], ":") {
		h, _ := strconv.Atoi(tokens[i-2].Text)
		m, _ := strconv.Atoi(prev.Text)
		if m > 59 {
			return 0, 0, false
		}
		return h, m, true
	}

	h, _ := strconv.Atoi(prev.Text)
	return h, 0, true
}
