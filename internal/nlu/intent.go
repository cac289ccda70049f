package nlu

// Intent is the top-level classification of an utterance
type Intent int

const (
	IntentUnknown Intent = iota
	IntentWeather
	IntentCalendar
)

func (i Intent) String() string {
	switch i {
	case IntentWeather:
		return "weather"
	case IntentCalendar:
		return "calendar"
	default:
		return "unknown"
	}
}

// Days are lowercase weekday names, used across the extractors
var Days = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var calendarWords = []string{
	"calendar", "appointment", "meeting", "schedule", "event",
	"add", "create", "delete", "remove", "update", "change",
}

var calendarPhrases = []string{
	"where is my next",
	"next appointment",
	"next meeting",
	"next event",
}

// Weather keyword stems are matched as token prefixes so "cloudy",
// "raining" and "thunderstorms" still hit.
var weatherStems = []string{
	"weather", "forecast", "temperature",
	"rain", "snow", "cloud", "mist", "thunderstorm", "sunny", "clear",
}

// Classify routes an utterance to weather, calendar or unknown. Rules
// apply in order, first match wins: calendar keywords, weather keywords,
// a "next N days" pattern, then bare temporal/place cues. When the rules
// yield unknown but the utterance carries a temporal/place cue and the
// prior turn was a weather turn, the elliptical follow-up ("and
// tomorrow?") is repaired to weather.
func Classify(text string, prior Intent) Intent {
	tokens := Tokenize(text)
	intent := classify(text, tokens)

	if intent == IntentUnknown && prior == IntentWeather && hasTemporalCue(tokens) {
		intent = IntentWeather
	}

	return intent
}

func classify(text string, tokens []Token) Intent {
	for _, w := range calendarWords {
		if HasToken(tokens, w) {
			return IntentCalendar
		}
	}
	for _, p := range calendarPhrases {
		if HasPhrase(tokens, p) {
			return IntentCalendar
		}
	}

	for _, stem := range weatherStems {
		if HasPrefixToken(tokens, stem) {
			return IntentWeather
		}
	}

	if _, ok := ExtractNextNDays(text); ok {
		return IntentWeather
	}

	if hasTemporalCue(tokens) {
		return IntentWeather
	}

	return IntentUnknown
}

// hasTemporalCue reports a bare day or place reference ("today",
// "tomorrow", "there", or a weekday name)
func hasTemporalCue(tokens []Token) bool {
	if HasToken(tokens, "today") || HasToken(tokens, "tomorrow") || HasToken(tokens, "there") {
		return true
	}
	for _, d := range Days {
		if HasToken(tokens, d) {
			return true
		}
	}
	return false
}
