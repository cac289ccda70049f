package nlu

import "testing"

func TestClassify_Calendar(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"keyword appointment", "add an appointment titled Study for tomorrow"},
		{"keyword delete", "delete the previously created appointment"},
		{"phrase next appointment", "where is my next appointment"},
		{"keyword change", "change the place for my meeting to Room 12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, IntentUnknown); got != IntentCalendar {
				t.Errorf("Classify(%q) = %v, want calendar", tt.text, got)
			}
		})
	}
}

func TestClassify_Weather(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"keyword weather", "what is the weather in Frankfurt"},
		{"stem raining", "is it raining in Berlin"},
		{"stem cloudy", "will it be cloudy on Friday"},
		{"next n days", "next 3 days in Frankfurt"},
		{"bare tomorrow", "and tomorrow?"},
		{"bare there", "how about there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, IntentUnknown); got != IntentWeather {
				t.Errorf("Classify(%q) = %v, want weather", tt.text, got)
			}
		})
	}
}

func TestClassify_CalendarKeywordsWinOverWeather(t *testing.T) {
	// "delete" outranks the weather stems even when both appear
	text := "delete the appointment about the weather report"
	if got := Classify(text, IntentUnknown); got != IntentCalendar {
		t.Errorf("Classify(%q) = %v, want calendar", text, got)
	}
}

func TestClassify_Unknown(t *testing.T) {
	tests := []string{
		"tell me a joke",
		"hello",
		"",
	}

	for _, text := range tests {
		if got := Classify(text, IntentUnknown); got != IntentUnknown {
			t.Errorf("Classify(%q) = %v, want unknown", text, got)
		}
	}
}

func TestClassify_PriorIntentDoesNotLeakIntoCalendar(t *testing.T) {
	// a prior calendar turn never repairs an unknown utterance
	if got := Classify("tell me a joke", IntentCalendar); got != IntentUnknown {
		t.Errorf("Classify with calendar prior = %v, want unknown", got)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	texts := []string{
		"what is the weather in Frankfurt",
		"where is my next appointment",
		"and tomorrow?",
		"tell me a joke",
	}

	for _, text := range texts {
		first := Classify(text, IntentUnknown)
		second := Classify(text, IntentUnknown)
		if first != second {
			t.Errorf("Classify(%q) not stable: %v then %v", text, first, second)
		}
	}
}

func TestIntent_String(t *testing.T) {
	if IntentWeather.String() != "weather" {
		t.Errorf("IntentWeather.String() = %q", IntentWeather.String())
	}
	if IntentCalendar.String() != "calendar" {
		t.Errorf("IntentCalendar.String() = %q", IntentCalendar.String())
	}
	if IntentUnknown.String() != "unknown" {
		t.Errorf("IntentUnknown.String() = %q", IntentUnknown.String())
	}
}
