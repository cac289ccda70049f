package weather

import (
	"context"
	"strings"
	"testing"

	"github.com/skylarkvoice/skylark/internal/dialogue"
	"github.com/skylarkvoice/skylark/internal/nlu"
)

// fakeService returns a canned forecast and records the requested place
type fakeService struct {
	forecast *Forecast
	err      error
	place    string
	calls    int
}

func (f *fakeService) Forecast(ctx context.Context, place string) (*Forecast, error) {
	f.calls++
	f.place = place
	if f.err != nil {
		return nil, f.err
	}
	// echo the requested place like the real service does
	forecast := *f.forecast
	forecast.Place = place
	return &forecast, nil
}

func frankfurtWeek() *Forecast {
	return &Forecast{
		Days: []ForecastDay{
			{Day: "Monday", Weather: "clear sky", Temperature: Temperature{Min: 3, Max: 10}},
			{Day: "Tuesday", Weather: "light rain", Temperature: Temperature{Min: 5, Max: 12}},
			{Day: "Wednesday", Weather: "snow", Temperature: Temperature{Min: -2, Max: 1}},
			{Day: "Thursday", Weather: "scattered clouds", Temperature: Temperature{Min: 4, Max: 9}},
			{Day: "Friday", Weather: "mist", Temperature: Temperature{Min: 2, Max: 7}},
		},
	}
}

func TestResolve_TomorrowUsesSecondEntry(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	reply, err := resolver.Resolve(context.Background(), "weather in Frankfurt tomorrow", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := "In Frankfurt, Tuesday will be light rain, with temperatures from 5 to 12 degrees."
	if reply != want {
		t.Errorf("Reply = %q, want %q", reply, want)
	}
	if svc.place != "Frankfurt" {
		t.Errorf("Service called with %q, want Frankfurt", svc.place)
	}
	if dctx.LastPlace != "Frankfurt" || dctx.LastDay != "tuesday" {
		t.Errorf("Context = %+v, want Frankfurt/tuesday", dctx)
	}
}

func TestResolve_DefaultsToTodayEntry(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	reply, err := resolver.Resolve(context.Background(), "what is the weather in Frankfurt", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !strings.Contains(reply, "Monday") {
		t.Errorf("Expected the first forecast entry, got %q", reply)
	}
}

func TestResolve_NamedDayIsLookedUp(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	reply, err := resolver.Resolve(context.Background(), "weather in Frankfurt on Friday", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := "In Frankfurt, Friday will be mist, with temperatures from 2 to 7 degrees."
	if reply != want {
		t.Errorf("Reply = %q, want %q", reply, want)
	}
}

func TestResolve_UnknownDayFallsBackToFirstEntry(t *testing.T) {
	svc := &fakeService{forecast: &Forecast{Days: frankfurtWeek().Days[:3]}}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	reply, err := resolver.Resolve(context.Background(), "weather in Frankfurt on Sunday", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !strings.Contains(reply, "Monday") {
		t.Errorf("Expected fallback to the first entry, got %q", reply)
	}
}

func TestResolve_ThereUsesRememberedPlace(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	dctx := dialogue.Context{LastPlace: "Berlin"}

	_, err := resolver.Resolve(context.Background(), "will it rain there", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc.place != "Berlin" {
		t.Errorf("Service called with %q, want the remembered Berlin", svc.place)
	}
}

func TestResolve_NoPlaceFallsBackToDefault(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	_, err := resolver.Resolve(context.Background(), "will it rain today", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc.place != "Marburg" {
		t.Errorf("Service called with %q, want the default Marburg", svc.place)
	}
}

func TestResolve_RememberedDayCarriesOver(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	dctx := dialogue.Context{LastPlace: "Frankfurt", LastDay: "friday"}

	reply, err := resolver.Resolve(context.Background(), "and the temperature there", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !strings.Contains(reply, "Friday") {
		t.Errorf("Expected the remembered day, got %q", reply)
	}
}

func TestResolve_ConditionQuestionYes(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	reply, err := resolver.Resolve(context.Background(), "will it snow in Frankfurt on Wednesday", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !strings.HasSuffix(reply, "Yes, expect snow.") {
		t.Errorf("Expected affirmative snow answer, got %q", reply)
	}
}

func TestResolve_ConditionQuestionNo(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	reply, err := resolver.Resolve(context.Background(), "will it rain in Frankfurt on Friday", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !strings.HasSuffix(reply, "No, rain is not expected.") {
		t.Errorf("Expected negative rain answer, got %q", reply)
	}
}

func TestResolve_RangeMode(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	reply, err := resolver.Resolve(context.Background(), "next 3 days in Frankfurt", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !strings.HasPrefix(reply, "Forecast for the next 3 days in Frankfurt: ") {
		t.Errorf("Unexpected prefix: %q", reply)
	}
	if !strings.Contains(reply, "Monday: clear sky, 3 to 10 degrees.") ||
		!strings.Contains(reply, "Wednesday: snow, -2 to 1 degrees.") {
		t.Errorf("Range entries missing: %q", reply)
	}
	if strings.Contains(reply, "Thursday") {
		t.Errorf("Range must stop after 3 days: %q", reply)
	}
	if dctx.LastDay != "wednesday" {
		t.Errorf("LastDay = %q, want the final range day", dctx.LastDay)
	}
}

func TestResolve_SingleServiceCallPerTurn(t *testing.T) {
	svc := &fakeService{forecast: frankfurtWeek()}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	_, err := resolver.Resolve(context.Background(), "will it snow in Frankfurt tomorrow", &dctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc.calls != 1 {
		t.Errorf("Service called %d times, want exactly 1", svc.calls)
	}
}

func TestResolve_ServiceFailureLeavesContextUnchanged(t *testing.T) {
	svc := &fakeService{err: ErrServiceFailure}
	resolver := NewResolver(svc, "Marburg")
	dctx := dialogue.Context{LastPlace: "Berlin", LastDay: "monday"}

	_, err := resolver.Resolve(context.Background(), "weather in Frankfurt tomorrow", &dctx)
	if err == nil {
		t.Fatal("Expected an error")
	}
	if dctx.LastPlace != "Berlin" || dctx.LastDay != "monday" {
		t.Errorf("Context changed on failure: %+v", dctx)
	}
}

func TestResolve_EmptyForecastIsServiceFailure(t *testing.T) {
	svc := &fakeService{forecast: &Forecast{}}
	resolver := NewResolver(svc, "Marburg")
	var dctx dialogue.Context

	_, err := resolver.Resolve(context.Background(), "weather in Frankfurt", &dctx)
	if err == nil {
		t.Fatal("Expected an error for an empty forecast")
	}
}

func TestAnswerCondition_AllConditions(t *testing.T) {
	day := ForecastDay{Weather: "light rain"}

	if got := answerCondition(day, nlu.ConditionRain); got != "Yes, expect rain." {
		t.Errorf("rain answer = %q", got)
	}
	if got := answerCondition(day, nlu.ConditionSnow); got != "No, snow is not expected." {
		t.Errorf("snow answer = %q", got)
	}
	if got := answerCondition(ForecastDay{Weather: "broken clouds"}, nlu.ConditionClouds); got != "Yes, it will be cloudy." {
		t.Errorf("clouds answer = %q", got)
	}
}
