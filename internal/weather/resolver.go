package weather

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/skylarkvoice/skylark/internal/dialogue"
	"github.com/skylarkvoice/skylark/internal/nlu"
)

// Resolver turns a weather utterance plus dialogue context into one
// service call and a formatted reply
type Resolver struct {
	svc          Service
	defaultPlace string
}

// NewResolver creates a weather resolver. defaultPlace is used when
// neither the utterance nor the context names a place.
func NewResolver(svc Service, defaultPlace string) *Resolver {
	return &Resolver{svc: svc, defaultPlace: defaultPlace}
}

// Resolve answers a weather utterance. It makes exactly one service
// call, keyed by the resolved place, and updates the dialogue context
// on success. Service failures propagate; the context is then left
// unchanged.
func (r *Resolver) Resolve(ctx context.Context, text string, dctx *dialogue.Context) (string, error) {
	place := nlu.ExtractPlace(text, dctx.LastPlace)
	if place == "" {
		place = dctx.LastPlace
	}
	if place == "" {
		place = r.defaultPlace
	}

	forecast, err := r.svc.Forecast(ctx, place)
	if err != nil {
		return "", err
	}
	if len(forecast.Days) == 0 {
		return "", fmt.Errorf("%w: empty forecast for %s", ErrServiceFailure, place)
	}

	if n, ok := nlu.ExtractNextNDays(text); ok {
		return r.resolveRange(forecast, n, dctx), nil
	}

	return r.resolveSingleDay(text, forecast, dctx), nil
}

// resolveRange formats the first n forecast days in service order
func (r *Resolver) resolveRange(forecast *Forecast, n int, dctx *dialogue.Context) string {
	days := forecast.Days
	if n < len(days) {
		days = days[:n]
	}

	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, fmt.Sprintf("%s: %s, %s to %s degrees.",
			strings.TrimSpace(d.Day), strings.TrimSpace(d.Weather),
			formatTemp(d.Temperature.Min), formatTemp(d.Temperature.Max)))
	}

	dctx.RememberPlace(forecast.Place)
	dctx.RememberDay(strings.ToLower(strings.TrimSpace(days[len(days)-1].Day)))

	return fmt.Sprintf("Forecast for the next %d days in %s: %s", n, forecast.Place, strings.Join(parts, " "))
}

// resolveSingleDay answers for one day, falling back through the
// context's last day to the service's "today" entry
func (r *Resolver) resolveSingleDay(text string, forecast *Forecast, dctx *dialogue.Context) string {
	requestedDay := nlu.ExtractDay(text)
	if requestedDay == "" {
		requestedDay = dctx.LastDay
	}

	item := forecast.Days[0] // service "today"

	switch {
	case requestedDay == "tomorrow":
		if len(forecast.Days) > 1 {
			item = forecast.Days[1]
		}
	case requestedDay != "" && requestedDay != "today":
		if found, ok := findDay(forecast, requestedDay); ok {
			item = found
		}
	}

	dctx.RememberPlace(forecast.Place)
	dctx.RememberDay(strings.ToLower(strings.TrimSpace(item.Day)))

	reply := formatDay(forecast.Place, item)

	if cond, ok := nlu.ExtractCondition(text); ok {
		reply += " " + answerCondition(item, cond)
	}

	return reply
}

// findDay locates a forecast entry by day label, case-insensitively
func findDay(forecast *Forecast, day string) (ForecastDay, bool) {
	day = strings.ToLower(strings.TrimSpace(day))
	for _, d := range forecast.Days {
		if strings.ToLower(strings.TrimSpace(d.Day)) == day {
			return d, true
		}
	}
	return ForecastDay{}, false
}

func formatDay(place string, d ForecastDay) string {
	return fmt.Sprintf("In %s, %s will be %s, with temperatures from %s to %s degrees.",
		place, strings.TrimSpace(d.Day), strings.TrimSpace(d.Weather),
		formatTemp(d.Temperature.Min), formatTemp(d.Temperature.Max))
}

// answerCondition appends the yes/no sentence for a condition question
func answerCondition(d ForecastDay, cond nlu.Condition) string {
	weather := strings.ToLower(strings.TrimSpace(d.Weather))

	switch cond {
	case nlu.ConditionRain:
		if strings.Contains(weather, "rain") {
			return "Yes, expect rain."
		}
		return "No, rain is not expected."
	case nlu.ConditionSnow:
		if strings.Contains(weather, "snow") {
			return "Yes, expect snow."
		}
		return "No, snow is not expected."
	case nlu.ConditionClouds:
		if strings.Contains(weather, "cloud") {
			return "Yes, it will be cloudy."
		}
		return "No, it won't be cloudy."
	case nlu.ConditionClearSky:
		if strings.Contains(weather, "clear sky") {
			return "Yes, it should be clear."
		}
		return "No, it won't be clear."
	case nlu.ConditionMist:
		if strings.Contains(weather, "mist") {
			return "Yes, expect mist."
		}
		return "No, mist is not expected."
	case nlu.ConditionThunderstorm:
		if strings.Contains(weather, "thunderstorm") {
			return "Yes, expect a thunderstorm."
		}
		return "No thunderstorm expected."
	}

	return fmt.Sprintf("It looks like: %s.", weather)
}

// formatTemp renders a temperature without a trailing ".0" for whole
// numbers, matching the service's own numeric style
func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
