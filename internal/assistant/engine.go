package assistant

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skylarkvoice/skylark/internal/calendar"
	"github.com/skylarkvoice/skylark/internal/dialogue"
	"github.com/skylarkvoice/skylark/internal/nlu"
	"github.com/skylarkvoice/skylark/internal/observability"
	"github.com/skylarkvoice/skylark/internal/weather"
)

// Replies used when a turn cannot be resolved
const (
	ReplyNotCaught = "Sorry, I didn't catch that. Please try again."

	replyWeatherDown  = "Sorry, I couldn't reach the weather service. Please try again later."
	replyCalendarDown = "Sorry, I couldn't reach the calendar service. Please try again later."

	replyUsageHint = "I can help with weather and your calendar. Try: " +
		"'weather in Frankfurt on Friday', 'will it snow there on Saturday', " +
		"'next 3 days in Frankfurt', or 'where is my next appointment?'."
)

// Engine runs the turn loop: classify an utterance, route it to a
// resolver, and maintain the dialogue context across turns. Turns are
// strictly sequential; the engine owns the context and never shares it.
type Engine struct {
	weather  *weather.Resolver
	calendar *calendar.Resolver
	dctx     dialogue.Context
}

// NewEngine creates a turn engine with an empty dialogue context
func NewEngine(w *weather.Resolver, c *calendar.Resolver) *Engine {
	return &Engine{weather: w, calendar: c}
}

// Context exposes the dialogue context for inspection
func (e *Engine) Context() *dialogue.Context {
	return &e.dctx
}

// HandleTurn resolves one utterance to a spoken reply. The dialogue
// context is updated only when the turn's resolver succeeds; a backend
// failure yields an apology and leaves the context as it was.
func (e *Engine) HandleTurn(ctx context.Context, text string) string {
	log := observability.WithTurnID(observability.NewTurnID())

	text = strings.TrimSpace(text)
	if text == "" {
		return ReplyNotCaught
	}

	metrics := observability.NewTurnMetrics()
	intent := nlu.Classify(text, e.dctx.LastIntent)

	log.Debug().
		Str("intent", intent.String()).
		Str("utterance", text).
		Msg("turn classified")

	reply := e.dispatch(ctx, log, intent, text)

	metrics.RecordTurnEnd(intent.String())
	return reply
}

func (e *Engine) dispatch(ctx context.Context, log zerolog.Logger, intent nlu.Intent, text string) string {
	switch intent {
	case nlu.IntentWeather:
		reply, err := e.weather.Resolve(ctx, text, &e.dctx)
		if err != nil {
			log.Error().Err(err).Msg("weather resolution failed")
			observability.RecordError("service_failure", "weather")
			return replyWeatherDown
		}
		e.dctx.LastIntent = nlu.IntentWeather
		return reply

	case nlu.IntentCalendar:
		reply, err := e.calendar.Resolve(ctx, text, &e.dctx)
		if err != nil {
			log.Error().Err(err).Msg("calendar resolution failed")
			observability.RecordError("service_failure", "calendar")
			return replyCalendarDown
		}
		e.dctx.LastIntent = nlu.IntentCalendar
		return reply
	}

	return replyUsageHint
}
