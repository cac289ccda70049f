package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/skylarkvoice/skylark/internal/dialogue"
	"github.com/skylarkvoice/skylark/internal/nlu"
)

const defaultTitle = "Appointment"

// Resolver turns a calendar utterance plus dialogue context into
// service calls and a formatted reply. Sub-intents are checked in a
// fixed priority order; the first matching rule handles the turn.
type Resolver struct {
	svc Service
	now func() time.Time
}

// NewResolver creates a calendar resolver
func NewResolver(svc Service) *Resolver {
	return &Resolver{svc: svc, now: time.Now}
}

// Resolve answers a calendar utterance. Service failures propagate;
// the dialogue context is then left unchanged.
func (r *Resolver) Resolve(ctx context.Context, text string, dctx *dialogue.Context) (string, error) {
	tokens := nlu.Tokenize(text)

	switch {
	case isNextQuery(tokens):
		return r.resolveNext(ctx)
	case isDeletePrevious(tokens):
		return r.resolveDeletePrevious(ctx, dctx)
	case isDeleteByTitle(text, tokens):
		return r.resolveDeleteByTitle(ctx, text, dctx)
	case isUpdateLocation(tokens):
		return r.resolveUpdateLocation(ctx, text, tokens, dctx)
	case isAdd(tokens):
		return r.resolveAdd(ctx, text, tokens, dctx)
	}

	return "I can manage your calendar. Try: 'Where is my next appointment?', " +
		"'Add an appointment titled Study for tomorrow 9am', " +
		"'Delete the previously created appointment', or " +
		"'Change the place for my appointment tomorrow to Room 12'.", nil
}

func isNextQuery(tokens []nlu.Token) bool {
	for _, phrase := range []string{
		"where is my next", "next appointment", "next meeting", "next event",
	} {
		if nlu.HasPhrase(tokens, phrase) {
			return true
		}
	}
	return false
}

func isDeletePrevious(tokens []nlu.Token) bool {
	if !nlu.HasAnyToken(tokens, "delete", "remove") {
		return false
	}
	return nlu.HasPrefixToken(tokens, "previous") ||
		nlu.HasToken(tokens, "last") ||
		nlu.HasPhrase(tokens, "that appointment")
}

func isDeleteByTitle(text string, tokens []nlu.Token) bool {
	if !nlu.HasAnyToken(tokens, "delete", "remove") {
		return false
	}
	return nlu.ExtractDeleteTitle(text) != ""
}

func isUpdateLocation(tokens []nlu.Token) bool {
	return nlu.HasAnyToken(tokens, "change", "update") &&
		nlu.HasAnyToken(tokens, "place", "location")
}

func isAdd(tokens []nlu.Token) bool {
	return nlu.HasAnyToken(tokens, "add", "create", "schedule") &&
		nlu.HasAnyToken(tokens, "appointment", "meeting", "event")
}

// resolveNext answers "where is my next appointment"
func (r *Resolver) resolveNext(ctx context.Context) (string, error) {
	events, err := r.svc.List(ctx)
	if err != nil {
		return "", err
	}

	upcoming := r.upcomingSorted(events)
	if len(upcoming) == 0 {
		return "You have no upcoming appointments.", nil
	}

	return fmt.Sprintf("Your next appointment is %s.", prettyEvent(upcoming[0])), nil
}

// resolveDeletePrevious deletes the event created earlier in this
// session. Without a remembered id it asks for clarification instead of
// guessing.
func (r *Resolver) resolveDeletePrevious(ctx context.Context, dctx *dialogue.Context) (string, error) {
	if dctx.LastCreatedEventID == nil {
		return "I don't know which appointment you mean. Create one first, " +
			"then say delete the previously created appointment.", nil
	}

	id := *dctx.LastCreatedEventID
	if err := r.svc.Delete(ctx, id); err != nil {
		return "", err
	}

	dctx.LastCreatedEventID = nil
	return fmt.Sprintf("Deleted the previously created appointment (id %d).", id), nil
}

// resolveDeleteByTitle deletes the event whose title matches the spoken
// one. Upcoming events win over past ones; among equals the earliest
// start wins.
func (r *Resolver) resolveDeleteByTitle(ctx context.Context, text string, dctx *dialogue.Context) (string, error) {
	target := nlu.ExtractDeleteTitle(text)

	events, err := r.svc.List(ctx)
	if err != nil {
		return "", err
	}

	matches := matchByTitle(events, target)
	if len(matches) == 0 {
		return fmt.Sprintf("I could not find an appointment titled '%s'.", target), nil
	}

	chosen, ok := r.firstUpcoming(matches)
	if !ok {
		chosen = earliest(matches)
	}

	if err := r.svc.Delete(ctx, chosen.ID); err != nil {
		return "", err
	}

	if dctx.LastCreatedEventID != nil && *dctx.LastCreatedEventID == chosen.ID {
		dctx.LastCreatedEventID = nil
	}

	if len(matches) > 1 {
		return fmt.Sprintf("Found %d appointments matching '%s'. Deleted %s.",
			len(matches), target, prettyEvent(chosen)), nil
	}
	return fmt.Sprintf("Deleted the appointment %s.", prettyEvent(chosen)), nil
}

// resolveUpdateLocation moves an appointment to a new place. The target
// is the previously created event when the utterance says so, otherwise
// the upcoming event matching the spoken day; a spoken day that matches
// no upcoming event asks for clarification instead of guessing.
func (r *Resolver) resolveUpdateLocation(ctx context.Context, text string, tokens []nlu.Token, dctx *dialogue.Context) (string, error) {
	newLocation := nlu.ExtractLocation(text)
	if newLocation == "" {
		return "Tell me the new place. For example: change the place to Room 12.", nil
	}

	var targetID int64

	if (nlu.HasPrefixToken(tokens, "previous") || nlu.HasToken(tokens, "last")) &&
		dctx.LastCreatedEventID != nil {
		targetID = *dctx.LastCreatedEventID
	} else {
		events, err := r.svc.List(ctx)
		if err != nil {
			return "", err
		}

		upcoming := r.upcomingSorted(events)
		if len(upcoming) == 0 {
			return "You have no upcoming appointments to update.", nil
		}

		chosen := upcoming[0]
		if day := nlu.ExtractTargetDay(text); day != "" {
			ev, ok := r.matchDay(upcoming, day)
			if !ok {
				// a named day that matches nothing must not update some
				// other appointment
				return "I couldn't identify which appointment to update. " +
					"Try: change the place for my next appointment to Room 12.", nil
			}
			chosen = ev
		}
		targetID = chosen.ID
	}

	if _, err := r.svc.Update(ctx, targetID, map[string]string{"location": newLocation}); err != nil {
		return "", err
	}

	return fmt.Sprintf("Updated appointment %d. New location is %s.", targetID, newLocation), nil
}

// resolveAdd creates a new event from title, day and time slots, all
// optional with defaults
func (r *Resolver) resolveAdd(ctx context.Context, text string, tokens []nlu.Token, dctx *dialogue.Context) (string, error) {
	title := nlu.ExtractTitle(text)
	if title == "" {
		title = defaultTitle
	}

	base := r.now().Truncate(time.Minute)
	switch {
	case nlu.HasToken(tokens, "tomorrow"):
		base = base.Add(24 * time.Hour)
	case nlu.HasToken(tokens, "today"):
		// keep base
	default:
		if parsed, ok := looseDate(text, tokens); ok {
			base = parsed.Truncate(time.Minute)
		}
	}

	clock := nlu.TimeOfDay{Hour: 9, Minute: 0}
	if t, ok := nlu.ExtractTimeOfDay(text); ok {
		clock = t
	}

	start := time.Date(base.Year(), base.Month(), base.Day(), clock.Hour, clock.Minute, 0, 0, base.Location())
	end := start.Add(time.Hour)

	created, err := r.svc.Create(ctx, Event{
		Title:     title,
		StartTime: start.Format(TimeLayout),
		EndTime:   end.Format(TimeLayout),
	})
	if err != nil {
		return "", err
	}

	if created.ID > 0 {
		id := created.ID
		dctx.LastCreatedEventID = &id
		return fmt.Sprintf("Created appointment %d titled '%s' at %s.", id, title, start.Format(TimeLayout)), nil
	}

	dctx.LastCreatedEventID = nil
	return fmt.Sprintf("Created an appointment titled '%s' at %s.", title, start.Format(TimeLayout)), nil
}

// upcomingSorted filters to events starting at or after now, ordered by
// start time. Events without a parsable start are dropped.
func (r *Resolver) upcomingSorted(events []Event) []Event {
	now := r.now()

	var upcoming []Event
	for _, ev := range events {
		if start, ok := parseStart(ev); ok && !start.Before(now) {
			upcoming = append(upcoming, ev)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		si, _ := parseStart(upcoming[i])
		sj, _ := parseStart(upcoming[j])
		return si.Before(sj)
	})
	return upcoming
}

// firstUpcoming returns the earliest event starting at or after now
func (r *Resolver) firstUpcoming(events []Event) (Event, bool) {
	upcoming := r.upcomingSorted(events)
	if len(upcoming) == 0 {
		return Event{}, false
	}
	return upcoming[0], true
}

// matchDay finds the first event falling on the spoken day: "tomorrow"
// and "today" match by date, a weekday name by its weekday
func (r *Resolver) matchDay(events []Event, day string) (Event, bool) {
	now := r.now()

	for _, ev := range events {
		start, ok := parseStart(ev)
		if !ok {
			continue
		}
		switch day {
		case "tomorrow":
			if sameDate(start, now.Add(24*time.Hour)) {
				return ev, true
			}
		case "today":
			if sameDate(start, now) {
				return ev, true
			}
		default:
			if strings.ToLower(start.Weekday().String()) == day {
				return ev, true
			}
		}
	}
	return Event{}, false
}

// matchByTitle selects events whose normalized title equals the target
// or contains it
func matchByTitle(events []Event, target string) []Event {
	want := normalizeTitle(target)
	if want == "" {
		return nil
	}

	var matches []Event
	for _, ev := range events {
		have := normalizeTitle(ev.Title)
		if have == want || strings.Contains(have, want) {
			matches = append(matches, ev)
		}
	}
	return matches
}

// earliest returns the event with the earliest start time. Events
// without a parsable start sort last.
func earliest(events []Event) Event {
	chosen := events[0]
	chosenStart, chosenOK := parseStart(chosen)

	for _, ev := range events[1:] {
		start, ok := parseStart(ev)
		if !ok {
			continue
		}
		if !chosenOK || start.Before(chosenStart) {
			chosen, chosenStart, chosenOK = ev, start, true
		}
	}
	return chosen
}

// parseStart reads an event's start time, tolerating formats beyond the
// service's canonical one
func parseStart(ev Event) (time.Time, bool) {
	s := strings.TrimSpace(ev.StartTime)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(TimeLayout, s, time.Local); err == nil {
		return t, true
	}
	if t, err := dateparse.ParseLocal(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// sameDate reports whether two times fall on the same calendar day
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// normalizeTitle lowercases and collapses runs of whitespace
func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// looseDate scans the utterance for a short span of tokens that parses
// as a date, e.g. "on 2026-01-12" or "for March 5". Spans must carry a
// digit so lone words never parse as dates.
func looseDate(text string, tokens []nlu.Token) (time.Time, bool) {
	const maxSpan = 4

	for i := 0; i < len(tokens); i++ {
		for j := i; j < len(tokens) && j < i+maxSpan; j++ {
			span := text[tokens[i].Start:tokens[j].End]
			if !strings.ContainsAny(span, "0123456789") {
				continue
			}
			t, err := dateparse.ParseLocal(span)
			if err != nil || t.Year() < 1971 {
				continue
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// prettyEvent renders an event for spoken replies
func prettyEvent(ev Event) string {
	var b strings.Builder

	title := strings.TrimSpace(ev.Title)
	if title == "" {
		title = defaultTitle
	}
	fmt.Fprintf(&b, "'%s'", title)

	if ev.StartTime != "" {
		fmt.Fprintf(&b, " starting at %s", ev.StartTime)
	}
	if ev.EndTime != "" {
		fmt.Fprintf(&b, " ending at %s", ev.EndTime)
	}
	if strings.TrimSpace(ev.Location) != "" {
		fmt.Fprintf(&b, " in %s", ev.Location)
	}

	return b.String()
}
