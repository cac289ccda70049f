package dialogue

import "github.com/skylarkvoice/skylark/internal/nlu"

// Context is the process-lifetime conversational memory. One instance
// exists per process; it is owned by the turn loop, passed by pointer
// into the resolvers, and mutated only by the resolver that just
// completed a turn. Turns run strictly sequentially, so plain mutation
// is safe.
type Context struct {
	LastPlace          string     // place of the most recent weather turn
	LastDay            string     // lowercase day name, "today" or "tomorrow"
	LastIntent         nlu.Intent // intent of the previous turn
	LastCreatedEventID *int64     // id of the most recently created calendar event
}

// RememberPlace stores a place for later "there" references
func (c *Context) RememberPlace(place string) {
	if place != "" {
		c.LastPlace = place
	}
}

// RememberDay stores a day for elliptical follow-ups
func (c *Context) RememberDay(day string) {
	if day != "" {
		c.LastDay = day
	}
}
