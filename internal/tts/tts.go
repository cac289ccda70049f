package tts

import "context"

// Synthesizer speaks a reply out loud. Implementations block until
// playback has been handed off.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Nop is the synthesizer used when speech output is disabled. Replies
// are still printed by the turn loop.
type Nop struct{}

func (Nop) Speak(ctx context.Context, text string) error { return nil }
