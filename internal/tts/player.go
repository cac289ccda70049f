package tts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// pcmStreamer adapts a mono int16 buffer to beep's streamer contract
type pcmStreamer struct {
	samples []int16
	pos     int
}

func (s *pcmStreamer) Stream(out [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}

	n := 0
	for ; n < len(out) && s.pos < len(s.samples); n++ {
		v := float64(s.samples[s.pos]) / 32768.0
		out[n][0] = v
		out[n][1] = v
		s.pos++
	}
	return n, true
}

func (s *pcmStreamer) Err() error { return nil }

// Player plays synthesized PCM through the default output device
type Player struct {
	sampleRate beep.SampleRate

	initOnce sync.Once
	initErr  error
}

// NewPlayer creates a player that drives the speaker at the given rate
func NewPlayer(sampleRate int) *Player {
	return &Player{sampleRate: beep.SampleRate(sampleRate)}
}

// Play blocks until the buffer has finished playing or the context is
// cancelled
func (p *Player) Play(ctx context.Context, samples []int16, sampleRate int) error {
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(p.sampleRate, p.sampleRate.N(100*time.Millisecond))
	})
	if p.initErr != nil {
		return fmt.Errorf("speaker init: %w", p.initErr)
	}

	var stream beep.Streamer = &pcmStreamer{samples: samples}
	if beep.SampleRate(sampleRate) != p.sampleRate {
		stream = beep.Resample(4, beep.SampleRate(sampleRate), p.sampleRate, stream)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
