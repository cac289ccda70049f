package capture

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/skylarkvoice/skylark/internal/asr"
	"github.com/skylarkvoice/skylark/internal/audio"
	"github.com/skylarkvoice/skylark/internal/config"
	"github.com/skylarkvoice/skylark/internal/observability"
)

// State is the lifecycle phase of a capture session
type State int

const (
	StateIdle State = iota
	StateListening
	StateFinalizing
	StateDone
)

// SessionConfig holds the gating parameters for one capture session
type SessionConfig struct {
	SampleRate       int
	EnergyThreshold  float64       // RMS threshold on the 16-bit PCM scale
	SilenceTimeout   time.Duration // silence after speech that ends the session
	MinVoicedSeconds float64       // discard shorter utterances unrecognized
	MinWords         int           // reject transcripts with fewer tokens
	MinAvgConfidence float64       // reject transcripts below this mean word confidence
	PollInterval     time.Duration
	QueueSize        int // voiced frames buffered between callback and poll loop
}

// SessionConfigFrom maps the service configuration onto session gating
func SessionConfigFrom(cfg *config.Config) SessionConfig {
	return SessionConfig{
		SampleRate:       cfg.SampleRate,
		EnergyThreshold:  cfg.EnergyThreshold,
		SilenceTimeout:   time.Duration(cfg.SilenceSeconds * float64(time.Second)),
		MinVoicedSeconds: cfg.MinVoicedSeconds,
		MinWords:         cfg.MinWords,
		MinAvgConfidence: cfg.MinAvgConfidence,
		PollInterval:     30 * time.Millisecond,
		QueueSize:        256,
	}
}

// Session gates a live audio stream for voice activity, auto-stops on
// silence after speech, and rejects low-confidence or too-short results.
// Create one per push-to-talk turn; it is not reusable.
//
// Two goroutines touch a session: the frame source's capture goroutine
// pushes voiced frames through onFrame, and the caller's goroutine runs
// Run. Stop may be called from any goroutine.
type Session struct {
	cfg        SessionConfig
	source     audio.FrameSource
	recognizer asr.Recognizer

	frames chan []int16 // voiced frames only, drained after finalization

	mu            sync.Mutex
	state         State
	firstVoice    time.Time
	lastVoice     time.Time
	voicedSeconds float64

	stopOnce sync.Once
	stopped  chan struct{} // closed by Stop

	now func() time.Time
}

// NewSession creates a session over the given frame source and recognizer
func NewSession(cfg SessionConfig, source audio.FrameSource, recognizer asr.Recognizer) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Millisecond
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Session{
		cfg:        cfg,
		source:     source,
		recognizer: recognizer,
		frames:     make(chan []int16, cfg.QueueSize),
		stopped:    make(chan struct{}),
		now:        time.Now,
	}
}

// Stop requests a manual stop. Safe to call concurrently with Run and
// more than once; the poll loop notices on its next tick.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

// State returns the current lifecycle phase
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// onFrame is the push callback invoked from the source's capture
// goroutine. Frames below the energy threshold are dropped: never
// buffered, never timestamped.
func (s *Session) onFrame(samples []int16) {
	if audio.CalculateRMS(samples) < s.cfg.EnergyThreshold {
		return
	}

	now := s.now()

	s.mu.Lock()
	if s.state != StateListening {
		s.mu.Unlock()
		return
	}
	if s.firstVoice.IsZero() {
		s.firstVoice = now
	}
	s.lastVoice = now
	s.voicedSeconds += audio.FrameDuration(len(samples), s.cfg.SampleRate)
	s.mu.Unlock()

	select {
	case s.frames <- samples:
	default:
		observability.GetLogger().Warn().Msg("capture queue full, dropping voiced frame")
	}
}

// Run captures one utterance and returns its validated transcript. A
// rejected or absent utterance is an empty Transcript, never an error;
// errors mean the device or the recognition engine failed.
func (s *Session) Run() (asr.Transcript, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return asr.Transcript{}, fmt.Errorf("capture session already used")
	}
	s.state = StateListening
	s.mu.Unlock()

	if err := s.source.Start(s.onFrame); err != nil {
		s.setState(StateDone)
		return asr.Transcript{}, fmt.Errorf("start frame source: %w", err)
	}

	s.listen()

	s.setState(StateFinalizing)
	if err := s.source.Stop(); err != nil {
		observability.GetLogger().Warn().Err(err).Msg("frame source stop failed")
	}

	result, err := s.finalize()
	s.setState(StateDone)
	return result, err
}

// listen polls until a manual stop or, once speech has started, until
// the silence timeout elapses. Silence before any speech never ends the
// session: the operator decides when to speak.
func (s *Session) listen() {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopped:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		started := !s.firstVoice.IsZero()
		last := s.lastVoice
		s.mu.Unlock()

		if started && s.now().Sub(last) >= s.cfg.SilenceTimeout {
			return
		}
	}
}

func (s *Session) finalize() (asr.Transcript, error) {
	s.mu.Lock()
	voiced := s.voicedSeconds
	s.mu.Unlock()

	// Anti-ghost-activation: almost no real speech means the buffer is
	// never sent to the recognizer.
	if voiced < s.cfg.MinVoicedSeconds {
		observability.RecordCaptureOutcome("too_short", voiced)
		return asr.Transcript{}, nil
	}

	samples := s.drain()

	start := s.now()
	result, err := s.recognizer.Transcribe(samples, s.cfg.SampleRate)
	observability.RecordASRRequest(err == nil, s.now().Sub(start))
	if err != nil {
		observability.RecordCaptureOutcome("engine_error", voiced)
		return asr.Transcript{}, err
	}

	if avg, ok := result.AvgConfidence(); ok && avg < s.cfg.MinAvgConfidence {
		observability.RecordCaptureOutcome("low_confidence", voiced)
		return asr.Transcript{}, nil
	}

	if len(strings.Fields(result.Text)) < s.cfg.MinWords {
		observability.RecordCaptureOutcome("too_few_words", voiced)
		return asr.Transcript{}, nil
	}

	observability.RecordCaptureOutcome("accepted", voiced)
	return result, nil
}

// drain collects the buffered voiced frames into one contiguous sample
// slice. Only called after the source has stopped pushing.
func (s *Session) drain() []int16 {
	var samples []int16
	for {
		select {
		case frame := <-s.frames:
			samples = append(samples, frame...)
		default:
			return samples
		}
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
