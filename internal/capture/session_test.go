package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/skylarkvoice/skylark/internal/asr"
	"github.com/skylarkvoice/skylark/internal/audio"
)

// fakeSource pushes a scripted sequence of frames when started
type fakeSource struct {
	frames     [][]int16
	sampleRate int

	mu      sync.Mutex
	started bool
	stopped bool
}

func (f *fakeSource) Start(push audio.FrameFunc) error {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()

	go func() {
		for _, frame := range f.frames {
			push(frame)
		}
	}()
	return nil
}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSource) SampleRate() int { return f.sampleRate }

// fakeRecognizer returns a canned transcript and records its input
type fakeRecognizer struct {
	mu         sync.Mutex
	transcript asr.Transcript
	err        error
	called     bool
	samples    []int16
}

func (f *fakeRecognizer) Transcribe(samples []int16, sampleRate int) (asr.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = true
	f.samples = samples
	return f.transcript, f.err
}

func (f *fakeRecognizer) wasCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.called
}

func testConfig() SessionConfig {
	return SessionConfig{
		SampleRate:       16000,
		EnergyThreshold:  300,
		SilenceTimeout:   50 * time.Millisecond,
		MinVoicedSeconds: 0.25,
		MinWords:         2,
		MinAvgConfidence: 0.60,
		PollInterval:     5 * time.Millisecond,
		QueueSize:        16,
	}
}

// loudFrame is 500ms of full-scale square wave at 16kHz, well above the
// energy threshold
func loudFrame() []int16 {
	frame := make([]int16, 8000)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = 16000
		} else {
			frame[i] = -16000
		}
	}
	return frame
}

func quietFrame() []int16 {
	return make([]int16, 8000)
}

func TestSession_SilentInputNeverReachesRecognizer(t *testing.T) {
	source := &fakeSource{frames: [][]int16{quietFrame(), quietFrame()}, sampleRate: 16000}
	recognizer := &fakeRecognizer{transcript: asr.Transcript{Text: "should not appear"}}

	session := NewSession(testConfig(), source, recognizer)

	go func() {
		time.Sleep(50 * time.Millisecond)
		session.Stop()
	}()

	result, err := session.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Text != "" {
		t.Errorf("Expected empty transcript, got %q", result.Text)
	}
	if recognizer.wasCalled() {
		t.Error("Recognizer must not be called for an all-silent session")
	}
}

func TestSession_AcceptsValidUtterance(t *testing.T) {
	source := &fakeSource{frames: [][]int16{loudFrame()}, sampleRate: 16000}
	recognizer := &fakeRecognizer{transcript: asr.Transcript{
		Text: "weather in Frankfurt",
		Words: []asr.Word{
			{Token: "weather", Confidence: 0.95},
			{Token: "in", Confidence: 0.91},
			{Token: "Frankfurt", Confidence: 0.88},
		},
	}}

	session := NewSession(testConfig(), source, recognizer)

	result, err := session.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Text != "weather in Frankfurt" {
		t.Errorf("Expected transcript, got %q", result.Text)
	}
	if session.State() != StateDone {
		t.Errorf("Expected state Done, got %d", session.State())
	}

	recognizer.mu.Lock()
	defer recognizer.mu.Unlock()
	if len(recognizer.samples) != 8000 {
		t.Errorf("Expected 8000 samples handed to recognizer, got %d", len(recognizer.samples))
	}
}

func TestSession_RejectsLowConfidence(t *testing.T) {
	source := &fakeSource{frames: [][]int16{loudFrame()}, sampleRate: 16000}
	recognizer := &fakeRecognizer{transcript: asr.Transcript{
		Text: "mumble mumble",
		Words: []asr.Word{
			{Token: "mumble", Confidence: 0.30},
			{Token: "mumble", Confidence: 0.40},
		},
	}}

	session := NewSession(testConfig(), source, recognizer)

	result, err := session.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Text != "" {
		t.Errorf("Expected rejected transcript, got %q", result.Text)
	}
}

func TestSession_RejectsTooFewWords(t *testing.T) {
	source := &fakeSource{frames: [][]int16{loudFrame()}, sampleRate: 16000}
	recognizer := &fakeRecognizer{transcript: asr.Transcript{
		Text:  "hello",
		Words: []asr.Word{{Token: "hello", Confidence: 0.99}},
	}}

	session := NewSession(testConfig(), source, recognizer)

	result, err := session.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Text != "" {
		t.Errorf("Expected rejected transcript, got %q", result.Text)
	}
}

func TestSession_MissingConfidencesSkipGate(t *testing.T) {
	// engines that report no per-word confidence are not confidence-gated
	source := &fakeSource{frames: [][]int16{loudFrame()}, sampleRate: 16000}
	recognizer := &fakeRecognizer{transcript: asr.Transcript{Text: "weather in Frankfurt"}}

	session := NewSession(testConfig(), source, recognizer)

	result, err := session.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Text != "weather in Frankfurt" {
		t.Errorf("Expected transcript accepted, got %q", result.Text)
	}
}

func TestSession_ManualStopBeforeSpeech(t *testing.T) {
	source := &fakeSource{sampleRate: 16000}
	recognizer := &fakeRecognizer{}

	session := NewSession(testConfig(), source, recognizer)
	session.Stop()

	result, err := session.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Text != "" {
		t.Errorf("Expected empty transcript, got %q", result.Text)
	}
	if recognizer.wasCalled() {
		t.Error("Recognizer must not be called when nothing was voiced")
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	if !source.stopped {
		t.Error("Source must be stopped during finalization")
	}
}

func TestSession_NotReusable(t *testing.T) {
	source := &fakeSource{sampleRate: 16000}
	session := NewSession(testConfig(), source, &fakeRecognizer{})
	session.Stop()

	if _, err := session.Run(); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if _, err := session.Run(); err == nil {
		t.Error("Second run must fail")
	}
}

func TestSession_AutoStopsAfterSilence(t *testing.T) {
	source := &fakeSource{frames: [][]int16{loudFrame()}, sampleRate: 16000}
	recognizer := &fakeRecognizer{transcript: asr.Transcript{Text: "weather in Frankfurt"}}

	session := NewSession(testConfig(), source, recognizer)

	done := make(chan struct{})
	go func() {
		session.Run()
		close(done)
	}()

	// no Stop call: the silence timeout after the single voiced frame
	// must end the session on its own
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Session did not auto-stop on silence")
	}
}
