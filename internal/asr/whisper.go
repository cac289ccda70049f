package asr

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/skylarkvoice/skylark/internal/audio"
)

// WhisperRecognizer implements Recognizer with a local whisper.cpp model.
// Whisper reports no per-word confidences, so the capture session's
// confidence gate does not apply to its results.
type WhisperRecognizer struct {
	model whisper.Model
}

// NewWhisperRecognizer loads a whisper.cpp model from disk
func NewWhisperRecognizer(modelPath string) (*WhisperRecognizer, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: WHISPER_MODEL_PATH not set", ErrEngineUnavailable)
	}

	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: load model %s: %v", ErrEngineUnavailable, modelPath, err)
	}

	return &WhisperRecognizer{model: m}, nil
}

// Close releases the model
func (r *WhisperRecognizer) Close() error {
	if r.model == nil {
		return nil
	}
	return r.model.Close()
}

// Transcribe runs the model over the buffered utterance. Whisper expects
// mono float32 at 16 kHz; samples at other rates are resampled first.
func (r *WhisperRecognizer) Transcribe(samples []int16, sampleRate int) (Transcript, error) {
	if r.model == nil {
		return Transcript{}, fmt.Errorf("%w: model not loaded", ErrEngineUnavailable)
	}
	if len(samples) == 0 {
		return Transcript{}, nil
	}

	if sampleRate != whisperSampleRate {
		samples = audio.Resample(samples, sampleRate, whisperSampleRate)
	}
	pcm := audio.SamplesToFloat32(samples)

	wctx, err := r.model.NewContext()
	if err != nil {
		return Transcript{}, fmt.Errorf("%w: new context: %v", ErrEngineUnavailable, err)
	}

	if err := wctx.SetLanguage("en"); err != nil {
		return Transcript{}, fmt.Errorf("%w: set language: %v", ErrEngineUnavailable, err)
	}
	wctx.SetThreads(uint(runtime.NumCPU()))

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return Transcript{}, fmt.Errorf("%w: process: %v", ErrEngineUnavailable, err)
	}

	var parts []string
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Transcript{}, fmt.Errorf("%w: next segment: %v", ErrEngineUnavailable, err)
		}
		parts = append(parts, strings.TrimSpace(seg.Text))
	}

	return Transcript{Text: strings.TrimSpace(strings.Join(parts, " "))}, nil
}

const whisperSampleRate = 16000
