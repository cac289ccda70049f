package asr

import "errors"

// ErrEngineUnavailable indicates the recognition engine or its model could
// not be reached. Fatal to the speak modality, not to the process.
var ErrEngineUnavailable = errors.New("speech recognition engine unavailable")

// Word is one recognized token with its confidence in [0, 1]
type Word struct {
	Token      string
	Confidence float64
}

// Transcript is the result of recognizing one utterance. Words may be
// empty when the engine provides no word-level detail.
type Transcript struct {
	Text  string
	Words []Word
}

// AvgConfidence returns the mean word confidence. The second return is
// false when no per-word data exists; confidence gating must then be
// skipped rather than treated as zero.
func (t Transcript) AvgConfidence() (float64, bool) {
	if len(t.Words) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, w := range t.Words {
		sum += w.Confidence
	}
	return sum / float64(len(t.Words)), true
}

// Recognizer converts accumulated 16-bit PCM audio into a transcript.
// Implementations must return an error wrapping ErrEngineUnavailable for
// engine/device failure; an utterance the engine could not make out is a
// zero-valued Transcript, not an error.
type Recognizer interface {
	Transcribe(samples []int16, sampleRate int) (Transcript, error)
}
