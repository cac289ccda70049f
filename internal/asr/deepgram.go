package asr

import (
	"bytes"
	"context"
	"fmt"
	"time"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/skylarkvoice/skylark/internal/audio"
	"github.com/skylarkvoice/skylark/internal/config"
	"github.com/skylarkvoice/skylark/internal/observability"
	"github.com/skylarkvoice/skylark/internal/resilience"
)

// DeepgramRecognizer implements Recognizer using Deepgram's prerecorded
// REST API. The capture session hands over a complete voiced buffer, so
// batch transcription fits the contract better than the streaming API.
type DeepgramRecognizer struct {
	api            *listenv1rest.Client
	model          string
	language       string
	keywords       []string
	timeout        time.Duration
	circuitBreaker *resilience.CircuitBreaker
}

// NewDeepgramRecognizer creates a Deepgram-backed recognizer
func NewDeepgramRecognizer(cfg *config.Config) (*DeepgramRecognizer, error) {
	if cfg.DeepgramAPIKey == "" {
		return nil, fmt.Errorf("%w: DEEPGRAM_API_KEY not set", ErrEngineUnavailable)
	}

	rest := listenClient.NewREST(cfg.DeepgramAPIKey, &interfaces.ClientOptions{})

	return &DeepgramRecognizer{
		api:      listenv1rest.New(rest),
		model:    cfg.DeepgramModel,
		language: cfg.DeepgramLanguage,
		keywords: cfg.KeywordBoosts,
		timeout:  30 * time.Second,
		circuitBreaker: resilience.NewCircuitBreaker(
			"deepgram",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}, nil
}

// Transcribe sends raw linear PCM to Deepgram and maps the best
// alternative to a Transcript with per-word confidences
func (d *DeepgramRecognizer) Transcribe(samples []int16, sampleRate int) (Transcript, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:      d.model,
		Language:   d.language,
		Punctuate:  false,
		Encoding:   "linear16",
		SampleRate: sampleRate,
		Channels:   1,
		Keywords:   d.keywords,
	}

	pcm := audio.SamplesToBytes(samples)

	var res *listenv1rest.PreRecordedResponse
	err := d.circuitBreaker.Call(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		var callErr error
		res, callErr = d.api.FromStream(ctx, bytes.NewReader(pcm), options)
		return callErr
	})
	observability.UpdateCircuitBreakerState("deepgram", int(d.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("deepgram")
		return Transcript{}, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return Transcript{}, nil
	}

	alt := res.Results.Channels[0].Alternatives[0]

	words := make([]Word, 0, len(alt.Words))
	for _, w := range alt.Words {
		words = append(words, Word{Token: w.Word, Confidence: w.Confidence})
	}

	return Transcript{
		Text:  alt.Transcript,
		Words: words,
	}, nil
}
