package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/skylarkvoice/skylark/internal/audio"
	"github.com/skylarkvoice/skylark/internal/config"
	"github.com/skylarkvoice/skylark/internal/observability"
	"github.com/skylarkvoice/skylark/internal/resilience"
)

// HTTPClient implements Synthesizer against a Cartesia-style TTS API:
// a JSON POST answered with raw PCM
type HTTPClient struct {
	apiURL     string
	apiKey     string
	voiceID    string
	sampleRate int
	httpClient *http.Client
	retry      *resilience.RetryConfig
	player     *Player

	mu       sync.Mutex
	speaking bool
}

type synthesisRequest struct {
	Text         string `json:"text"`
	VoiceID      string `json:"voice_id"`
	OutputFormat string `json:"output_format,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`
}

// NewHTTPClient creates a synthesizer talking to the configured TTS
// endpoint
func NewHTTPClient(cfg *config.Config, player *Player) *HTTPClient {
	return &HTTPClient{
		apiURL:     cfg.TTSURL,
		apiKey:     cfg.TTSAPIKey,
		voiceID:    cfg.TTSVoiceID,
		sampleRate: cfg.TTSSampleRate,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry: &resilience.RetryConfig{
			MaxAttempts:       cfg.TTSRetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.TTSRetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
		player: player,
	}
}

// Speak renders text to PCM and plays it. Only one render runs at a
// time; a second call while speaking returns an error instead of
// overlapping audio.
func (c *HTTPClient) Speak(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.speaking {
		c.mu.Unlock()
		return fmt.Errorf("tts: already speaking")
	}
	c.speaking = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.speaking = false
		c.mu.Unlock()
	}()

	start := time.Now()

	var pcm []byte
	err := resilience.Retry(func() error {
		var reqErr error
		pcm, reqErr = c.render(ctx, text)
		return reqErr
	}, c.retry, resilience.IsRetryableNetworkError)

	observability.RecordTTSRequest(err == nil, time.Since(start))
	if err != nil {
		return fmt.Errorf("tts: render: %w", err)
	}

	samples, err := audio.BytesToSamples(pcm)
	if err != nil {
		return fmt.Errorf("tts: decode pcm: %w", err)
	}
	if len(samples) == 0 {
		return nil
	}

	return c.player.Play(ctx, samples, c.sampleRate)
}

func (c *HTTPClient) render(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{
		Text:         text,
		VoiceID:      c.voiceID,
		OutputFormat: "pcm",
		SampleRate:   c.sampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts api returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
