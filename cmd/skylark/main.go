package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skylarkvoice/skylark/internal/asr"
	"github.com/skylarkvoice/skylark/internal/assistant"
	"github.com/skylarkvoice/skylark/internal/audio"
	"github.com/skylarkvoice/skylark/internal/calendar"
	"github.com/skylarkvoice/skylark/internal/cli"
	"github.com/skylarkvoice/skylark/internal/config"
	"github.com/skylarkvoice/skylark/internal/observability"
	"github.com/skylarkvoice/skylark/internal/tts"
	"github.com/skylarkvoice/skylark/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// fmt for fatal errors before the logger exists
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("asr_engine", cfg.ASREngine).
		Str("default_place", cfg.DefaultPlace).
		Bool("tts_enabled", cfg.TTSEnabled).
		Str("log_level", cfg.LogLevel).
		Msg("Skylark starting")

	weatherClient := weather.NewClient(cfg.WeatherURL)
	calendarClient := calendar.NewClient(cfg.CalendarURL)

	engine := assistant.NewEngine(
		weather.NewResolver(weatherClient, cfg.DefaultPlace),
		calendar.NewResolver(calendarClient),
	)

	recognizer := buildRecognizer(cfg)
	if recognizer != nil {
		if err := audio.InitInput(); err != nil {
			logger.Warn().Err(err).Msg("Audio input unavailable, voice input disabled")
		} else {
			defer audio.TerminateInput()
		}
	}

	var synth tts.Synthesizer = tts.Nop{}
	if cfg.TTSEnabled && cfg.TTSURL != "" {
		synth = tts.NewHTTPClient(cfg, tts.NewPlayer(cfg.TTSSampleRate))
	}

	opsServer := startOpsServer(cfg, weatherClient, calendarClient)
	defer shutdownOpsServer(opsServer)

	app := &cli.App{
		Config:     cfg,
		Engine:     engine,
		Recognizer: recognizer,
		Synth:      synth,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(app).ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// buildRecognizer creates the configured speech engine. A missing API
// key or model is not fatal: the assistant still answers typed input.
func buildRecognizer(cfg *config.Config) asr.Recognizer {
	logger := observability.GetLogger()

	switch cfg.ASREngine {
	case "whisper":
		recognizer, err := asr.NewWhisperRecognizer(cfg.WhisperModelPath)
		if err != nil {
			logger.Warn().Err(err).Msg("Whisper unavailable, voice input disabled")
			return nil
		}
		return recognizer
	default:
		recognizer, err := asr.NewDeepgramRecognizer(cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("Deepgram unavailable, voice input disabled")
			return nil
		}
		return recognizer
	}
}

// startOpsServer serves health, readiness and metrics endpoints beside
// the interactive loop
func startOpsServer(cfg *config.Config, weatherClient *weather.Client, calendarClient *calendar.Client) *http.Server {
	logger := observability.GetLogger()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"weather": func(ctx context.Context) (bool, error) {
			_, err := weatherClient.Forecast(ctx, cfg.DefaultPlace)
			return err == nil, err
		},
		"calendar": func(ctx context.Context) (bool, error) {
			_, err := calendarClient.List(ctx)
			return err == nil, err
		},
	}))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Str("port", cfg.OpsPort).Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.OpsPort),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn().Err(err).Msg("Ops server failed")
		}
	}()

	return server
}

func shutdownOpsServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
