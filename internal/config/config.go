package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the assistant
type Config struct {
	// Backend services
	WeatherURL  string `envconfig:"WEATHER_URL" default:"https://api.responsible-nlp.net/weather.php" toml:"weather_url"`
	CalendarURL string `envconfig:"CALENDAR_URL" default:"https://api.responsible-nlp.net/calendar.php?calenderid=1187019" toml:"calendar_url"`

	// Fallback place when neither the utterance nor the dialogue context names one
	DefaultPlace string `envconfig:"DEFAULT_PLACE" default:"Marburg" toml:"default_place"`

	// Speech capture configuration
	SampleRate       int     `envconfig:"SAMPLE_RATE" default:"16000" toml:"sample_rate"`
	FrameSize        int     `envconfig:"FRAME_SIZE" default:"8000" toml:"frame_size"` // samples per frame (500ms at 16kHz)
	EnergyThreshold  float64 `envconfig:"ENERGY_THRESHOLD" default:"300" toml:"energy_threshold"`
	SilenceSeconds   float64 `envconfig:"SILENCE_SECONDS" default:"1.0" toml:"silence_seconds"`
	MinVoicedSeconds float64 `envconfig:"MIN_VOICED_SECONDS" default:"0.25" toml:"min_voiced_seconds"`
	MinWords         int     `envconfig:"MIN_WORDS" default:"2" toml:"min_words"`
	MinAvgConfidence float64 `envconfig:"MIN_AVG_CONFIDENCE" default:"0.60" toml:"min_avg_confidence"`

	// Speech recognition engine: "deepgram" (hosted) or "whisper" (local model)
	ASREngine        string `envconfig:"ASR_ENGINE" default:"deepgram" toml:"asr_engine"`
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" default:"" toml:"deepgram_api_key"`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2" toml:"deepgram_model"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en" toml:"deepgram_language"`
	WhisperModelPath string `envconfig:"WHISPER_MODEL_PATH" default:"" toml:"whisper_model_path"`

	// Keyword boosts passed to the recognizer to bias the domain vocabulary
	KeywordBoosts []string `envconfig:"KEYWORD_BOOSTS" toml:"keyword_boosts"`

	// Speech synthesis
	TTSEnabled    bool   `envconfig:"TTS_ENABLED" default:"true" toml:"tts_enabled"`
	TTSURL        string `envconfig:"TTS_URL" default:"" toml:"tts_url"`
	TTSAPIKey     string `envconfig:"TTS_API_KEY" default:"" toml:"tts_api_key"`
	TTSVoiceID    string `envconfig:"TTS_VOICE_ID" default:"sonic-english" toml:"tts_voice_id"`
	TTSSampleRate int    `envconfig:"TTS_SAMPLE_RATE" default:"24000" toml:"tts_sample_rate"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5" toml:"circuit_breaker_max_failures"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30" toml:"circuit_breaker_reset_timeout"` // seconds
	TTSRetryMaxAttempts        int `envconfig:"TTS_RETRY_MAX_ATTEMPTS" default:"3" toml:"tts_retry_max_attempts"`
	TTSRetryInitialBackoff     int `envconfig:"TTS_RETRY_INITIAL_BACKOFF" default:"100" toml:"tts_retry_initial_backoff"` // milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info" toml:"log_level"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"true" toml:"log_pretty"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true" toml:"metrics_enabled"`
	OpsPort        string `envconfig:"OPS_PORT" default:"8080" toml:"ops_port"`
}

// Load reads configuration in three layers: built-in defaults, optional
// config.toml, then environment variables (including an optional .env file).
// Environment always wins; TOML values only replace defaults.
func Load() (*Config, error) {
	var cfg Config

	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := configFilePath(); path != "" {
		if err := applyTOML(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyTOML overlays values from the TOML file onto cfg. envconfig has
// already run, so cfg holds defaults plus environment overrides; a file
// value is copied only when it is present in the file and the matching
// environment variable is unset, keeping the environment authoritative.
func applyTOML(path string, cfg *Config) error {
	var fileCfg Config
	md, err := toml.DecodeFile(path, &fileCfg)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	ct := reflect.TypeOf(*cfg)
	dst := reflect.ValueOf(cfg).Elem()
	src := reflect.ValueOf(&fileCfg).Elem()
	for i := 0; i < ct.NumField(); i++ {
		field := ct.Field(i)
		tomlKey := strings.Split(field.Tag.Get("toml"), ",")[0]
		if tomlKey == "" || !md.IsDefined(tomlKey) {
			continue
		}
		if _, set := os.LookupEnv(field.Tag.Get("envconfig")); set {
			continue
		}
		dst.Field(i).Set(src.Field(i))
	}
	return nil
}

// LoadFromEnv loads configuration directly from environment variables
// without touching config.toml or .env (useful for tests and containers)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that envconfig defaults cannot guarantee
func (c *Config) Validate() error {
	if c.WeatherURL == "" {
		return fmt.Errorf("WEATHER_URL is required")
	}
	if c.CalendarURL == "" {
		return fmt.Errorf("CALENDAR_URL is required")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.FrameSize <= 0 {
		return fmt.Errorf("FRAME_SIZE must be positive, got %d", c.FrameSize)
	}
	switch c.ASREngine {
	case "deepgram", "whisper":
	default:
		return fmt.Errorf("ASR_ENGINE must be \"deepgram\" or \"whisper\", got %q", c.ASREngine)
	}
	return nil
}

// configFilePath returns the path of the optional TOML config file, or ""
func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "skylark")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "skylark")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
