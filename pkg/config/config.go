package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported TTS engines.
const (
	EnginePlayHT  = "playht"
	EngineEdgeTTS = "edge-tts"
	EngineGoogle  = "google"
	EngineAzure   = "azure"
)

// Engines lists the supported engine names.
var Engines = []string{EnginePlayHT, EngineEdgeTTS, EngineGoogle, EngineAzure}

// Config holds the application configuration.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	TTS       TTSConfig       `yaml:"tts"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Pacing    PacingConfig    `yaml:"pacing"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
}

// CorpusConfig locates the story corpora and audio output.
type CorpusConfig struct {
	AssetRoot string `yaml:"asset_root"`
}

// VoicePair binds the two logical voices to provider voice IDs.
type VoicePair struct {
	Male   string `yaml:"male"`
	Female string `yaml:"female"`
}

// PlayHTConfig holds settings for the PlayHT streaming API.
type PlayHTConfig struct {
	BaseURL  string    `yaml:"base_url"`
	UserID   string    `yaml:"user_id"`
	Key      string    `yaml:"key"`
	Engine   string    `yaml:"engine"`
	Language string    `yaml:"language"`
	Voices   VoicePair `yaml:"voices"`
}

// EdgeTTSConfig holds settings for Edge TTS.
type EdgeTTSConfig struct {
	BaseURL            string    `yaml:"base_url"`
	Origin             string    `yaml:"origin"`
	UserAgent          string    `yaml:"user_agent"`
	TrustedClientToken string    `yaml:"trusted_client_token"`
	SecMSGecVersion    string    `yaml:"sec_ms_gec_version"`
	Language           string    `yaml:"language"`
	Voices             VoicePair `yaml:"voices"`
}

// GoogleTTSConfig holds settings for Google Cloud Text-to-Speech.
type GoogleTTSConfig struct {
	Key             string    `yaml:"key"`
	CredentialsFile string    `yaml:"credentials_file"`
	Endpoint        string    `yaml:"endpoint"`
	LanguageCode    string    `yaml:"language_code"`
	Voices          VoicePair `yaml:"voices"`
}

// AzureSpeechConfig holds settings for Azure Speech.
type AzureSpeechConfig struct {
	Key      string    `yaml:"key"`
	Region   string    `yaml:"region"`
	Endpoint string    `yaml:"endpoint"`
	Language string    `yaml:"language"`
	Voices   VoicePair `yaml:"voices"`
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	Engine  string            `yaml:"engine"`
	Timeout Duration          `yaml:"timeout"`
	PlayHT  PlayHTConfig      `yaml:"playht"`
	EdgeTTS EdgeTTSConfig     `yaml:"edge_tts"`
	Google  GoogleTTSConfig   `yaml:"google"`
	Azure   AzureSpeechConfig `yaml:"azure"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
	Jitter    float64  `yaml:"jitter"`
}

// SynthesisConfig controls the retry wrapper around a single synthesis call.
type SynthesisConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	Backoff       BackoffConfig `yaml:"backoff"`
	VerifyAudio   bool          `yaml:"verify_audio"`
	MinAudioBytes int           `yaml:"min_audio_bytes"`
}

// PacingConfig inserts fixed sleeps between provider calls.
type PacingConfig struct {
	VoiceDelay Duration `yaml:"voice_delay"`
	StoryDelay Duration `yaml:"story_delay"`
}

// HistoryConfig controls the sqlite generation ledger.
type HistoryConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Path      string   `yaml:"path"`
	// Retention drops events older than this; zero keeps them forever.
	Retention Duration `yaml:"retention"`
}

// LogSettings holds settings for a specific log file.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	App LogSettings `yaml:"app"`
	TTS LogSettings `yaml:"tts"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			AssetRoot: "assets",
		},
		TTS: TTSConfig{
			Engine:  EnginePlayHT,
			Timeout: Duration(120 * time.Second),
			PlayHT: PlayHTConfig{
				BaseURL:  "https://api.play.ht",
				Engine:   "Play3.0-mini",
				Language: "arabic",
				Voices: VoicePair{
					Male:   "s3://voice-cloning-zero-shot/c8731d9b-c16c-4dda-b320-7db983880687/original/manifest.json",
					Female: "s3://voice-cloning-zero-shot/b6f988dc-c137-4753-ad11-aa7cb0215e17/original/manifest.json",
				},
			},
			EdgeTTS: EdgeTTSConfig{
				Language: "ar-SA",
				Voices: VoicePair{
					Male:   "ar-SA-HamedNeural",
					Female: "ar-SA-ZariyahNeural",
				},
			},
			Google: GoogleTTSConfig{
				LanguageCode: "ar-XA",
				Voices: VoicePair{
					Male:   "ar-XA-Wavenet-B",
					Female: "ar-XA-Wavenet-A",
				},
			},
			Azure: AzureSpeechConfig{
				Language: "ar-SA",
				Voices: VoicePair{
					Male:   "ar-SA-HamedNeural",
					Female: "ar-SA-ZariyahNeural",
				},
			},
		},
		Synthesis: SynthesisConfig{
			MaxAttempts: 3,
			Backoff: BackoffConfig{
				BaseDelay: Duration(5 * time.Second),
				MaxDelay:  Duration(1 * time.Minute),
				Jitter:    0.1,
			},
			VerifyAudio:   true,
			MinAudioBytes: 1024,
		},
		Pacing: PacingConfig{
			VoiceDelay: Duration(500 * time.Millisecond),
			StoryDelay: Duration(1 * time.Second),
		},
		History: HistoryConfig{
			Enabled:   true,
			Path:      "data/storyvoice.db",
			Retention: Duration(90 * Day),
		},
		Log: LogConfig{
			App: LogSettings{Path: "logs/storyvoice.log", Level: "INFO"},
			TTS: LogSettings{Path: "logs/tts.log", Level: "INFO"},
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// Secrets left empty in the file are taken from the environment; a .env file
// next to the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := GenerateDefault(path); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	fromEnv := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	fromEnv(&c.TTS.PlayHT.UserID, "PLAYHT_USER_ID")
	fromEnv(&c.TTS.PlayHT.Key, "PLAYHT_API_KEY")
	fromEnv(&c.TTS.Google.Key, "GOOGLE_TTS_API_KEY")
	fromEnv(&c.TTS.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	fromEnv(&c.TTS.Azure.Key, "AZURE_SPEECH_KEY")
	fromEnv(&c.TTS.Azure.Region, "AZURE_SPEECH_REGION")
	fromEnv(&c.TTS.EdgeTTS.BaseURL, "EDGE_TTS_BASE_URL")
	fromEnv(&c.TTS.EdgeTTS.Origin, "EDGE_TTS_ORIGIN")
	fromEnv(&c.TTS.EdgeTTS.UserAgent, "EDGE_TTS_USER_AGENT")
	fromEnv(&c.TTS.EdgeTTS.TrustedClientToken, "EDGE_TTS_TRUSTED_CLIENT_TOKEN")
	fromEnv(&c.TTS.EdgeTTS.SecMSGecVersion, "EDGE_TTS_SEC_MS_GEC_VERSION")
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.TTS.Engine {
	case EnginePlayHT, EngineEdgeTTS, EngineGoogle, EngineAzure:
	default:
		return fmt.Errorf("invalid tts.engine %q: must be one of %s", c.TTS.Engine, strings.Join(Engines, ", "))
	}
	if c.Synthesis.MaxAttempts < 1 {
		return fmt.Errorf("invalid synthesis.max_attempts %d: must be at least 1", c.Synthesis.MaxAttempts)
	}
	if c.Synthesis.Backoff.BaseDelay < 0 || c.Synthesis.Backoff.MaxDelay < 0 {
		return fmt.Errorf("invalid synthesis.backoff: delays must not be negative")
	}
	if c.Synthesis.Backoff.Jitter < 0 || c.Synthesis.Backoff.Jitter > 1 {
		return fmt.Errorf("invalid synthesis.backoff.jitter %.2f: must be within [0, 1]", c.Synthesis.Backoff.Jitter)
	}
	if c.Corpus.AssetRoot == "" {
		return fmt.Errorf("corpus.asset_root must not be empty")
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# storyvoice configuration
# ------------------------
# Durations: ms, s, m, h, d (day), w (week)
# Secrets may be left empty and supplied via environment or .env:
#   PLAYHT_USER_ID, PLAYHT_API_KEY, GOOGLE_TTS_API_KEY, GOOGLE_APPLICATION_CREDENTIALS,
#   AZURE_SPEECH_KEY, AZURE_SPEECH_REGION,
#   EDGE_TTS_BASE_URL, EDGE_TTS_ORIGIN, EDGE_TTS_USER_AGENT,
#   EDGE_TTS_TRUSTED_CLIENT_TOKEN, EDGE_TTS_SEC_MS_GEC_VERSION

`)
	data = append(header, data...)

	reEngine := regexp.MustCompile(`(?m)^(\s+)engine: (playht|edge-tts|google|azure)$`)
	data = reEngine.ReplaceAll(data, []byte("${1}# Options: playht, edge-tts, google, azure\n${1}engine: ${2}"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
