package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "configs", "storyvoice.yaml")

	tests := []struct {
		name          string
		setup         func()
		validate      func(*testing.T, *Config)
		checkFile     func(*testing.T)
		expectedError bool
	}{
		{
			name:  "NewFile_Defaults",
			setup: func() {},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.TTS.Engine != EnginePlayHT {
					t.Errorf("expected default engine %q, got %q", EnginePlayHT, cfg.TTS.Engine)
				}
				if cfg.Synthesis.MaxAttempts != 3 {
					t.Errorf("expected 3 attempts, got %d", cfg.Synthesis.MaxAttempts)
				}
				if cfg.Synthesis.Backoff.BaseDelay.D() != 5*time.Second {
					t.Errorf("expected 5s base delay, got %v", cfg.Synthesis.Backoff.BaseDelay.D())
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "engine: playht") {
					t.Error("config file missing default engine")
				}
				if !strings.Contains(string(content), "# Options: playht, edge-tts, google, azure") {
					t.Error("config file missing engine options comment")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func() {
				err := os.WriteFile(configPath, []byte("tts:\n  engine: google\nsynthesis:\n  max_attempts: 5\n  backoff:\n    base_delay: 2s\npacing:\n  voice_delay: 0s\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.TTS.Engine != EngineGoogle {
					t.Errorf("expected engine google, got %q", cfg.TTS.Engine)
				}
				if cfg.Synthesis.MaxAttempts != 5 {
					t.Errorf("expected 5 attempts, got %d", cfg.Synthesis.MaxAttempts)
				}
				if cfg.Synthesis.Backoff.BaseDelay.D() != 2*time.Second {
					t.Errorf("expected 2s base delay, got %v", cfg.Synthesis.Backoff.BaseDelay.D())
				}
				if cfg.Synthesis.Backoff.MaxDelay.D() != time.Minute {
					t.Errorf("expected default max delay to survive merge, got %v", cfg.Synthesis.Backoff.MaxDelay.D())
				}
				if cfg.Pacing.VoiceDelay.D() != 0 {
					t.Errorf("expected voice delay 0, got %v", cfg.Pacing.VoiceDelay.D())
				}
			},
		},
		{
			name: "Secrets_Env_Override",
			setup: func() {
				t.Setenv("PLAYHT_USER_ID", "env_user")
				t.Setenv("PLAYHT_API_KEY", "env_secret")
				err := os.WriteFile(configPath, []byte("tts:\n  engine: playht\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.TTS.PlayHT.UserID != "env_user" {
					t.Errorf("expected user id from env, got %q", cfg.TTS.PlayHT.UserID)
				}
				if cfg.TTS.PlayHT.Key != "env_secret" {
					t.Errorf("expected key from env, got %q", cfg.TTS.PlayHT.Key)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "env_secret") {
					t.Error("environment secret should NOT be persisted to config file")
				}
			},
		},
		{
			name: "Invalid_YAML",
			setup: func() {
				err := os.WriteFile(configPath, []byte("tts: [not a map]"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "Invalid_Engine",
			setup: func() {
				err := os.WriteFile(configPath, []byte("tts:\n  engine: windows-sapi\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "Invalid_Attempts",
			setup: func() {
				err := os.WriteFile(configPath, []byte("synthesis:\n  max_attempts: 0\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Each case starts without a config directory; setups that
			// write a file recreate it.
			_ = os.RemoveAll(filepath.Dir(configPath))
			if tt.name != "NewFile_Defaults" {
				if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
					t.Fatal(err)
				}
			}
			tt.setup()

			cfg, err := Load(configPath)
			if tt.expectedError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
			if tt.checkFile != nil {
				tt.checkFile(t)
			}
		})
	}
}

func TestGenerateDefault_ExistingFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyvoice.yaml")
	if err := os.WriteFile(path, []byte("custom: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := GenerateDefault(path); err != nil {
		t.Fatalf("GenerateDefault failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "custom: true\n" {
		t.Errorf("existing file was overwritten: %q", content)
	}
}
