package internal

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/hypnojourney/testutil"
)

// clearConfigEnv blanks every variable LoadConfig reads
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvOpenAIAPIKey, EnvElevenLabsAPIKey, EnvOpenAIBaseURL, EnvElevenLabsBaseURL,
		EnvModel, EnvStore, EnvAudioDir, EnvPlayer, EnvHTTPTimeout,
	} {
		t.Setenv(key, "")
	}
	dir := testutil.CreateTempDir(t)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(testutil.CreateTempDir(t), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Model != "gpt-4" {
		t.Errorf("Model = %q, want gpt-4", cfg.Model)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.MaxTokens != 100 {
		t.Errorf("MaxTokens = %d, want 100", cfg.MaxTokens)
	}
	if cfg.OpenAIBaseURL != DefaultOpenAIBaseURL || cfg.ElevenLabsBaseURL != DefaultElevenLabsBaseURL {
		t.Errorf("base URLs = %q, %q", cfg.OpenAIBaseURL, cfg.ElevenLabsBaseURL)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Errorf("HTTPTimeout = %v, want 60s", cfg.HTTPTimeout)
	}
	if cfg.StorePath == "" {
		t.Error("StorePath should default to the data directory")
	}
	if got := cfg.MissingKeys(); len(got) != 2 {
		t.Errorf("MissingKeys() = %v, want both keys", got)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfigFile(t, `
openai_api_key: file-openai
elevenlabs_api_key: file-eleven
model: gpt-4o
temperature: 0.5
audio_dir: /var/audio
http_timeout: 2m
`)
	t.Setenv(EnvOpenAIAPIKey, "env-openai")
	t.Setenv(EnvPlayer, "mpv")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"env overrides file", cfg.OpenAIAPIKey, "env-openai"},
		{"file value kept", cfg.ElevenLabsAPIKey, "file-eleven"},
		{"model from file", cfg.Model, "gpt-4o"},
		{"temperature from file", cfg.Temperature, float32(0.5)},
		{"audio dir from file", cfg.AudioDir, "/var/audio"},
		{"player from env", cfg.Player, "mpv"},
		{"timeout from file", cfg.HTTPTimeout, 2 * time.Minute},
		{"default kept", cfg.MaxTokens, 100},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if got := cfg.MissingKeys(); len(got) != 0 {
		t.Errorf("MissingKeys() = %v, want none", got)
	}
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(testutil.CreateTempDir(t), "nope.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("LoadConfig() error = %v, want fs.ErrNotExist", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfigFile(t, "model: [unterminated")

	_, err := LoadConfig(path)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("LoadConfig() error = %v, want *ParseError", err)
	}
	if parseErr.Source != "config" {
		t.Errorf("ParseError.Source = %q, want config", parseErr.Source)
	}
}

func TestLoadConfig_HTTPTimeoutEnv(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"30", 30 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(EnvHTTPTimeout, tt.value)

			cfg, err := LoadConfig("")
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.HTTPTimeout != tt.want {
				t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, tt.want)
			}
		})
	}
}
