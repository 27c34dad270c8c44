package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig
const (
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvElevenLabsAPIKey  = "ELEVENLABS_API_KEY"
	EnvOpenAIBaseURL     = "HYPNO_OPENAI_BASE_URL"
	EnvElevenLabsBaseURL = "HYPNO_ELEVENLABS_BASE_URL"
	EnvModel             = "HYPNO_MODEL"
	EnvStore             = "HYPNO_STORE"
	EnvAudioDir          = "HYPNO_AUDIO_DIR"
	EnvPlayer            = "HYPNO_PLAYER"
	EnvHTTPTimeout       = "HYPNO_HTTP_TIMEOUT"
)

// Defaults
const (
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	DefaultModel             = "gpt-4"
	DefaultTemperature       = 0.7
	DefaultMaxTokens         = 100
	DefaultHTTPTimeout       = 60 * time.Second
)

// Config holds the runtime configuration
type Config struct {
	OpenAIAPIKey      string        `yaml:"openai_api_key"`
	ElevenLabsAPIKey  string        `yaml:"elevenlabs_api_key"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"`
	ElevenLabsBaseURL string        `yaml:"elevenlabs_base_url"`
	Model             string        `yaml:"model"`
	Temperature       float32       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	StorePath         string        `yaml:"store"`
	AudioDir          string        `yaml:"audio_dir"`
	Player            string        `yaml:"player"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	cfg := Config{
		OpenAIBaseURL:     DefaultOpenAIBaseURL,
		ElevenLabsBaseURL: DefaultElevenLabsBaseURL,
		Model:             DefaultModel,
		Temperature:       DefaultTemperature,
		MaxTokens:         DefaultMaxTokens,
		HTTPTimeout:       DefaultHTTPTimeout,
	}
	if paths, err := DetectAppPaths(); err == nil {
		cfg.StorePath = paths.StorePath()
	}
	return cfg
}

// LoadConfig builds the configuration from, in increasing precedence:
// defaults, .env in the working directory, the YAML file at path, and the
// process environment. An empty path uses the default config file, which
// may be absent; an explicit path must exist.
func LoadConfig(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		if paths, err := DetectAppPaths(); err == nil {
			path = paths.ConfigFile()
		}
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				LogDebug("No config file at %s", path)
			} else {
				return Config{}, err
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ParseError{Source: "config", Key: path, Err: err}
	}
	LogDebug("Loaded config from %s", path)
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.OpenAIAPIKey, EnvOpenAIAPIKey)
	setString(&c.ElevenLabsAPIKey, EnvElevenLabsAPIKey)
	setString(&c.OpenAIBaseURL, EnvOpenAIBaseURL)
	setString(&c.ElevenLabsBaseURL, EnvElevenLabsBaseURL)
	setString(&c.Model, EnvModel)
	setString(&c.StorePath, EnvStore)
	setString(&c.AudioDir, EnvAudioDir)
	setString(&c.Player, EnvPlayer)

	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return &ParseError{Source: "env", Key: EnvHTTPTimeout, Err: err}
		}
		c.HTTPTimeout = d
	}
	return nil
}

// parseTimeout accepts a Go duration ("90s") or a plain number of seconds
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// MissingKeys lists the API key variables that are not set. Missing keys are
// not fatal: the corresponding remote call fails with its usual error kind.
func (c Config) MissingKeys() []string {
	var missing []string
	if c.OpenAIAPIKey == "" {
		missing = append(missing, EnvOpenAIAPIKey)
	}
	if c.ElevenLabsAPIKey == "" {
		missing = append(missing, EnvElevenLabsAPIKey)
	}
	return missing
}
