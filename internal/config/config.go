// Package config loads the narrator configuration. Values come from
// defaults, then the YAML file, then NARRATOR_ prefixed environment
// variables, each layer overriding the previous one.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/invopop/jsonschema"
	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-narrator/core/speech"
	"gopkg.in/yaml.v3"
)

const (
	// PathEnv overrides the config file location.
	PathEnv   = "NARRATOR_CONFIG"
	envPrefix = "NARRATOR_"

	appendedSilence    = 400 * time.Millisecond
	punctuationSilence = 150 * time.Millisecond
)

type Config struct {
	SpeechRate            float64 `yaml:"speech_rate" json:"speech_rate" env:"SPEECH_RATE" jsonschema:"minimum=0.5,maximum=6,default=1"`
	Pitch                 float64 `yaml:"pitch" json:"pitch" env:"PITCH" jsonschema:"minimum=0,maximum=2,default=1"`
	AppendSilence         bool    `yaml:"append_silence" json:"append_silence" env:"APPEND_SILENCE" jsonschema:"default=true"`
	PunctuationSilence    bool    `yaml:"punctuation_silence" json:"punctuation_silence" env:"PUNCTUATION_SILENCE" jsonschema:"default=true"`
	StartupShutdownSounds bool    `yaml:"startup_shutdown_sounds" json:"startup_shutdown_sounds" env:"STARTUP_SHUTDOWN_SOUNDS" jsonschema:"default=true"`
	WelcomeMessage        string  `yaml:"welcome_message" json:"welcome_message" env:"WELCOME_MESSAGE"`
	ShutdownMessage       string  `yaml:"shutdown_message" json:"shutdown_message" env:"SHUTDOWN_MESSAGE"`

	Speech  SpeechConfig  `yaml:"speech" json:"speech" envPrefix:"SPEECH_"`
	Overlay OverlayConfig `yaml:"overlay" json:"overlay" envPrefix:"OVERLAY_"`
	Sound   SoundConfig   `yaml:"sound" json:"sound" envPrefix:"SOUND_"`
}

type SpeechConfig struct {
	// Voice is the Deepgram voice model. Without DEEPGRAM_API_KEY speech is
	// printed instead of spoken.
	Voice string `yaml:"voice" json:"voice" env:"VOICE"`
}

type OverlayConfig struct {
	// Addr is where overlay clients connect. Empty disables the server.
	Addr string `yaml:"addr" json:"addr" env:"ADDR"`
}

type SoundConfig struct {
	Backend string `yaml:"backend" json:"backend" env:"BACKEND" jsonschema:"enum=miniaudio,enum=portaudio,enum=none"`
}

func Default() Config {
	return Config{
		SpeechRate:            1.0,
		Pitch:                 1.0,
		AppendSilence:         true,
		PunctuationSilence:    true,
		StartupShutdownSounds: true,
		WelcomeMessage:        "Welcome to Aria.",
		ShutdownMessage:       "Aria shutting down.",
		Speech:                SpeechConfig{Voice: "aura-2-thalia-en"},
		Overlay:               OverlayConfig{Addr: "127.0.0.1:7345"},
		Sound:                 SoundConfig{Backend: "miniaudio"},
	}
}

// DefaultPath is NARRATOR_CONFIG when set, otherwise narrator.yaml in the
// user config directory.
func DefaultPath() (string, error) {
	if path := os.Getenv(PathEnv); path != "" {
		return path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "ema-narrator", "narrator.yaml"), nil
}

// Load reads the config at path, writing the defaults there first when the
// file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Write(path, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func Validate(cfg *Config) error {
	var errs []error
	if cfg.SpeechRate < 0.5 || cfg.SpeechRate > 6 {
		errs = append(errs, fmt.Errorf("speech_rate must be within [0.5, 6], got %v", cfg.SpeechRate))
	}
	if cfg.Pitch < 0 || cfg.Pitch > 2 {
		errs = append(errs, fmt.Errorf("pitch must be within [0, 2], got %v", cfg.Pitch))
	}
	switch cfg.Sound.Backend {
	case "miniaudio", "portaudio", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown sound backend %q", cfg.Sound.Backend))
	}
	return errors.Join(errs...)
}

// Snapshot returns a deep copy that is safe to hand to another goroutine.
func (c *Config) Snapshot() (Config, error) {
	var snapshot Config
	if err := copier.CopyWithOption(&snapshot, c, copier.Option{DeepCopy: true}); err != nil {
		return Config{}, fmt.Errorf("failed to copy config: %w", err)
	}
	return snapshot, nil
}

// SpeechOptions maps the voice settings onto engine options. The silence
// switches choose between a natural pause and none at all.
func (c Config) SpeechOptions() speech.Options {
	opts := []speech.Option{speech.WithRate(c.SpeechRate), speech.WithPitch(c.Pitch)}
	if c.AppendSilence {
		opts = append(opts, speech.WithAppendedSilence(appendedSilence))
	}
	if c.PunctuationSilence {
		opts = append(opts, speech.WithPunctuationSilence(punctuationSilence))
	}
	return speech.NewOptions(opts...)
}

// Schema renders the JSON schema of the config file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&Config{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config schema: %w", err)
	}
	return data, nil
}
