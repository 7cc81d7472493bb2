package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Weather WeatherConfig `yaml:"weather"`
	Trigger TriggerConfig `yaml:"trigger"`
	Remote  RemoteConfig  `yaml:"remote"`
	Log     LogConfig     `yaml:"log"`
}

type AudioConfig struct {
	InputSampleRate  int `yaml:"input_sample_rate"`
	OutputSampleRate int `yaml:"output_sample_rate"`
	FrameSize        int `yaml:"frame_size"`
	// SilenceThreshold is the absolute int16 amplitude below which a
	// sample counts as silence when deciding the utterance is over.
	SilenceThreshold int    `yaml:"silence_threshold"`
	SilenceDuration  string `yaml:"silence_duration"`
	MaxUtterance     string `yaml:"max_utterance"`
}

type OpenAIConfig struct {
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	Voice        string  `yaml:"voice"`
	Instructions string  `yaml:"instructions"`
	Temperature  float64 `yaml:"temperature"`
	BaseURL      string  `yaml:"base_url"`
}

type WeatherConfig struct {
	APIKey         string  `yaml:"api_key"`
	DefaultLat     float64 `yaml:"default_lat"`
	DefaultLon     float64 `yaml:"default_lon"`
	DefaultUnit    string  `yaml:"default_unit"`
	CacheTTL       string  `yaml:"cache_ttl"`
	RequestTimeout string  `yaml:"request_timeout"`
}

type TriggerConfig struct {
	Source     string `yaml:"source"`
	ButtonPin  string `yaml:"button_pin"`
	DebounceMs int    `yaml:"debounce_ms"`
}

type RemoteConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the yaml config at path. A missing file is not an error:
// the speaker runs on defaults with secrets taken straight from the
// environment, so an env file alone is a complete setup.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.setDefaults()

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Weather.APIKey == "" {
		cfg.Weather.APIKey = os.Getenv("OPENWEATHERMAP_API_KEY")
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai.api_key is required (set OPENAI_API_KEY in the env file)")
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Audio.InputSampleRate == 0 {
		c.Audio.InputSampleRate = 16000
	}
	if c.Audio.OutputSampleRate == 0 {
		c.Audio.OutputSampleRate = 24000
	}
	if c.Audio.FrameSize == 0 {
		c.Audio.FrameSize = 1024
	}
	if c.Audio.SilenceThreshold == 0 {
		c.Audio.SilenceThreshold = 500
	}
	if c.Audio.SilenceDuration == "" {
		c.Audio.SilenceDuration = "1s"
	}
	if c.Audio.MaxUtterance == "" {
		c.Audio.MaxUtterance = "10s"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-realtime-preview"
	}
	if c.OpenAI.Voice == "" {
		c.OpenAI.Voice = "alloy"
	}
	if c.OpenAI.Instructions == "" {
		c.OpenAI.Instructions = "You are a helpful assistant"
	}
	if c.OpenAI.Temperature == 0 {
		c.OpenAI.Temperature = 0.8
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "wss://api.openai.com/v1/realtime"
	}
	if c.Weather.DefaultLat == 0 && c.Weather.DefaultLon == 0 {
		c.Weather.DefaultLat = 37.7749
		c.Weather.DefaultLon = -122.4194
	}
	if c.Weather.DefaultUnit == "" {
		c.Weather.DefaultUnit = "F"
	}
	if c.Weather.CacheTTL == "" {
		c.Weather.CacheTTL = "5m"
	}
	if c.Weather.RequestTimeout == "" {
		c.Weather.RequestTimeout = "10s"
	}
	if c.Trigger.Source == "" {
		c.Trigger.Source = "stdin"
	}
	if c.Trigger.ButtonPin == "" {
		c.Trigger.ButtonPin = "GPIO17"
	}
	if c.Trigger.DebounceMs == 0 {
		c.Trigger.DebounceMs = 100
	}
	if c.Remote.Addr == "" {
		c.Remote.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
