package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voicebox/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speaker.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
openai:
  api_key: test-key
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Audio.InputSampleRate != 16000 {
		t.Errorf("InputSampleRate: got %d, want 16000", cfg.Audio.InputSampleRate)
	}
	if cfg.Audio.OutputSampleRate != 24000 {
		t.Errorf("OutputSampleRate: got %d, want 24000", cfg.Audio.OutputSampleRate)
	}
	if cfg.OpenAI.Model != "gpt-4o-realtime-preview" {
		t.Errorf("Model: got %s", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.Voice != "alloy" {
		t.Errorf("Voice: got %s", cfg.OpenAI.Voice)
	}
	if cfg.Weather.DefaultUnit != "F" {
		t.Errorf("DefaultUnit: got %s", cfg.Weather.DefaultUnit)
	}
	if cfg.Trigger.Source != "stdin" {
		t.Errorf("Trigger.Source: got %s", cfg.Trigger.Source)
	}
	if cfg.Trigger.ButtonPin != "GPIO17" {
		t.Errorf("ButtonPin: got %s", cfg.Trigger.ButtonPin)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log defaults: got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("OPENWEATHERMAP_API_KEY", "owm-from-env")

	path := writeConfig(t, `
openai:
  api_key: ${OPENAI_API_KEY}
weather:
  api_key: ${OPENWEATHERMAP_API_KEY}
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("OpenAI.APIKey: got %s", cfg.OpenAI.APIKey)
	}
	if cfg.Weather.APIKey != "owm-from-env" {
		t.Errorf("Weather.APIKey: got %s", cfg.Weather.APIKey)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	path := writeConfig(t, `
log:
  level: debug
`)

	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if !strings.Contains(err.Error(), "openai.api_key") {
		t.Errorf("error should name the missing key, got: %v", err)
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("OPENWEATHERMAP_API_KEY", "owm-fallback")

	path := writeConfig(t, `
log:
  level: debug
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-fallback" {
		t.Errorf("OpenAI.APIKey: got %s", cfg.OpenAI.APIKey)
	}
	if cfg.Weather.APIKey != "owm-fallback" {
		t.Errorf("Weather.APIKey: got %s", cfg.Weather.APIKey)
	}
}

// An env file alone is a valid setup: no yaml config means defaults.
func TestLoad_MissingFileRunsOnDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env-only")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-env-only" {
		t.Errorf("OpenAI.APIKey: got %s", cfg.OpenAI.APIKey)
	}
	if cfg.Audio.InputSampleRate != 16000 || cfg.Trigger.Source != "stdin" {
		t.Errorf("defaults not applied: %d/%s", cfg.Audio.InputSampleRate, cfg.Trigger.Source)
	}
}

func TestLoad_MissingFileWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error when no config and no env key")
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
openai:
  api_key: k
  voice: verse
  temperature: 0.5
audio:
  silence_threshold: 800
trigger:
  source: button
  button_pin: GPIO23
remote:
  enabled: true
  addr: ":9090"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.OpenAI.Voice != "verse" {
		t.Errorf("Voice: got %s", cfg.OpenAI.Voice)
	}
	if cfg.OpenAI.Temperature != 0.5 {
		t.Errorf("Temperature: got %f", cfg.OpenAI.Temperature)
	}
	if cfg.Audio.SilenceThreshold != 800 {
		t.Errorf("SilenceThreshold: got %d", cfg.Audio.SilenceThreshold)
	}
	if cfg.Trigger.Source != "button" || cfg.Trigger.ButtonPin != "GPIO23" {
		t.Errorf("Trigger: got %s/%s", cfg.Trigger.Source, cfg.Trigger.ButtonPin)
	}
	if !cfg.Remote.Enabled || cfg.Remote.Addr != ":9090" {
		t.Errorf("Remote: got %v/%s", cfg.Remote.Enabled, cfg.Remote.Addr)
	}
}
