package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete bot configuration
type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Download  DownloadConfig  `yaml:"download"`
	Transcode TranscodeConfig `yaml:"transcode"`
	Storage   StorageConfig   `yaml:"storage"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BotConfig contains chat client configuration
type BotConfig struct {
	UpdateTimeout int  `yaml:"update_timeout"` // long-poll timeout, seconds
	Debug         bool `yaml:"debug"`
}

// DownloadConfig contains attachment download configuration
type DownloadConfig struct {
	Timeout int `yaml:"timeout"` // seconds
}

// TranscodeConfig contains voice-message encoding parameters
type TranscodeConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
	Bitrate    string `yaml:"bitrate"`     // e.g. "48k"
	SampleRate int    `yaml:"sample_rate"` // Hz
	Channels   int    `yaml:"channels"`
	Timeout    int    `yaml:"timeout"` // seconds, 0 disables
}

// StorageConfig contains temporary file storage configuration
type StorageConfig struct {
	TempDir string `yaml:"temp_dir"` // empty means the OS temp directory
}

// HTTPConfig contains monitoring HTTP server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs validation of the complete configuration
func (c *Config) Validate() error {
	if err := c.Bot.Validate(); err != nil {
		return fmt.Errorf("bot config: %w", err)
	}

	if err := c.Download.Validate(); err != nil {
		return fmt.Errorf("download config: %w", err)
	}

	if err := c.Transcode.Validate(); err != nil {
		return fmt.Errorf("transcode config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates chat client configuration
func (b *BotConfig) Validate() error {
	if b.UpdateTimeout < 1 || b.UpdateTimeout > 300 {
		return fmt.Errorf("update_timeout must be between 1 and 300 seconds, got %d", b.UpdateTimeout)
	}

	return nil
}

// Validate validates download configuration
func (d *DownloadConfig) Validate() error {
	if d.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", d.Timeout)
	}

	return nil
}

// Valid Opus sample rates per RFC 6716
var opusSampleRates = map[int]bool{
	8000: true, 12000: true, 16000: true, 24000: true, 48000: true,
}

// Validate validates transcode configuration
func (t *TranscodeConfig) Validate() error {
	if t.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path cannot be empty")
	}

	if t.Bitrate == "" {
		return fmt.Errorf("bitrate cannot be empty")
	}
	if !strings.HasSuffix(t.Bitrate, "k") {
		return fmt.Errorf("bitrate must be expressed in kilobits, e.g. \"48k\", got %q", t.Bitrate)
	}

	if !opusSampleRates[t.SampleRate] {
		return fmt.Errorf("sample_rate must be one of [8000, 12000, 16000, 24000, 48000] Hz, got %d", t.SampleRate)
	}

	if t.Channels != 1 && t.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", t.Channels)
	}

	if t.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %d", t.Timeout)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetUpdateTimeout returns the long-poll timeout in whole seconds as
// expected by the bot API client.
func (b *BotConfig) GetUpdateTimeout() int {
	return b.UpdateTimeout
}

// GetTimeoutDuration returns the download timeout as a time.Duration
func (d *DownloadConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

// GetTimeoutDuration returns the transcode timeout as a time.Duration.
// A zero duration means no timeout is applied.
func (t *TranscodeConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}
