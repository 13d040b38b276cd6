// Package config provides configuration loading and validation for the audio
// tools bot. It handles YAML-based configuration with struct validation; the
// bot token intentionally never appears here and is taken from the
// environment instead.
package config
