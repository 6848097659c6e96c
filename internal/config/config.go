package config

import (
	"fmt"
	"time"
)

type Config struct {
	InputPath          string
	OutputVideo        string
	UploadedDir        string
	Width              int
	Height             int
	FPS                int
	Workers            int
	DPI                int
	PauseDuration      time.Duration
	MinVisibleDuration time.Duration
	RetryAttempts      int
	AttemptTimeout     time.Duration
	ExportTimeout      time.Duration
	Voice              Voice
	EndSlide           bool
	EndSlideURL        string
	VideoEncoder       string
	Quality            int
	ShowStats          bool
	BuildVersion       string
}

// Voice describes the speech synthesis profile. Loaded from a YAML
// profile file or filled with defaults by Validate.
type Voice struct {
	Provider string `yaml:"provider"` // "azure" | "gemini"
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
	Rate     string `yaml:"rate"`  // e.g. "+0%", "-10%"
	Pitch    string `yaml:"pitch"` // e.g. "+0Hz"
}

func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.PauseDuration < 0 {
		return fmt.Errorf("pause duration must be >= 0")
	}
	if c.FPS <= 0 {
		c.FPS = 24
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.DPI <= 0 {
		c.DPI = 150
	}
	// Zero pause is a valid setting (narration starts immediately), so no
	// default is applied here; the CLI flag carries the 1.5s default.
	if c.MinVisibleDuration <= 0 {
		c.MinVisibleDuration = 3 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 30 * time.Second
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = 90 * time.Second
	}
	if c.Voice.Provider == "" {
		c.Voice.Provider = "azure"
	}
	if c.Voice.Name == "" {
		c.Voice.Name = "en-US-AvaMultilingualNeural"
	}
	if c.Voice.Language == "" {
		c.Voice.Language = "en-US"
	}
	return nil
}
