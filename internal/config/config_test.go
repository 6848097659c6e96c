package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestValidateDefaults(t *testing.T) {
	cfg := &Config{
		InputPath: "deck.pptx",
		Width:     1280,
		Height:    720,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.FPS != 24 {
		t.Errorf("Expected default FPS 24, got %d", cfg.FPS)
	}
	if cfg.Workers != 4 {
		t.Errorf("Expected default workers 4, got %d", cfg.Workers)
	}
	if cfg.MinVisibleDuration != 3*time.Second {
		t.Errorf("Expected default min visible 3s, got %v", cfg.MinVisibleDuration)
	}
	if cfg.RetryAttempts != 3 {
		t.Errorf("Expected default retry attempts 3, got %d", cfg.RetryAttempts)
	}
	if cfg.Voice.Provider != "azure" {
		t.Errorf("Expected default provider azure, got %s", cfg.Voice.Provider)
	}
}

func TestValidateKeepsExplicitZeroPause(t *testing.T) {
	cfg := &Config{
		InputPath:     "deck.pptx",
		Width:         1280,
		Height:        720,
		PauseDuration: 0,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.PauseDuration != 0 {
		t.Errorf("Explicit zero pause was overridden to %v", cfg.PauseDuration)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing input", Config{Width: 1280, Height: 720}},
		{"bad resolution", Config{InputPath: "a.pptx", Width: 0, Height: 720}},
		{"negative pause", Config{InputPath: "a.pptx", Width: 1280, Height: 720, PauseDuration: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Errorf("Expected error for %s, got nil", tt.name)
			}
		})
	}
}

func TestVoiceProfileWriteRead(t *testing.T) {
	v := &Voice{
		Provider: "azure",
		Name:     "en-US-AvaMultilingualNeural",
		Language: "en-US",
		Rate:     "+10%",
		Pitch:    "+0Hz",
	}

	tmpFile := filepath.Join(t.TempDir(), "voice.yaml")
	if err := WriteVoiceProfile(v, tmpFile); err != nil {
		t.Fatalf("WriteVoiceProfile failed: %v", err)
	}

	got, err := ReadVoiceProfile(tmpFile)
	if err != nil {
		t.Fatalf("ReadVoiceProfile failed: %v", err)
	}

	if *got != *v {
		t.Errorf("Profile mismatch: expected %+v, got %+v", v, got)
	}
}
