package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ivlev/slides2video/internal/config"
)

// Tier records how a slide's narration audio was obtained.
type Tier int

const (
	TierEmpty  Tier = iota // no narration text, synthesis bypassed
	TierFresh              // synthesized by an external call in this run
	TierCached             // reused from the run-scoped cache
	TierSilent             // degraded to silence after synthesis failed
)

func (t Tier) String() string {
	switch t {
	case TierEmpty:
		return "empty"
	case TierFresh:
		return "fresh"
	case TierCached:
		return "cached"
	case TierSilent:
		return "silent"
	}
	return "unknown"
}

// Clip is one synthesized utterance: WAV bytes plus exact duration.
type Clip struct {
	Audio    []byte
	Duration time.Duration
}

// Segment is the narration outcome for one slide.
type Segment struct {
	SlideIndex int
	Text       string
	Clip       Clip
	Tier       Tier
	Err        error // failure cause when Tier == TierSilent
}

// Synthesizer is the external speech service boundary.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice config.Voice) (Clip, error)
}

// Class splits synthesis failures into the retry-relevant categories.
type Class int

const (
	ClassAuth Class = iota
	ClassInvalidText
	ClassRateLimited
	ClassTransient
)

func (c Class) String() string {
	switch c {
	case ClassAuth:
		return "auth"
	case ClassInvalidText:
		return "invalid text"
	case ClassRateLimited:
		return "rate limited"
	case ClassTransient:
		return "transient network"
	}
	return "unknown"
}

// Error is a classified synthesis failure.
type Error struct {
	Class Class
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("synthesis %s: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retriable reports whether another attempt may succeed. Unclassified
// errors count as transient so plain transport failures are retried.
func Retriable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Class == ClassRateLimited || se.Class == ClassTransient
	}
	return true
}

// Credentials are read from the process environment; the pipeline never
// stores keys in config files.
type Credentials struct {
	SpeechKey    string `env:"SPEECH_KEY"`
	SpeechRegion string `env:"SPEECH_REGION" envDefault:"eastus2"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_TTS_MODEL" envDefault:"gemini-2.5-flash-preview-tts"`
}

func LoadCredentials() (Credentials, error) {
	var c Credentials
	if err := env.Parse(&c); err != nil {
		return Credentials{}, fmt.Errorf("parse speech credentials: %w", err)
	}
	return c, nil
}

// NewSynthesizer picks the provider named by the voice profile.
func NewSynthesizer(voice config.Voice, creds Credentials) (Synthesizer, error) {
	switch voice.Provider {
	case "azure":
		if creds.SpeechKey == "" {
			return nil, fmt.Errorf("SPEECH_KEY is not set")
		}
		return NewAzureSynthesizer(creds.SpeechKey, creds.SpeechRegion), nil
	case "gemini":
		if creds.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return NewGeminiSynthesizer(creds.GeminiAPIKey, creds.GeminiModel), nil
	}
	return nil, fmt.Errorf("unknown speech provider %q", voice.Provider)
}
