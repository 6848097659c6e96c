package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/ivlev/slides2video/internal/config"
)

// GeminiSynthesizer uses the Gemini TTS models through the genai SDK.
// The service returns raw PCM16 mono at 24 kHz, which is wrapped into a
// WAV container so the rest of the pipeline sees one audio format.
type GeminiSynthesizer struct {
	apiKey string
	model  string
}

func NewGeminiSynthesizer(apiKey, model string) *GeminiSynthesizer {
	return &GeminiSynthesizer{apiKey: apiKey, model: model}
}

func (s *GeminiSynthesizer) Synthesize(ctx context.Context, text string, voice config.Voice) (Clip, error) {
	if strings.TrimSpace(text) == "" {
		return Clip{}, &Error{Class: ClassInvalidText, Err: fmt.Errorf("empty text")}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return Clip{}, &Error{Class: ClassTransient, Err: fmt.Errorf("create client: %w", err)}
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice.Name},
			},
		},
	}

	result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(text), cfg)
	if err != nil {
		return Clip{}, &Error{Class: classifyGeminiErr(err), Err: err}
	}

	pcm := inlineAudio(result)
	if len(pcm) == 0 {
		return Clip{}, &Error{Class: ClassTransient, Err: fmt.Errorf("empty audio response")}
	}

	return Clip{Audio: pcmToWAV(pcm), Duration: pcmDuration(len(pcm))}, nil
}

func inlineAudio(result *genai.GenerateContentResponse) []byte {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data
		}
	}
	return nil
}

// classifyGeminiErr maps SDK errors onto the retry taxonomy. The SDK
// surfaces HTTP failures as genai.APIError with a status code; anything
// the SDK wraps differently falls back to message matching.
func classifyGeminiErr(err error) Class {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ClassAuth
		case http.StatusBadRequest:
			return ClassInvalidText
		case http.StatusTooManyRequests:
			return ClassRateLimited
		}
		return ClassTransient
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return ClassRateLimited
	case strings.Contains(msg, "API key") || strings.Contains(msg, "PERMISSION_DENIED"):
		return ClassAuth
	case strings.Contains(msg, "INVALID_ARGUMENT"):
		return ClassInvalidText
	default:
		return ClassTransient
	}
}
