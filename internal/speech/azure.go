package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ivlev/slides2video/internal/config"
)

const azureOutputFormat = "riff-24khz-16bit-mono-pcm"

// AzureSynthesizer calls the Azure Speech REST endpoint. One POST per
// utterance; the service returns a complete WAV body.
type AzureSynthesizer struct {
	key      string
	endpoint string
	client   *http.Client
}

func NewAzureSynthesizer(key, region string) *AzureSynthesizer {
	return &AzureSynthesizer{
		key:      key,
		endpoint: fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		client:   &http.Client{},
	}
}

func (s *AzureSynthesizer) Synthesize(ctx context.Context, text string, voice config.Voice) (Clip, error) {
	if strings.TrimSpace(text) == "" {
		return Clip{}, &Error{Class: ClassInvalidText, Err: fmt.Errorf("empty text")}
	}

	body := buildSSML(text, voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(body))
	if err != nil {
		return Clip{}, &Error{Class: ClassInvalidText, Err: err}
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	req.Header.Set("User-Agent", "slides2video")

	resp, err := s.client.Do(req)
	if err != nil {
		return Clip{}, &Error{Class: ClassTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Clip{}, &Error{
			Class: classifyStatus(resp.StatusCode),
			Err:   fmt.Errorf("azure tts %s: %s", resp.Status, strings.TrimSpace(string(msg))),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Clip{}, &Error{Class: ClassTransient, Err: err}
	}

	dur, err := wavDuration(audio)
	if err != nil {
		return Clip{}, &Error{Class: ClassTransient, Err: fmt.Errorf("bad audio payload: %w", err)}
	}

	return Clip{Audio: audio, Duration: dur}, nil
}

func classifyStatus(code int) Class {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ClassAuth
	case code == http.StatusBadRequest:
		return ClassInvalidText
	case code == http.StatusTooManyRequests:
		return ClassRateLimited
	default:
		return ClassTransient
	}
}

// buildSSML wraps the narration in the SSML envelope the Azure endpoint
// expects; rate and pitch are applied only when the profile sets them.
func buildSSML(text string, voice config.Voice) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<speak version='1.0' xml:lang='%s'>`, voice.Language)
	fmt.Fprintf(&sb, `<voice name='%s'>`, voice.Name)

	prosody := voice.Rate != "" || voice.Pitch != ""
	if prosody {
		sb.WriteString("<prosody")
		if voice.Rate != "" {
			fmt.Fprintf(&sb, ` rate='%s'`, voice.Rate)
		}
		if voice.Pitch != "" {
			fmt.Fprintf(&sb, ` pitch='%s'`, voice.Pitch)
		}
		sb.WriteString(">")
	}

	sb.WriteString(escapeXML(text))

	if prosody {
		sb.WriteString("</prosody>")
	}
	sb.WriteString("</voice></speak>")
	return sb.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
