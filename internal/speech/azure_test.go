package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/slides2video/internal/config"
)

func testVoice() config.Voice {
	return config.Voice{
		Provider: "azure",
		Name:     "en-US-AvaMultilingualNeural",
		Language: "en-US",
	}
}

func TestAzureSynthesizeSuccess(t *testing.T) {
	wav := pcmToWAV(make([]byte, sampleRate*2)) // exactly one second

	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "key123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-Microsoft-OutputFormat") != azureOutputFormat {
			t.Errorf("Unexpected output format header: %s", r.Header.Get("X-Microsoft-OutputFormat"))
		}
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write(wav)
	}))
	defer srv.Close()

	s := &AzureSynthesizer{key: "key123", endpoint: srv.URL, client: srv.Client()}

	clip, err := s.Synthesize(context.Background(), "hello <world>", testVoice())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if clip.Duration != time.Second {
		t.Errorf("Expected 1s duration, got %v", clip.Duration)
	}
	if !strings.Contains(gotBody, "hello &lt;world&gt;") {
		t.Errorf("SSML body not escaped: %s", gotBody)
	}
	if !strings.Contains(gotBody, "en-US-AvaMultilingualNeural") {
		t.Errorf("SSML body missing voice name: %s", gotBody)
	}
}

func TestAzureSynthesizeErrorClasses(t *testing.T) {
	tests := []struct {
		status int
		want   Class
	}{
		{http.StatusUnauthorized, ClassAuth},
		{http.StatusForbidden, ClassAuth},
		{http.StatusBadRequest, ClassInvalidText},
		{http.StatusTooManyRequests, ClassRateLimited},
		{http.StatusInternalServerError, ClassTransient},
		{http.StatusBadGateway, ClassTransient},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		s := &AzureSynthesizer{key: "k", endpoint: srv.URL, client: srv.Client()}
		_, err := s.Synthesize(context.Background(), "text", testVoice())
		srv.Close()

		var se *Error
		if !errors.As(err, &se) {
			t.Fatalf("Status %d: expected *Error, got %v", tt.status, err)
		}
		if se.Class != tt.want {
			t.Errorf("Status %d: expected class %s, got %s", tt.status, tt.want, se.Class)
		}
	}
}

func TestBuildSSMLProsody(t *testing.T) {
	v := testVoice()
	v.Rate = "+10%"
	v.Pitch = "-2Hz"

	ssml := buildSSML("text", v)
	if !strings.Contains(ssml, `rate='+10%'`) || !strings.Contains(ssml, `pitch='-2Hz'`) {
		t.Errorf("Prosody attributes missing: %s", ssml)
	}

	plain := buildSSML("text", testVoice())
	if strings.Contains(plain, "prosody") {
		t.Errorf("Prosody element present without rate/pitch: %s", plain)
	}
}
