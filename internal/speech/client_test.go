package speech

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ivlev/slides2video/internal/config"
)

// fakeSynth counts external calls and replays a scripted error sequence
// before succeeding. A non-zero delay holds each call open so tests can
// force concurrent callers to collide on the same text.
type fakeSynth struct {
	calls    int64
	failures []error
	clip     Clip
	delay    time.Duration
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, voice config.Voice) (Clip, error) {
	n := atomic.AddInt64(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if int(n) <= len(f.failures) {
		return Clip{}, f.failures[n-1]
	}
	return f.clip, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{
		InputPath: "deck.pptx",
		Width:     1280,
		Height:    720,
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func fastRetry(c *Client) {
	c.retry.BaseDelay = time.Millisecond
	c.retry.MaxDelay = 2 * time.Millisecond
}

func TestEmptyNarrationBypassesSynthesis(t *testing.T) {
	synth := &fakeSynth{clip: Clip{Audio: []byte("x"), Duration: time.Second}}
	client := NewClient(synth, testConfig())

	segs, err := client.SynthesizeAll(context.Background(), []string{"hello", "", "world"})
	if err != nil {
		t.Fatalf("SynthesizeAll failed: %v", err)
	}

	if segs[1].Tier != TierEmpty {
		t.Errorf("Expected empty tier for slide 2, got %s", segs[1].Tier)
	}
	if segs[1].Clip.Duration != 0 {
		t.Errorf("Expected zero duration for empty narration, got %v", segs[1].Clip.Duration)
	}
	if got := atomic.LoadInt64(&synth.calls); got != 2 {
		t.Errorf("Expected 2 external calls, got %d", got)
	}
}

func TestCacheReusesIdenticalText(t *testing.T) {
	synth := &fakeSynth{clip: Clip{Audio: []byte("x"), Duration: time.Second}}
	client := NewClient(synth, testConfig())

	// Two slides share the narration; 20 total to exercise the pool.
	narrations := make([]string, 20)
	for i := range narrations {
		narrations[i] = "same text on every slide"
	}

	segs, err := client.SynthesizeAll(context.Background(), narrations)
	if err != nil {
		t.Fatalf("SynthesizeAll failed: %v", err)
	}

	if got := atomic.LoadInt64(&synth.calls); got != 1 {
		t.Errorf("Expected exactly 1 external call for identical text, got %d", got)
	}

	fresh := 0
	for _, s := range segs {
		if s.Tier == TierFresh {
			fresh++
		} else if s.Tier != TierCached {
			t.Errorf("Slide %d: unexpected tier %s", s.SlideIndex, s.Tier)
		}
		if s.Clip.Duration != time.Second {
			t.Errorf("Slide %d: wrong duration %v", s.SlideIndex, s.Clip.Duration)
		}
	}
	if fresh != 1 {
		t.Errorf("Expected exactly 1 fresh segment, got %d", fresh)
	}
}

func TestInFlightCollisionKeepsOneFresh(t *testing.T) {
	// The synthesizer holds the call open long enough for every slide to
	// join the same in-flight request instead of hitting the cache.
	synth := &fakeSynth{
		clip:  Clip{Audio: []byte("x"), Duration: time.Second},
		delay: 200 * time.Millisecond,
	}
	client := NewClient(synth, testConfig())

	segs, err := client.SynthesizeAll(context.Background(), []string{
		"shared narration", "shared narration", "shared narration",
	})
	if err != nil {
		t.Fatalf("SynthesizeAll failed: %v", err)
	}

	if got := atomic.LoadInt64(&synth.calls); got != 1 {
		t.Errorf("Expected exactly 1 external call, got %d", got)
	}

	fresh, cached := 0, 0
	for _, s := range segs {
		switch s.Tier {
		case TierFresh:
			fresh++
		case TierCached:
			cached++
		default:
			t.Errorf("Slide %d: unexpected tier %s", s.SlideIndex, s.Tier)
		}
	}
	// The caller that made the external call reports fresh; the joiners
	// report cached even though the result never touched the cache first.
	if fresh != 1 {
		t.Errorf("Expected exactly 1 fresh segment under collision, got %d", fresh)
	}
	if cached != 2 {
		t.Errorf("Expected 2 cached segments under collision, got %d", cached)
	}
}

func TestRetryBoundThenSilentDegrade(t *testing.T) {
	transient := &Error{Class: ClassTransient, Err: fmt.Errorf("timeout")}
	synth := &fakeSynth{failures: []error{transient, transient, transient, transient, transient}}
	client := NewClient(synth, testConfig())
	fastRetry(client)

	segs, err := client.SynthesizeAll(context.Background(), []string{"doomed text"})
	if err != nil {
		t.Fatalf("SynthesizeAll failed: %v", err)
	}

	if got := atomic.LoadInt64(&synth.calls); got != 3 {
		t.Errorf("Expected attempt cap of 3 external calls, got %d", got)
	}
	if segs[0].Tier != TierSilent {
		t.Errorf("Expected silent tier after exhausted retries, got %s", segs[0].Tier)
	}
	if segs[0].Err == nil {
		t.Error("Expected recorded failure cause")
	}
	if segs[0].Clip.Duration != 0 {
		t.Errorf("Expected zero-duration silent clip, got %v", segs[0].Clip.Duration)
	}
}

func TestRateLimitedTwiceThenSuccess(t *testing.T) {
	limited := &Error{Class: ClassRateLimited, Err: fmt.Errorf("429")}
	synth := &fakeSynth{
		failures: []error{limited, limited},
		clip:     Clip{Audio: []byte("x"), Duration: 2500 * time.Millisecond},
	}
	client := NewClient(synth, testConfig())
	fastRetry(client)

	segs, err := client.SynthesizeAll(context.Background(), []string{"third time lucky"})
	if err != nil {
		t.Fatalf("SynthesizeAll failed: %v", err)
	}

	if got := atomic.LoadInt64(&synth.calls); got != 3 {
		t.Errorf("Expected 3 external calls, got %d", got)
	}
	if segs[0].Tier != TierFresh {
		t.Errorf("Expected fresh tier, got %s", segs[0].Tier)
	}
	if segs[0].Clip.Duration != 2500*time.Millisecond {
		t.Errorf("Expected successful call's duration, got %v", segs[0].Clip.Duration)
	}
}

func TestAuthErrorNotRetried(t *testing.T) {
	auth := &Error{Class: ClassAuth, Err: fmt.Errorf("401")}
	synth := &fakeSynth{failures: []error{auth, auth, auth}}
	client := NewClient(synth, testConfig())
	fastRetry(client)

	segs, err := client.SynthesizeAll(context.Background(), []string{"no access"})
	if err != nil {
		t.Fatalf("SynthesizeAll failed: %v", err)
	}

	if got := atomic.LoadInt64(&synth.calls); got != 1 {
		t.Errorf("Auth errors must not be retried: got %d calls", got)
	}
	if segs[0].Tier != TierSilent {
		t.Errorf("Expected silent degrade, got %s", segs[0].Tier)
	}
}

func TestCancellationAbandonsRun(t *testing.T) {
	synth := &fakeSynth{clip: Clip{Duration: time.Second}}
	client := NewClient(synth, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.SynthesizeAll(ctx, []string{"a", "b"}); err == nil {
		t.Error("Expected error from cancelled context")
	}
}
