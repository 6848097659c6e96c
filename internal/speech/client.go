package speech

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/ivlev/slides2video/internal/config"
)

// Client wraps a Synthesizer with the run-scoped cache, bounded
// concurrency and the retry policy. Failures degrade a slide to silence,
// they never abort the run.
type Client struct {
	synth          Synthesizer
	voice          config.Voice
	retry          RetryPolicy
	attemptTimeout time.Duration

	sem   *semaphore.Weighted
	group singleflight.Group

	mu    sync.Mutex
	cache map[string]Clip
}

type result struct {
	clip      Clip
	fromCache bool
}

func NewClient(synth Synthesizer, cfg *config.Config) *Client {
	return &Client{
		synth:          synth,
		voice:          cfg.Voice,
		retry:          DefaultRetryPolicy(cfg.RetryAttempts),
		attemptTimeout: cfg.AttemptTimeout,
		sem:            semaphore.NewWeighted(int64(cfg.Workers)),
		cache:          make(map[string]Clip),
	}
}

// SynthesizeAll produces one Segment per narration entry, dispatching the
// non-empty ones concurrently up to the worker limit and joining before
// returning. Only context cancellation makes it fail.
func (c *Client) SynthesizeAll(ctx context.Context, narrations []string) ([]Segment, error) {
	segments := make([]Segment, len(narrations))

	var wg sync.WaitGroup
	for i, text := range narrations {
		if text == "" {
			segments[i] = Segment{SlideIndex: i, Tier: TierEmpty}
			continue
		}

		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			segments[i] = c.synthesizeOne(ctx, i, text)
		}(i, text)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return segments, nil
}

func (c *Client) synthesizeOne(ctx context.Context, index int, text string) Segment {
	seg := Segment{SlideIndex: index, Text: text}

	key := c.cacheKey(text)
	if clip, ok := c.lookup(key); ok {
		seg.Clip = clip
		seg.Tier = TierCached
		return seg
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		seg.Tier = TierSilent
		seg.Err = err
		return seg
	}
	defer c.sem.Release(1)

	// Identical text being synthesized by another worker right now is
	// joined instead of issuing a second external call. The closure runs
	// only in the leading caller, so mine marks who made the call:
	// singleflight's shared flag is true for the leader too once anyone
	// joins, which would leave no segment reporting the fresh synthesis.
	mine := false
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		mine = true
		if clip, ok := c.lookup(key); ok {
			return result{clip: clip, fromCache: true}, nil
		}

		var clip Clip
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			actx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
			defer cancel()

			var aerr error
			clip, aerr = c.synth.Synthesize(actx, text, c.voice)
			return aerr
		})
		if err != nil {
			return nil, err
		}

		c.store(key, clip)
		return result{clip: clip}, nil
	})

	if err != nil {
		seg.Tier = TierSilent
		seg.Err = err
		return seg
	}

	res := v.(result)
	seg.Clip = res.clip
	if mine && !res.fromCache {
		seg.Tier = TierFresh
	} else {
		seg.Tier = TierCached
	}
	return seg
}

func (c *Client) lookup(key string) (Clip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip, ok := c.cache[key]
	return clip, ok
}

func (c *Client) store(key string, clip Clip) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = clip
}

// cacheKey binds the normalized text to the voice profile, so a voice
// change invalidates every entry.
func (c *Client) cacheKey(text string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s", c.voice.Provider, c.voice.Name, c.voice.Language, c.voice.Rate, c.voice.Pitch)
	return fmt.Sprintf("%x|%s", h.Sum64(), text)
}
