package timeline

import (
	"fmt"
	"image"
	"time"

	"github.com/ivlev/slides2video/internal/resolver"
	"github.com/ivlev/slides2video/internal/speech"
)

// Segment is one slide's slot in the final video: an image shown from
// Start for Duration, with the narration audio beginning exactly at
// NarrationOffset into the segment. Immutable once assembled.
type Segment struct {
	SlideIndex      int
	Image           image.Image
	Start           time.Duration
	Duration        time.Duration
	NarrationOffset time.Duration
	Audio           []byte
	AudioDuration   time.Duration
	ImageTier       resolver.Tier
	AudioTier       speech.Tier
}

// Silent reports whether the segment carries no narration audio.
func (s Segment) Silent() bool {
	return len(s.Audio) == 0
}

// Timeline is the ordered, gap-free segment list handed to the encoder.
type Timeline struct {
	Segments []Segment
	Total    time.Duration
	FPS      int
}

// InvariantError marks a gap, overlap or length mismatch in an assembled
// timeline. It is an internal bug guard and is always fatal.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "timeline invariant violated: " + e.Msg
}

// Assemble builds the timeline for all slides in order. Per slide the
// duration is max(minVisible, pause+narration), rounded up to a whole
// number of frames; offsets are accumulated as integer ticks, never as
// repeated floating-point sums, so the last segment's end is exact
// regardless of slide count.
func Assemble(resolved map[int]resolver.Resolved, narrations []speech.Segment, pause, minVisible time.Duration, fps int) (*Timeline, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}

	tl := &Timeline{FPS: fps}
	var offset time.Duration

	for i, narr := range narrations {
		img, ok := resolved[i]
		if !ok || img.Image == nil {
			return nil, &InvariantError{Msg: fmt.Sprintf("slide %d has no resolved image", i+1)}
		}
		if narr.SlideIndex != i {
			return nil, &InvariantError{Msg: fmt.Sprintf("narration order broken at slide %d", i+1)}
		}

		dur := pause + narr.Clip.Duration
		if dur < minVisible {
			dur = minVisible
		}
		dur = alignToFrames(dur, fps)

		tl.Segments = append(tl.Segments, Segment{
			SlideIndex:      i,
			Image:           img.Image,
			Start:           offset,
			Duration:        dur,
			NarrationOffset: pause,
			Audio:           narr.Clip.Audio,
			AudioDuration:   narr.Clip.Duration,
			ImageTier:       img.Tier,
			AudioTier:       narr.Tier,
		})
		offset += dur
	}

	tl.Total = offset

	if err := tl.Validate(len(narrations)); err != nil {
		return nil, err
	}
	return tl, nil
}

// Validate checks the contiguity invariants. Any violation is a bug in
// the assembler, not a degradable condition.
func (t *Timeline) Validate(slideCount int) error {
	if len(t.Segments) != slideCount {
		return &InvariantError{Msg: fmt.Sprintf("%d segments for %d slides", len(t.Segments), slideCount)}
	}

	var offset time.Duration
	for i, s := range t.Segments {
		if s.Start != offset {
			return &InvariantError{Msg: fmt.Sprintf("segment %d starts at %v, expected %v", i+1, s.Start, offset)}
		}
		if s.Duration <= 0 {
			return &InvariantError{Msg: fmt.Sprintf("segment %d has non-positive duration %v", i+1, s.Duration)}
		}
		if s.NarrationOffset+s.AudioDuration > s.Duration {
			return &InvariantError{Msg: fmt.Sprintf("segment %d narration overruns the segment", i+1)}
		}
		offset += s.Duration
	}

	if t.Total != offset {
		return &InvariantError{Msg: fmt.Sprintf("total %v differs from segment sum %v", t.Total, offset)}
	}
	return nil
}

// alignToFrames rounds a duration up to a whole frame count so narration
// is never clipped by the video grid.
func alignToFrames(d time.Duration, fps int) time.Duration {
	ticksPerSecond := int64(time.Second)
	frames := (int64(d)*int64(fps) + ticksPerSecond - 1) / ticksPerSecond
	return time.Duration(frames * ticksPerSecond / int64(fps))
}

// FrameCount is the exact number of video frames a segment occupies.
// Rounds to the nearest frame: the stored duration may sit one tick
// below the exact boundary when fps does not divide a second.
func (s Segment) FrameCount(fps int) int {
	half := int64(time.Second) / 2
	return int((int64(s.Duration)*int64(fps) + half) / int64(time.Second))
}
