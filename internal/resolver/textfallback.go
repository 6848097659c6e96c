package resolver

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/slides2video/internal/deck"
	"github.com/ivlev/slides2video/internal/render"
)

// TextFallback draws a placeholder slide from the slide's title and notes.
// Always probed last; it fails only for slides with no text at all.
type TextFallback struct {
	width  int
	height int
}

func NewTextFallback(width, height int) *TextFallback {
	return &TextFallback{width: width, height: height}
}

func (t *TextFallback) Name() string { return "text fallback" }
func (t *TextFallback) Tier() Tier   { return TierTextFallback }

func (t *TextFallback) Attempt(ctx context.Context, pres *deck.Presentation, index int) (image.Image, error) {
	slide := pres.Slides[index]

	if strings.TrimSpace(slide.Title) == "" && strings.TrimSpace(slide.Notes) == "" {
		return nil, ErrUnavailable
	}

	card := render.Card{
		Title:  slide.Title,
		Body:   notesExcerpt(slide.Notes),
		Footer: fmt.Sprintf("Slide %d", index+1),
		Width:  t.width,
		Height: t.height,
	}

	img, err := card.Render()
	if err != nil {
		return nil, &ExportError{Strategy: t.Name(), Err: err}
	}
	return img, nil
}

// notesExcerpt keeps the first lines of the notes so the placeholder stays
// readable; the full text is still narrated.
func notesExcerpt(notes string) string {
	lines := strings.Split(strings.TrimSpace(notes), "\n")
	if len(lines) > 8 {
		lines = append(lines[:8], "…")
	}
	return strings.Join(lines, "\n")
}
