package resolver

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ivlev/slides2video/internal/deck"
)

// Tier is the fallback level that produced a slide's image.
type Tier int

const (
	TierUnresolved Tier = iota
	TierUploaded
	TierNativeExport
	TierTextFallback
)

func (t Tier) String() string {
	switch t {
	case TierUploaded:
		return "uploaded"
	case TierNativeExport:
		return "native export"
	case TierTextFallback:
		return "text fallback"
	}
	return "unresolved"
}

// ErrUnavailable means the strategy cannot serve this slide at all
// (capability missing); the resolver falls through without diagnostics.
var ErrUnavailable = errors.New("export strategy unavailable")

// ExportError means the tool was present but errored; the resolver falls
// through and records the reason.
type ExportError struct {
	Strategy string
	Err      error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export failed: %v", e.Strategy, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Strategy produces a visual image for one slide. Attempt returns the
// image, ErrUnavailable, or *ExportError.
type Strategy interface {
	Name() string
	Tier() Tier
	Attempt(ctx context.Context, pres *deck.Presentation, index int) (image.Image, error)
}
