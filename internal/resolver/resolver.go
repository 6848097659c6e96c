package resolver

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/slides2video/internal/deck"
)

// Resolved is the accepted outcome for one slide.
type Resolved struct {
	Image image.Image
	Tier  Tier
}

// Downgrade records a slide that got its image from a tier below the
// first probed strategy, with the reasons the higher tiers gave.
type Downgrade struct {
	Index   int
	Tier    Tier
	Reasons []string
}

// Failure is a slide no strategy could serve.
type Failure struct {
	Index   int
	Reasons []string
}

// Report aggregates per-slide diagnostics for the whole resolve pass.
type Report struct {
	Downgraded []Downgrade
	Unresolved []Failure
}

// UnresolvedError is the job-level failure raised when any slide ends
// without an image even after the text fallback.
type UnresolvedError struct {
	Failures []Failure
}

func (e *UnresolvedError) Error() string {
	var idx []string
	for _, f := range e.Failures {
		idx = append(idx, fmt.Sprintf("%d", f.Index+1))
	}
	return fmt.Sprintf("no image could be resolved for slides %s", strings.Join(idx, ", "))
}

// Resolver walks the probed strategy chain once per slide. The first
// success wins; unavailable strategies fall through silently, failed ones
// fall through with a recorded reason.
type Resolver struct {
	strategies []Strategy
}

func New(strategies []Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve produces an image and tier for every slide, or an
// *UnresolvedError naming the slides left without one. The report is
// returned in both cases.
func (r *Resolver) Resolve(ctx context.Context, pres *deck.Presentation) (map[int]Resolved, *Report, error) {
	if len(r.strategies) == 0 {
		return nil, nil, fmt.Errorf("no export strategies probed")
	}

	resolved := make(map[int]Resolved, pres.SlideCount())
	report := &Report{}

	for i := range pres.Slides {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		var reasons []string
		accepted := false

		for pos, s := range r.strategies {
			img, err := s.Attempt(ctx, pres, i)
			if err == nil {
				resolved[i] = Resolved{Image: img, Tier: s.Tier()}
				if pos > 0 {
					report.Downgraded = append(report.Downgraded, Downgrade{
						Index:   i,
						Tier:    s.Tier(),
						Reasons: reasons,
					})
				}
				accepted = true
				break
			}

			var ee *ExportError
			if errors.As(err, &ee) {
				reasons = append(reasons, ee.Error())
				continue
			}
			if errors.Is(err, ErrUnavailable) {
				continue
			}
			reasons = append(reasons, fmt.Sprintf("%s: %v", s.Name(), err))
		}

		if !accepted {
			report.Unresolved = append(report.Unresolved, Failure{Index: i, Reasons: reasons})
		}
	}

	if len(report.Unresolved) > 0 {
		return resolved, report, &UnresolvedError{Failures: report.Unresolved}
	}
	return resolved, report, nil
}
