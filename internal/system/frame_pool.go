package system

import (
	"image"
	"sync"
)

// maxIdlePerSize bounds how many canvases of one size stay parked; a run
// sees at most a handful of sizes (one per export tier) but segments of
// the same size pass through in bursts.
const maxIdlePerSize = 8

// framePool recycles RGBA canvases between encode jobs, grouped by
// dimensions. Callers overwrite the whole canvas, so returned frames are
// not cleared.
type framePool struct {
	mu   sync.Mutex
	idle map[image.Point][]*image.RGBA
}

var frames = &framePool{idle: make(map[image.Point][]*image.RGBA)}

// GetFrame returns a zero-origin RGBA canvas of the given size, reusing a
// parked one when available.
func GetFrame(w, h int) *image.RGBA {
	return frames.get(w, h)
}

// PutFrame parks a canvas for reuse.
func PutFrame(img *image.RGBA) {
	frames.put(img)
}

func (p *framePool) get(w, h int) *image.RGBA {
	size := image.Pt(w, h)

	p.mu.Lock()
	if parked := p.idle[size]; len(parked) > 0 {
		img := parked[len(parked)-1]
		p.idle[size] = parked[:len(parked)-1]
		p.mu.Unlock()
		return img
	}
	p.mu.Unlock()

	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func (p *framePool) put(img *image.RGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	size := img.Rect.Max

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle[size]) < maxIdlePerSize {
		p.idle[size] = append(p.idle[size], img)
	}
}
