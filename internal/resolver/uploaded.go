package resolver

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ivlev/slides2video/internal/deck"
)

var slideNumber = regexp.MustCompile(`\d+`)

// UploadedImages serves pre-supplied per-slide images from a directory.
// Files carry a 1-based slide number in their name (slide_2.png,
// Slide10.PNG, 7.jpg); matching is numeric, so slide_10 follows slide_2
// instead of sorting before it.
type UploadedImages struct {
	dir string

	once  sync.Once
	index map[int]string
}

func NewUploadedImages(dir string) *UploadedImages {
	return &UploadedImages{dir: dir}
}

func (u *UploadedImages) Name() string { return "uploaded images" }
func (u *UploadedImages) Tier() Tier   { return TierUploaded }

func (u *UploadedImages) Attempt(ctx context.Context, pres *deck.Presentation, index int) (image.Image, error) {
	u.once.Do(u.scan)

	path, ok := u.index[index+1]
	if !ok {
		return nil, ErrUnavailable
	}

	img, err := loadImage(path)
	if err != nil {
		return nil, &ExportError{Strategy: u.Name(), Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	return img, nil
}

// HasImages reports whether the directory holds at least one usable slide
// image; the probe uses this to decide whether the tier exists at all.
func (u *UploadedImages) HasImages() bool {
	u.once.Do(u.scan)
	return len(u.index) > 0
}

func (u *UploadedImages) scan() {
	u.index = make(map[int]string)

	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
			continue
		}
		m := slideNumber.FindString(e.Name())
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil || n < 1 {
			continue
		}
		// First match wins for duplicate numbers across extensions.
		if _, exists := u.index[n]; !exists {
			u.index[n] = filepath.Join(u.dir, e.Name())
		}
	}
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
