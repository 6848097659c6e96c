package resolver

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/slides2video/internal/deck"
)

// NativeExport converts the whole deck to PDF with LibreOffice once and
// rasterizes the pages with go-fitz, demultiplexing by page index. The
// soffice invocation happens a single time per run regardless of how many
// slides ask for it.
type NativeExport struct {
	deckPath string
	dpi      int
	timeout  time.Duration

	once  sync.Once
	pages []image.Image
	err   error
}

func NewNativeExport(deckPath string, dpi int, timeout time.Duration) *NativeExport {
	return &NativeExport{deckPath: deckPath, dpi: dpi, timeout: timeout}
}

func (n *NativeExport) Name() string { return "native export" }
func (n *NativeExport) Tier() Tier   { return TierNativeExport }

func (n *NativeExport) Attempt(ctx context.Context, pres *deck.Presentation, index int) (image.Image, error) {
	n.once.Do(func() { n.exportAll(ctx) })

	if n.err != nil {
		return nil, n.err
	}
	if index >= len(n.pages) {
		return nil, &ExportError{Strategy: n.Name(), Err: fmt.Errorf("deck exported %d pages, slide %d missing", len(n.pages), index+1)}
	}
	return n.pages[index], nil
}

func (n *NativeExport) exportAll(ctx context.Context) {
	tmpDir, err := os.MkdirTemp("", "slides2video_export_")
	if err != nil {
		n.err = &ExportError{Strategy: n.Name(), Err: err}
		return
	}
	defer os.RemoveAll(tmpDir)

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "soffice", "--headless", "--convert-to", "pdf",
		"--outdir", tmpDir, n.deckPath)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		n.err = &ExportError{
			Strategy: n.Name(),
			Err:      fmt.Errorf("soffice: %w: %s", err, strings.TrimSpace(out.String())),
		}
		return
	}

	base := strings.TrimSuffix(filepath.Base(n.deckPath), filepath.Ext(n.deckPath))
	pdfPath := filepath.Join(tmpDir, base+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		n.err = &ExportError{Strategy: n.Name(), Err: fmt.Errorf("pdf not produced: %w", err)}
		return
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		n.err = &ExportError{Strategy: n.Name(), Err: fmt.Errorf("open pdf: %w", err)}
		return
	}
	defer doc.Close()

	pages := make([]image.Image, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, float64(n.dpi))
		if err != nil {
			n.err = &ExportError{Strategy: n.Name(), Err: fmt.Errorf("rasterize page %d: %w", i+1, err)}
			return
		}
		pages = append(pages, img)
	}

	n.pages = pages
}
