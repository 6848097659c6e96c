package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Card is a synthesized slide image: a centered title, wrapped body text,
// an optional footer line and an optional QR code.
type Card struct {
	Title  string
	Body   string
	Footer string
	QRText string
	Width  int
	Height int
}

const (
	titleSize  = 48
	bodySize   = 30
	footerSize = 22
	margin     = 60
	qrSize     = 200
)

// Render draws the card onto a white canvas. It fails only when the card
// has no text and no QR content at all.
func (c Card) Render() (*image.RGBA, error) {
	if strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Body) == "" && c.QRText == "" {
		return nil, fmt.Errorf("card has no content to render")
	}

	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	titleFace, err := newFace(titleSize)
	if err != nil {
		return nil, err
	}
	bodyFace, err := newFace(bodySize)
	if err != nil {
		return nil, err
	}
	footerFace, err := newFace(footerSize)
	if err != nil {
		return nil, err
	}

	y := 110

	if t := strings.TrimSpace(c.Title); t != "" {
		d := drawer(img, titleFace, color.Black)
		for _, line := range wrap(d, t, c.Width-2*margin) {
			w := d.MeasureString(line).Ceil()
			d.Dot = fixed.P((c.Width-w)/2, y)
			d.DrawString(line)
			y += titleSize + 14
		}
		y += 30
	}

	if b := strings.TrimSpace(c.Body); b != "" {
		d := drawer(img, bodyFace, color.RGBA{60, 60, 60, 255})
		for _, para := range strings.Split(b, "\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				y += bodySize / 2
				continue
			}
			for _, line := range wrap(d, para, c.Width-2*margin) {
				if y > c.Height-140 {
					break
				}
				d.Dot = fixed.P(margin, y)
				d.DrawString(line)
				y += bodySize + 12
			}
		}
	}

	if c.QRText != "" {
		qr, err := qrcode.New(c.QRText, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("qr encode: %w", err)
		}
		qrImg := qr.Image(qrSize)
		offset := image.Pt((c.Width-qrSize)/2, c.Height-qrSize-90)
		draw.Draw(img, image.Rectangle{Min: offset, Max: offset.Add(image.Pt(qrSize, qrSize))},
			qrImg, image.Point{}, draw.Over)
	}

	if f := strings.TrimSpace(c.Footer); f != "" {
		d := drawer(img, footerFace, color.RGBA{120, 120, 120, 255})
		w := d.MeasureString(f).Ceil()
		d.Dot = fixed.P(c.Width-w-30, c.Height-30)
		d.DrawString(f)
	}

	return img, nil
}

func newFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func drawer(dst *image.RGBA, face font.Face, col color.Color) *font.Drawer {
	return &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
	}
}

// wrap breaks text into lines that fit maxWidth pixels.
func wrap(d *font.Drawer, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	cur := words[0]
	for _, word := range words[1:] {
		probe := cur + " " + word
		if d.MeasureString(probe).Ceil() <= maxWidth {
			cur = probe
		} else {
			lines = append(lines, cur)
			cur = word
		}
	}
	return append(lines, cur)
}
