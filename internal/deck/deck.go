package deck

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	nsDrawing      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPresentation = "http://schemas.openxmlformats.org/presentationml/2006/main"
	relNotesSlide  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
)

// Slide is a single deck slide in natural order. Notes holds the raw
// speaker notes text, possibly empty.
type Slide struct {
	Index int
	Title string
	Notes string
}

// Presentation is an ordered, read-only view of a .pptx deck.
type Presentation struct {
	Path   string
	Slides []Slide
}

func (p *Presentation) SlideCount() int {
	return len(p.Slides)
}

// Open reads a .pptx file and extracts slide order, titles and speaker
// notes. The deck is never mutated after loading.
func Open(pptxPath string) (*Presentation, error) {
	zr, err := zip.OpenReader(pptxPath)
	if err != nil {
		return nil, fmt.Errorf("open pptx: %w", err)
	}
	defer zr.Close()

	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}

	slidePaths, err := slideOrder(parts)
	if err != nil {
		return nil, err
	}
	if len(slidePaths) == 0 {
		return nil, fmt.Errorf("deck %s contains no slides", pptxPath)
	}

	pres := &Presentation{Path: pptxPath}
	for i, slidePath := range slidePaths {
		slide := Slide{Index: i}

		title, err := readTitle(parts, slidePath)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
		slide.Title = title

		notes, err := readNotes(parts, slidePath)
		if err != nil {
			return nil, fmt.Errorf("slide %d notes: %w", i+1, err)
		}
		slide.Notes = notes

		pres.Slides = append(pres.Slides, slide)
	}

	return pres, nil
}

type relationships struct {
	Rels []relationship `xml:"Relationship"`
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// slideOrder returns slide part paths in the deck's natural order, taken
// from the sldIdLst of presentation.xml rather than from file names.
func slideOrder(parts map[string]*zip.File) ([]string, error) {
	relData, err := readPart(parts, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, err
	}

	var rels relationships
	if err := xml.Unmarshal(relData, &rels); err != nil {
		return nil, fmt.Errorf("presentation rels: %w", err)
	}

	targets := make(map[string]string, len(rels.Rels))
	for _, r := range rels.Rels {
		targets[r.ID] = resolveTarget("ppt", r.Target)
	}

	presData, err := readPart(parts, "ppt/presentation.xml")
	if err != nil {
		return nil, err
	}

	var pres struct {
		SldIDLst struct {
			IDs []struct {
				RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
			} `xml:"sldId"`
		} `xml:"sldIdLst"`
	}
	if err := xml.Unmarshal(presData, &pres); err != nil {
		return nil, fmt.Errorf("presentation.xml: %w", err)
	}

	var order []string
	for _, id := range pres.SldIDLst.IDs {
		target, ok := targets[id.RID]
		if !ok {
			return nil, fmt.Errorf("slide relationship %s not found", id.RID)
		}
		order = append(order, target)
	}

	return order, nil
}

// readTitle extracts the title placeholder text of one slide.
func readTitle(parts map[string]*zip.File, slidePath string) (string, error) {
	data, err := readPart(parts, slidePath)
	if err != nil {
		return "", err
	}

	shapes, err := shapeTexts(data)
	if err != nil {
		return "", err
	}

	for _, sh := range shapes {
		if sh.phType == "title" || sh.phType == "ctrTitle" {
			return strings.TrimSpace(sh.text), nil
		}
	}

	// Decks without a title placeholder: a short first text shape is
	// treated as the title, mirroring how untitled slides are narrated.
	for _, sh := range shapes {
		t := strings.TrimSpace(sh.text)
		if t != "" && len(t) < 100 {
			return t, nil
		}
	}

	return "", nil
}

// readNotes extracts the body placeholder text of the slide's notes part,
// located through the slide's relationships.
func readNotes(parts map[string]*zip.File, slidePath string) (string, error) {
	relPath := path.Join(path.Dir(slidePath), "_rels", path.Base(slidePath)+".rels")
	relData, err := readPart(parts, relPath)
	if err != nil {
		// No rels part means no notes slide.
		return "", nil
	}

	var rels relationships
	if err := xml.Unmarshal(relData, &rels); err != nil {
		return "", fmt.Errorf("slide rels: %w", err)
	}

	var notesPath string
	for _, r := range rels.Rels {
		if r.Type == relNotesSlide {
			notesPath = resolveTarget(path.Dir(slidePath), r.Target)
			break
		}
	}
	if notesPath == "" {
		return "", nil
	}

	data, err := readPart(parts, notesPath)
	if err != nil {
		return "", err
	}

	shapes, err := shapeTexts(data)
	if err != nil {
		return "", err
	}

	// The speaker notes live in the body placeholder; slide-number and
	// slide-image placeholders are skipped.
	for _, sh := range shapes {
		if sh.phType == "body" {
			return strings.TrimSpace(sh.text), nil
		}
	}

	var all []string
	for _, sh := range shapes {
		if sh.phType == "sldNum" || sh.phType == "sldImg" {
			continue
		}
		if t := strings.TrimSpace(sh.text); t != "" {
			all = append(all, t)
		}
	}
	return strings.Join(all, "\n"), nil
}

type shape struct {
	phType string
	text   string
}

// shapeTexts walks a slide or notes XML part and collects the text of each
// shape, together with its placeholder type when present. Paragraph breaks
// are preserved as newlines.
func shapeTexts(data []byte) ([]shape, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))

	var shapes []shape
	var cur *shape
	var sb strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse slide xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Space == nsPresentation && el.Name.Local == "sp":
				if cur != nil {
					cur.text = sb.String()
					shapes = append(shapes, *cur)
				}
				cur = &shape{}
				sb.Reset()
			case el.Name.Local == "ph" && cur != nil:
				for _, a := range el.Attr {
					if a.Name.Local == "type" {
						cur.phType = a.Value
					}
				}
			case el.Name.Space == nsDrawing && el.Name.Local == "t":
				inText = true
			case el.Name.Space == nsDrawing && el.Name.Local == "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch {
			case el.Name.Space == nsDrawing && el.Name.Local == "t":
				inText = false
			case el.Name.Space == nsDrawing && el.Name.Local == "p":
				sb.WriteByte('\n')
			case el.Name.Space == nsPresentation && el.Name.Local == "sp":
				if cur != nil {
					cur.text = sb.String()
					shapes = append(shapes, *cur)
					cur = nil
					sb.Reset()
				}
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}

	if cur != nil {
		cur.text = sb.String()
		shapes = append(shapes, *cur)
	}

	return shapes, nil
}

func readPart(parts map[string]*zip.File, name string) ([]byte, error) {
	f, ok := parts[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// resolveTarget resolves a relationship target relative to a base part
// directory, handling "../" segments.
func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(baseDir, target))
}
