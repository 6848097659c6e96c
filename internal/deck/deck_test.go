package deck

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

const presentationXML = `<?xml version="1.0"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
                xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <p:sldIdLst>
    <p:sldId id="256" r:id="rId2"/>
    <p:sldId id="257" r:id="rId3"/>
  </p:sldIdLst>
</p:presentation>`

const presentationRels = `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide2.xml"/>
</Relationships>`

const slide1XML = `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp>
      <p:nvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
      <p:txBody><a:p><a:r><a:t>Introduction</a:t></a:r></a:p></p:txBody>
    </p:sp>
    <p:sp>
      <p:nvSpPr><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr>
      <p:txBody><a:p><a:r><a:t>First bullet</a:t></a:r></a:p></p:txBody>
    </p:sp>
  </p:spTree></p:cSld>
</p:sld>`

const slide1Rels = `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide1.xml"/>
</Relationships>`

const notesSlide1XML = `<?xml version="1.0"?>
<p:notes xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
         xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp>
      <p:nvSpPr><p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr>
    </p:sp>
    <p:sp>
      <p:nvSpPr><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr>
      <p:txBody>
        <a:p><a:r><a:t>Welcome to the course.</a:t></a:r></a:p>
        <a:p></a:p>
        <a:p><a:r><a:t>Today we cover the basics</a:t></a:r></a:p>
      </p:txBody>
    </p:sp>
    <p:sp>
      <p:nvSpPr><p:nvPr><p:ph type="sldNum"/></p:nvPr></p:nvSpPr>
      <p:txBody><a:p><a:r><a:t>1</a:t></a:r></a:p></p:txBody>
    </p:sp>
  </p:spTree></p:cSld>
</p:notes>`

const slide2XML = `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp>
      <p:txBody><a:p><a:r><a:t>Short untitled text</a:t></a:r></a:p></p:txBody>
    </p:sp>
  </p:spTree></p:cSld>
</p:sld>`

func writeTestDeck(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	parts := map[string]string{
		"ppt/presentation.xml":               presentationXML,
		"ppt/_rels/presentation.xml.rels":    presentationRels,
		"ppt/slides/slide1.xml":              slide1XML,
		"ppt/slides/_rels/slide1.xml.rels":   slide1Rels,
		"ppt/notesSlides/notesSlide1.xml":    notesSlide1XML,
		"ppt/slides/slide2.xml":              slide2XML,
	}
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	return path
}

func TestOpenDeck(t *testing.T) {
	pres, err := Open(writeTestDeck(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if pres.SlideCount() != 2 {
		t.Fatalf("Expected 2 slides, got %d", pres.SlideCount())
	}

	if pres.Slides[0].Title != "Introduction" {
		t.Errorf("Expected title 'Introduction', got %q", pres.Slides[0].Title)
	}
	if pres.Slides[0].Index != 0 || pres.Slides[1].Index != 1 {
		t.Errorf("Slide indices not contiguous: %d, %d", pres.Slides[0].Index, pres.Slides[1].Index)
	}

	// Notes come from the body placeholder only, not the slide number.
	notes := pres.Slides[0].Notes
	if notes == "" {
		t.Fatal("Expected notes on slide 1")
	}
	if notes != "Welcome to the course.\n\nToday we cover the basics" {
		t.Errorf("Unexpected notes text: %q", notes)
	}

	// Slide without a title placeholder falls back to the first short text.
	if pres.Slides[1].Title != "Short untitled text" {
		t.Errorf("Expected fallback title, got %q", pres.Slides[1].Title)
	}
	// Slide without a notes part keeps an explicit empty narration.
	if pres.Slides[1].Notes != "" {
		t.Errorf("Expected empty notes, got %q", pres.Slides[1].Notes)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.pptx")); err == nil {
		t.Error("Expected error for missing deck")
	}
}
