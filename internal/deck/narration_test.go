package deck

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n\t ", ""},
		{"trims", "  hello world  ", "hello world"},
		{"joins lines in a paragraph", "first line\nsecond line", "first line second line"},
		{"blank run becomes sentence boundary", "First paragraph\n\nSecond paragraph", "First paragraph. Second paragraph"},
		{"multiple blank lines collapse once", "a\n\n\n\n\nb", "a. b"},
		{"keeps existing sentence end", "Done here.\n\nNext part", "Done here. Next part"},
		{"collapses internal spaces", "too   many\tspaces", "too many spaces"},
		{"crlf input", "one\r\n\r\ntwo", "one. two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNarrationsPreserveEmpties(t *testing.T) {
	pres := &Presentation{Slides: []Slide{
		{Index: 0, Notes: "spoken text"},
		{Index: 1, Notes: ""},
		{Index: 2, Notes: "more\n\ntext"},
	}}

	got := Narrations(pres)
	if len(got) != 3 {
		t.Fatalf("Expected 3 narrations, got %d", len(got))
	}
	if got[0] != "spoken text" {
		t.Errorf("narration 0: %q", got[0])
	}
	if got[1] != "" {
		t.Errorf("Expected explicit empty narration for slide 2, got %q", got[1])
	}
	if got[2] != "more. text" {
		t.Errorf("narration 2: %q", got[2])
	}
}
