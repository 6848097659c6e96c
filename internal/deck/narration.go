package deck

import (
	"regexp"
	"strings"
)

var blankRun = regexp.MustCompile(`\n[ \t]*\n+`)

// Narrations returns one normalized narration string per slide, in slide
// order. Slides without notes yield an empty string; no slide is dropped.
func Narrations(p *Presentation) []string {
	out := make([]string, len(p.Slides))
	for i, s := range p.Slides {
		out[i] = Normalize(s.Notes)
	}
	return out
}

// Normalize prepares notes text for synthesis as a single utterance:
// surrounding whitespace is trimmed, lines inside a paragraph are joined,
// and each run of blank lines becomes one sentence boundary so the voice
// pauses between paragraphs instead of reading them as one breath.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var parts []string
	for _, para := range blankRun.Split(text, -1) {
		para = strings.Join(strings.Fields(para), " ")
		if para != "" {
			parts = append(parts, para)
		}
	}

	var sb strings.Builder
	for i, para := range parts {
		if i > 0 {
			if endsSentence(parts[i-1]) {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString(para)
	}
	return sb.String()
}

func endsSentence(s string) bool {
	switch s[len(s)-1] {
	case '.', '!', '?', ':', ';':
		return true
	}
	return false
}
