package extract

import (
	"regexp"
	"strings"
)

var citationPattern = regexp.MustCompile(`(?i)\[(?:SOURCES?|GUIDELINES?|LITERATURE|CLINICAL KNOWLEDGE)(?:[:\s][^\]\n]*)?\]`)

// Segment is a run of text that is either prose or a bracketed citation.
type Segment struct {
	Text     string
	Citation bool
}

// SplitCitations cuts text into alternating prose and citation segments, in order.
// Concatenating the segment texts yields the input unchanged.
func SplitCitations(text string) []Segment {
	if text == "" {
		return nil
	}
	locs := citationPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []Segment{{Text: text}}
	}

	segments := make([]Segment, 0, 2*len(locs)+1)
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			segments = append(segments, Segment{Text: text[prev:loc[0]]})
		}
		segments = append(segments, Segment{Text: text[loc[0]:loc[1]], Citation: true})
		prev = loc[1]
	}
	if prev < len(text) {
		segments = append(segments, Segment{Text: text[prev:]})
	}
	return segments
}

// Citations returns every citation in text, in order of appearance.
func Citations(text string) []string {
	return citationPattern.FindAllString(text, -1)
}

// StripCitations removes citations and collapses the whitespace they leave behind.
func StripCitations(text string) string {
	return strings.Join(strings.Fields(citationPattern.ReplaceAllString(text, " ")), " ")
}
