package render

import (
	"regexp"
	"strings"
)

var (
	mdHeading   = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]*`)
	mdLink      = regexp.MustCompile(`!?\[([^\]\n]*)\]\([^)\n]*\)`)
	mdTableSep  = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t]*:?-{2,}:?[ \t]*(?:\|[ \t]*:?-{2,}:?[ \t]*)*\|?[ \t]*$`)
	mdRule      = regexp.MustCompile(`(?m)^[ \t]*(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	mdFence     = regexp.MustCompile("(?m)^[ \t]*(?:```|~~~).*$")
	mdItalic    = regexp.MustCompile(`(^|[^\w*])\*([^*\n]+)\*`)
	mdMarkers   = strings.NewReplacer("**", "", "__", "", "~~", "", "`", "")
	mdPipeSpace = regexp.MustCompile(`[ \t]*\|[ \t]*`)
)

// StripMarkdown removes markdown markup and keeps the readable text, one source line
// per output line.
func StripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = mdFence.ReplaceAllString(s, "")
	s = mdTableSep.ReplaceAllString(s, "")
	s = mdRule.ReplaceAllString(s, "")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdMarkers.Replace(s)
	s = mdItalic.ReplaceAllString(s, "$1$2")

	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		if strings.Contains(ln, "|") {
			ln = strings.Trim(strings.TrimSpace(ln), "|")
			ln = strings.TrimSpace(mdPipeSpace.ReplaceAllString(ln, "   "))
		}
		lines[i] = strings.TrimRight(ln, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
