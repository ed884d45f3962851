// Package extract recovers structured report fields from the model's free-form markdown.
// Every field is resolved through an ordered list of heuristics; a malformed answer
// degrades to placeholders instead of failing.
package extract

import (
	"regexp"
	"strings"

	"clinsynth/internal/domain"
)

// sectionStrategy finds the body that follows one header style for one alias.
type sectionStrategy func(text, alias string) (string, bool)

// Header styles in precedence order.
var sectionStrategies = []sectionStrategy{
	markdownHeadingSection,
	emphasizedLabelSection,
	plainLabelSection,
}

var (
	headingLine = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]`)

	// sectionLabelLine matches a line that opens a known section with a label, either
	// "**Name:**", "**Name**:" or "Name:".
	sectionLabelLine = regexp.MustCompile(`(?im)^[ \t]*(?:\*\*|__)?[ \t]*(?:` + knownNames() + `)[ \t]*(?::[ \t]*(?:\*\*|__)|(?:\*\*|__)?[ \t]*:)`)
)

// Section returns the trimmed body of the first section matching any alias. Each header
// style is tried across all aliases before the next style is considered.
func Section(text string, aliases ...string) (string, bool) {
	for _, strategy := range sectionStrategies {
		for _, alias := range aliases {
			if body, ok := strategy(text, alias); ok {
				return body, true
			}
		}
	}
	return "", false
}

// SectionOf resolves a section by its vocabulary entry.
func SectionOf(text string, key domain.SectionKey) (string, bool) {
	return Section(text, domain.Section(key).HeaderNames()...)
}

func markdownHeadingSection(text, alias string) (string, bool) {
	re := regexp.MustCompile(`(?im)^[ \t]{0,3}#{1,6}[ \t]*(?:\d+[.)][ \t]*)?(?:\*\*|__)?[ \t]*` + regexp.QuoteMeta(alias) + `\b[^\n]*$`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return bodyUntil(text, loc[1], headingLine), true
}

func emphasizedLabelSection(text, alias string) (string, bool) {
	re := regexp.MustCompile(`(?im)^[ \t]*(?:\*\*|__)[ \t]*` + regexp.QuoteMeta(alias) + `[ \t]*(?::[ \t]*(?:\*\*|__)|(?:\*\*|__)[ \t]*:)`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return bodyUntil(text, loc[1], headingLine, sectionLabelLine), true
}

func plainLabelSection(text, alias string) (string, bool) {
	re := regexp.MustCompile(`(?im)^[ \t]*` + regexp.QuoteMeta(alias) + `[ \t]*:`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return bodyUntil(text, loc[1], headingLine, sectionLabelLine), true
}

// bodyUntil returns text from start to the earliest terminator that begins on a later
// line, trimmed. The rest of the opening line is part of the body.
func bodyUntil(text string, start int, terminators ...*regexp.Regexp) string {
	rest := text[start:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return strings.TrimSpace(rest)
	}

	end := len(rest)
	tail := rest[nl+1:]
	for _, term := range terminators {
		if loc := term.FindStringIndex(tail); loc != nil && nl+1+loc[0] < end {
			end = nl + 1 + loc[0]
		}
	}
	return strings.TrimSpace(rest[:end])
}

func knownNames() string {
	var names []string
	for _, s := range domain.ReportSections {
		for _, n := range s.HeaderNames() {
			names = append(names, regexp.QuoteMeta(n))
		}
	}
	return strings.Join(names, "|")
}
