package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"clinsynth/internal/domain"
)

// maxFallbackItems caps list items recovered from outside their own section.
const maxFallbackItems = 10

type (
	textStrategy func(raw string) (string, bool)
	listFallback func(raw string) []string
)

var (
	summaryStrategies = []textStrategy{
		func(raw string) (string, bool) { return nonEmpty(SectionOf(raw, domain.SectionSummary)) },
		firstParagraph,
	}

	findingsStrategies = []listFallback{
		func(raw string) []string { return sectionList(raw, domain.SectionKeyFindings) },
		firstListBlock,
	}

	recommendationStrategies = []listFallback{
		func(raw string) []string { return sectionList(raw, domain.SectionRecommendations) },
		recommendationHeadingBlock,
		recommendationSentences,
	}
)

var (
	anyHeading            = regexp.MustCompile(`^[ \t]{0,3}(#{1,6})[ \t]`)
	recommendationHeading = regexp.MustCompile(`(?i)recommend`)
	adviceLead            = regexp.MustCompile(`(?i)^(?:please\s+)?(?:consider|repeat|recheck|refer|obtain|order|check|monitor|schedule|arrange|follow[- ]?up|start|initiate|continue|discontinue|evaluate|perform|counsel)\b`)
	adviceCue             = regexp.MustCompile(`(?i)\b(?:consider|recommend(?:s|ed|ation|ations)?|suggest(?:s|ed)?|advised?)\b`)
	labelOnlyLine         = regexp.MustCompile(`^(?:\*\*|__)[^*_\n]+(?:\*\*|__)[ \t]*:?$`)
)

// Extract derives a ParsedReport from the raw model answer. It never fails: fields the
// heuristics cannot recover are filled with placeholders or left nil.
func Extract(raw string) domain.ParsedReport {
	full := raw
	raw = normalizeNewlines(raw)
	report := domain.ParsedReport{
		FullMarkdown:         full,
		ClinicalCorrelations: optionalSection(raw, domain.SectionCorrelations),
		Uncertainties:        optionalSection(raw, domain.SectionUncertainties),
		KeyValues:            domain.StringList(sectionList(raw, domain.SectionKeyValues)),
	}
	if report.KeyValues == nil {
		report.KeyValues = domain.StringList{}
	}

	if summary, ok := firstText(raw, summaryStrategies); ok {
		if corr := report.ClinicalCorrelations; corr != nil && !strings.Contains(summary, *corr) {
			summary += "\n\n" + *corr
		}
		report.Summary = summary
	} else {
		report.Summary = domain.PlaceholderSummary
	}

	report.KeyFindings = firstList(raw, findingsStrategies, domain.PlaceholderKeyFindings)
	report.Recommendations = firstList(raw, recommendationStrategies, domain.PlaceholderRecommendations)
	return report
}

func firstText(raw string, strategies []textStrategy) (string, bool) {
	for _, strategy := range strategies {
		if text, ok := strategy(raw); ok {
			return text, true
		}
	}
	return "", false
}

func firstList(raw string, strategies []listFallback, placeholder string) domain.StringList {
	for _, strategy := range strategies {
		if items := strategy(raw); len(items) > 0 {
			return items
		}
	}
	return domain.StringList{placeholder}
}

func nonEmpty(s string, ok bool) (string, bool) {
	return s, ok && s != ""
}

func sectionList(raw string, key domain.SectionKey) []string {
	return List(raw, domain.Section(key).HeaderNames()...)
}

func optionalSection(raw string, key domain.SectionKey) *string {
	body, ok := nonEmpty(SectionOf(raw, key))
	if !ok {
		return nil
	}
	return &body
}

// firstParagraph returns the first blank-line separated block of prose, skipping
// headings, lists, tables and label-only lines.
func firstParagraph(raw string) (string, bool) {
	for _, block := range strings.Split(raw, "\n\n") {
		var prose []string
		for _, line := range strings.Split(block, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || headingLike.MatchString(trimmed) || isListLine(line) ||
				strings.HasPrefix(trimmed, "|") || labelOnlyLine.MatchString(trimmed) || ruleLine.MatchString(trimmed) {
				continue
			}
			prose = append(prose, trimmed)
		}
		if len(prose) > 0 {
			return strings.Join(prose, " "), true
		}
	}
	return "", false
}

// firstListBlock scans the whole answer for its first run of list lines.
func firstListBlock(raw string) []string {
	var items []string
	for _, line := range strings.Split(raw, "\n") {
		if isListLine(line) {
			items = append(items, stripListMarker(line))
			if len(items) == maxFallbackItems {
				break
			}
			continue
		}
		if len(items) > 0 && strings.TrimSpace(line) != "" {
			break
		}
	}
	return items
}

// recommendationHeadingBlock looks for any heading mentioning recommendations, at any
// level, and collects the list lines of its sub-block.
func recommendationHeadingBlock(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		m := anyHeading.FindStringSubmatch(line)
		if m == nil || !recommendationHeading.MatchString(line) {
			continue
		}
		level := len(m[1])

		var items []string
		for _, next := range lines[i+1:] {
			if h := anyHeading.FindStringSubmatch(next); h != nil && len(h[1]) <= level {
				break
			}
			if isListLine(next) {
				items = append(items, stripListMarker(next))
			}
		}
		if len(items) > 0 {
			return capItems(items)
		}
	}
	return nil
}

// recommendationSentences picks sentences that read like advice, outside the sections
// whose content is already reported elsewhere.
func recommendationSentences(raw string) []string {
	skip := reportedLines(raw)
	var items []string
	seen := map[string]bool{}
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if skip[trimmed] || skip[stripListMarker(line)] || headingLike.MatchString(trimmed) || labelOnlyLine.MatchString(trimmed) {
			continue
		}
		for _, sentence := range sentences(stripListMarker(line)) {
			if !isAdvice(sentence) || seen[sentence] {
				continue
			}
			seen[sentence] = true
			items = append(items, sentence)
		}
	}
	return capItems(items)
}

func isAdvice(sentence string) bool {
	s := strings.TrimLeft(sentence, "*_ \t")
	return adviceLead.MatchString(s) || adviceCue.MatchString(s)
}

// reportedLines collects the items of the findings and key values lists, the bodies of
// the correlations and uncertainties sections, and the opening paragraph of the summary.
func reportedLines(raw string) map[string]bool {
	lines := map[string]bool{}
	add := func(body string) {
		for _, line := range strings.Split(body, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines[trimmed] = true
			}
		}
	}
	for _, key := range []domain.SectionKey{domain.SectionKeyFindings, domain.SectionKeyValues} {
		for _, item := range sectionList(raw, key) {
			lines[item] = true
		}
	}
	for _, key := range []domain.SectionKey{domain.SectionCorrelations, domain.SectionUncertainties} {
		if body, ok := SectionOf(raw, key); ok {
			add(body)
		}
	}
	if body, ok := SectionOf(raw, domain.SectionSummary); ok {
		add(strings.SplitN(strings.TrimSpace(body), "\n\n", 2)[0])
	}
	return lines
}

// sentences splits a line after '.', '!' or '?' followed by whitespace.
func sentences(line string) []string {
	var out []string
	start := 0
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		i += size
		if (r == '.' || r == '!' || r == '?') && (i == len(line) || line[i] == ' ' || line[i] == '\t') {
			if s := strings.TrimSpace(line[start:i]); s != "" {
				out = append(out, s)
			}
			start = i
		}
	}
	if s := strings.TrimSpace(line[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func capItems(items []string) []string {
	if len(items) > maxFallbackItems {
		return items[:maxFallbackItems]
	}
	return items
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
