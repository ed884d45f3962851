package extract

import (
	"regexp"
	"strings"
)

var (
	emphasizedLabel = regexp.MustCompile(`^(?:\*\*|__)(.+?)(?::[ \t]*(?:\*\*|__)|(?:\*\*|__)[ \t]*:)[ \t]*(.*)$`)
	plainLabel      = regexp.MustCompile(`^([^:\[\]\n]{1,60}?)[ \t]*:[ \t]+(\S.*)$`)
	parenthesized   = regexp.MustCompile(`\(([^()]*)\)`)
	numericValue    = regexp.MustCompile(`^([<>≤≥]?=?[ \t]*[-+]?\d+(?:[.,]\d+)?(?:[ \t]*(?:-|to)[ \t]*\d+(?:[.,]\d+)?)?)[ \t]*(.*)$`)
	referenceHint   = regexp.MustCompile(`(?i)\d|\bref|\bnormal\b|\brange\b`)
	emphasisMarks   = strings.NewReplacer("**", "", "__", "", "`", "")
)

// KeyValueRow is one measured value split into display columns.
type KeyValueRow struct {
	Test      string
	Value     string
	Unit      string
	Reference string
	Source    string
}

// SplitFinding splits a "label: detail" row. Emphasis around the label is removed. A row
// without a label returns an empty label and the whole row as detail.
func SplitFinding(line string) (label, detail string) {
	line = stripListMarker(line)
	if m := emphasizedLabel.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(StripEmphasis(m[1])), strings.TrimSpace(m[2])
	}
	if m := plainLabel.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(StripEmphasis(m[1])), strings.TrimSpace(m[2])
	}
	return "", line
}

// SplitKeyValue parses "Test: value unit (reference) [SOURCE: id]" or a pipe-joined
// table row into columns. Citations go to Source.
func SplitKeyValue(line string) KeyValueRow {
	line = stripListMarker(line)
	row := KeyValueRow{Source: strings.Join(Citations(line), " ")}
	line = StripCitations(line)

	if strings.Contains(line, " | ") {
		cells := strings.Split(line, " | ")
		fields := []*string{&row.Test, &row.Value, &row.Unit, &row.Reference}
		for i, c := range cells {
			if i >= len(fields) {
				*fields[len(fields)-1] += " " + strings.TrimSpace(c)
				continue
			}
			*fields[i] = StripEmphasis(strings.TrimSpace(c))
		}
		return row
	}

	label, rest := SplitFinding(line)
	if label == "" {
		row.Test = StripEmphasis(rest)
		return row
	}
	row.Test = label

	if locs := parenthesized.FindAllStringSubmatchIndex(rest, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		inner := rest[last[2]:last[3]]
		if referenceHint.MatchString(inner) {
			row.Reference = strings.TrimSpace(inner)
			rest = strings.TrimSpace(rest[:last[0]] + rest[last[1]:])
		}
	}

	rest = strings.TrimSpace(StripEmphasis(rest))
	if m := numericValue.FindStringSubmatch(rest); m != nil {
		row.Value = strings.TrimSpace(m[1])
		row.Unit = strings.Trim(strings.TrimSpace(m[2]), ",;")
	} else {
		row.Value = rest
	}
	return row
}

// StripEmphasis removes bold and code markers.
func StripEmphasis(s string) string {
	return emphasisMarks.Replace(s)
}
