package extract

import (
	"regexp"
	"strings"
)

// listStrategy turns the lines of a section into list items, or nil when the section
// is not in that shape.
type listStrategy func(lines []string) []string

// List heuristics in precedence order. The first one that yields items wins.
var listStrategies = []listStrategy{
	emphasizedRows,
	numberedLines,
	bulletLines,
	indentedBulletLines,
	tableRows,
}

var (
	listMarker     = regexp.MustCompile(`^[ \t]*(?:\d+[.)]|[-*•+])[ \t]+`)
	emphasizedRow  = regexp.MustCompile(`^(?:\*\*|__)[^*_\n]+?(?::[ \t]*(?:\*\*|__)|(?:\*\*|__)[ \t]*:)[ \t]*\S`)
	numberedLine   = regexp.MustCompile(`^[ \t]*\d+[.)][ \t]+(\S.*)$`)
	bulletLine     = regexp.MustCompile(`^[-*•+][ \t]+(\S.*)$`)
	indentedBullet = regexp.MustCompile(`^[ \t]+[-*•+][ \t]+(\S.*)$`)
	tableSeparator = regexp.MustCompile(`^\|?[ \t]*:?-{2,}:?[ \t]*(?:\|[ \t]*:?-{2,}:?[ \t]*)*\|?[ \t]*$`)
	ruleLine       = regexp.MustCompile(`^[ \t]*(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	headingLike    = regexp.MustCompile(`^[ \t]*#{1,6}(?:[ \t]|$)`)
)

// List resolves the section for aliases and splits it into items. It returns nil only
// when no section matches or the section has no content lines at all.
func List(text string, aliases ...string) []string {
	section, ok := Section(text, aliases...)
	if !ok {
		return nil
	}
	return listItems(section)
}

func listItems(section string) []string {
	lines := strings.Split(section, "\n")
	for _, strategy := range listStrategies {
		if items := strategy(lines); len(items) > 0 {
			return items
		}
	}
	return contentLines(lines)
}

// emphasizedRows keeps "**label:** detail" rows intact, list marker stripped. Once a
// section has such a row, its unlabeled list lines are kept alongside in order.
func emphasizedRows(lines []string) []string {
	var items []string
	labeled := false
	for _, line := range lines {
		row := stripListMarker(line)
		switch {
		case emphasizedRow.MatchString(row):
			labeled = true
			items = append(items, row)
		case isListLine(line) && row != "":
			items = append(items, row)
		}
	}
	if !labeled {
		return nil
	}
	return items
}

// tableRows reads the body rows of a pipe table. Two-column rows become "a: b".
func tableRows(lines []string) []string {
	var rows [][]string
	headerDone := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}
		if tableSeparator.MatchString(trimmed) {
			// The row just above a separator is a header.
			if len(rows) > 0 {
				rows = rows[:len(rows)-1]
			}
			headerDone = true
			continue
		}
		rows = append(rows, SplitTableRow(trimmed))
	}
	if !headerDone && len(rows) < 2 {
		return nil
	}

	var items []string
	for _, cells := range rows {
		switch {
		case len(cells) == 0:
			continue
		case len(cells) == 2:
			items = append(items, cells[0]+": "+cells[1])
		default:
			items = append(items, strings.Join(cells, " | "))
		}
	}
	return items
}

// SplitTableRow splits a markdown pipe row into trimmed cells.
func SplitTableRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	if strings.TrimSpace(row) == "" {
		return nil
	}
	parts := strings.Split(row, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func numberedLines(lines []string) []string {
	return captureLines(lines, numberedLine)
}

func bulletLines(lines []string) []string {
	return captureLines(lines, bulletLine)
}

func indentedBulletLines(lines []string) []string {
	return captureLines(lines, indentedBullet)
}

func captureLines(lines []string, re *regexp.Regexp) []string {
	var items []string
	for _, line := range lines {
		if ruleLine.MatchString(line) {
			continue
		}
		if m := re.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	return items
}

// contentLines is the last resort: every non-blank line that is not a heading or rule.
func contentLines(lines []string) []string {
	var items []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || headingLike.MatchString(trimmed) || ruleLine.MatchString(trimmed) {
			continue
		}
		items = append(items, trimmed)
	}
	return items
}

// isListLine reports whether line carries a numbered or bullet marker.
func isListLine(line string) bool {
	return !ruleLine.MatchString(line) && listMarker.MatchString(line)
}

func stripListMarker(line string) string {
	return strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
}
