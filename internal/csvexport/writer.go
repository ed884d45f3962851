package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clinsynth/internal/domain"
	"clinsynth/internal/extract"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"Section",
	"Item",
	"Label",
	"Detail",
	"Value",
	"Unit",
	"Reference Range",
	"Source",
}

// Section names written in the first column.
const (
	SectionFinding        = "Key Finding"
	SectionKeyValue       = "Key Value"
	SectionRecommendation = "Recommendation"
)

// Writer wraps csv.Writer for exporting report rows as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteReport writes one row per key finding, key value and recommendation, in that order.
func (w *Writer) WriteReport(report *domain.ParsedReport) error {
	for i, line := range report.KeyFindings {
		if err := w.csv.Write(findingToRow(i+1, line)); err != nil {
			return err
		}
	}
	for i, line := range report.KeyValues {
		if err := w.csv.Write(keyValueToRow(i+1, line)); err != nil {
			return err
		}
	}
	for i, line := range report.Recommendations {
		if err := w.csv.Write(recommendationToRow(i+1, line)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func findingToRow(n int, line string) []string {
	row := make([]string, len(columns))
	label, detail := extract.SplitFinding(line)
	row[0] = SectionFinding
	row[1] = strconv.Itoa(n)
	row[2] = label
	row[3] = extract.StripCitations(extract.StripEmphasis(detail))
	row[7] = strings.Join(extract.Citations(line), " ")
	return row
}

func keyValueToRow(n int, line string) []string {
	row := make([]string, len(columns))
	kv := extract.SplitKeyValue(line)
	row[0] = SectionKeyValue
	row[1] = strconv.Itoa(n)
	row[2] = kv.Test
	row[4] = kv.Value
	row[5] = kv.Unit
	row[6] = kv.Reference
	row[7] = kv.Source
	return row
}

func recommendationToRow(n int, line string) []string {
	row := make([]string, len(columns))
	row[0] = SectionRecommendation
	row[1] = strconv.Itoa(n)
	row[3] = extract.StripCitations(extract.StripEmphasis(line))
	row[7] = strings.Join(extract.Citations(line), " ")
	return row
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized attachment name.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string, date time.Time) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "report"
	}
	return fmt.Sprintf("%s_%s.%s", sanitized, date.Format("2006-01-02"), ext)
}
