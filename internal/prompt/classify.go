package prompt

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"clinsynth/internal/domain"
)

// classifyWindow is how much of the document body, in runes, is scanned for keywords.
const classifyWindow = 1000

// Category is the clinical document type inferred for a source document.
type Category struct {
	Label    string
	keywords *regexp.Regexp
}

// GenericCategory is used when no keyword matches.
var GenericCategory = Category{Label: "Clinical Document"}

// categories are scored in order; the first one wins a tie.
var categories = []Category{
	{
		Label: "Laboratory Result",
		keywords: wordPattern("lab", "labs", "laboratory", "cbc", "complete blood count", "metabolic panel",
			"cmp", "bmp", "lipid panel", "hemoglobin", "hematocrit", "platelets", "creatinine", "glucose",
			"hba1c", "reference range", "ref range", "specimen collected", "urinalysis"),
	},
	{
		Label: "Imaging Study",
		keywords: wordPattern("radiology", "imaging", "mri", "ct", "ct scan", "x-ray", "xray", "radiograph",
			"ultrasound", "sonography", "pet", "mammogram", "mammography", "contrast", "impression"),
	},
	{
		Label: "Pathology Report",
		keywords: wordPattern("pathology", "biopsy", "histology", "histopathology", "cytology",
			"surgical pathology", "gross description", "microscopic description", "margins", "carcinoma"),
	},
	{
		Label: "Clinical Note",
		keywords: wordPattern("progress note", "clinic note", "discharge summary", "history of present illness",
			"hpi", "chief complaint", "assessment and plan", "review of systems", "physical exam", "soap"),
	},
	{
		Label: "Genetic Report",
		keywords: wordPattern("genetic", "genetics", "genomic", "genome", "gene", "variant", "mutation",
			"sequencing", "germline", "somatic", "pathogenic", "brca1", "brca2", "zygosity"),
	},
	{
		Label: "Cardiology Study",
		keywords: wordPattern("cardiology", "ecg", "ekg", "electrocardiogram", "echocardiogram", "echo",
			"ejection fraction", "holter", "stress test", "cardiac catheterization", "arrhythmia"),
	},
}

// nameSeparators turns "cbc_2024.pdf" into "cbc 2024 pdf" so word boundaries apply.
var nameSeparators = strings.NewReplacer("_", " ", ".", " ")

func wordPattern(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Classify infers the document category from the file name and the start of the text.
// File name hits count double since names like "cbc_2024.pdf" are usually deliberate.
func Classify(doc domain.SourceDocument) Category {
	head := firstRunes(doc.ExtractedText, classifyWindow)
	name := nameSeparators.Replace(doc.DisplayName)

	best := GenericCategory
	bestScore := 0
	for _, c := range categories {
		score := 2*len(c.keywords.FindAllStringIndex(name, -1)) +
			len(c.keywords.FindAllStringIndex(head, -1))
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
