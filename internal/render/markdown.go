package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Style is a bit set of inline text styles.
type Style uint8

const (
	StyleBold Style = 1 << iota
	StyleItalic
	StyleCode
	StyleLink
	StyleStrike
)

// Inline is a run of text sharing one style.
type Inline struct {
	Text  string
	Style Style
}

// BlockKind identifies a markdown block.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockList
	BlockCode
	BlockQuote
	BlockRule
	BlockTable
)

// Block is one tokenized markdown block. Which fields are set depends on Kind.
type Block struct {
	Kind    BlockKind
	Level   int
	Inlines []Inline

	Ordered bool
	Start   int
	Items   [][]Block

	Code     string
	Children []Block

	// Rows holds table cells; the first row is the header.
	Rows [][][]Inline
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// Tokenize parses markdown into a block sequence.
func Tokenize(src string) []Block {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))
	return blocks(doc, source)
}

// InlineMarkdown tokenizes a single line of markdown and flattens it to inlines.
func InlineMarkdown(src string) []Inline {
	var out []Inline
	for _, b := range Tokenize(src) {
		if len(out) > 0 {
			out = appendInline(out, " ", 0)
		}
		out = append(out, flatten(b)...)
	}
	return out
}

func flatten(b Block) []Inline {
	switch b.Kind {
	case BlockCode:
		return []Inline{{Text: b.Code, Style: StyleCode}}
	case BlockList:
		var out []Inline
		for _, item := range b.Items {
			for _, c := range item {
				out = append(out, flatten(c)...)
			}
		}
		return out
	case BlockQuote:
		var out []Inline
		for _, c := range b.Children {
			out = append(out, flatten(c)...)
		}
		return out
	default:
		return b.Inlines
	}
}

func blocks(parent ast.Node, src []byte) []Block {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Heading:
			out = append(out, Block{Kind: BlockHeading, Level: n.Level, Inlines: inlines(n, src, 0, nil)})
		case *ast.Paragraph, *ast.TextBlock:
			if in := inlines(n, src, 0, nil); len(in) > 0 {
				out = append(out, Block{Kind: BlockParagraph, Inlines: in})
			}
		case *ast.List:
			b := Block{Kind: BlockList, Ordered: n.IsOrdered(), Start: n.Start}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				b.Items = append(b.Items, blocks(item, src))
			}
			out = append(out, b)
		case *ast.FencedCodeBlock:
			out = append(out, Block{Kind: BlockCode, Code: lines(n, src)})
		case *ast.CodeBlock:
			out = append(out, Block{Kind: BlockCode, Code: lines(n, src)})
		case *ast.HTMLBlock:
			if s := strings.TrimSpace(lines(n, src)); s != "" {
				out = append(out, Block{Kind: BlockParagraph, Inlines: []Inline{{Text: s}}})
			}
		case *ast.Blockquote:
			out = append(out, Block{Kind: BlockQuote, Children: blocks(n, src)})
		case *ast.ThematicBreak:
			out = append(out, Block{Kind: BlockRule})
		case *east.Table:
			out = append(out, Block{Kind: BlockTable, Rows: tableRows(n, src)})
		default:
			out = append(out, blocks(n, src)...)
		}
	}
	return out
}

func tableRows(table *east.Table, src []byte) [][][]Inline {
	var rows [][][]Inline
	for r := table.FirstChild(); r != nil; r = r.NextSibling() {
		var row [][]Inline
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*east.TableCell); ok {
				row = append(row, inlines(c, src, 0, nil))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func lines(n ast.Node, src []byte) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

func inlines(parent ast.Node, src []byte, style Style, out []Inline) []Inline {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			out = appendInline(out, string(n.Segment.Value(src)), style)
			switch {
			case n.HardLineBreak():
				out = appendInline(out, "\n", style)
			case n.SoftLineBreak():
				out = appendInline(out, " ", style)
			}
		case *ast.String:
			out = appendInline(out, string(n.Value), style)
		case *ast.CodeSpan:
			out = inlines(n, src, style|StyleCode, out)
		case *ast.Emphasis:
			s := StyleItalic
			if n.Level >= 2 {
				s = StyleBold
			}
			out = inlines(n, src, style|s, out)
		case *ast.Link:
			out = inlines(n, src, style|StyleLink, out)
		case *ast.AutoLink:
			out = appendInline(out, string(n.Label(src)), style|StyleLink)
		case *east.Strikethrough:
			out = inlines(n, src, style|StyleStrike, out)
		case *ast.RawHTML:
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				out = appendInline(out, string(seg.Value(src)), style)
			}
		default:
			out = inlines(n, src, style, out)
		}
	}
	return out
}

// appendInline merges text into the previous run when the style matches, so that
// citations split across several parser nodes come back together.
func appendInline(out []Inline, s string, style Style) []Inline {
	if s == "" {
		return out
	}
	if last := len(out) - 1; last >= 0 && out[last].Style == style {
		out[last].Text += s
		return out
	}
	return append(out, Inline{Text: s, Style: style})
}
