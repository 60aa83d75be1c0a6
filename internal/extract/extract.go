// Package extract turns statement documents into plain text for parsing.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dslipak/pdf"
)

// ErrNotPDF is returned when a document cannot be opened as a PDF.
var ErrNotPDF = errors.New("not a readable PDF")

// Extractor produces the full text of a document, one page after another.
type Extractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// ForName picks an extractor from a file name: .txt files are read as
// already-extracted text, everything else is treated as a PDF.
func ForName(name string) Extractor {
	if strings.EqualFold(filepath.Ext(name), ".txt") {
		return Text{}
	}
	return PDF{}
}

// PDF extracts page text with github.com/dslipak/pdf.
type PDF struct{}

// Extract reads pages in order and joins their text with newlines.
// Malformed documents surface as ErrNotPDF; the pdf package panics on some
// broken streams, so those are recovered here.
func (PDF) Extract(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrNotPDF, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return joinPages(ctx, pdfDocument{reader: reader})
}

// Text returns the document bytes unchanged.
type Text struct{}

// Extract reads the whole document as text.
func (Text) Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return string(data), nil
}

// document is the page-level view joinPages needs.
type document interface {
	NumPage() int
	PageText(num int) (string, error)
}

// joinPages appends each page's text followed by a newline, page 1 first.
// Cancellation is checked before every page.
func joinPages(ctx context.Context, doc document) (string, error) {
	var b strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.PageText(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

type pdfDocument struct {
	reader *pdf.Reader
}

func (d pdfDocument) NumPage() int { return d.reader.NumPage() }

func (d pdfDocument) PageText(num int) (string, error) {
	p := d.reader.Page(num)
	if p.V.IsNull() {
		return "", nil
	}
	return layoutText(p.Content().Text), nil
}

// sameLine is how far apart, in points, two baselines may be and still
// belong to one line of text.
const sameLine = 2.0

type textLine struct {
	y      float64
	glyphs []pdf.Text
}

// layoutText rebuilds reading order from positioned glyphs. Lines run top to
// bottom and glyphs left to right. Glyphs that do not touch are separated by
// a space, so table cells placed with Td or Tm stay apart.
func layoutText(glyphs []pdf.Text) string {
	var lines []*textLine
	for _, g := range glyphs {
		l := lineAt(lines, g.Y)
		if l == nil {
			l = &textLine{y: g.Y}
			lines = append(lines, l)
		}
		l.glyphs = append(l.glyphs, g)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		sort.SliceStable(l.glyphs, func(i, j int) bool { return l.glyphs[i].X < l.glyphs[j].X })

		var end float64
		space := true
		for j, g := range l.glyphs {
			blank := strings.TrimSpace(g.S) == ""
			if j > 0 && !space && !blank && g.X-end > minGap(g.FontSize) {
				b.WriteByte(' ')
			}
			b.WriteString(g.S)
			space = blank
			end = math.Max(end, g.X+g.W)
		}
	}
	return b.String()
}

func lineAt(lines []*textLine, y float64) *textLine {
	for _, l := range lines {
		if math.Abs(l.y-y) <= sameLine {
			return l
		}
	}
	return nil
}

// minGap is the horizontal distance between glyphs that reads as a word break.
func minGap(fontSize float64) float64 {
	return math.Max(fontSize*0.2, 0.5)
}
