package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
)

// Layout describes the fixed page geometry, in points.
type Layout struct {
	Width      float64
	Height     float64
	FontSize   float64
	Margin     float64
	LineHeight float64
}

// DefaultLayout is a single 600x400 page, 12pt black text, 50pt left margin, 20pt lines.
var DefaultLayout = Layout{
	Width:      600,
	Height:     400,
	FontSize:   12,
	Margin:     50,
	LineHeight: 20,
}

// VisibleLines reports how many lines have their baseline on the page. The
// first baseline sits four font sizes below the top edge.
func (l Layout) VisibleLines() int {
	first := 4 * l.FontSize
	if l.LineHeight <= 0 || first >= l.Height {
		return 0
	}
	return int(math.Ceil((l.Height - first) / l.LineHeight))
}

// PageWriter lays text lines out on a single page and returns the encoded document.
type PageWriter interface {
	WritePage(lines []string, layout Layout) ([]byte, error)
}

// PageWriterFunc adapts a function to PageWriter.
type PageWriterFunc func(lines []string, layout Layout) ([]byte, error)

// WritePage calls f.
func (f PageWriterFunc) WritePage(lines []string, layout Layout) ([]byte, error) {
	return f(lines, layout)
}

// PDFWriter writes pages with go-pdf/fpdf using the Helvetica core font.
type PDFWriter struct{}

// WritePage draws each line at a fixed baseline. Lines past
// layout.VisibleLines() fall below the page and are not drawn.
func (PDFWriter) WritePage(lines []string, layout Layout) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: layout.Width, Ht: layout.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(layout.Margin, 0, 0)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", layout.FontSize)
	pdf.SetTextColor(0, 0, 0)

	// Core fonts are cp1252; translate so accented names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if n := layout.VisibleLines(); len(lines) > n {
		lines = lines[:n]
	}

	y := 4 * layout.FontSize
	for _, line := range lines {
		if line != "" {
			pdf.Text(layout.Margin, y, tr(line))
		}
		y += layout.LineHeight
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout page: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}
	return buf.Bytes(), nil
}
