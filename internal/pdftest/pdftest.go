// Package pdftest writes small real PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Write creates a Letter-size PDF at path with the given number of pages.
// Each page carries the label followed by its page number.
func Write(tb testing.TB, path, label string, pages int) string {
	tb.Helper()
	return WriteSized(tb, path, "Letter", label, pages)
}

// WriteSized is Write with a gofpdf page size such as "A4", "A5" or "Letter".
// Distinct sizes let tests check page order through PageWidths.
func WriteSized(tb testing.TB, path, size, label string, pages int) string {
	tb.Helper()

	if err := WriteFile(path, size, label, pages); err != nil {
		tb.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

// WriteFile is WriteSized for goroutines that may not call tb.Fatal.
func WriteFile(path, size, label string, pages int) error {
	pdf := gofpdf.New("P", "pt", size, "")
	pdf.SetFont("Helvetica", "", 14)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Text(72, 320, fmt.Sprintf("%s page %d", label, i))
	}
	return pdf.OutputFileAndClose(path)
}

// WriteIn creates name inside dir, see Write.
func WriteIn(tb testing.TB, dir, name string, pages int) string {
	tb.Helper()
	return Write(tb, filepath.Join(dir, name), name, pages)
}

// Bytes returns the content of a fresh fixture PDF.
func Bytes(tb testing.TB, pages int) []byte {
	tb.Helper()

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 14)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Text(72, 320, fmt.Sprintf("inline page %d", i))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		tb.Fatalf("rendering fixture: %v", err)
	}
	return buf.Bytes()
}

// PageCount returns the number of pages of the PDF at path.
func PageCount(tb testing.TB, path string) int {
	tb.Helper()

	n, err := api.PageCountFile(path)
	if err != nil {
		tb.Fatalf("counting pages of %s: %v", path, err)
	}
	return n
}

// PageWidths returns the width in points of every page, rounded down.
func PageWidths(tb testing.TB, path string) []int {
	tb.Helper()

	dims, err := api.PageDimsFile(path)
	if err != nil {
		tb.Fatalf("reading page sizes of %s: %v", path, err)
	}
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = int(d.Width)
	}
	return out
}

// Page widths in points of the sizes accepted by WriteSized.
const (
	WidthA5     = 419
	WidthA4     = 595
	WidthLetter = 612
)
