package guide2pdf

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Sanitizing policies are safe for concurrent use once built.
var (
	shellPolicy = bluemonday.UGCPolicy()
	stampPolicy = bluemonday.StrictPolicy()
)

// headerFooterFontSize is the stamp size in points.
const headerFooterFontSize = 9

// HeaderFooterDocument returns the HTML shell for a header or footer.
// The shell is empty when page is 1 and hideOnFirstPage is set.
// content is sanitized; scripts and event handlers never reach the output.
func HeaderFooterDocument(content string, page int, hideOnFirstPage bool) string {
	const doctype = "<!DOCTYPE html>"
	if page == 1 && hideOnFirstPage {
		return doctype
	}
	return doctype + shellPolicy.Sanitize(content)
}

// headerFooterText reduces rich header content to the plain text stamped
// onto pages.
func headerFooterText(content string) string {
	return strings.TrimSpace(html.UnescapeString(stampPolicy.Sanitize(content)))
}

// stampHeaderFooter draws the header and footer of opts onto every page
// of the PDF at path, skipping the first page where requested.
// Spacings are measured from the top and bottom edges of the page.
func stampHeaderFooter(path string, opts *PDFOptions) error {
	pages, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("counting pages: %w", err)
	}

	stamps := []struct {
		text     string
		hide     bool
		position string
		offsetY  float64
	}{
		{headerFooterText(opts.Header), opts.HideHeaderOnFirstPage, "tc", -mmToPoints(opts.HeaderSpacing)},
		{headerFooterText(opts.Footer), opts.HideFooterOnFirstPage, "bc", mmToPoints(opts.FooterSpacing)},
	}

	for _, s := range stamps {
		if s.text == "" {
			continue
		}
		selected := stampPages(pages, s.hide)
		if selected == nil {
			continue
		}
		desc := fmt.Sprintf(
			"fontname:Helvetica, points:%d, position:%s, offset:0 %s, scalefactor:1 abs, rotation:0, opacity:1, fillcolor:#000000",
			headerFooterFontSize, s.position, trimFloat(s.offsetY),
		)
		if err := api.AddTextWatermarksFile(path, "", selected, true, s.text, desc, pdfcpuConfig()); err != nil {
			return fmt.Errorf("stamping %s: %w", s.position, err)
		}
	}
	return nil
}

// stampPages selects the pages to stamp, nil meaning none.
func stampPages(pages int, hideFirst bool) []string {
	switch {
	case pages < 1:
		return nil
	case !hideFirst:
		return []string{"1-"}
	case pages == 1:
		return nil
	default:
		return []string{"2-"}
	}
}

func mmToPoints(mm float64) float64 {
	return mm / mmPerInch * pointsPerInch
}
