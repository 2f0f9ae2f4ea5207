package guide2pdf

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Kind tells how a template is turned into PDF pages.
type Kind string

// Template kinds.
const (
	KindText Kind = "text" // rich text rendered to HTML, then converted
	KindPDF  Kind = "pdf"  // existing PDF file overlaid with answers
)

// Text template formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Template is one unit of document content belonging to a guide.
// Templates are read-only inputs; the pipeline never mutates them.
type Template struct {
	ID        string
	GuideID   string
	Title     string
	Active    bool
	Kind      Kind
	Condition string // expr boolean expression, empty = always applies
	Format    string // FormatHTML (default) or FormatMarkdown, text templates only
	Content   string // template body, text templates only
	Boxes     []Box  // overlay mapping, PDF templates only
	PDF       []byte // inline PDF bytes; when set the store is not consulted
}

// Box positions one variable's value on a page of a PDF template.
// Coordinates are PDF points from the bottom-left corner of the page.
type Box struct {
	Page     int     `json:"page"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize"`
	Variable string  `json:"variable"`
	Checkbox bool    `json:"checkbox"` // draws "X" when the value is truthy
}

// Source records where a variable's value came from.
type Source int

// Variable sources.
const (
	SourceGuide Source = iota
	SourceAnswer
)

func (s Source) String() string {
	if s == SourceAnswer {
		return "answer"
	}
	return "guide"
}

// Variable is a named value declared by a guide or submitted as an answer.
type Variable struct {
	Name   string
	Type   string // guide-declared type, e.g. "Text", "TF", "Number", "Date"
	Value  any
	Source Source
}

// Variables is a request-scoped variable set keyed by lower-cased name.
type Variables map[string]Variable

// Lookup finds a variable by name, ignoring case.
func (v Variables) Lookup(name string) (Variable, bool) {
	vr, ok := v[strings.ToLower(name)]
	return vr, ok
}

// Values returns the plain name→value mapping used by templates.
func (v Variables) Values() map[string]any {
	out := make(map[string]any, len(v))
	for k, vr := range v {
		out[k] = vr.Value
	}
	return out
}

// Segment is a maximal run of same-kind templates.
type Segment struct {
	Kind      Kind
	Templates []Template
}

// Fragment is one piece of text drawn on a PDF page.
type Fragment struct {
	Page     int
	X        float64
	Y        float64
	FontSize float64
	Text     string
}

// Overlay is the set of fragments applied to one PDF template copy.
type Overlay struct {
	Fragments []Fragment
}

// Empty reports whether the overlay draws nothing.
func (o Overlay) Empty() bool {
	return len(o.Fragments) == 0
}

// Request is one assembly request.
type Request struct {
	CookieHeader string         // forwarded to user resolution
	GuideID      string         // required unless InlinePDF is set
	TemplateID   string         // single-template fast path
	Answers      map[string]any // decoded answers, see DecodeAnswers
	InlinePDF    []byte         // inline document payload
	InlineBoxes  []Box          // overlay mapping for InlinePDF
	Title        string         // download name, defaults to DefaultTitle
	PDF          *PDFOptions    // nil = defaults
}

// Document is the assembled PDF. The caller streams it, then calls Remove.
type Document struct {
	Path     string
	Filename string // sanitized, with .pdf extension
}

// Remove deletes the document file.
func (d *Document) Remove() error {
	if d == nil || d.Path == "" {
		return nil
	}
	if err := os.Remove(d.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrCleanup, err)
	}
	return nil
}

// Margin and spacing bounds in millimeters.
const (
	DefaultMarginTop     = 20.0
	DefaultMarginBottom  = 15.0
	DefaultHeaderSpacing = 5.0
	DefaultFooterSpacing = 5.0
	MaxMargin            = 80.0
	MaxSpacing           = 40.0
)

// PDFOptions configures HTML to PDF conversion of text segments.
type PDFOptions struct {
	MarginTop     float64 // mm
	MarginBottom  float64 // mm
	HeaderSpacing float64 // mm between page top and header baseline
	FooterSpacing float64 // mm between page bottom and footer baseline

	Header                string
	Footer                string
	HideHeaderOnFirstPage bool
	HideFooterOnFirstPage bool
}

// DefaultPDFOptions returns the options used when a request sets none.
func DefaultPDFOptions() *PDFOptions {
	return &PDFOptions{
		MarginTop:     DefaultMarginTop,
		MarginBottom:  DefaultMarginBottom,
		HeaderSpacing: DefaultHeaderSpacing,
		FooterSpacing: DefaultFooterSpacing,
	}
}

// Validate checks margins and spacings.
// Returns nil if p is nil (nil means use defaults).
func (p *PDFOptions) Validate() error {
	if p == nil {
		return nil
	}
	for _, m := range []float64{p.MarginTop, p.MarginBottom} {
		if m < 0 || m > MaxMargin {
			return fmt.Errorf("%w: %.1fmm (must be between 0 and %.0f)", ErrInvalidMargin, m, MaxMargin)
		}
	}
	for _, s := range []float64{p.HeaderSpacing, p.FooterSpacing} {
		if s < 0 || s > MaxSpacing {
			return fmt.Errorf("%w: %.1fmm (must be between 0 and %.0f)", ErrInvalidSpacing, s, MaxSpacing)
		}
	}
	return nil
}

// HasHeaderOrFooter reports whether any header or footer text is set.
func (p *PDFOptions) HasHeaderOrFooter() bool {
	return p != nil && (strings.TrimSpace(p.Header) != "" || strings.TrimSpace(p.Footer) != "")
}

// Option configures an Assembler.
type Option func(*Assembler)

// assemblerConfig holds internal configuration for Assembler.
type assemblerConfig struct {
	timeout    time.Duration
	pdfOptions PDFOptions
}

// defaultTimeout bounds a whole assembly when the caller sets no deadline.
const defaultTimeout = 2 * time.Minute

// WithTimeout sets the assembly timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("guide2pdf: WithTimeout duration must be positive")
	}
	return func(a *Assembler) {
		a.cfg.timeout = d
	}
}

// WithPDFDefaults replaces the margins and spacings applied to requests
// that carry no PDF options of their own.
func WithPDFDefaults(opts PDFOptions) Option {
	return func(a *Assembler) {
		a.cfg.pdfOptions = opts
	}
}
