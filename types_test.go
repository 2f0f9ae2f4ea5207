package guide2pdf

// Notes:
// - PDFOptions: margin and spacing bounds, nil means defaults
// - Document.Remove: idempotent, missing files are not errors
// - WithTimeout: non-positive durations are programmer errors (panic)

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestPDFOptions_Validate - Margin and spacing bounds
// ---------------------------------------------------------------------------

func TestPDFOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    *PDFOptions
		wantErr error
	}{
		{"nil is valid (use defaults)", nil, nil},
		{"defaults are valid", DefaultPDFOptions(), nil},
		{"zero everything", &PDFOptions{}, nil},
		{"max margins", &PDFOptions{MarginTop: MaxMargin, MarginBottom: MaxMargin}, nil},
		{"max spacings", &PDFOptions{HeaderSpacing: MaxSpacing, FooterSpacing: MaxSpacing}, nil},
		{"negative top margin", &PDFOptions{MarginTop: -1}, ErrInvalidMargin},
		{"bottom margin too large", &PDFOptions{MarginBottom: MaxMargin + 0.1}, ErrInvalidMargin},
		{"negative header spacing", &PDFOptions{HeaderSpacing: -0.5}, ErrInvalidSpacing},
		{"footer spacing too large", &PDFOptions{FooterSpacing: MaxSpacing + 1}, ErrInvalidSpacing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.opts.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && !IsClientError(err) {
				t.Errorf("Validate() = %v, want a client error", err)
			}
		})
	}
}

func TestDefaultPDFOptions(t *testing.T) {
	t.Parallel()

	got := DefaultPDFOptions()
	if got.MarginTop != 20 || got.MarginBottom != 15 || got.HeaderSpacing != 5 || got.FooterSpacing != 5 {
		t.Errorf("DefaultPDFOptions() = %+v", got)
	}
	if got.HasHeaderOrFooter() {
		t.Error("defaults carry no header or footer")
	}

	// each call returns a fresh value
	got.MarginTop = 1
	if DefaultPDFOptions().MarginTop != DefaultMarginTop {
		t.Error("DefaultPDFOptions() shares state between calls")
	}
}

func TestPDFOptions_HasHeaderOrFooter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts *PDFOptions
		want bool
	}{
		{"nil", nil, false},
		{"empty", &PDFOptions{}, false},
		{"whitespace only", &PDFOptions{Header: "  ", Footer: "\n"}, false},
		{"header", &PDFOptions{Header: "Case 42"}, true},
		{"footer", &PDFOptions{Footer: "Page"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.opts.HasHeaderOrFooter(); got != tt.want {
				t.Errorf("HasHeaderOrFooter() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDocument_Remove - Final file cleanup
// ---------------------------------------------------------------------------

func TestDocument_Remove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "final.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o600); err != nil {
		t.Fatal(err)
	}

	doc := &Document{Path: path, Filename: "final.pdf"}
	if err := doc.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists: %v", err)
	}

	// second call is a no-op
	if err := doc.Remove(); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}

func TestDocument_RemoveNil(t *testing.T) {
	t.Parallel()

	var doc *Document
	if err := doc.Remove(); err != nil {
		t.Errorf("nil Remove() error = %v", err)
	}
	if err := (&Document{}).Remove(); err != nil {
		t.Errorf("empty Remove() error = %v", err)
	}
}

func TestDocument_RemoveFailure(t *testing.T) {
	t.Parallel()

	// a non-empty directory cannot be removed with os.Remove
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	err := (&Document{Path: dir}).Remove()
	if !errors.Is(err, ErrCleanup) {
		t.Errorf("Remove() error = %v, want ErrCleanup", err)
	}
}

// ---------------------------------------------------------------------------
// TestSource_String
// ---------------------------------------------------------------------------

func TestSource_String(t *testing.T) {
	t.Parallel()

	if got := SourceGuide.String(); got != "guide" {
		t.Errorf("SourceGuide.String() = %q", got)
	}
	if got := SourceAnswer.String(); got != "answer" {
		t.Errorf("SourceAnswer.String() = %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestOverlay_Empty
// ---------------------------------------------------------------------------

func TestOverlay_Empty(t *testing.T) {
	t.Parallel()

	if !(Overlay{}).Empty() {
		t.Error("zero overlay should be empty")
	}
	if (Overlay{Fragments: []Fragment{{Page: 1, Text: "x"}}}).Empty() {
		t.Error("overlay with a fragment should not be empty")
	}
}

// ---------------------------------------------------------------------------
// TestWithTimeout - Option validation
// ---------------------------------------------------------------------------

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	a := &Assembler{}
	WithTimeout(5 * time.Second)(a)
	if a.cfg.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", a.cfg.timeout)
	}
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	for _, d := range []time.Duration{0, -time.Second} {
		t.Run(fmt.Sprint(d), func(t *testing.T) {
			t.Parallel()

			defer func() {
				if recover() == nil {
					t.Errorf("WithTimeout(%v) did not panic", d)
				}
			}()
			WithTimeout(d)
		})
	}
}

func TestWithPDFDefaults(t *testing.T) {
	t.Parallel()

	a := &Assembler{}
	WithPDFDefaults(PDFOptions{MarginTop: 30})(a)
	if a.cfg.pdfOptions.MarginTop != 30 {
		t.Errorf("pdfOptions = %+v", a.cfg.pdfOptions)
	}
}
