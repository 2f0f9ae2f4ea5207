package guide2pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-guide2pdf/internal/fileutil"
	"github.com/alnah/go-guide2pdf/internal/process"
)

// PDFConverter turns an HTML document into a PDF file.
// The returned path is a new temporary file owned by the caller.
type PDFConverter interface {
	ToPDF(ctx context.Context, html string, opts *PDFOptions) (string, error)
	Close() error
}

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *PDFOptions, w io.Writer) error
	Close() error
}

// Compile-time interface checks
var (
	_ PDFConverter = (*RodConverter)(nil)
	_ pdfRenderer  = (*rodRenderer)(nil)
)

// PDF page geometry. Letter paper, side margins fixed, top and bottom
// margins come from PDFOptions.
const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
	sideMarginInches  = 0.5
	mmPerInch         = 25.4
	pointsPerInch     = 72.0
)

// ConverterConfig configures the headless Chrome converter.
type ConverterConfig struct {
	BinaryPath string        // Chrome binary, empty lets rod find or download one
	NoSandbox  bool          // required in most containers
	Timeout    time.Duration // page load bound when ctx has no deadline
	WorkDir    string        // directory for temporary files, empty = os.TempDir()
}

// rodRenderer implements pdfRenderer using go-rod.
type rodRenderer struct {
	cfg ConverterConfig

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func newRodRenderer(cfg ConverterConfig) *rodRenderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &rodRenderer{cfg: cfg}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()
	if r.cfg.BinaryPath != "" {
		l = l.Bin(r.cfg.BinaryPath)
	}
	if r.cfg.NoSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher = l
	r.browser = browser
	return browser, nil
}

// Close shuts the browser down and kills whatever is left of its process tree.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		_ = process.KillProcessGroup(r.launcher.PID())
		r.launcher.Kill()
		r.launcher.Cleanup()
		r.launcher = nil
	}
	return err
}

// RenderFromFile opens a local HTML file in headless Chrome and streams
// the printed PDF to w.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *PDFOptions, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	reader, err := page.PDF(buildPDFOptions(opts))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer reader.Close()

	if _, err := io.Copy(w, reader); err != nil {
		return fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return nil
}

// buildPDFOptions maps PDFOptions to Chrome print settings.
// Headers and footers are stamped afterwards, see stampHeaderFooter.
func buildPDFOptions(opts *PDFOptions) *proto.PagePrintToPDF {
	if opts == nil {
		opts = DefaultPDFOptions()
	}
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(opts.MarginTop / mmPerInch),
		MarginBottom:    floatPtr(opts.MarginBottom / mmPerInch),
		MarginLeft:      floatPtr(sideMarginInches),
		MarginRight:     floatPtr(sideMarginInches),
		PrintBackground: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// RodConverter converts HTML to PDF files using headless Chrome via go-rod.
// A converter drives one browser; share it through a ConverterPool.
type RodConverter struct {
	renderer pdfRenderer
	workDir  string
}

// NewRodConverter creates a converter. The browser starts on first use.
func NewRodConverter(cfg ConverterConfig) *RodConverter {
	return &RodConverter{
		renderer: newRodRenderer(cfg),
		workDir:  cfg.WorkDir,
	}
}

// ToPDF renders html to a new temporary PDF file and stamps the header
// and footer from opts. The file is removed again on any failure.
func (c *RodConverter) ToPDF(ctx context.Context, html string, opts *PDFOptions) (string, error) {
	htmlPath, err := fileutil.WriteTemp(c.workDir, []byte(html), "html")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}
	defer func() { _ = os.Remove(htmlPath) }()

	out, err := fileutil.CreateTemp(c.workDir, "pdf")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}
	pdfPath := out.Name()

	renderErr := c.renderer.RenderFromFile(ctx, htmlPath, opts, out)
	closeErr := out.Close()
	if renderErr == nil {
		renderErr = closeErr
	}
	if renderErr == nil && opts.HasHeaderOrFooter() {
		renderErr = stampHeaderFooter(pdfPath, opts)
	}
	if renderErr != nil {
		_ = os.Remove(pdfPath)
		return "", fmt.Errorf("%w: %w", ErrConversion, renderErr)
	}
	return pdfPath, nil
}

// Close releases browser resources.
func (c *RodConverter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}
