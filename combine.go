package guide2pdf

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/alnah/go-guide2pdf/internal/fileutil"
)

func init() {
	// Keep pdfcpu from creating a configuration directory under $HOME.
	model.ConfigPath = "disable"
}

// pdfcpuConfig returns a fresh configuration; pdfcpu mutates it per call.
func pdfcpuConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PDFCombiner merges PDF files into the first one.
type PDFCombiner struct{}

// NewPDFCombiner creates a combiner.
func NewPDFCombiner() *PDFCombiner {
	return &PDFCombiner{}
}

// Combine appends paths[1:] to paths[0] in order and returns paths[0].
// After a successful merge the appended files are deleted. On failure no
// file is deleted and the caller keeps ownership of all of them.
// A single path is returned unchanged. If deleting an appended file fails
// the merged base is still returned, with an error wrapping ErrCleanup.
func (c *PDFCombiner) Combine(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: no files to combine", ErrCombine)
	}
	base := paths[0]
	if len(paths) == 1 {
		return base, nil
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %v", ErrCombine, err)
		}
	}

	rest := paths[1:]
	if err := api.MergeAppendFile(rest, base, false, pdfcpuConfig()); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCombine, err)
	}

	if err := fileutil.RemoveFiles(rest...); err != nil {
		return base, fmt.Errorf("%w: %v", ErrCleanup, err)
	}
	return base, nil
}
