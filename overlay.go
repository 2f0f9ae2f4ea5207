package guide2pdf

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DefaultFontSize is used for boxes that set none.
const DefaultFontSize = 10.0

// checkboxMark is drawn in checkbox boxes whose value is truthy.
const checkboxMark = "X"

// ComputeOverlay maps a PDF template's boxes to text fragments.
// Each box takes its value from variables, falling back to the raw answers
// for names the variables do not carry. Boxes with nothing to draw are
// skipped. Fragments keep the order of the template's boxes.
func ComputeOverlay(t Template, variables Variables, answers map[string]any) Overlay {
	var fragments []Fragment
	for _, box := range t.Boxes {
		value, ok := boxValue(box.Variable, variables, answers)
		if !ok {
			continue
		}

		var text string
		if box.Checkbox {
			if !truthy(value) {
				continue
			}
			text = checkboxMark
		} else {
			text = formatValue(value)
		}
		if text == "" {
			continue
		}

		size := box.FontSize
		if size <= 0 {
			size = DefaultFontSize
		}
		page := box.Page
		if page < 1 {
			page = 1
		}
		fragments = append(fragments, Fragment{Page: page, X: box.X, Y: box.Y, FontSize: size, Text: text})
	}
	return Overlay{Fragments: fragments}
}

func boxValue(name string, variables Variables, answers map[string]any) (any, bool) {
	if name == "" {
		return nil, false
	}
	if v, ok := variables.Lookup(name); ok {
		return v.Value, v.Value != nil
	}
	for k, v := range answers {
		if strings.EqualFold(k, name) {
			return v, v != nil
		}
	}
	return nil, false
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := formatValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s != "" && s != "false" && s != "no" && s != "0"
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

// PDFCPUOverlayer draws overlays onto PDF files with pdfcpu text stamps.
type PDFCPUOverlayer struct{}

// NewPDFCPUOverlayer creates an overlayer.
func NewPDFCPUOverlayer() *PDFCPUOverlayer {
	return &PDFCPUOverlayer{}
}

// ApplyOverlay stamps every fragment onto the file at path, in place.
// An empty overlay leaves the file untouched.
func (o *PDFCPUOverlayer) ApplyOverlay(ctx context.Context, path string, overlay Overlay) error {
	if overlay.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrOverlay, err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOverlay, err)
	}

	stamps := make(map[int][]*model.Watermark)
	for _, f := range overlay.Fragments {
		if f.Page > pages {
			continue
		}
		wm, err := api.TextWatermark(f.Text, fragmentDescription(f), true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("%w: page %d: %v", ErrOverlay, f.Page, err)
		}
		stamps[f.Page] = append(stamps[f.Page], wm)
	}

	if len(stamps) == 0 {
		return nil
	}
	if err := api.AddWatermarksSliceMapFile(path, "", stamps, pdfcpuConfig()); err != nil {
		return fmt.Errorf("%w: %v", ErrOverlay, err)
	}
	return nil
}

// fragmentDescription anchors the stamp at the bottom-left corner of the
// page and moves it to the fragment's coordinates.
func fragmentDescription(f Fragment) string {
	return fmt.Sprintf(
		"fontname:Helvetica, points:%d, position:bl, offset:%s %s, scalefactor:1 abs, rotation:0, opacity:1, fillcolor:#000000",
		int(math.Round(f.FontSize)), trimFloat(f.X), trimFloat(f.Y),
	)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
