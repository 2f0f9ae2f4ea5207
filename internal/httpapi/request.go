package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	guide2pdf "github.com/alnah/go-guide2pdf"
)

// assembleRequest is the POST /assemble body, sent as JSON or as a form.
type assembleRequest struct {
	GuideID    string    `json:"guideId" form:"guideId"`
	TemplateID string    `json:"templateId" form:"templateId"`
	Answers    jsonField `json:"answers" form:"answers"`
	GuideTitle string    `json:"guideTitle" form:"guideTitle"`

	FileDataURL string    `json:"fileDataUrl" form:"fileDataUrl"`
	Boxes       jsonField `json:"boxes" form:"boxes"`

	Header                string   `json:"header" form:"header"`
	Footer                string   `json:"footer" form:"footer"`
	HideHeaderOnFirstPage flexBool `json:"hideHeaderOnFirstPage" form:"hideHeaderOnFirstPage"`
	HideFooterOnFirstPage flexBool `json:"hideFooterOnFirstPage" form:"hideFooterOnFirstPage"`
	MarginTop             float64  `json:"marginTop" form:"marginTop"`
	MarginBottom          float64  `json:"marginBottom" form:"marginBottom"`
	HeaderSpacing         float64  `json:"headerSpacing" form:"headerSpacing"`
	FooterSpacing         float64  `json:"footerSpacing" form:"footerSpacing"`
}

// toRequest converts the body into an assembly request. Malformed fields
// are client errors.
func (b *assembleRequest) toRequest(cookieHeader string) (guide2pdf.Request, error) {
	answers, err := guide2pdf.DecodeAnswers(string(b.Answers))
	if err != nil {
		return guide2pdf.Request{}, err
	}

	req := guide2pdf.Request{
		CookieHeader: cookieHeader,
		GuideID:      strings.TrimSpace(b.GuideID),
		TemplateID:   strings.TrimSpace(b.TemplateID),
		Answers:      answers,
		Title:        b.GuideTitle,
		PDF: &guide2pdf.PDFOptions{
			MarginTop:             b.MarginTop,
			MarginBottom:          b.MarginBottom,
			HeaderSpacing:         b.HeaderSpacing,
			FooterSpacing:         b.FooterSpacing,
			Header:                b.Header,
			Footer:                b.Footer,
			HideHeaderOnFirstPage: bool(b.HideHeaderOnFirstPage),
			HideFooterOnFirstPage: bool(b.HideFooterOnFirstPage),
		},
	}

	if b.FileDataURL != "" {
		req.InlinePDF, err = decodeDataURL(b.FileDataURL)
		if err != nil {
			return guide2pdf.Request{}, err
		}
	}
	if raw := strings.TrimSpace(string(b.Boxes)); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &req.InlineBoxes); err != nil {
			return guide2pdf.Request{}, fmt.Errorf("%w: boxes: %v", guide2pdf.ErrClientInput, err)
		}
	}
	return req, nil
}

// decodeDataURL returns the payload of a base64 data URL.
func decodeDataURL(s string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok || !strings.HasPrefix(meta, "data:") {
		return nil, fmt.Errorf("%w: fileDataUrl is not a data URL", guide2pdf.ErrClientInput)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: fileDataUrl must be base64 encoded", guide2pdf.ErrClientInput)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: fileDataUrl: %v", guide2pdf.ErrClientInput, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: fileDataUrl is empty", guide2pdf.ErrClientInput)
	}
	return data, nil
}

// jsonField holds JSON text sent either as a JSON string (form style) or
// as an inline JSON value.
type jsonField string

func (f *jsonField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = jsonField(s)
		return nil
	}
	*f = jsonField(data)
	return nil
}

// UnmarshalParam implements gin's binding.BindUnmarshaler for form values.
func (f *jsonField) UnmarshalParam(param string) error {
	*f = jsonField(param)
	return nil
}

// flexBool accepts true, "true" and the form value "on".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	return b.UnmarshalParam(s)
}

func (b *flexBool) UnmarshalParam(param string) error {
	switch strings.ToLower(strings.TrimSpace(param)) {
	case "", "null", "undefined":
		*b = false
		return nil
	case "on":
		*b = true
		return nil
	}
	v, err := strconv.ParseBool(param)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", param)
	}
	*b = flexBool(v)
	return nil
}
