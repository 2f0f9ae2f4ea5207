package guide2pdf

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// HTMLRenderer renders text templates into one HTML document.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, templates []Template, variables Variables) (string, error)
}

// Compile-time interface check.
var _ HTMLRenderer = (*TemplateHTMLRenderer)(nil)

// documentTemplate wraps the rendered templates in a complete HTML5 document.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// TemplateHTMLRenderer renders HTML templates with html/template and
// Markdown templates with text/template followed by goldmark.
// Each template becomes a section starting on a new page.
type TemplateHTMLRenderer struct {
	md  goldmark.Markdown
	css string
}

// NewTemplateHTMLRenderer creates a renderer that injects css into every
// document it produces.
func NewTemplateHTMLRenderer(css string) *TemplateHTMLRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // Treat newlines as <br>
			html.WithXHTML(),     // Self-closing tags
		),
	)
	return &TemplateHTMLRenderer{md: md, css: css}
}

// RenderHTML renders templates in order into a single document.
func (r *TemplateHTMLRenderer) RenderHTML(ctx context.Context, templates []Template, variables Variables) (string, error) {
	var body strings.Builder
	for _, t := range templates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		section, err := r.renderTemplate(t, variables)
		if err != nil {
			return "", fmt.Errorf("%w: template %s: %v", ErrRender, t.ID, err)
		}
		fmt.Fprintf(&body, "<section class=\"template\" data-template-id=\"%s\">\n%s\n</section>\n",
			htmltemplate.HTMLEscapeString(t.ID), section)
	}

	title := "Document"
	if len(templates) > 0 && templates[0].Title != "" {
		title = htmltemplate.HTMLEscapeString(templates[0].Title)
	}
	doc := fmt.Sprintf(documentTemplate, title, body.String())
	return injectCSS(doc, r.css), nil
}

func (r *TemplateHTMLRenderer) renderTemplate(t Template, variables Variables) (string, error) {
	funcs := templateFuncs(variables)
	data := variables.Values()

	var buf bytes.Buffer
	switch t.Format {
	case FormatMarkdown:
		tmpl, err := texttemplate.New(t.ID).Funcs(texttemplate.FuncMap(funcs)).Parse(t.Content)
		if err != nil {
			return "", err
		}
		var src bytes.Buffer
		if err := tmpl.Execute(&src, data); err != nil {
			return "", err
		}
		if err := r.md.Convert(src.Bytes(), &buf); err != nil {
			return "", err
		}
	case "", FormatHTML:
		tmpl, err := htmltemplate.New(t.ID).Funcs(htmltemplate.FuncMap(funcs)).Parse(t.Content)
		if err != nil {
			return "", err
		}
		if err := tmpl.Execute(&buf, data); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown format %q", t.Format)
	}
	return buf.String(), nil
}

// templateFuncs exposes variables to templates by their original names,
// which may contain spaces: {{var "Client Name"}}.
func templateFuncs(variables Variables) map[string]any {
	return map[string]any{
		"var": func(name string) any {
			if v, ok := variables.Lookup(name); ok && v.Value != nil {
				return v.Value
			}
			return ""
		},
		"answered": func(name string) bool {
			v, ok := variables.Lookup(name)
			return ok && v.Source == SourceAnswer && truthy(v.Value)
		},
		"text": func(name string) string {
			if v, ok := variables.Lookup(name); ok {
				return formatValue(v.Value)
			}
			return ""
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}
}

// injectCSS inserts a <style> block into an HTML document.
// Tries </head> first, then <body>, then prepends to the HTML.
func injectCSS(htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
