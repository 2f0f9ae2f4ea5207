// Package guide2pdf assembles one PDF document from the templates of a guide.
//
// # Pipeline
//
// An Assembler runs every request through the same stages:
//
//  1. Input validation (guide or inline payload, PDF options)
//  2. User resolution and template fetching
//  3. Condition filtering against the submitted answers (expr expressions)
//  4. Variable merging, answers taking precedence over guide defaults
//  5. Segmentation into maximal runs of text or PDF templates
//  6. Concurrent rendering: text runs become one HTML document converted by
//     headless Chrome, PDF templates are copied and stamped with answers
//  7. Combination of every segment output, in template order, with pdfcpu
//
// Each failure is a *StageError naming the stage. Errors caused by the
// request itself satisfy IsClientError.
//
// # Usage
//
//	pool := guide2pdf.NewConverterPool(4, func() guide2pdf.PDFConverter {
//	    return guide2pdf.NewRodConverter(guide2pdf.ConverterConfig{})
//	})
//	defer pool.Close()
//
//	asm, err := guide2pdf.NewAssembler(guide2pdf.Collaborators{
//	    Users:     users,
//	    Templates: store,
//	    Variables: store,
//	    PDFs:      store,
//	    HTML:      guide2pdf.NewTemplateHTMLRenderer(css),
//	    Converter: pool,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := asm.Assemble(ctx, guide2pdf.Request{GuideID: "42", Answers: answers})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Remove()
//
// The Document is a file on disk. Callers stream it and then call Remove;
// no intermediate file outlives Assemble.
//
// # Templates
//
// Text templates are html/template sources, or Markdown when Format is
// "markdown". Variables are available by lower-cased name, through dot
// access or the var, text and answered functions. PDF templates carry Boxes
// that position answer values on their pages.
package guide2pdf
