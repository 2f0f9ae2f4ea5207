// Package assets provides the CSS stylesheets injected into rendered guide
// templates before PDF conversion.
//
// Styles are loaded by name without the .css extension. Built-in styles are
// embedded in the binary; a style directory configured at startup takes
// precedence, falling back to the embedded copy for names it lacks.
package assets
