package guide2pdf

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTitle names documents assembled from a whole guide.
const DefaultTitle = "Guide Assemble"

// maxFilenameLength leaves room for the .pdf extension within common
// 255-byte filesystem limits.
const maxFilenameLength = 250

// SanitizeFilename turns a title into a safe download file name, without
// extension. Reserved and control characters become "!", surrounding dots
// and spaces are trimmed, and an empty result falls back to DefaultTitle.
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), unicode.IsControl(r):
			b.WriteRune('!')
		default:
			b.WriteRune(r)
		}
	}

	name := strings.Trim(b.String(), ". ")
	name = collapseRepeats(name, '!')

	if len(name) > maxFilenameLength {
		n := maxFilenameLength
		for n > 0 && !utf8.RuneStart(name[n]) {
			n--
		}
		name = strings.TrimRight(name[:n], ". ")
	}

	if name == "" || strings.Trim(name, "!") == "" {
		return DefaultTitle
	}
	return name
}

// PDFFilename returns the sanitized title with the .pdf extension.
func PDFFilename(title string) string {
	return SanitizeFilename(title) + ".pdf"
}

func collapseRepeats(s string, r rune) string {
	var b strings.Builder
	var prev rune
	for _, c := range s {
		if c == r && prev == r {
			continue
		}
		b.WriteRune(c)
		prev = c
	}
	return b.String()
}
