package calendar

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// htmlEscaper produces the entity forms already present in stored data:
// &#039; for apostrophes and &quot; for double quotes.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#039;",
	"<", "&lt;",
	">", "&gt;",
)

// Normalize returns s in Unicode NFC form.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// Sanitize normalizes s and escapes HTML special characters.
// It must be applied exactly once per stored value.
func Sanitize(s string) string {
	return htmlEscaper.Replace(Normalize(s))
}
