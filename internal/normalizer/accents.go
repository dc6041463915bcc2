package normalizer

import (
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics bỏ dấu (combining marks) nhưng giữ nguyên chữ cái gốc: "São Paulo" -> "Sao Paulo".
// Script không phải Latin được giữ nguyên.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// isMn kiểm tra rune có phải là nonspacing mark không
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
