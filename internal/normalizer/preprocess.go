package normalizer

import (
	"regexp"
	"strings"
)

var (
	reCommaRun   = regexp.MustCompile(`\s*,[\s,]*`)
	reWhitespace = regexp.MustCompile(`\s+`)
	reSevenDigit = regexp.MustCompile(`\b\d{7}\b`)
	reSixDigit   = regexp.MustCompile(`\b\d{6}\b`)
)

// postalShape mô tả cách viết lại một dãy số thành dạng mã bưu chính của nước đó
type postalShape struct {
	run   *regexp.Regexp
	split int
}

// postalShapes theo mã quốc gia viết hoa
var postalShapes = map[string]postalShape{
	"JP": {run: reSevenDigit, split: 3}, // 4608625 -> 460-8625
	"CN": {run: reSixDigit, split: 3},
	"KR": {run: reSixDigit, split: 3},
}

// Preprocess chuẩn hóa dấu phân cách; với các nước có dạng mã bưu chính riêng
// thì viết lại dãy số đứng riêng đầu tiên theo dạng đó.
func Preprocess(raw, countryCode string) string {
	text := CollapseSeparators(raw)
	if shape, ok := postalShapes[NormalizeCountry(countryCode)]; ok {
		text = shape.reshape(text)
	}
	return text
}

// CollapseSeparators gộp mỗi cụm dấu phẩy thành ", " và gộp khoảng trắng
func CollapseSeparators(raw string) string {
	s := reCommaRun.ReplaceAllString(raw, ", ")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeCountry viết hoa và trim mã ISO-3166 alpha-2
func NormalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (ps postalShape) reshape(text string) string {
	for _, loc := range ps.run.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && text[start-1] == '-' {
			continue
		}
		if end < len(text) && text[end] == '-' {
			continue
		}
		digits := text[start:end]
		return text[:start] + digits[:ps.split] + "-" + digits[ps.split:] + text[end:]
	}
	return text
}
