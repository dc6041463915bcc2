package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// MinTokens số token tối thiểu (tách theo khoảng trắng/dấu phẩy) để địa chỉ
// đáng gửi tới parser
const MinTokens = 3

// CountTokens đếm token tách theo khoảng trắng/dấu phẩy
func CountTokens(raw string) int {
	return len(strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	}))
}

// HasEnoughTokens kiểm tra raw có qua được guard của parser không
func HasEnoughTokens(raw string) bool {
	return strings.TrimSpace(raw) != "" && CountTokens(raw) >= MinTokens
}

// SplitWords tách text địa chỉ thành token cho các heuristic theo vị trí.
// Dấu phẩy, chấm phẩy, ngoặc và khoảng trắng là dấu phân cách; dấu nháy ở
// đầu/cuối token bị bỏ. Giữ nguyên hoa thường.
func SplitWords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', ';', '(', ')':
			return true
		}
		return unicode.IsSpace(r)
	})

	words := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "'"); f != "" {
			words = append(words, f)
		}
	}
	return words
}

// Fold trả về dạng không phân biệt hoa thường của s để so sánh
func Fold(s string) string {
	// Caser có state, mỗi lần gọi tạo một cái
	return cases.Fold().String(s)
}

// EqualFold so sánh hai chuỗi theo Unicode case folding
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// ContainsDigit kiểm tra s có ít nhất một chữ số không
func ContainsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
