package resolver

import (
	"regexp"
	"strings"

	"github.com/address-classifier/internal/normalizer"
)

// rePostalCode các dạng mã bưu chính, thử lần lượt từ trái sang phải:
//   - split:  tiền tố 1-2 chữ cái (tùy chọn), 2-3 số, dấu gạch nối, 3-4 số (00-950, 460-8625, PL-00-950)
//   - run:    tiền tố 1-3 chữ cái (tùy chọn), 4-8 số, khối -NNN (tùy chọn) (10115, CH-8001, 01310-100)
//   - mixed:  chữ-số 3-4 + 3, cả hai nửa đều có số (SW1A 1AA, K1A 0B1)
var rePostalCode = regexp.MustCompile(`\b(?:` +
	`(?P<split>(?:[A-Za-z]{1,2}-)?\d{2,3}-\d{3,4})` +
	`|(?P<run>(?:[A-Za-z]{1,3}[-\s]?)?\d{4,8}(?:-\d{3})?)` +
	`|(?P<mixed>(?P<head>[A-Za-z0-9]{3,4})[-\s]?(?P<tail>[A-Za-z0-9]{3}))` +
	`)\b`)

var (
	mixedGroup = rePostalCode.SubexpIndex("mixed")
	headGroup  = rePostalCode.SubexpIndex("head")
	tailGroup  = rePostalCode.SubexpIndex("tail")
)

// FindPostalCode trả về chuỗi con đầu tiên có dạng mã bưu chính
func FindPostalCode(text string) (string, bool) {
	start, end, ok := locatePostalCode(text)
	if !ok {
		return "", false
	}
	return text[start:end], true
}

// locatePostalCode trả về vị trí byte của match hợp lệ đầu tiên. Match dính
// dấu gạch nối là một phần của token dài hơn nên bị loại.
func locatePostalCode(text string) (int, int, bool) {
	for _, m := range rePostalCode.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if start > 0 && text[start-1] == '-' {
			continue
		}
		if end < len(text) && text[end] == '-' {
			continue
		}
		if m[2*mixedGroup] >= 0 {
			head := text[m[2*headGroup]:m[2*headGroup+1]]
			tail := text[m[2*tailGroup]:m[2*tailGroup+1]]
			if !normalizer.ContainsDigit(head) || !normalizer.ContainsDigit(tail) {
				continue
			}
		}
		return start, end, true
	}
	return 0, 0, false
}

// remainderAround phần còn lại của s sau khi cắt s[start:end]: lấy phần trước
// nếu khác rỗng, ngược lại lấy phần sau.
func remainderAround(s string, start, end int) string {
	const edge = " ,;-"
	if before := strings.Trim(s[:start], edge); before != "" {
		return before
	}
	return strings.Trim(s[end:], edge)
}
