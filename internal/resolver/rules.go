package resolver

import (
	"github.com/address-classifier/app/models"
	"github.com/address-classifier/internal/normalizer"
)

type rule struct {
	step  string
	apply func(*state)
}

// gapFillRules chạy theo đúng thứ tự này sau bước baseline
var gapFillRules = []rule{
	{step: StepPostalFromText, apply: postalFromText},
	{step: StepCityAdjacentPostal, apply: cityAdjacentPostal},
	{step: StepHouseNumberSplit, apply: houseNumberSplit},
	{step: StepSuburbAsCity, apply: suburbAsCity},
	{step: StepStreetMarkerCity, apply: streetMarkerCity},
}

// streetMarkers đứng trước tên đường (quy ước vùng Cyrillic); từ ngay trước
// marker đầu tiên được lấy làm city.
var streetMarkers = []string{"ul.", "ул."}

// postalFromText: parser lấy được mọi thứ trừ postal code, tìm chuỗi có dạng
// mã bưu chính ngay trong text.
func postalFromText(s *state) {
	if s.missing(FieldCity) || s.missing(FieldStreet) || s.missing(FieldHouseNumber) || !s.missing(FieldPostalCode) {
		return
	}
	if code, ok := FindPostalCode(s.text); ok {
		s.set(FieldPostalCode, code)
	}
}

// cityAdjacentPostal lấy token có số ngay trước city, hoặc ngay sau city
func cityAdjacentPostal(s *state) {
	if s.missing(FieldCity) || !s.missing(FieldPostalCode) {
		return
	}
	s.set(FieldPostalCode, tokenAdjacentTo(s.text, s.out.City))
}

func tokenAdjacentTo(text, city string) string {
	words := normalizer.SplitWords(text)
	names := normalizer.SplitWords(city)
	if len(words) == 0 || len(names) == 0 {
		return ""
	}

	i := indexFold(words, names[0])
	if i < 0 {
		return ""
	}
	if i > 0 && normalizer.ContainsDigit(words[i-1]) {
		return words[i-1]
	}

	if len(names) > 1 && !spanMatches(words, i, names) {
		return ""
	}
	if after := i + len(names); after < len(words) && normalizer.ContainsDigit(words[after]) {
		return words[after]
	}
	return ""
}

// houseNumberSplit xử lý postal code bị parser gán nhãn house number.
// Baseline chỉ tạm lấy candidate HouseNumber đầu tiên, nên bước này được phép
// thay nó khi candidate đó chứa postal code hoặc không có số nào.
func houseNumberSplit(s *state) {
	values := s.candidates.Values(models.LabelHouseNumber)
	if len(values) < 2 || !s.missing(FieldPostalCode) {
		return
	}

	for i, v := range values {
		start, end, ok := locatePostalCode(v)
		if !ok {
			continue
		}
		s.set(FieldPostalCode, v[start:end])
		house := remainderAround(v, start, end)
		switch {
		case i == 0 && !normalizer.ContainsDigit(house):
			s.replaceHouseNumber(firstWithDigit(values[1:]))
		case i == 0:
			s.replaceHouseNumber(house)
		case !normalizer.ContainsDigit(s.out.HouseNumber) && normalizer.ContainsDigit(house):
			s.replaceHouseNumber(house)
		}
		return
	}

	if !normalizer.ContainsDigit(s.out.HouseNumber) {
		s.replaceHouseNumber(firstWithDigit(values))
	}
}

func (s *state) replaceHouseNumber(value string) {
	if value == "" {
		s.out.HouseNumber = ""
		s.applied = true
		s.tracer.Trace(s.ctx, TraceEvent{Step: s.step, Field: FieldHouseNumber, Applied: true})
		return
	}
	s.set(FieldHouseNumber, value)
}

// suburbAsCity: địa chỉ Úc ghi suburb ở chỗ nơi khác ghi city
func suburbAsCity(s *state) {
	if s.country != "AU" || !s.missing(FieldCity) {
		return
	}
	s.set(FieldCity, s.candidates.First(models.LabelSuburb))
}

// streetMarkerCity tìm trong text trước, sau đó trong các candidate Road
func streetMarkerCity(s *state) {
	if !s.missing(FieldCity) {
		return
	}
	sources := append([]string{s.text}, s.candidates.Values(models.LabelRoad)...)
	for _, src := range sources {
		if city := wordBeforeMarker(src); city != "" {
			s.set(FieldCity, city)
			return
		}
	}
}

func wordBeforeMarker(text string) string {
	words := normalizer.SplitWords(text)
	for i, w := range words {
		for _, marker := range streetMarkers {
			if normalizer.EqualFold(w, marker) {
				if i == 0 {
					return ""
				}
				return words[i-1]
			}
		}
	}
	return ""
}

func indexFold(words []string, name string) int {
	target := normalizer.Fold(name)
	for i, w := range words {
		if normalizer.Fold(w) == target {
			return i
		}
	}
	return -1
}

func spanMatches(words []string, at int, names []string) bool {
	if at+len(names) > len(words) {
		return false
	}
	for j, name := range names {
		if !normalizer.EqualFold(words[at+j], name) {
			return false
		}
	}
	return true
}

func firstWithDigit(values []string) string {
	for _, v := range values {
		if normalizer.ContainsDigit(v) {
			return v
		}
	}
	return ""
}
