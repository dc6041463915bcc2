package models

// Label nhãn thành phần địa chỉ mà pipeline hiểu được
type Label string

const (
	LabelRoad        Label = "road"
	LabelHouseNumber Label = "house_number"
	LabelPostcode    Label = "postcode"
	LabelCity        Label = "city"
	LabelSuburb      Label = "suburb"
)

// Labels danh sách nhãn được nhận diện, theo thứ tự cố định
var Labels = []Label{LabelRoad, LabelHouseNumber, LabelPostcode, LabelCity, LabelSuburb}

// ParseLabel chuyển nhãn thô của parser sang Label; ok=false nếu nhãn nằm ngoài vocabulary
func ParseLabel(raw string) (Label, bool) {
	switch Label(raw) {
	case LabelRoad, LabelHouseNumber, LabelPostcode, LabelCity, LabelSuburb:
		return Label(raw), true
	}
	return "", false
}

// Component một cặp (label, value) do parser trả về
type Component struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CandidateMap các ứng viên theo từng nhãn, giữ nguyên thứ tự parser trả về.
// Thứ tự trong mỗi nhóm là thứ tự độ tin cậy của parser.
type CandidateMap map[Label][]string

// NewCandidateMap gom các component theo nhãn, bỏ qua nhãn không nhận diện được
func NewCandidateMap(components []Component) CandidateMap {
	cm := CandidateMap{}
	for _, c := range components {
		label, ok := ParseLabel(c.Label)
		if !ok || c.Value == "" {
			continue
		}
		cm[label] = append(cm[label], c.Value)
	}
	return cm
}

// First ứng viên đầu tiên của nhãn, "" nếu không có
func (cm CandidateMap) First(label Label) string {
	if values := cm[label]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// Values tất cả ứng viên của nhãn
func (cm CandidateMap) Values(label Label) []string {
	return cm[label]
}

// Has kiểm tra nhãn có ít nhất một ứng viên
func (cm CandidateMap) Has(label Label) bool {
	return len(cm[label]) > 0
}

// IsEmpty true khi không có ứng viên nào
func (cm CandidateMap) IsEmpty() bool {
	for _, values := range cm {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Clone bản sao độc lập, dùng khi trả dữ liệu ra khỏi cache
func (cm CandidateMap) Clone() CandidateMap {
	out := make(CandidateMap, len(cm))
	for label, values := range cm {
		out[label] = append([]string(nil), values...)
	}
	return out
}
