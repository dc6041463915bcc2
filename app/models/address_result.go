package models

// ResolvedAddress các trường đã được resolve cho một bản ghi. Chuỗi rỗng = không có.
type ResolvedAddress struct {
	Street      string `json:"street" bson:"street"`
	HouseNumber string `json:"house_number" bson:"house_number"`
	PostalCode  string `json:"postal_code" bson:"postal_code"`
	City        string `json:"city" bson:"city"`
	Complete    bool   `json:"complete" bson:"complete"`
}

// Tuple chuyển sang đúng shape mà report mong đợi: (complete, street, house, postal_code, city)
func (r ResolvedAddress) Tuple() ResultTuple {
	t := ResultTuple{
		Street:      r.Street,
		HouseNumber: r.HouseNumber,
		PostalCode:  r.PostalCode,
		City:        r.City,
	}
	if r.Complete {
		t.Complete = 1
	}
	return t
}

// ResultTuple kết quả theo cột cho collaborator ghi report
type ResultTuple struct {
	Complete    int    `json:"complete"`
	Street      string `json:"street"`
	HouseNumber string `json:"house"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
}

// ResultColumns header của các cột kết quả
var ResultColumns = []string{"complete", "street", "house", "postal_code", "city"}

// Outcome cách một bản ghi đi qua pipeline
type Outcome string

const (
	OutcomeResolved     Outcome = "resolved"
	OutcomeTooShort     Outcome = "too_short"
	OutcomeParseFailure Outcome = "parse_failure"
)

// ClassificationResult kết quả phân loại đầy đủ của một bản ghi
type ClassificationResult struct {
	Record     AddressRecord     `json:"record"`
	Normalized string            `json:"normalized,omitempty"`
	Candidates CandidateMap      `json:"candidates,omitempty"`
	Resolved   ResolvedAddress   `json:"resolved"`
	Outcome    Outcome           `json:"outcome"`
	City       *CityVerification `json:"city_verification,omitempty"`
}

// CityVerification kết quả đối chiếu thành phố với gazetteer; không ảnh hưởng Complete
type CityVerification struct {
	Known     bool    `json:"city_known"`
	MatchName string  `json:"match_name,omitempty"`
	Country   string  `json:"match_country,omitempty"`
	Score     float64 `json:"score"`
}

// Incomplete kết quả rỗng, không đầy đủ, cho bản ghi bị guard chặn hoặc parse lỗi
func Incomplete(record AddressRecord, outcome Outcome) ClassificationResult {
	return ClassificationResult{Record: record, Outcome: outcome}
}
