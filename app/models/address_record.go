package models

// AddressRecord một bản ghi đầu vào: địa chỉ thô và mã quốc gia ISO-3166 alpha-2
type AddressRecord struct {
	RawAddress  string `json:"raw_address"`
	CountryCode string `json:"country_code"`

	// Columns các cột gốc của file đầu vào, giữ nguyên để ghi ra report
	Columns []string `json:"-"`
}
