package requests

import "github.com/address-classifier/app/models"

// AddressInput một địa chỉ kèm mã quốc gia ISO-3166 alpha-2
type AddressInput struct {
	Address     string `json:"address" binding:"required"`                // Địa chỉ thô
	CountryCode string `json:"country_code" binding:"omitempty,len=2"` // Mã quốc gia, vd "de"
}

// Record chuyển sang AddressRecord của pipeline
func (ai AddressInput) Record() models.AddressRecord {
	return models.AddressRecord{RawAddress: ai.Address, CountryCode: ai.CountryCode}
}

// ClassifyAddressRequest request phân loại một địa chỉ
type ClassifyAddressRequest struct {
	AddressInput
	VerifyCity       bool `json:"verify_city,omitempty"`       // Đối chiếu city với gazetteer
	ReturnCandidates bool `json:"return_candidates,omitempty"` // Có trả về candidates của parser không
}

// BatchClassifyRequest request phân loại hàng loạt, xử lý bất đồng bộ qua job
type BatchClassifyRequest struct {
	Records []AddressInput `json:"records" binding:"required,min=1,dive"`
}

// AddressRecords danh sách AddressRecord theo thứ tự request
func (r BatchClassifyRequest) AddressRecords() []models.AddressRecord {
	out := make([]models.AddressRecord, len(r.Records))
	for i, in := range r.Records {
		out[i] = in.Record()
	}
	return out
}

// InvalidateCacheRequest xóa cache candidates. Records rỗng = xóa toàn bộ.
type InvalidateCacheRequest struct {
	Records []AddressInput `json:"records,omitempty" binding:"omitempty,dive"`
}
