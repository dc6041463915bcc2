package responses

import (
	"github.com/address-classifier/app/models"
)

// ErrorResponse response lỗi chung
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ClassifyAddressResponse response phân loại một địa chỉ
type ClassifyAddressResponse struct {
	Result           models.ResultTuple       `json:"result"`                      // (complete, street, house, postal_code, city)
	Outcome          models.Outcome           `json:"outcome"`                     // resolved | too_short | parse_failure
	Normalized       string                   `json:"normalized,omitempty"`        // Text đã gửi cho parser
	Candidates       models.CandidateMap      `json:"candidates,omitempty"`        // Candidates của parser
	CityVerification *models.CityVerification `json:"city_verification,omitempty"` // Kết quả gazetteer
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
}

// NewClassifyAddressResponse dựng response từ kết quả pipeline
func NewClassifyAddressResponse(result models.ClassificationResult, withCandidates bool, elapsedMs int64) ClassifyAddressResponse {
	resp := ClassifyAddressResponse{
		Result:           result.Resolved.Tuple(),
		Outcome:          result.Outcome,
		Normalized:       result.Normalized,
		CityVerification: result.City,
		ProcessingTimeMs: elapsedMs,
	}
	if withCandidates {
		resp.Candidates = result.Candidates
	}
	return resp
}

// BatchJobResponse response khi tạo job
type BatchJobResponse struct {
	JobID          string `json:"job_id"`
	TotalAddresses int    `json:"total_addresses"`
	Message        string `json:"message"`
}

// JobStatusResponse response trạng thái job
type JobStatusResponse struct {
	JobID     string  `json:"job_id"`    // ID của job
	Status    string  `json:"status"`    // Trạng thái job
	Progress  float64 `json:"progress"`  // Tiến độ (0.0 - 1.0)
	Processed int     `json:"processed"` // Số địa chỉ đã xử lý
	Total     int     `json:"total"`     // Tổng số địa chỉ
	Complete  int     `json:"complete"`  // Số địa chỉ đầy đủ
	Message   string  `json:"message"`   // Thông báo
}

// JobResultsResponse kết quả job theo thứ tự đầu vào
type JobResultsResponse struct {
	JobID   string               `json:"job_id"`
	Total   int                  `json:"total"`
	Results []models.ResultTuple `json:"results"`
}

// JobStatus constants
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// CacheInvalidateResponse response xóa cache
type CacheInvalidateResponse struct {
	Cleared bool `json:"cleared"` // Đã xóa toàn bộ cache
	Deleted int  `json:"deleted"` // Số key đã xóa
}

// HealthResponse response health check
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// SuccessResponse response thành công chung
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
