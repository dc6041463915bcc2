package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/responses"
	"github.com/address-classifier/helpers/logger"
	"github.com/address-classifier/helpers/utils"
	"github.com/address-classifier/internal/report"
	"github.com/address-classifier/internal/search"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobNotReady = errors.New("job not finished")
	ErrTooMany     = errors.New("too many addresses")
)

// jobChunkSize số bản ghi mỗi lần gọi ClassifyBatch, progress cập nhật sau mỗi chunk
const jobChunkSize = 100

// Classifier pipeline phân loại địa chỉ
type Classifier interface {
	Classify(ctx context.Context, record models.AddressRecord) models.ClassificationResult
	ClassifyBatch(ctx context.Context, records []models.AddressRecord) ([]models.ClassificationResult, error)
}

// CityVerifier đối chiếu city với gazetteer
type CityVerifier interface {
	Verify(ctx context.Context, city string) (*models.CityVerification, error)
}

// AddressService service xử lý logic phân loại địa chỉ
type AddressService struct {
	classifier   Classifier
	verifier     CityVerifier
	logger       *zap.Logger
	startTime    time.Time
	maxAddresses int

	mu         sync.RWMutex
	jobs       map[string]*JobStatus
	jobResults map[string][]models.ClassificationResult

	// Job chạy nền dùng ctx riêng, Close() hủy và chờ
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// JobStatus trạng thái của job
type JobStatus struct {
	JobID     string
	Status    string
	Progress  float64
	Processed int
	Total     int
	Complete  int
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AddressServiceOption tùy chọn cho AddressService
type AddressServiceOption func(*AddressService)

// WithCityVerifier bật đối chiếu city khi request yêu cầu
func WithCityVerifier(v CityVerifier) AddressServiceOption {
	return func(as *AddressService) { as.verifier = v }
}

// WithMaxAddresses giới hạn số địa chỉ mỗi job, <= 0 là không giới hạn
func WithMaxAddresses(n int) AddressServiceOption {
	return func(as *AddressService) { as.maxAddresses = n }
}

// NewAddressService tạo mới AddressService
func NewAddressService(classifier Classifier, log *zap.Logger, opts ...AddressServiceOption) *AddressService {
	ctx, cancel := context.WithCancel(context.Background())
	as := &AddressService{
		classifier: classifier,
		logger:     logger.OrNop(log).Named("address_service"),
		startTime:  time.Now(),
		jobs:       make(map[string]*JobStatus),
		jobResults: make(map[string][]models.ClassificationResult),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(as)
	}
	return as
}

// ClassifyOne phân loại một địa chỉ, tùy chọn đối chiếu city với gazetteer.
// Gazetteer không bao giờ thay đổi kết quả resolve hay complete.
func (as *AddressService) ClassifyOne(ctx context.Context, record models.AddressRecord, verifyCity bool) models.ClassificationResult {
	result := as.classifier.Classify(ctx, record)

	if verifyCity && as.verifier != nil && result.Resolved.City != "" {
		verification, err := as.verifier.Verify(ctx, result.Resolved.City)
		switch {
		case errors.Is(err, search.ErrGazetteerDisabled):
		case err != nil:
			as.logger.Warn("City verification failed", zap.String("city", result.Resolved.City), zap.Error(err))
		default:
			result.City = verification
		}
	}
	return result
}

// SubmitJob tạo job batch và xử lý trong background, trả về job ID
func (as *AddressService) SubmitJob(records []models.AddressRecord) (string, error) {
	if as.maxAddresses > 0 && len(records) > as.maxAddresses {
		return "", fmt.Errorf("%w: %d > %d", ErrTooMany, len(records), as.maxAddresses)
	}

	jobID := utils.GenerateJobID()
	now := time.Now()

	as.mu.Lock()
	as.jobs[jobID] = &JobStatus{
		JobID:     jobID,
		Status:    responses.JobStatusPending,
		Total:     len(records),
		Message:   "Đang chờ xử lý",
		CreatedAt: now,
		UpdatedAt: now,
	}
	as.mu.Unlock()

	as.wg.Add(1)
	go func() {
		defer as.wg.Done()
		as.ProcessBatchJob(as.ctx, jobID, records)
	}()

	return jobID, nil
}

// ProcessBatchJob xử lý job theo từng chunk, cập nhật progress sau mỗi chunk
func (as *AddressService) ProcessBatchJob(ctx context.Context, jobID string, records []models.AddressRecord) {
	as.updateJob(jobID, func(job *JobStatus) {
		job.Status = responses.JobStatusRunning
		job.Message = "Đang xử lý..."
	})

	results := make([]models.ClassificationResult, 0, len(records))
	complete := 0

	for start := 0; start < len(records); start += jobChunkSize {
		end := min(start+jobChunkSize, len(records))

		chunk, err := as.classifier.ClassifyBatch(ctx, records[start:end])
		if err != nil {
			as.logger.Warn("Batch job aborted", zap.String("job_id", jobID), zap.Error(err))
			as.updateJob(jobID, func(job *JobStatus) {
				job.Status = responses.JobStatusFailed
				job.Message = err.Error()
			})
			return
		}

		for _, r := range chunk {
			if r.Resolved.Complete {
				complete++
			}
		}
		results = append(results, chunk...)

		processed := len(results)
		as.updateJob(jobID, func(job *JobStatus) {
			job.Processed = processed
			job.Complete = complete
			job.Progress = float64(processed) / float64(len(records))
		})
	}

	// Lưu kết quả trước khi đánh dấu done
	as.mu.Lock()
	as.jobResults[jobID] = results
	if job, ok := as.jobs[jobID]; ok {
		job.Status = responses.JobStatusDone
		job.Progress = 1
		job.Message = "Hoàn thành xử lý"
		job.UpdatedAt = time.Now()
	}
	as.mu.Unlock()

	as.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.Int("total_addresses", len(records)),
		zap.Int("complete", complete))
}

func (as *AddressService) updateJob(jobID string, fn func(job *JobStatus)) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if job, ok := as.jobs[jobID]; ok {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}

// GetJobStatus lấy trạng thái job (bản sao)
func (as *AddressService) GetJobStatus(jobID string) (*JobStatus, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	job, exists := as.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	status := *job
	return &status, nil
}

// GetJobResults lấy kết quả job theo thứ tự đầu vào
func (as *AddressService) GetJobResults(jobID string) ([]models.ClassificationResult, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if _, exists := as.jobs[jobID]; !exists {
		return nil, ErrJobNotFound
	}
	results, done := as.jobResults[jobID]
	if !done {
		return nil, ErrJobNotReady
	}
	return results, nil
}

// WriteJobReport ghi report xlsx của job vào w
func (as *AddressService) WriteJobReport(jobID string, w io.Writer) error {
	results, err := as.GetJobResults(jobID)
	if err != nil {
		return err
	}
	return report.Write(w, report.Input{Results: results})
}

// GetStartTime lấy thời gian khởi động service
func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}

// GetStats lấy thống kê service
func (as *AddressService) GetStats() map[string]interface{} {
	as.mu.RLock()
	defer as.mu.RUnlock()

	byStatus := map[string]int{}
	for _, job := range as.jobs {
		byStatus[job.Status]++
	}

	return map[string]interface{}{
		"uptime_seconds": int64(time.Since(as.startTime).Seconds()),
		"start_time":     as.startTime.Format(time.RFC3339),
		"status":         "running",
		"jobs":           byStatus,
	}
}

// Close hủy các job đang chạy và chờ chúng dừng
func (as *AddressService) Close() {
	as.cancel()
	as.wg.Wait()
}
