package controllers

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/requests"
	"github.com/address-classifier/app/responses"
	"github.com/address-classifier/app/services"
	"github.com/address-classifier/helpers/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AddressController controller xử lý các request liên quan đến địa chỉ
type AddressController struct {
	addressService *services.AddressService
	logger         *zap.Logger
}

// NewAddressController tạo mới AddressController
func NewAddressController(addressService *services.AddressService, log *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		logger:         logger.OrNop(log),
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, responses.ErrorResponse{
		Error:   "INVALID_REQUEST",
		Message: "Request không hợp lệ: " + err.Error(),
	})
}

// jobError map lỗi của job sang HTTP status
func jobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrJobNotFound):
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "JOB_NOT_FOUND",
			Message: "Không tìm thấy job",
		})
	case errors.Is(err, services.ErrJobNotReady):
		c.JSON(http.StatusConflict, responses.ErrorResponse{
			Error:   "JOB_NOT_READY",
			Message: "Job chưa hoàn thành",
		})
	default:
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "JOB_ERROR",
			Message: err.Error(),
		})
	}
}

// Classify phân loại một địa chỉ
func (ac *AddressController) Classify(c *gin.Context) {
	var req requests.ClassifyAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	startTime := time.Now()
	result := ac.addressService.ClassifyOne(c.Request.Context(), req.Record(), req.VerifyCity)

	c.JSON(http.StatusOK, responses.NewClassifyAddressResponse(result, req.ReturnCandidates, time.Since(startTime).Milliseconds()))
}

// SubmitJob tạo job phân loại hàng loạt
func (ac *AddressController) SubmitJob(c *gin.Context) {
	var req requests.BatchClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	jobID, err := ac.addressService.SubmitJob(req.AddressRecords())
	if errors.Is(err, services.ErrTooMany) {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "TOO_MANY_ADDRESSES",
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		jobError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, responses.BatchJobResponse{
		JobID:          jobID,
		TotalAddresses: len(req.Records),
		Message:        "Job đã được tạo và đang xử lý",
	})
}

// GetJobStatus lấy trạng thái job
func (ac *AddressController) GetJobStatus(c *gin.Context) {
	status, err := ac.addressService.GetJobStatus(c.Param("jobID"))
	if err != nil {
		jobError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:     status.JobID,
		Status:    status.Status,
		Progress:  status.Progress,
		Processed: status.Processed,
		Total:     status.Total,
		Complete:  status.Complete,
		Message:   status.Message,
	})
}

// GetJobResults lấy kết quả job, hỗ trợ NDJSON (?format=ndjson) + gzip (?gzip=1)
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")
	results, err := ac.addressService.GetJobResults(jobID)
	if err != nil {
		jobError(c, err)
		return
	}

	if c.Query("format") == "ndjson" {
		ac.streamNDJSONResults(c, results, c.Query("gzip") == "1")
		return
	}

	tuples := make([]models.ResultTuple, len(results))
	for i, r := range results {
		tuples[i] = r.Resolved.Tuple()
	}
	c.JSON(http.StatusOK, responses.JobResultsResponse{
		JobID:   jobID,
		Total:   len(tuples),
		Results: tuples,
	})
}

// GetJobReport tải report xlsx của job
func (ac *AddressController) GetJobReport(c *gin.Context) {
	jobID := c.Param("jobID")

	// Ghi vào buffer trước để lỗi còn trả được JSON
	var buf bytes.Buffer
	if err := ac.addressService.WriteJobReport(jobID, &buf); err != nil {
		if !errors.Is(err, services.ErrJobNotFound) && !errors.Is(err, services.ErrJobNotReady) {
			ac.logger.Error("Lỗi tạo report", zap.String("job_id", jobID), zap.Error(err))
		}
		jobError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, jobID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// streamNDJSONResults stream kết quả theo format NDJSON, mỗi dòng một tuple
func (ac *AddressController) streamNDJSONResults(c *gin.Context, results []models.ClassificationResult, gzipEnabled bool) {
	c.Header("Content-Type", "application/x-ndjson")

	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	for _, result := range results {
		if err := encoder.Encode(result.Resolved.Tuple()); err != nil {
			ac.logger.Error("Lỗi encode NDJSON", zap.Error(err))
			return
		}
	}
	writer.Flush()
}

// gzipResponseWriter wrapper cho gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzWriter.Write([]byte(s))
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
