package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/address-classifier/app/models"
)

var (
	// ErrUnavailable parser service không phản hồi hoặc trả về status lỗi
	ErrUnavailable = errors.New("parser service unavailable")
	// ErrMalformedResponse body không đúng định dạng [{label, value}]
	ErrMalformedResponse = errors.New("malformed parser response")
)

// maxResponseBytes giới hạn body đọc từ parser service
const maxResponseBytes = 1 << 20

// HTTPClientConfig cấu hình kết nối libpostal REST service
type HTTPClientConfig struct {
	URL           string
	APIKey        string
	APIKeyHeader  string
	Timeout       time.Duration
	RatePerSecond float64
	Retries       uint64
}

// HTTPClient client cho libpostal REST: GET {url}?address=<text>
type HTTPClient struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	httpClient   *http.Client
	limiter      *rate.Limiter
	retries      uint64
	logger       *zap.Logger
}

// NewHTTPClient tạo mới HTTPClient
func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Second)/cfg.RatePerSecond)), 1)
	}

	return &HTTPClient{
		baseURL:      cfg.URL,
		apiKey:       cfg.APIKey,
		apiKeyHeader: cfg.APIKeyHeader,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		retries: cfg.Retries,
		logger:  logger.Named("libpostal"),
	}
}

// Parse gửi text tới parser service và trả về component theo thứ tự nhận được
func (c *HTTPClient) Parse(ctx context.Context, text string) ([]models.Component, error) {
	var components []models.Component

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	err := backoff.Retry(func() error {
		var err error
		components, err = c.do(ctx, text)
		return err
	}, policy)
	if err != nil {
		return nil, err
	}
	return components, nil
}

func (c *HTTPClient) do(ctx context.Context, text string) ([]models.Component, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("rate limit wait failed: %w", err))
		}
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid parser url: %w", err))
	}
	params := endpoint.Query()
	params.Set("address", text)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" && c.apiKeyHeader != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err()))
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// đọc hết body để connection được reuse
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		err := fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		c.logger.Debug("Parser service returned error status", zap.Int("status", resp.StatusCode))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var components []models.Component
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&components); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}
	for _, comp := range components {
		if comp.Label == "" {
			return nil, backoff.Permanent(fmt.Errorf("%w: component without label", ErrMalformedResponse))
		}
	}

	return components, nil
}
