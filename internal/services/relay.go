package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

const (
	// Field names expected by the analysis backend.
	BackendFieldCV             = "cv_file"
	BackendFieldJobDescription = "job_description"

	BackendAnalyzePath = "/api/analyze-cv"

	relayBackendFailed = "Backend analysis failed"
	relayInternalError = "Internal server error during CV analysis"
)

// RelayRequest is the intake form as received by the proxy endpoint.
type RelayRequest struct {
	Method         string
	FileName       string
	ContentType    string
	File           io.Reader
	JobDescription string
	Authorization  string
}

// RelayResponse is written back to the caller as-is.
type RelayResponse struct {
	Status  int
	Body    []byte
	Outcome string
}

const (
	OutcomeSuccess      = "success"
	OutcomeBackendError = "backend_error"
	OutcomeRelayError   = "relay_error"
)

type BreakerSettings struct {
	Enabled     bool
	MaxFailures uint32
	Timeout     time.Duration
}

type BackendRelay interface {
	Forward(ctx context.Context, req *RelayRequest) *RelayResponse
}

type backendResponse struct {
	status int
	body   []byte
}

// backendStatusError marks a 5xx answer so the breaker counts it, while the
// answer itself is still relayed.
type backendStatusError struct {
	status int
}

func (e *backendStatusError) Error() string {
	return fmt.Sprintf("backend answered %d", e.status)
}

type backendRelay struct {
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*backendResponse]
	logger     *zap.Logger
}

// NewBackendRelay forwards intake submissions to baseURL + /api/analyze-cv.
func NewBackendRelay(baseURL string, timeout time.Duration, breaker BreakerSettings, logger *zap.Logger) BackendRelay {
	r := &backendRelay{
		endpoint: strings.TrimRight(baseURL, "/") + BackendAnalyzePath,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}

	if breaker.Enabled {
		r.breaker = gobreaker.NewCircuitBreaker[*backendResponse](gobreaker.Settings{
			Name:    "analysis-backend",
			Timeout: breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breaker.MaxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return r
}

// Forward re-keys the form for the backend and relays its answer. Backend
// success bodies pass through untouched; failures are wrapped in the relay
// error envelope.
func (r *backendRelay) Forward(ctx context.Context, req *RelayRequest) *RelayResponse {
	resp, err := r.execute(ctx, req)

	var statusErr *backendStatusError
	if err != nil && !errors.As(err, &statusErr) {
		r.logger.Error("relay to analysis backend failed", zap.Error(err))
		return RelayFailure(err)
	}

	if resp.status < 200 || resp.status > 299 {
		detail := errorDetail(resp.body)
		r.logger.Warn("analysis backend rejected request",
			zap.Int("status", resp.status),
			zap.String("detail", detail),
		)
		return envelope(resp.status, OutcomeBackendError, models.RelayError{
			Error:   relayBackendFailed,
			Details: detail,
			Status:  resp.status,
		})
	}

	if !isJSONObject(resp.body) {
		r.logger.Error("analysis backend returned invalid JSON", zap.Int("status", resp.status))
		return envelope(http.StatusInternalServerError, OutcomeRelayError, models.RelayError{
			Error:   relayInternalError,
			Details: "backend returned a non-JSON-object response",
		})
	}

	return &RelayResponse{Status: resp.status, Body: resp.body, Outcome: OutcomeSuccess}
}

func (r *backendRelay) execute(ctx context.Context, req *RelayRequest) (*backendResponse, error) {
	if r.breaker == nil {
		return r.send(ctx, req)
	}
	return r.breaker.Execute(func() (*backendResponse, error) {
		return r.send(ctx, req)
	})
}

func (r *backendRelay) send(ctx context.Context, req *RelayRequest) (*backendResponse, error) {
	body, contentType, err := encodeBackendForm(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backend form: %w", err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, r.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	}

	r.logger.Debug("forwarding to analysis backend",
		zap.String("endpoint", r.endpoint),
		zap.String("filename", req.FileName),
	)

	httpResp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	resp := &backendResponse{status: httpResp.StatusCode, body: payload}
	if httpResp.StatusCode >= 500 {
		return resp, &backendStatusError{status: httpResp.StatusCode}
	}
	return resp, nil
}

func encodeBackendForm(req *RelayRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fileDisposition(BackendFieldCV, req.FileName))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return nil, "", err
	}

	if err := writer.WriteField(BackendFieldJobDescription, req.JobDescription); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}

func envelope(status int, outcome string, body models.RelayError) *RelayResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		payload = []byte(`{"error":"` + relayInternalError + `"}`)
	}
	return &RelayResponse{Status: status, Body: payload, Outcome: outcome}
}

// MissingInputResponse is the answer for a form without file or job description.
func MissingInputResponse() *RelayResponse {
	payload, _ := json.Marshal(map[string]string{
		"error": "CV file and job description are required",
	})
	return &RelayResponse{Status: http.StatusBadRequest, Body: payload, Outcome: "invalid_input"}
}

// RelayFailure wraps an error raised before the backend was contacted.
func RelayFailure(err error) *RelayResponse {
	return envelope(http.StatusInternalServerError, OutcomeRelayError, models.RelayError{
		Error:   relayInternalError,
		Details: err.Error(),
	})
}
