package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

const (
	// Field names of the intake form, as posted to the local proxy.
	FieldCV             = "cv"
	FieldJobDescription = "jobDescription"
)

type SubmissionClient interface {
	Submit(ctx context.Context, file *models.UploadedFile, jobDescription, authToken string) (*models.BackendAnalysisResult, error)
}

type submissionClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSubmissionClient returns a client posting to the local proxy endpoint.
func NewSubmissionClient(endpoint string, timeout time.Duration, logger *zap.Logger) SubmissionClient {
	return &submissionClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Submit sends exactly one request and never retries.
func (s *submissionClient) Submit(ctx context.Context, file *models.UploadedFile, jobDescription, authToken string) (*models.BackendAnalysisResult, error) {
	if file == nil {
		return nil, &ValidationError{Field: FieldCV, Message: "file is required"}
	}

	body, contentType, err := encodeSubmission(file, jobDescription)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	s.logger.Debug("submitting CV for analysis",
		zap.String("endpoint", s.endpoint),
		zap.String("filename", file.Name),
		zap.Int64("size", file.Size),
		zap.Bool("authenticated", authToken != ""),
	)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := errorDetail(payload)
		s.logger.Warn("analysis request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", message),
		)
		return nil, &BackendAnalysisError{Status: resp.StatusCode, Message: message}
	}

	if !isJSONObject(payload) {
		s.logger.Warn("analysis response is not a JSON object", zap.Int("status", resp.StatusCode))
		return nil, &BackendAnalysisError{
			Status:  resp.StatusCode,
			Message: "invalid analysis response: expected a JSON object",
		}
	}

	var result models.BackendAnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, &BackendAnalysisError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("invalid analysis response: %v", err),
		}
	}

	return &result, nil
}

func encodeSubmission(file *models.UploadedFile, jobDescription string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fileDisposition(FieldCV, file.Name))
	contentType := file.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}

	if err := writer.WriteField(FieldJobDescription, jobDescription); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func fileDisposition(field, filename string) string {
	return fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename))
}

// errorDetail reads an error body best-effort. The error contract of the
// backend is loose, so any of detail, details or error may carry the message.
func errorDetail(payload []byte) string {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return unknownErrorMessage
	}

	for _, key := range []string{"detail", "details", "error"} {
		if value, ok := body[key].(string); ok && value != "" {
			return value
		}
	}

	return unknownErrorMessage
}

// isJSONObject reports whether payload is a single valid JSON object.
// null, arrays and scalars are rejected.
func isJSONObject(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
