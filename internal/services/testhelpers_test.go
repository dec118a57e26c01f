package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/models"
	"alfredoptarigan/cv-analyzer-web/internal/repositories"
)

var minimalPDF = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

func pdfUpload() *models.UploadedFile {
	return &models.UploadedFile{
		Name:     "cv.pdf",
		Size:     int64(len(minimalPDF)),
		MIMEType: MIMETypePDF,
		Data:     minimalPDF,
	}
}

// stubClient answers every Submit with the configured result or error.
type stubClient struct {
	mu       sync.Mutex
	calls    int
	lastFile *models.UploadedFile
	lastJob  string
	result   *models.BackendAnalysisResult
	err      error
	release  chan struct{}
	started  chan struct{}
}

func (c *stubClient) Submit(ctx context.Context, file *models.UploadedFile, jobDescription, authToken string) (*models.BackendAnalysisResult, error) {
	c.mu.Lock()
	c.calls++
	c.lastFile = file
	c.lastJob = jobDescription
	c.mu.Unlock()

	if c.started != nil {
		close(c.started)
	}
	if c.release != nil {
		<-c.release
	}
	return c.result, c.err
}

func (c *stubClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// countingStore records how often Save is called.
type countingStore struct {
	repositories.ResultStore
	mu    sync.Mutex
	saves int
}

func (s *countingStore) Save(ctx context.Context, sessionID string, result models.AnalysisResult) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.ResultStore.Save(ctx, sessionID, result)
}

func (s *countingStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func newCountingStore(t *testing.T) *countingStore {
	t.Helper()
	store, err := repositories.NewResultStore(repositories.NewMemorySlotBackend(), zap.NewNop())
	require.NoError(t, err)
	return &countingStore{ResultStore: store}
}
