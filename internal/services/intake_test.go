package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

func TestIntake_CanSubmit(t *testing.T) {
	tests := []struct {
		name string
		file *models.UploadedFile
		job  string
		want bool
	}{
		{"file and job description", pdfUpload(), "Senior Go engineer", true},
		{"missing file", nil, "Senior Go engineer", false},
		{"missing job description", pdfUpload(), "", false},
		{"whitespace job description", pdfUpload(), " \n\t ", false},
		{"nothing", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intake := NewIntake(NewFileInspector())
			if tt.file != nil {
				require.True(t, intake.AcceptFile(tt.file))
			}
			intake.SetJobDescription(tt.job)

			assert.Equal(t, tt.want, intake.CanSubmit())
			assert.Equal(t, tt.want, intake.State().CanSubmit)
		})
	}
}

func TestIntake_AcceptFile(t *testing.T) {
	intake := NewIntake(NewFileInspector())

	assert.False(t, intake.AcceptFile(&models.UploadedFile{
		Name:     "notes.txt",
		MIMEType: "text/plain",
		Data:     []byte("hello"),
	}))
	assert.Nil(t, intake.State().File)

	require.True(t, intake.AcceptFile(pdfUpload()))
	require.NotNil(t, intake.State().File)
	assert.Equal(t, "cv.pdf", intake.State().File.Name)

	// A second file replaces the first.
	require.True(t, intake.AcceptFile(&models.UploadedFile{
		Name:     "cv.docx",
		MIMEType: MIMETypeDOCX,
		Data:     []byte("PK\x03\x04"),
	}))
	assert.Equal(t, "cv.docx", intake.State().File.Name)

	// A rejected file leaves the held one in place.
	assert.False(t, intake.AcceptFile(&models.UploadedFile{Name: "photo.png", MIMEType: "image/png"}))
	assert.Equal(t, "cv.docx", intake.State().File.Name)

	intake.RemoveFile()
	assert.Nil(t, intake.State().File)
}

func TestIntake_JobDescriptionStoredVerbatim(t *testing.T) {
	intake := NewIntake(NewFileInspector())
	intake.SetJobDescription("  Go developer \n")

	assert.Equal(t, "  Go developer \n", intake.State().JobDescription)
}

func TestIntake_Submit_Success(t *testing.T) {
	overall := 72.0
	client := &stubClient{result: &models.BackendAnalysisResult{OverallScore: &overall}}
	store := newCountingStore(t)

	intake := NewIntake(NewFileInspector())
	require.True(t, intake.AcceptFile(pdfUpload()))
	intake.SetJobDescription("Backend engineer")

	result, err := intake.Submit(context.Background(), client, store, "session-1", "")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 72, result.OverallScore)

	assert.Equal(t, 1, client.Calls())
	assert.Equal(t, "Backend engineer", client.lastJob)
	assert.Equal(t, 1, store.Saves())

	stored, err := store.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, result, stored)

	state := intake.State()
	assert.Equal(t, PhaseSucceeded, state.Phase)
	assert.False(t, state.Analyzing)
	assert.Empty(t, state.Notice)
	assert.Nil(t, state.File, "pending form is cleared after a submission")
	assert.Empty(t, state.JobDescription)
}

// Scenario: submit with no file selected.
func TestIntake_Submit_MissingFile(t *testing.T) {
	client := &stubClient{}
	store := newCountingStore(t)

	intake := NewIntake(NewFileInspector())
	intake.SetJobDescription("Backend engineer")
	require.False(t, intake.CanSubmit())

	_, err := intake.Submit(context.Background(), client, store, "session-1", "")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Zero(t, client.Calls())
	assert.Zero(t, store.Saves())

	state := intake.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, NoticeMissingInput, state.Notice)
	assert.Equal(t, "Backend engineer", state.JobDescription, "form kept for correction")
}

// Scenario: the backend answers 500 with a detail message.
func TestIntake_Submit_BackendFailure(t *testing.T) {
	client := &stubClient{err: &BackendAnalysisError{Status: 500, Message: "parsing failed"}}
	store := newCountingStore(t)

	intake := NewIntake(NewFileInspector())
	require.True(t, intake.AcceptFile(pdfUpload()))
	intake.SetJobDescription("Backend engineer")

	result, err := intake.Submit(context.Background(), client, store, "session-1", "")
	assert.Nil(t, result)

	var backendErr *BackendAnalysisError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, 500, backendErr.Status)
	assert.Equal(t, "parsing failed", backendErr.Message)

	state := intake.State()
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.False(t, state.Analyzing)
	assert.Equal(t, NoticeAnalysisFailed, state.Notice)
	assert.Zero(t, store.Saves())

	stored, err := store.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestIntake_Submit_TransportFailure(t *testing.T) {
	client := &stubClient{err: &TransportError{Cause: context.DeadlineExceeded}}
	store := newCountingStore(t)

	intake := NewIntake(NewFileInspector())
	require.True(t, intake.AcceptFile(pdfUpload()))
	intake.SetJobDescription("Backend engineer")

	_, err := intake.Submit(context.Background(), client, store, "session-1", "")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	state := intake.State()
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.False(t, state.Analyzing)
	assert.Equal(t, NoticeAnalysisFailed, state.Notice)
	assert.Zero(t, store.Saves())
}

func TestIntake_Submit_RejectsOverlap(t *testing.T) {
	client := &stubClient{
		result:  &models.BackendAnalysisResult{},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := newCountingStore(t)

	intake := NewIntake(NewFileInspector())
	require.True(t, intake.AcceptFile(pdfUpload()))
	intake.SetJobDescription("Backend engineer")

	done := make(chan error, 1)
	go func() {
		_, err := intake.Submit(context.Background(), client, store, "session-1", "")
		done <- err
	}()

	select {
	case <-client.started:
	case <-time.After(2 * time.Second):
		t.Fatal("submission never reached the client")
	}

	state := intake.State()
	assert.True(t, state.Analyzing)
	assert.Equal(t, PhaseSubmitting, state.Phase)
	assert.False(t, intake.CanSubmit())

	_, err := intake.Submit(context.Background(), client, store, "session-1", "")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(client.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, client.Calls())
	assert.Equal(t, 1, store.Saves())
	assert.False(t, intake.State().Analyzing)
}

func TestIntake_FormFrozenWhileSubmitting(t *testing.T) {
	client := &stubClient{
		result:  &models.BackendAnalysisResult{},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := newCountingStore(t)

	intake := NewIntake(NewFileInspector())
	require.True(t, intake.AcceptFile(pdfUpload()))
	intake.SetJobDescription("Backend engineer")

	done := make(chan error, 1)
	go func() {
		_, err := intake.Submit(context.Background(), client, store, "session-1", "")
		done <- err
	}()

	select {
	case <-client.started:
	case <-time.After(2 * time.Second):
		t.Fatal("submission never reached the client")
	}

	replacement := pdfUpload()
	replacement.Name = "other.pdf"
	assert.False(t, intake.AcceptFile(replacement))
	intake.SetJobDescription("Frontend engineer")
	intake.RemoveFile()

	state := intake.State()
	require.NotNil(t, state.File)
	assert.Equal(t, "cv.pdf", state.File.Name)
	assert.Equal(t, "Backend engineer", state.JobDescription)

	close(client.release)
	require.NoError(t, <-done)
	assert.Equal(t, "Backend engineer", client.lastJob)

	// The form opens again once the submission has finished.
	assert.True(t, intake.AcceptFile(replacement))
	intake.SetJobDescription("Frontend engineer")
	assert.Equal(t, "Frontend engineer", intake.State().JobDescription)
}

func TestIntake_Submit_EmptyResponseFails(t *testing.T) {
	client := &stubClient{}
	store := newCountingStore(t)

	intake := NewIntake(NewFileInspector())
	require.True(t, intake.AcceptFile(pdfUpload()))
	intake.SetJobDescription("Backend engineer")

	result, err := intake.Submit(context.Background(), client, store, "session-1", "")
	assert.Nil(t, result)
	var backendErr *BackendAnalysisError
	assert.ErrorAs(t, err, &backendErr)
	assert.Equal(t, PhaseFailed, intake.State().Phase)
	assert.Equal(t, NoticeAnalysisFailed, intake.State().Notice)
	assert.Zero(t, store.Saves())
}

func TestUserNotice(t *testing.T) {
	assert.Empty(t, UserNotice(nil))
	assert.Equal(t, NoticeMissingInput, UserNotice(&ValidationError{Field: "File"}))
	assert.Equal(t, NoticeInFlight, UserNotice(ErrSubmissionInFlight))
	assert.Equal(t, NoticeAnalysisFailed, UserNotice(&BackendAnalysisError{Status: 502}))
	assert.Equal(t, NoticeAnalysisFailed, UserNotice(&TransportError{Cause: context.Canceled}))
}
