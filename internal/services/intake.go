package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"alfredoptarigan/cv-analyzer-web/internal/models"
	"alfredoptarigan/cv-analyzer-web/internal/repositories"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// IntakeState is everything the intake page needs to render.
type IntakeState struct {
	Phase          Phase               `json:"phase"`
	Analyzing      bool                `json:"analyzing"`
	CanSubmit      bool                `json:"can_submit"`
	File           *models.FileSummary `json:"file,omitempty"`
	JobDescription string              `json:"job_description"`
	Notice         string              `json:"notice,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Intake holds the pending upload of one browser session.
type Intake struct {
	mu        sync.Mutex
	inspector FileInspector
	pending   models.PendingSubmission
	summary   *models.FileSummary
	phase     Phase
	notice    string
}

func NewIntake(inspector FileInspector) *Intake {
	return &Intake{
		inspector: inspector,
		phase:     PhaseIdle,
	}
}

// AcceptFile holds candidate if it is a PDF, DOCX or DOC file, replacing any
// previous file. Other files are ignored. The form is frozen while a
// submission is in flight.
func (i *Intake) AcceptFile(candidate *models.UploadedFile) bool {
	if !i.inspector.IsAccepted(candidate) {
		return false
	}

	summary := i.inspector.Summarize(candidate)

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.phase == PhaseSubmitting {
		return false
	}
	i.pending.File = candidate
	i.summary = &summary
	return true
}

func (i *Intake) RemoveFile() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.phase == PhaseSubmitting {
		return
	}
	i.pending.File = nil
	i.summary = nil
}

// SetJobDescription stores text verbatim.
func (i *Intake) SetJobDescription(text string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.phase == PhaseSubmitting {
		return
	}
	i.pending.JobDescription = text
}

func (i *Intake) CanSubmit() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.phase != PhaseSubmitting && i.validatePending() == nil
}

func (i *Intake) State() IntakeState {
	i.mu.Lock()
	defer i.mu.Unlock()

	state := IntakeState{
		Phase:          i.phase,
		Analyzing:      i.phase == PhaseSubmitting,
		CanSubmit:      i.phase != PhaseSubmitting && i.validatePending() == nil,
		JobDescription: i.pending.JobDescription,
		Notice:         i.notice,
	}
	if i.summary != nil {
		summary := *i.summary
		state.File = &summary
	}
	return state
}

// Submit sends the pending form, normalizes the answer and stores it for the
// session. The intake never stays in PhaseSubmitting after Submit returns and
// nothing is stored unless the whole attempt succeeded.
func (i *Intake) Submit(
	ctx context.Context,
	client SubmissionClient,
	store repositories.ResultStore,
	sessionID string,
	authToken string,
) (result *models.AnalysisResult, err error) {
	i.mu.Lock()
	if i.phase == PhaseSubmitting {
		i.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if verr := i.validatePending(); verr != nil {
		i.notice = UserNotice(verr)
		i.mu.Unlock()
		return nil, verr
	}
	pending := i.pending
	i.phase = PhaseSubmitting
	i.notice = ""
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		defer i.mu.Unlock()

		i.pending = models.PendingSubmission{}
		i.summary = nil
		if err != nil || result == nil {
			i.phase = PhaseFailed
			i.notice = UserNotice(err)
			if i.notice == "" {
				i.notice = NoticeAnalysisFailed
			}
			return
		}
		i.phase = PhaseSucceeded
	}()

	raw, err := client.Submit(ctx, pending.File, pending.JobDescription, authToken)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &BackendAnalysisError{Message: "empty analysis response"}
	}

	normalized := Normalize(raw)
	if err := store.Save(ctx, sessionID, normalized); err != nil {
		return nil, fmt.Errorf("failed to store analysis result: %w", err)
	}

	return &normalized, nil
}

// validatePending must be called with i.mu held.
func (i *Intake) validatePending() error {
	err := validate.Struct(i.pending)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ValidationError{
			Field:   fieldErrs[0].Field(),
			Message: fmt.Sprintf("failed on %q", fieldErrs[0].Tag()),
		}
	}
	return &ValidationError{Message: err.Error()}
}

