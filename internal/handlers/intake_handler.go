package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/models"
	"alfredoptarigan/cv-analyzer-web/internal/observability"
	"alfredoptarigan/cv-analyzer-web/internal/repositories"
	"alfredoptarigan/cv-analyzer-web/internal/services"
	"alfredoptarigan/cv-analyzer-web/internal/views"
)

type IntakeHandler struct {
	registry    *services.IntakeRegistry
	client      services.SubmissionClient
	store       repositories.ResultStore
	tokens      services.TokenProvider
	limiter     *services.RateLimiter
	metrics     *observability.Metrics
	logger      *zap.Logger
	maxFileSize int64
}

func NewIntakeHandler(
	registry *services.IntakeRegistry,
	client services.SubmissionClient,
	store repositories.ResultStore,
	tokens services.TokenProvider,
	limiter *services.RateLimiter,
	metrics *observability.Metrics,
	logger *zap.Logger,
	maxFileSize int64,
) *IntakeHandler {
	return &IntakeHandler{
		registry:    registry,
		client:      client,
		store:       store,
		tokens:      tokens,
		limiter:     limiter,
		metrics:     metrics,
		logger:      logger,
		maxFileSize: maxFileSize,
	}
}

// HandleIndex handles GET /
func (h *IntakeHandler) HandleIndex(c *fiber.Ctx) error {
	intake := h.registry.For(SessionID(c))
	return h.render(c, fiber.StatusOK, intake.State())
}

// HandleState handles GET /api/intake/state
func (h *IntakeHandler) HandleState(c *fiber.Ctx) error {
	intake := h.registry.For(SessionID(c))
	return c.JSON(intake.State())
}

// HandleAnalyze handles POST /analyze
func (h *IntakeHandler) HandleAnalyze(c *fiber.Ctx) error {
	sessionID := SessionID(c)
	intake := h.registry.For(sessionID)

	// Leave the pending form of a running submission untouched.
	if state := intake.State(); state.Analyzing {
		state.Notice = services.NoticeInFlight
		return h.render(c, fiber.StatusConflict, state)
	}

	if h.limiter != nil && !h.limiter.Allow("session:"+sessionID) {
		h.metrics.RateLimited.Inc()
		state := intake.State()
		state.Notice = services.NoticeRateLimited
		return h.render(c, fiber.StatusTooManyRequests, state)
	}

	if header, err := c.FormFile(services.FieldCV); err == nil {
		file, err := readUpload(header)
		if err != nil {
			h.logger.Warn("failed to read uploaded CV", zap.Error(err))
		} else if !intake.AcceptFile(file) {
			h.logger.Debug("ignored unsupported upload",
				zap.String("filename", file.Name),
				zap.String("mime_type", file.MIMEType),
			)
		}
	}
	intake.SetJobDescription(utils.CopyString(c.FormValue(services.FieldJobDescription)))

	_, err := intake.Submit(c.UserContext(), h.client, h.store, sessionID, bearerToken(c, h.tokens))
	state := intake.State()
	h.metrics.Submissions.WithLabelValues(string(state.Phase)).Inc()

	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return h.render(c, fiber.StatusBadRequest, state)
		case errors.Is(err, services.ErrSubmissionInFlight):
			// The in-flight submission owns the notice.
			state.Notice = services.UserNotice(err)
			return h.render(c, fiber.StatusConflict, state)
		default:
			h.logger.Error("❌ CV analysis failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			return h.render(c, fiber.StatusBadGateway, state)
		}
	}

	return c.Redirect("/results", fiber.StatusSeeOther)
}

// HandleRemove handles POST /analyze/remove
func (h *IntakeHandler) HandleRemove(c *fiber.Ctx) error {
	intake := h.registry.For(SessionID(c))
	intake.RemoveFile()
	intake.SetJobDescription(utils.CopyString(c.FormValue(services.FieldJobDescription)))
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *IntakeHandler) render(c *fiber.Ctx, status int, state services.IntakeState) error {
	return c.Status(status).Render("intake", views.Page{
		Title:         "Analyze Your CV",
		Identity:      h.tokens.Identity(bearerToken(c, h.tokens)),
		Intake:        state,
		MaxFileSizeMB: h.maxFileSize / 1024 / 1024,
	})
}

func readUpload(header *multipart.FileHeader) (*models.UploadedFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	return &models.UploadedFile{
		Name:     utils.CopyString(header.Filename),
		Size:     header.Size,
		MIMEType: header.Header.Get(fiber.HeaderContentType),
		Data:     data,
	}, nil
}
