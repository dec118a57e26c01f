package handlers

import (
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/observability"
	"alfredoptarigan/cv-analyzer-web/internal/services"
)

type relayForm struct {
	File           *multipart.FileHeader `validate:"required"`
	JobDescription string                `validate:"required"`
}

type ProxyHandler struct {
	relay    services.BackendRelay
	metrics  *observability.Metrics
	logger   *zap.Logger
	validate *validator.Validate
}

func NewProxyHandler(relay services.BackendRelay, metrics *observability.Metrics, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{
		relay:    relay,
		metrics:  metrics,
		logger:   logger,
		validate: validator.New(),
	}
}

// HandleAnalyzeCV handles POST /api/analyze-cv
func (h *ProxyHandler) HandleAnalyzeCV(c *fiber.Ctx) error {
	form := relayForm{
		JobDescription: c.FormValue(services.FieldJobDescription),
	}
	if header, err := c.FormFile(services.FieldCV); err == nil {
		form.File = header
	}

	h.logger.Debug("proxy request received",
		zap.Bool("has_cv", form.File != nil),
		zap.Bool("has_job_description", form.JobDescription != ""),
	)

	if err := h.validate.Struct(form); err != nil {
		return h.write(c, services.MissingInputResponse())
	}

	file, err := form.File.Open()
	if err != nil {
		return h.write(c, services.RelayFailure(err))
	}
	defer file.Close()

	started := time.Now()
	resp := h.relay.Forward(c.UserContext(), &services.RelayRequest{
		Method:         c.Method(),
		FileName:       form.File.Filename,
		ContentType:    form.File.Header.Get(fiber.HeaderContentType),
		File:           file,
		JobDescription: form.JobDescription,
		Authorization:  c.Get(fiber.HeaderAuthorization),
	})
	h.metrics.RelayDuration.Observe(time.Since(started).Seconds())

	return h.write(c, resp)
}

func (h *ProxyHandler) write(c *fiber.Ctx, resp *services.RelayResponse) error {
	h.metrics.RelayRequests.WithLabelValues(resp.Outcome).Inc()
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(resp.Status).Send(resp.Body)
}
