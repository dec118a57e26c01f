package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/repositories"
	"alfredoptarigan/cv-analyzer-web/internal/services"
	"alfredoptarigan/cv-analyzer-web/internal/views"
)

type ResultsHandler struct {
	store  repositories.ResultStore
	tokens services.TokenProvider
	logger *zap.Logger
}

func NewResultsHandler(store repositories.ResultStore, tokens services.TokenProvider, logger *zap.Logger) *ResultsHandler {
	return &ResultsHandler{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// HandleResults handles GET /results. Without a stored result the browser is
// sent back to the intake page.
func (h *ResultsHandler) HandleResults(c *fiber.Ctx) error {
	view := services.ResolveResultView(c.UserContext(), h.store, SessionID(c), h.logger)

	if view.State != services.ViewPresent {
		return c.Redirect("/", fiber.StatusFound)
	}

	dashboard := services.NewDashboard(*view.Result)
	return c.Render("results", views.Page{
		Title:     "CV Analysis Results",
		Identity:  h.tokens.Identity(bearerToken(c, h.tokens)),
		Dashboard: &dashboard,
	})
}
