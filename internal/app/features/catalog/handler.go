// internal/app/features/catalog/handler.go
package catalog

import (
	"github.com/dalemusser/neurohub/internal/app/apiclient"
	uierrors "github.com/dalemusser/neurohub/internal/app/features/errors"
	"github.com/dalemusser/neurohub/internal/app/system/catalogview"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"go.uber.org/zap"
)

// resultsTarget is the element id HTMX filter requests swap.
const resultsTarget = "catalog-results"

// Handler serves the public pages of every catalog kind. Public pages use
// the anonymous API client; they never see a session token.
type Handler struct {
	API           *apiclient.Client
	ErrLog        *uierrors.ErrorLogger
	Window        catalogview.Window
	FeaturedLimit int
	Log           *zap.Logger
}

func NewHandler(api *apiclient.Client, window catalogview.Window, featuredLimit int, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if window.Initial <= 0 || window.Step <= 0 {
		window = catalogview.DefaultWindow
	}
	if featuredLimit <= 0 {
		featuredLimit = catalogview.DefaultFeaturedLimit
	}
	return &Handler{
		API:           api,
		ErrLog:        errLog,
		Window:        window,
		FeaturedLimit: featuredLimit,
		Log:           logger,
	}
}

// kindHandler binds Handler to one kind for its sub-router.
type kindHandler struct {
	*Handler
	kind models.Kind
}

func (h *kindHandler) resource() *apiclient.Resource {
	return h.API.Resource(h.kind)
}

func (h *kindHandler) listPath() string {
	return "/" + h.kind.Slug
}
