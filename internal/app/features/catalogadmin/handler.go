// internal/app/features/catalogadmin/handler.go
package catalogadmin

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	uierrors "github.com/dalemusser/neurohub/internal/app/features/errors"
	"github.com/dalemusser/neurohub/internal/app/store/drafts"
	"github.com/dalemusser/neurohub/internal/app/store/uploads"
	"github.com/dalemusser/neurohub/internal/app/system/apisession"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/catalogview"
	"github.com/dalemusser/neurohub/internal/app/system/wizard"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"go.uber.org/zap"
)

// resultsTarget is the element id HTMX list requests swap.
const resultsTarget = "admin-results"

// Handler serves the admin pages of every catalog kind: the list with its
// row actions, the delete confirmation and the four-step wizard.
type Handler struct {
	Gate    *apisession.Gate
	Drafts  *drafts.Store
	Uploads *uploads.Store
	ErrLog  *uierrors.ErrorLogger
	Window  catalogview.Window
	Limits  wizard.FileLimits
	Log     *zap.Logger
}

func NewHandler(
	gate *apisession.Gate,
	draftStore *drafts.Store,
	uploadStore *uploads.Store,
	window catalogview.Window,
	limits wizard.FileLimits,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	if window.Initial <= 0 || window.Step <= 0 {
		window = catalogview.DefaultWindow
	}
	if limits.ImageMaxBytes <= 0 {
		limits.ImageMaxBytes = wizard.DefaultLimits.ImageMaxBytes
	}
	if limits.DocumentMaxBytes <= 0 {
		limits.DocumentMaxBytes = wizard.DefaultLimits.DocumentMaxBytes
	}
	return &Handler{
		Gate:    gate,
		Drafts:  draftStore,
		Uploads: uploadStore,
		ErrLog:  errLog,
		Window:  window,
		Limits:  limits,
		Log:     logger,
	}
}

// kindHandler binds Handler to one kind for its sub-router.
type kindHandler struct {
	*Handler
	kind models.Kind
}

// resource returns the kind's resource on a client carrying the signed-in
// admin's token.
func (h *kindHandler) resource(r *http.Request) *apiclient.Resource {
	return h.Gate.Client(r).Resource(h.kind)
}

func (h *kindHandler) listPath() string {
	return "/admin/" + h.kind.Slug
}

func (h *kindHandler) flash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	if h.Gate.SM == nil {
		return
	}
	if err := h.Gate.SM.AddFlash(w, r, kind, msg); err != nil {
		h.Log.Warn("flash save failed", zap.Error(err))
	}
}

func (h *kindHandler) popFlashes(w http.ResponseWriter, r *http.Request) []auth.Flash {
	if h.Gate.SM == nil {
		return nil
	}
	return h.Gate.SM.PopFlashes(w, r)
}

// ownerID is the backend id of the signed-in admin.
func ownerID(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ""
}

// withParam sets key=value on a local URL, keeping its other parameters.
func withParam(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
