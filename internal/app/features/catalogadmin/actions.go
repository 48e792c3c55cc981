// internal/app/features/catalogadmin/actions.go
package catalogadmin

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	uierrors "github.com/dalemusser/neurohub/internal/app/features/errors"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/authz"
	"github.com/dalemusser/neurohub/internal/app/system/limits"
	"github.com/dalemusser/neurohub/internal/app/system/navigation"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// mutationFailed reports a failed row action: 401s end the session, htmx
// requests get the inline alert, everything else a flash on the list.
func (h *kindHandler) mutationFailed(w http.ResponseWriter, r *http.Request, back, op string, err error) {
	if h.Gate.Rejected(w, r, err) {
		return
	}
	h.Log.Warn("admin mutation failed",
		zap.String("kind", h.kind.Slug),
		zap.String("op", op),
		zap.String("id", chi.URLParam(r, "id")),
		zap.Error(err))
	msg := apiclient.Message(err)
	if uierrors.IsHTMX(r) {
		status := http.StatusBadGateway
		if errors.Is(err, apiclient.ErrNotFound) {
			status = http.StatusNotFound
		}
		uierrors.HTMXError(w, r, status, msg, nil)
		return
	}
	h.flash(w, r, auth.FlashError, msg)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/{kind}/{id}/featured                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleToggleFeatured flips the featured flag. The htmx response is only
// the new toggle; the list is not reloaded.
func (h *kindHandler) HandleToggleFeatured(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := navigation.SafeBackURL(r, navigation.AdminListBackURL(h.kind.Slug))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	featured, err := h.resource(r).ToggleFeatured(ctx, id)
	if err != nil {
		h.mutationFailed(w, r, back, "toggle_featured", err)
		return
	}
	h.Gate.Audit.RecordFeaturedToggled(ctx, r, authz.Actor(r), h.kind.Slug, id, featured)

	if uierrors.IsHTMX(r) {
		ft := newFeaturedToggle(h.kind, id, featured)
		ft.CSRFToken = csrf.Token(r)
		templates.RenderSnippet(w, "admin_featured_toggle", ft)
		return
	}
	msg := "Removed from featured."
	if featured {
		msg = "Marked as featured."
	}
	h.flash(w, r, auth.FlashSuccess, msg)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/{kind}/{id}/status                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleStatus sets any of the kind's statuses; transitions are not
// restricted.
func (h *kindHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := navigation.SafeBackURL(r, navigation.AdminListBackURL(h.kind.Slug))

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxStepFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.HTMXLogBadRequest(w, r, "parse status form", err, "The form could not be read.", back)
		return
	}
	status, ok := h.kind.CanonicalStatus(r.PostFormValue("status"))
	if !ok {
		msg := "Choose one of: " + strings.Join(h.kind.Statuses, ", ") + "."
		uierrors.HTMXBadRequest(w, r, msg, back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	got, err := h.resource(r).UpdateStatus(ctx, id, status)
	if err != nil {
		h.mutationFailed(w, r, back, "update_status", err)
		return
	}
	h.Gate.Audit.RecordStatusChanged(ctx, r, authz.Actor(r), h.kind.Slug, id, got)

	if uierrors.IsHTMX(r) {
		sc := newStatusCell(h.kind, id, got)
		sc.CSRFToken = csrf.Token(r)
		templates.RenderSnippet(w, "admin_status_cell", sc)
		return
	}
	h.flash(w, r, auth.FlashSuccess, "Status set to "+got+".")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET/POST /admin/{kind}/{id}/delete                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type deleteData struct {
	viewdata.BaseVM
	Singular    string
	RecordTitle string
	Action      string
	ReturnURL   string
}

func (h *kindHandler) ServeDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := navigation.SafeBackURL(r, navigation.AdminListBackURL(h.kind.Slug))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	rec, err := h.resource(r).Get(ctx, id)
	if err != nil {
		if h.Gate.Rejected(w, r, err) {
			return
		}
		if errors.Is(err, apiclient.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "That "+strings.ToLower(h.kind.Singular)+" no longer exists.", back)
			return
		}
		h.ErrLog.LogBadGateway(w, r, "delete confirm fetch failed", err, apiclient.Message(err), back)
		return
	}

	data := deleteData{
		Singular:    h.kind.Singular,
		RecordTitle: rec.Title,
		Action:      h.listPath() + "/" + url.PathEscape(rec.ID) + "/delete",
		ReturnURL:   back,
	}
	data.BaseVM = viewdata.NewBaseVM(r, "Delete "+strings.ToLower(h.kind.Singular), back)
	data.BackURL = back
	templates.Render(w, r, "admin_delete", data)
}

// HandleDelete removes the record. Deleting a record that is already gone
// succeeds.
func (h *kindHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := navigation.SafeBackURL(r, navigation.AdminListBackURL(h.kind.Slug))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	res := h.resource(r)
	title := id
	if rec, err := res.Get(ctx, id); err == nil {
		title = rec.Title
	} else if h.Gate.Rejected(w, r, err) {
		return
	}

	if err := res.Delete(ctx, id); err != nil {
		h.mutationFailed(w, r, back, "delete", err)
		return
	}
	h.Gate.Audit.RecordDeleted(ctx, r, authz.Actor(r), h.kind.Slug, id, title)

	dest := withParam(back, paramDeleted, id)
	if uierrors.IsHTMX(r) {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	h.flash(w, r, auth.FlashSuccess, "Deleted “"+title+"”.")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
