// internal/app/features/catalogadmin/wizard.go
package catalogadmin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	uierrors "github.com/dalemusser/neurohub/internal/app/features/errors"
	"github.com/dalemusser/neurohub/internal/app/store/drafts"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/authz"
	"github.com/dalemusser/neurohub/internal/app/system/limits"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/neurohub/internal/app/system/wizard"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (h *kindHandler) stepURL(draftID primitive.ObjectID, step wizard.Step) string {
	return fmt.Sprintf("%s/drafts/%s/step/%d", h.listPath(), draftID.Hex(), int(step))
}

// discardFiles deletes staged uploads the wizard no longer references.
func (h *kindHandler) discardFiles(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	if err := h.Uploads.Delete(ctx, ids...); err != nil {
		h.Log.Warn("staged file cleanup failed", zap.Strings("ids", ids), zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/{kind}/new and /admin/{kind}/{id}/edit – open a fresh draft     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *kindHandler) StartNew(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, "", wizard.New(h.kind))
}

func (h *kindHandler) StartEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	rec, err := h.resource(r).Get(ctx, id)
	if err != nil {
		if h.Gate.Rejected(w, r, err) {
			return
		}
		if errors.Is(err, apiclient.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "That "+strings.ToLower(h.kind.Singular)+" no longer exists.", h.listPath())
			return
		}
		h.ErrLog.LogBadGateway(w, r, "edit fetch failed", err, apiclient.Message(err), h.listPath())
		return
	}
	h.start(w, r, rec.ID, wizard.FromRecord(h.kind, rec))
}

// start always begins at step 1. Any earlier draft for the same target is
// replaced and its staged files released.
func (h *kindHandler) start(w http.ResponseWriter, r *http.Request, recordID string, st wizard.State) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, stale, err := h.Drafts.Start(ctx, drafts.NewDraft{
		Kind:     h.kind.Slug,
		RecordID: recordID,
		OwnerID:  ownerID(r),
		State:    st,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "start draft", err, "The form could not be opened. Please try again.", h.listPath())
		return
	}
	h.discardFiles(ctx, stale...)
	http.Redirect(w, r, h.stepURL(d.ID, wizard.StepBasic), http.StatusSeeOther)
}

// loadDraft resolves {draftID} for the signed-in admin. It writes the
// response and returns false when the draft cannot be used.
func (h *kindHandler) loadDraft(ctx context.Context, w http.ResponseWriter, r *http.Request) (drafts.Draft, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "draftID"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "That form could not be found.", h.listPath())
		return drafts.Draft{}, false
	}
	d, err := h.Drafts.Get(ctx, id, ownerID(r))
	if errors.Is(err, drafts.ErrDraftNotFound) || (err == nil && d.Kind != h.kind.Slug) {
		uierrors.RenderNotFound(w, r, "This form has expired or was already submitted. Start again from the list.", h.listPath())
		return drafts.Draft{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load draft", err, "The form could not be loaded.", h.listPath())
		return drafts.Draft{}, false
	}
	return d, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/{kind}/drafts/{draftID}/step/{step}                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *kindHandler) ServeStep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	d, ok := h.loadDraft(ctx, w, r)
	if !ok {
		return
	}
	// Steps are linear; a stale or hand-typed step goes to the current one.
	if step, valid := wizard.ParseStep(chi.URLParam(r, "step")); !valid || step != d.State.Step {
		http.Redirect(w, r, h.stepURL(d.ID, d.State.Step), http.StatusSeeOther)
		return
	}
	h.renderStep(ctx, w, r, http.StatusOK, d, "")
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/{kind}/drafts/{draftID}/step/{step}                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *kindHandler) HandleStep(w http.ResponseWriter, r *http.Request) {
	step, valid := wizard.ParseStep(chi.URLParam(r, "step"))
	if !valid {
		uierrors.RenderNotFound(w, r, "That step does not exist.", h.listPath())
		return
	}

	if step == wizard.StepMedia && strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxMediaStepSize(h.Limits))
		if err := r.ParseMultipartForm(limits.MultipartMemory); err != nil {
			h.ErrLog.LogBadRequest(w, r, "parse media step", err, "The upload was too large or could not be read.", h.listPath())
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxStepFormSize)
		if err := r.ParseForm(); err != nil {
			h.ErrLog.LogBadRequest(w, r, "parse wizard step", err, "The form could not be read.", h.listPath())
			return
		}
	}

	timeout := timeouts.API()
	if step == wizard.StepMedia || step == wizard.StepReview {
		timeout = timeouts.Upload()
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	d, ok := h.loadDraft(ctx, w, r)
	if !ok {
		return
	}
	if step != d.State.Step {
		http.Redirect(w, r, h.stepURL(d.ID, d.State.Step), http.StatusSeeOther)
		return
	}

	st := &d.State
	st.Apply(h.kind, step, r.PostForm)

	var fileErrs wizard.Errors
	if step == wizard.StepMedia {
		fileErrs = h.stageFiles(ctx, r, d.ID.Hex(), st)
	}

	action := r.PostFormValue("action")
	switch {
	case action == wizard.ActionBack:
		st.Back()
	case action == wizard.ActionSubmit && step == wizard.StepReview:
		h.submit(ctx, w, r, d)
		return
	case len(fileErrs) > 0:
		st.Errors = wizard.ValidateStep(h.kind, step, st)
		for field, msg := range fileErrs {
			st.Errors[field] = msg
		}
	default:
		st.Next(h.kind)
	}

	if err := h.Drafts.Save(ctx, d); err != nil {
		if errors.Is(err, drafts.ErrDraftNotFound) {
			uierrors.RenderNotFound(w, r, "This form has expired. Start again from the list.", h.listPath())
			return
		}
		h.ErrLog.LogServerError(w, r, "save draft", err, "Your changes could not be saved. Please try again.", h.listPath())
		return
	}

	if len(st.Errors) > 0 {
		h.renderStep(ctx, w, r, http.StatusUnprocessableEntity, d, "")
		return
	}
	http.Redirect(w, r, h.stepURL(d.ID, st.Step), http.StatusSeeOther)
}

// stageFiles checks and stores the media step's uploads. A rejected file
// keeps the previous selection; a replaced one is deleted.
func (h *kindHandler) stageFiles(ctx context.Context, r *http.Request, draftID string, st *wizard.State) wizard.Errors {
	errs := wizard.Errors{}

	if r.PostFormValue("remove_image") != "" && st.Image != nil {
		h.discardFiles(ctx, st.Image.FileID, st.Image.ThumbID)
		st.Image = nil
	}
	if r.PostFormValue("remove_document") != "" && st.Document != nil {
		h.discardFiles(ctx, st.Document.FileID)
		st.Document = nil
	}

	if h.kind.ImageField != "" {
		if staged, err := h.stageOne(ctx, r, draftID, wizard.InputImage); err != nil {
			errs[wizard.InputImage] = fileMessage(err)
		} else if staged != nil {
			if st.Image != nil {
				h.discardFiles(ctx, st.Image.FileID, st.Image.ThumbID)
			}
			st.Image = staged
		}
	}
	if h.kind.DocumentField != "" {
		if staged, err := h.stageOne(ctx, r, draftID, wizard.InputDocument); err != nil {
			errs[wizard.InputDocument] = fileMessage(err)
		} else if staged != nil {
			if st.Document != nil {
				h.discardFiles(ctx, st.Document.FileID)
			}
			st.Document = staged
		}
	}
	return errs
}

// stageOne returns nil, nil when the input was left empty.
func (h *kindHandler) stageOne(ctx context.Context, r *http.Request, draftID, input string) (*wizard.StagedFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, hdr, err := r.FormFile(input)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if hdr.Filename == "" {
		return nil, nil
	}

	var acc *wizard.Accepted
	if input == wizard.InputImage {
		acc, err = wizard.CheckImage(hdr.Filename, file, h.Limits)
	} else {
		acc, err = wizard.CheckDocument(hdr.Filename, file, h.Limits)
	}
	if err != nil {
		return nil, err
	}

	fileID, err := h.Uploads.Put(ctx, draftID, acc.Name, acc.ContentType, acc.Data)
	if err != nil {
		h.Log.Error("stage upload", zap.String("input", input), zap.Error(err))
		return nil, &wizard.FileError{Field: input, Message: "The file could not be saved. Please try again."}
	}
	staged := &wizard.StagedFile{
		FileID:      fileID,
		Name:        acc.Name,
		ContentType: acc.ContentType,
		Size:        int64(len(acc.Data)),
	}
	if len(acc.Thumb) > 0 {
		thumbID, err := h.Uploads.Put(ctx, draftID, "preview-"+acc.Name+".jpg", "image/jpeg", acc.Thumb)
		if err != nil {
			h.Log.Warn("stage thumbnail", zap.Error(err))
		} else {
			staged.ThumbID = thumbID
		}
	}
	return staged, nil
}

func fileMessage(err error) string {
	var fe *wizard.FileError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Submit – step 4                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *kindHandler) submit(ctx context.Context, w http.ResponseWriter, r *http.Request, d drafts.Draft) {
	st := &d.State
	if err := st.Submit(h.kind); err != nil {
		if saveErr := h.Drafts.Save(ctx, d); saveErr != nil {
			h.Log.Warn("save draft after failed submit", zap.Error(saveErr))
		}
		if st.Step != wizard.StepReview {
			// Send the editor to the first failing step with its messages.
			h.renderStep(ctx, w, r, http.StatusUnprocessableEntity, d, "Please fix the highlighted fields before publishing.")
			return
		}
		h.renderStep(ctx, w, r, http.StatusUnprocessableEntity, d, "")
		return
	}
	if err := h.Drafts.Save(ctx, d); err != nil {
		h.Log.Warn("save draft before submit", zap.Error(err))
	}

	in, err := h.recordInput(ctx, d)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "read staged files", err, "The uploaded files could not be read. Please upload them again.", h.stepURL(d.ID, wizard.StepMedia))
		return
	}

	var rec models.Record
	if d.IsEdit() {
		rec, err = h.resource(r).Update(ctx, d.RecordID, in)
	} else {
		rec, err = h.resource(r).Create(ctx, in)
	}
	if err != nil {
		if h.Gate.Rejected(w, r, err) {
			return
		}
		h.Log.Warn("record submit failed",
			zap.String("kind", h.kind.Slug),
			zap.String("record_id", d.RecordID),
			zap.Error(err))
		h.renderStep(ctx, w, r, http.StatusBadGateway, d, apiclient.Message(err))
		return
	}
	saved, title := rec.ID, rec.Title
	if saved == "" {
		saved = d.RecordID
	}
	if title == "" {
		title = st.Values.Title
	}

	actor := authz.Actor(r)
	if d.IsEdit() {
		h.Gate.Audit.RecordUpdated(ctx, r, actor, h.kind.Slug, saved, title)
	} else {
		h.Gate.Audit.RecordCreated(ctx, r, actor, h.kind.Slug, saved, title)
	}

	// The record exists now; a failed cleanup is left to the sweeper.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	if _, err := h.Drafts.Delete(cleanupCtx, d.ID, d.OwnerID); err != nil {
		h.Log.Warn("delete submitted draft", zap.String("draft_id", d.ID.Hex()), zap.Error(err))
	}
	h.discardFiles(cleanupCtx, d.StagedFiles()...)

	h.flash(w, r, auth.FlashSuccess, "Saved “"+title+"”.")
	http.Redirect(w, r, withParam(h.listPath(), paramSaved, saved), http.StatusSeeOther)
}

// recordInput builds the create/update payload, attaching staged files.
func (h *kindHandler) recordInput(ctx context.Context, d drafts.Draft) (apiclient.RecordInput, error) {
	v := d.State.Values
	in := apiclient.RecordInput{
		Title:           v.Title,
		Description:     v.Description,
		Category:        v.Category,
		Status:          v.Status,
		Language:        v.Language,
		PublicationDate: v.PublicationDate,
		IsFeatured:      v.IsFeatured,
		Tags:            v.Tags,
		Keywords:        v.Keywords,
		TargetAudience:  v.TargetAudience,
		Authors:         v.Authors,
		Extra:           v.Extra,
	}
	if f := d.State.Image; f != nil {
		up, err := h.fileUpload(ctx, f)
		if err != nil {
			return in, err
		}
		in.Image = up
	}
	if f := d.State.Document; f != nil {
		up, err := h.fileUpload(ctx, f)
		if err != nil {
			return in, err
		}
		in.Document = up
	}
	return in, nil
}

func (h *kindHandler) fileUpload(ctx context.Context, f *wizard.StagedFile) (*apiclient.FileUpload, error) {
	data, _, err := h.Uploads.Read(ctx, f.FileID)
	if err != nil {
		return nil, fmt.Errorf("staged %s: %w", f.Name, err)
	}
	return &apiclient.FileUpload{
		Name:        f.Name,
		ContentType: f.ContentType,
		Body:        bytes.NewReader(data),
	}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Preview and cancel                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeStagedFile streams a file the draft references (cover previews).
func (h *kindHandler) ServeStagedFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	d, ok := h.loadDraft(ctx, w, r)
	if !ok {
		return
	}
	fileID := chi.URLParam(r, "fileID")
	owned := false
	for _, id := range d.StagedFiles() {
		if id == fileID {
			owned = true
			break
		}
	}
	if !owned {
		uierrors.RenderNotFound(w, r, "That file is not part of this form.", h.stepURL(d.ID, d.State.Step))
		return
	}

	rc, meta, err := h.Uploads.Open(ctx, fileID)
	if err != nil {
		uierrors.RenderNotFound(w, r, "That file is no longer available.", h.stepURL(d.ID, d.State.Step))
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		h.Log.Debug("staged file stream interrupted", zap.Error(err))
	}
}

// HandleCancel discards the draft and its files.
func (h *kindHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "draftID")); err == nil {
		d, err := h.Drafts.Delete(ctx, id, ownerID(r))
		switch {
		case err == nil:
			h.discardFiles(ctx, d.StagedFiles()...)
		case !errors.Is(err, drafts.ErrDraftNotFound):
			h.Log.Warn("cancel draft", zap.String("draft_id", id.Hex()), zap.Error(err))
		}
	}
	http.Redirect(w, r, h.listPath(), http.StatusSeeOther)
}
