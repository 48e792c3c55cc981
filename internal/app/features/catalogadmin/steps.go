// internal/app/features/catalogadmin/steps.go
package catalogadmin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/store/drafts"
	"github.com/dalemusser/neurohub/internal/app/system/formutil"
	"github.com/dalemusser/neurohub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/neurohub/internal/app/system/wizard"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const summaryExcerptLen = 240

type stepMarker struct {
	Number  int
	Title   string
	Current bool
	Done    bool
}

type listField struct {
	Name     string
	Label    string
	Value    string
	Required bool
	Error    string
}

type extraField struct {
	Key      string
	Label    string
	Input    string
	Value    string
	Required bool
	Error    string
}

type summaryRow struct {
	Label string
	Value string
}

type stagedView struct {
	Name       string
	Size       string
	PreviewURL string
}

type stepData struct {
	formutil.Base

	Kind     string
	Singular string
	ListPath string
	IsEdit   bool

	Step         int
	StepTitle    string
	Steps        []stepMarker
	Progress     int
	Action       string
	CancelAction string
	IsFirst      bool
	IsLast       bool
	Errors       wizard.Errors

	// Basic information
	RecordTitle string
	Description string
	Category    string
	Categories  []string

	// Details
	Language        string
	PublicationDate string
	Lists           []listField
	Extras          []extraField

	// Media
	ImageInput       string
	DocumentInput    string
	AcceptsImage     bool
	AcceptsDocument  bool
	DocumentRequired bool
	Image            *stagedView
	Document         *stagedView
	ExistingImageURL string
	ExistingFileURL  string
	ImageAccept      string
	DocumentAccept   string
	ImageMax         string
	DocumentMax      string

	// Review & publish
	Status     string
	Statuses   []option
	StatusNote string
	IsFeatured bool
	Summary    []summaryRow
}

// renderStep writes the draft's current step. formError is shown above the
// fields in addition to the per-field messages.
func (h *kindHandler) renderStep(ctx context.Context, w http.ResponseWriter, r *http.Request, status int, d drafts.Draft, formError string) {
	cats := h.kind.Categories
	if d.State.Step == wizard.StepBasic {
		if apiCats, err := h.resource(r).Categories(ctx); err == nil && len(apiCats) > 0 {
			cats = apiCats
		} else if err != nil {
			h.Log.Debug("category endpoint failed; using defaults", zap.String("kind", h.kind.Slug), zap.Error(err))
		}
	}

	data := buildStepData(h.kind, d, cats, h.Limits)
	title := "New " + strings.ToLower(h.kind.Singular)
	if d.IsEdit() {
		title = "Edit " + strings.ToLower(h.kind.Singular)
	}
	formutil.SetBase(&data.Base, r, title, h.listPath())
	if formError != "" {
		data.SetError(formError)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "wizard_step", data)
}

func buildStepData(k models.Kind, d drafts.Draft, categories []string, fl wizard.FileLimits) stepData {
	st := d.State
	v := st.Values
	base := fmt.Sprintf("/admin/%s/drafts/%s", k.Slug, d.ID.Hex())

	errs := st.Errors
	if errs == nil {
		errs = wizard.Errors{}
	}
	data := stepData{
		Kind:         k.Label,
		Singular:     k.Singular,
		ListPath:     "/admin/" + k.Slug,
		IsEdit:       d.IsEdit(),
		Step:         int(st.Step),
		StepTitle:    st.Step.Title(),
		Progress:     st.Progress(),
		Action:       fmt.Sprintf("%s/step/%d", base, int(st.Step)),
		CancelAction: base + "/cancel",
		IsFirst:      st.Step == wizard.FirstStep,
		IsLast:       st.Step == wizard.LastStep,
		Errors:       errs,
	}
	for _, s := range wizard.Steps() {
		data.Steps = append(data.Steps, stepMarker{
			Number:  int(s),
			Title:   s.Title(),
			Current: s == st.Step,
			Done:    s < st.Step,
		})
	}

	switch st.Step {
	case wizard.StepBasic:
		data.RecordTitle = v.Title
		data.Description = v.Description
		data.Category = v.Category
		data.Categories = withCurrent(categories, v.Category)

	case wizard.StepDetails:
		data.Language = v.Language
		data.PublicationDate = v.PublicationDate
		for _, f := range k.ArrayFields {
			data.Lists = append(data.Lists, listField{
				Name:     f,
				Label:    wizard.ListLabel(f),
				Value:    v.ListText(f),
				Required: k.RequiresArray(f),
				Error:    errs.Get(f),
			})
		}
		for _, f := range k.Extras {
			data.Extras = append(data.Extras, extraField{
				Key:      f.Key,
				Label:    f.Label,
				Input:    f.Input,
				Value:    v.ExtraValue(f.Key),
				Required: f.Required,
				Error:    errs.Get(f.Key),
			})
		}

	case wizard.StepMedia:
		data.ImageInput = wizard.InputImage
		data.DocumentInput = wizard.InputDocument
		data.AcceptsImage = k.ImageField != ""
		data.AcceptsDocument = k.DocumentField != ""
		data.DocumentRequired = k.DocumentRequired
		data.ExistingImageURL = st.ExistingImageURL
		data.ExistingFileURL = st.ExistingFileURL
		data.ImageAccept = ".jpg,.jpeg,.png,.webp,.gif"
		data.DocumentAccept = ".pdf,.epub,.doc,.docx"
		data.ImageMax = humanSize(fl.ImageMaxBytes)
		data.DocumentMax = humanSize(fl.DocumentMaxBytes)
		if f := st.Image; f != nil {
			sv := &stagedView{Name: f.Name, Size: humanSize(f.Size)}
			if f.ThumbID != "" {
				sv.PreviewURL = base + "/files/" + f.ThumbID
			}
			data.Image = sv
		}
		if f := st.Document; f != nil {
			data.Document = &stagedView{Name: f.Name, Size: humanSize(f.Size)}
		}

	case wizard.StepReview:
		data.Status = v.Status
		data.Statuses = options(st.StatusOptions(k), v.Status)
		if st.KeptStatus != "" {
			data.StatusNote = fmt.Sprintf("\"%s\" is not a standard %s status. It is kept unless you choose another.",
				st.KeptStatus, strings.ToLower(k.Singular))
		}
		data.IsFeatured = v.IsFeatured
		data.Summary = summarize(k, st)
	}
	return data
}

func summarize(k models.Kind, st wizard.State) []summaryRow {
	v := st.Values
	var rows []summaryRow
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			rows = append(rows, summaryRow{Label: label, Value: value})
		}
	}
	add("Title", v.Title)
	add("Category", v.Category)
	add("Description", htmlsanitize.Excerpt(v.Description, summaryExcerptLen))
	add("Language", v.Language)
	add("Publication date", v.PublicationDate)
	for _, f := range k.ArrayFields {
		add(wizard.ListLabel(f), v.ListText(f))
	}
	for _, f := range k.Extras {
		add(f.Label, v.ExtraValue(f.Key))
	}
	switch {
	case st.Image != nil:
		add("Cover image", st.Image.Name+" (new)")
	case st.ExistingImageURL != "":
		add("Cover image", "unchanged")
	}
	switch {
	case st.Document != nil:
		add("Document", st.Document.Name+" (new)")
	case st.ExistingFileURL != "":
		add("Document", "unchanged")
	}
	return rows
}

// withCurrent keeps a stored category selectable even when the option list
// no longer has it.
func withCurrent(values []string, current string) []string {
	out := make([]string, 0, len(values)+1)
	found := current == ""
	for _, v := range values {
		if strings.EqualFold(v, current) {
			found = true
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, current)
	}
	return out
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
