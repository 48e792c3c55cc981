package wizard

import (
	"net/url"
	"strconv"

	"github.com/dalemusser/neurohub/internal/app/system/normalize"
	"github.com/dalemusser/neurohub/internal/domain/models"
)

// Wizard navigation actions posted by the step forms.
const (
	ActionNext   = "next"
	ActionBack   = "back"
	ActionSubmit = "submit"
)

// ParseStep reads a step number from a URL segment.
func ParseStep(raw string) (Step, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	s := Step(n)
	return s, s.Valid()
}

// Apply copies the posted fields that belong to step into s. Fields of
// other steps are left alone so Back never loses input.
func (s *State) Apply(k models.Kind, step Step, form url.Values) {
	v := &s.Values
	switch step {
	case StepBasic:
		v.Title = normalize.Text(form.Get("title"))
		v.Description = normalize.Text(form.Get("description"))
		v.Category = normalize.Text(form.Get("category"))
	case StepDetails:
		v.Language = normalize.Language(form.Get("language"))
		v.PublicationDate = normalize.Text(form.Get("publication_date"))
		for _, f := range k.ArrayFields {
			v.setList(f, normalize.List(form.Get(f)))
		}
		if v.Extra == nil {
			v.Extra = map[string]string{}
		}
		for _, f := range k.Extras {
			if val := normalize.Text(form.Get(f.Key)); val != "" {
				v.Extra[f.Key] = val
			} else {
				delete(v.Extra, f.Key)
			}
		}
	case StepReview:
		if status, ok := s.CanonicalStatus(k, form.Get("status")); ok {
			v.Status = status
		} else {
			v.Status = normalize.Text(form.Get("status"))
		}
		v.IsFeatured = checked(form.Get("is_featured"))
	}
}

func checked(v string) bool {
	switch v {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
