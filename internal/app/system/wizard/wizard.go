// Package wizard holds the four-step create/edit flow for catalog records.
//
// A State moves linearly through Basic → Details → Media → Review. Next is
// gated by the current step's rules, Back is always allowed, and Submit is
// only legal on the review step where it re-runs every step's rules. The
// package is storage-agnostic: store/drafts persists a State between
// requests and store/uploads holds the staged files it references.
package wizard

import (
	"errors"
	"slices"
	"strings"

	"github.com/dalemusser/neurohub/internal/domain/models"
)

// Step is a 1-based wizard position.
type Step int

const (
	StepBasic Step = iota + 1
	StepDetails
	StepMedia
	StepReview
)

// FirstStep and LastStep bound the wizard.
const (
	FirstStep = StepBasic
	LastStep  = StepReview
)

var stepTitles = map[Step]string{
	StepBasic:   "Basic information",
	StepDetails: "Details",
	StepMedia:   "Media",
	StepReview:  "Review & publish",
}

// Title is the heading shown above the step's fields.
func (s Step) Title() string { return stepTitles[s] }

// Valid reports whether s is one of the four steps.
func (s Step) Valid() bool { return s >= FirstStep && s <= LastStep }

// Steps lists every step in order.
func Steps() []Step { return []Step{StepBasic, StepDetails, StepMedia, StepReview} }

// ErrNotReviewStep is returned by Submit before the last step is reached.
var ErrNotReviewStep = errors.New("wizard: submit is only allowed on the review step")

// ErrInvalid is returned by Submit when any step's rules fail.
var ErrInvalid = errors.New("wizard: form has errors")

// Values are the record fields collected across the steps.
type Values struct {
	Title           string            `bson:"title"`
	Description     string            `bson:"description"`
	Category        string            `bson:"category"`
	Language        string            `bson:"language"`
	PublicationDate string            `bson:"publication_date,omitempty"`
	Tags            []string          `bson:"tags"`
	Keywords        []string          `bson:"keywords"`
	TargetAudience  []string          `bson:"target_audience"`
	Authors         []string          `bson:"authors"`
	Extra           map[string]string `bson:"extra,omitempty"`
	Status          string            `bson:"status"`
	IsFeatured      bool              `bson:"is_featured"`
}

// List returns the named array field.
func (v Values) List(field string) []string {
	switch field {
	case models.FieldTags:
		return v.Tags
	case models.FieldKeywords:
		return v.Keywords
	case models.FieldTargetAudience:
		return v.TargetAudience
	case models.FieldAuthors:
		return v.Authors
	}
	return nil
}

func (v *Values) setList(field string, vals []string) {
	switch field {
	case models.FieldTags:
		v.Tags = vals
	case models.FieldKeywords:
		v.Keywords = vals
	case models.FieldTargetAudience:
		v.TargetAudience = vals
	case models.FieldAuthors:
		v.Authors = vals
	}
}

// ListText is the comma-separated form shown in text inputs.
func (v Values) ListText(field string) string {
	return strings.Join(v.List(field), ", ")
}

// ExtraValue returns the kind-specific value for key.
func (v Values) ExtraValue(key string) string {
	return v.Extra[key]
}

// StagedFile is an accepted upload held in store/uploads until submit.
type StagedFile struct {
	FileID      string `bson:"file_id"`
	ThumbID     string `bson:"thumb_id,omitempty"`
	Name        string `bson:"name"`
	ContentType string `bson:"content_type"`
	Size        int64  `bson:"size"`
}

// Errors maps a form input name to its message.
type Errors map[string]string

// Has reports whether field has a message.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Get returns field's message or "".
func (e Errors) Get(field string) string { return e[field] }

// State is one wizard run for a single kind.
type State struct {
	Step     Step        `bson:"step"`
	Values   Values      `bson:"values"`
	Image    *StagedFile `bson:"image,omitempty"`
	Document *StagedFile `bson:"document,omitempty"`

	// Files already attached to the record being edited.
	ExistingImageURL string `bson:"existing_image_url,omitempty"`
	ExistingFileURL  string `bson:"existing_file_url,omitempty"`

	// KeptStatus is the edited record's status when its kind does not list
	// it. It stays selectable so an edit does not change it silently.
	KeptStatus string `bson:"kept_status,omitempty"`

	// Errors is the result of the last rule run; never persisted.
	Errors Errors `bson:"-"`
}

// New starts a create run at step 1.
func New(k models.Kind) State {
	return State{
		Step: StepBasic,
		Values: Values{
			Language:       "en",
			Status:         models.DefaultStatus,
			Tags:           []string{},
			Keywords:       []string{},
			TargetAudience: []string{},
			Authors:        []string{},
			Extra:          map[string]string{},
		},
		Errors: Errors{},
	}
}

// FromRecord starts an edit run at step 1, prefilled from rec.
func FromRecord(k models.Kind, rec models.Record) State {
	st := New(k)
	v := &st.Values
	v.Title = rec.Title
	v.Description = rec.Description
	v.Category = rec.Category
	if rec.Language != "" {
		v.Language = rec.Language
	}
	if len(rec.PublicationDate) >= len("2006-01-02") {
		v.PublicationDate = rec.PublicationDate[:len("2006-01-02")]
	}
	v.Tags = clone(rec.Tags)
	v.Keywords = clone(rec.Keywords)
	v.TargetAudience = clone(rec.TargetAudience)
	v.Authors = clone(rec.Authors)
	for _, f := range k.Extras {
		if val := rec.ExtraValue(f.Key); val != "" {
			v.Extra[f.Key] = val
		}
	}
	if status, ok := k.CanonicalStatus(rec.Status); ok {
		v.Status = status
	} else if raw := strings.TrimSpace(rec.Status); raw != "" {
		v.Status = raw
		st.KeptStatus = raw
	}
	v.IsFeatured = rec.IsFeatured
	st.ExistingImageURL = rec.ImageURL
	st.ExistingFileURL = rec.FileURL
	return st
}

// StatusOptions lists the statuses the review step offers.
func (s State) StatusOptions(k models.Kind) []string {
	if s.KeptStatus == "" {
		return k.Statuses
	}
	return append(slices.Clone(k.Statuses), s.KeptStatus)
}

// CanonicalStatus resolves raw against the kind's statuses and the kept one.
func (s State) CanonicalStatus(k models.Kind, raw string) (string, bool) {
	if status, ok := k.CanonicalStatus(raw); ok {
		return status, true
	}
	if s.KeptStatus != "" && strings.EqualFold(strings.TrimSpace(raw), s.KeptStatus) {
		return s.KeptStatus, true
	}
	return "", false
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Next validates the current step and, when it passes, advances exactly one
// step. It reports whether the step advanced.
func (s *State) Next(k models.Kind) bool {
	s.Errors = ValidateStep(k, s.Step, s)
	if len(s.Errors) > 0 {
		return false
	}
	if s.Step < LastStep {
		s.Step++
	}
	return true
}

// Back moves one step back without validating. It never goes below step 1.
func (s *State) Back() {
	s.Errors = Errors{}
	if s.Step > FirstStep {
		s.Step--
	}
}

// Submit re-runs every step's rules. On failure the state moves to the first
// failing step with its errors set.
func (s *State) Submit(k models.Kind) error {
	if s.Step != LastStep {
		return ErrNotReviewStep
	}
	for _, step := range Steps() {
		if errs := ValidateStep(k, step, s); len(errs) > 0 {
			s.Step = step
			s.Errors = errs
			return ErrInvalid
		}
	}
	s.Errors = Errors{}
	return nil
}

// Progress is the 0-100 completion shown in the step indicator.
func (s State) Progress() int {
	return int(s.Step-1) * 100 / int(LastStep-1)
}

// HasImage reports whether a cover image is staged or already attached.
func (s State) HasImage() bool { return s.Image != nil || s.ExistingImageURL != "" }

// HasDocument reports whether a document is staged or already attached.
func (s State) HasDocument() bool { return s.Document != nil || s.ExistingFileURL != "" }
