package models

import "strings"

// Backend names of the array fields every kind declares. They are sent
// JSON-encoded inside multipart payloads.
const (
	FieldTags           = "tags"
	FieldKeywords       = "keywords"
	FieldTargetAudience = "target_audience"
	FieldAuthors        = "authors"
)

// ExtraField is a kind-specific scalar collected by the wizard's details
// step and stored in Record.Extra.
type ExtraField struct {
	Key      string // backend field name
	Label    string
	Input    string // html input type: text, number, date, url
	Required bool
	Numeric  bool
}

// Kind describes one catalog resource type and how the backend exposes it.
type Kind struct {
	Slug     string // URL segment in this app, e.g. "ebooklets"
	APIPath  string // segment under /api/, e.g. "ebooklets"
	Label    string // plural display label
	Singular string

	Statuses   []string
	Categories []string // fallback options when the metadata endpoint is unavailable

	ArrayFields    []string
	RequiredArrays []string // array fields the wizard requires to be non-empty

	ImageField       string // multipart key for the cover image; "" when unsupported
	DocumentField    string // multipart key for the primary document; "" when unsupported
	DocumentRequired bool   // the document must be supplied on create

	Extras []ExtraField

	HasAnalytics bool
	HasAudiences bool // exposes /target_audiences/
	HasAuthors   bool // exposes /authors/
}

var baseStatuses = []string{StatusDraft, StatusPublished, StatusArchived}

var reviewStatuses = []string{StatusDraft, StatusUnderReview, StatusPublished, StatusArchived}

var allArrays = []string{FieldTags, FieldKeywords, FieldTargetAudience, FieldAuthors}

var kinds = []Kind{
	{
		Slug:     "ebooklets",
		APIPath:  "ebooklets",
		Label:    "E-Booklets",
		Singular: "E-Booklet",
		Statuses: baseStatuses,
		Categories: []string{
			"Epilepsy Basics", "Seizure First Aid", "Medication", "Living with Epilepsy", "Caregivers",
		},
		ArrayFields:      allArrays,
		RequiredArrays:   []string{FieldTargetAudience},
		ImageField:       "image",
		DocumentField:    "file",
		DocumentRequired: true,
		Extras: []ExtraField{
			{Key: "pages", Label: "Pages", Input: "number", Numeric: true},
		},
		HasAnalytics: true,
		HasAudiences: true,
		HasAuthors:   true,
	},
	{
		Slug:     "publications",
		APIPath:  "publications",
		Label:    "Publications",
		Singular: "Publication",
		Statuses: reviewStatuses,
		Categories: []string{
			"Research Article", "Clinical Guideline", "Position Statement", "Newsletter", "Annual Report",
		},
		ArrayFields:      allArrays,
		RequiredArrays:   []string{FieldAuthors},
		ImageField:       "image",
		DocumentField:    "file",
		DocumentRequired: true,
		Extras: []ExtraField{
			{Key: "journal", Label: "Journal", Input: "text"},
			{Key: "doi", Label: "DOI", Input: "text"},
			{Key: "volume", Label: "Volume", Input: "number", Numeric: true},
		},
		HasAnalytics: true,
		HasAudiences: true,
		HasAuthors:   true,
	},
	{
		Slug:     "training-programs",
		APIPath:  "training-programs",
		Label:    "Training Programs",
		Singular: "Training Program",
		Statuses: baseStatuses,
		Categories: []string{
			"Workshop", "Webinar", "Certification", "Online Course",
		},
		ArrayFields:   allArrays,
		ImageField:    "image",
		DocumentField: "syllabus",
		Extras: []ExtraField{
			{Key: "duration_hours", Label: "Duration (hours)", Input: "number", Required: true, Numeric: true},
			{Key: "location", Label: "Location", Input: "text"},
			{Key: "start_date", Label: "Start date", Input: "date"},
			{Key: "registration_url", Label: "Registration URL", Input: "url"},
		},
		HasAudiences: true,
	},
	{
		Slug:     "news",
		APIPath:  "news",
		Label:    "News",
		Singular: "News Article",
		Statuses: baseStatuses,
		Categories: []string{
			"Announcement", "Press Release", "Research News", "Community",
		},
		ArrayFields: []string{FieldTags, FieldKeywords, FieldAuthors},
		ImageField:  "image",
		Extras: []ExtraField{
			{Key: "source_url", Label: "Source URL", Input: "url"},
		},
		HasAuthors: true,
	},
	{
		Slug:     "events",
		APIPath:  "events",
		Label:    "Events",
		Singular: "Event",
		Statuses: baseStatuses,
		Categories: []string{
			"Conference", "Awareness Campaign", "Support Group", "Fundraiser",
		},
		ArrayFields:   []string{FieldTags, FieldKeywords, FieldTargetAudience},
		ImageField:    "image",
		DocumentField: "brochure",
		Extras: []ExtraField{
			{Key: "location", Label: "Location", Input: "text", Required: true},
			{Key: "start_date", Label: "Start date", Input: "date", Required: true},
			{Key: "end_date", Label: "End date", Input: "date"},
			{Key: "registration_url", Label: "Registration URL", Input: "url"},
		},
		HasAudiences: true,
	},
	{
		Slug:     "educational-resources",
		APIPath:  "educational-resources",
		Label:    "Educational Resources",
		Singular: "Educational Resource",
		Statuses: baseStatuses,
		Categories: []string{
			"Video", "Infographic", "Toolkit", "Fact Sheet", "Lesson Plan",
		},
		ArrayFields:   allArrays,
		ImageField:    "image",
		DocumentField: "file",
		Extras: []ExtraField{
			{Key: "resource_url", Label: "External link", Input: "url"},
		},
		HasAnalytics: true,
		HasAudiences: true,
		HasAuthors:   true,
	},
}

// Kinds returns every catalog kind in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// KindBySlug looks up a kind by its URL slug.
func KindBySlug(slug string) (Kind, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, k := range kinds {
		if k.Slug == slug {
			return k, true
		}
	}
	return Kind{}, false
}

// CanonicalStatus maps s (any case) to one of the kind's statuses.
func (k Kind) CanonicalStatus(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, st := range k.Statuses {
		if strings.EqualFold(st, s) {
			return st, true
		}
	}
	return "", false
}

// HasArray reports whether the kind declares the named array field.
func (k Kind) HasArray(field string) bool {
	for _, f := range k.ArrayFields {
		if f == field {
			return true
		}
	}
	return false
}

// Extra returns the extra field definition for key.
func (k Kind) Extra(key string) (ExtraField, bool) {
	for _, f := range k.Extras {
		if f.Key == key {
			return f, true
		}
	}
	return ExtraField{}, false
}

// RequiresArray reports whether the wizard rejects an empty list for field.
func (k Kind) RequiresArray(field string) bool {
	for _, f := range k.RequiredArrays {
		if f == field {
			return true
		}
	}
	return false
}
