package models

import (
	"strings"
	"time"
)

// Record statuses. Kinds choose a subset via Kind.Statuses.
const (
	StatusDraft       = "Draft"
	StatusPublished   = "Published"
	StatusArchived    = "Archived"
	StatusUnderReview = "Under Review"
)

// DefaultStatus is assigned to records created through the wizard.
const DefaultStatus = StatusDraft

// Record is the normalized shape shared by every catalog kind
// (e-booklets, publications, training programs, news, events, ...).
//
// Records are produced by apiclient normalization; every field has a
// defined zero-value fallback and slices are never nil.
type Record struct {
	ID          string
	Title       string
	Description string
	Category    string
	Status      string
	Language    string
	IsFeatured  bool

	Tags           []string
	Keywords       []string
	TargetAudience []string
	Authors        []string

	DownloadCount int
	ViewCount     int

	ImageURL string
	FileURL  string

	CreatedAt       string // ISO 8601 as sent by the backend
	UpdatedAt       string
	PublicationDate string

	// Extra holds kind-specific scalar fields (pages, location, start_date, ...)
	// keyed by their backend name.
	Extra map[string]string

	// Type is a display label set when records of several kinds are merged
	// into one list (admin home "recently updated").
	Type string
}

// IsPublished reports whether the record is visible on public pages.
func (r Record) IsPublished() bool {
	return strings.EqualFold(r.Status, StatusPublished)
}

// HasFile reports whether the record has a downloadable document.
func (r Record) HasFile() bool {
	return r.FileURL != ""
}

// ExtraValue returns a kind-specific field, or "" when absent.
func (r Record) ExtraValue(key string) string {
	if r.Extra == nil {
		return ""
	}
	return r.Extra[key]
}

// UpdatedTime parses UpdatedAt, falling back to CreatedAt. The zero time is
// returned when neither parses.
func (r Record) UpdatedTime() time.Time {
	if t, ok := ParseTimestamp(r.UpdatedAt); ok {
		return t
	}
	if t, ok := ParseTimestamp(r.CreatedAt); ok {
		return t
	}
	return time.Time{}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts the ISO date/time variants the backend emits.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Analytics is the normalized aggregate returned by /api/<resource>/analytics/.
type Analytics struct {
	Total          int
	Published      int
	Drafts         int
	Archived       int
	Featured       int
	TotalDownloads int
	TotalViews     int
	ByCategory     map[string]int
	TopDownloaded  []Record
}
