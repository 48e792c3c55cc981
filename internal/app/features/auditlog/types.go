// internal/app/features/auditlog/types.go
package auditlog

import (
	"github.com/dalemusser/neurohub/internal/app/store/audit"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
)

// timestampLayout is how event times are shown in the table.
const timestampLayout = "Jan 2, 2006 3:04 PM MST"

// listItem represents a single audit event row for display.
type listItem struct {
	ID         string
	When       string
	Category   string
	Event      string
	Actor      string
	Kind       string
	RecordID   string
	Subject    string // record title or attempted username
	SubjectURL string
	IP         string
	Success    bool
	Reason     string
}

// listData is the view model for the activity page.
type listData struct {
	viewdata.BaseVM

	Items     []listItem
	LoadError *viewdata.LoadError

	// Filters
	Category string
	Kind     string

	// Filter options
	Categories []filterOption
	Kinds      []filterOption

	// Pagination
	Total      int64
	Shown      int
	RangeStart int
	RangeEnd   int
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
}

// filterOption is one entry of a filter select.
type filterOption struct {
	Value    string
	Label    string
	Selected bool
}

// categoryOptions returns the categories an admin can filter by.
func categoryOptions(selected string) []filterOption {
	opts := []filterOption{
		{Value: audit.CategoryAuth, Label: "Sign-in"},
		{Value: audit.CategoryAdmin, Label: "Catalog changes"},
	}
	for i := range opts {
		opts[i].Selected = opts[i].Value == selected
	}
	return opts
}

// kindOptions returns one option per catalog kind.
func kindOptions(selected string) []filterOption {
	kinds := models.Kinds()
	opts := make([]filterOption, 0, len(kinds))
	for _, k := range kinds {
		opts = append(opts, filterOption{Value: k.Slug, Label: k.Label, Selected: k.Slug == selected})
	}
	return opts
}

// eventLabels are the human names of the recorded event types.
var eventLabels = map[string]string{
	audit.EventLoginSuccess:        "Signed in",
	audit.EventLoginFailed:         "Sign-in failed",
	audit.EventLoginRateLimit:      "Sign-in rate limited",
	audit.EventLogout:              "Signed out",
	audit.EventSessionRejected:     "Session rejected by backend",
	audit.EventRecordCreated:       "Created",
	audit.EventRecordUpdated:       "Updated",
	audit.EventRecordDeleted:       "Deleted",
	audit.EventRecordFeatured:      "Featured toggled",
	audit.EventRecordStatusChanged: "Status changed",
}

func eventLabel(eventType string) string {
	if l, ok := eventLabels[eventType]; ok {
		return l
	}
	return eventType
}
