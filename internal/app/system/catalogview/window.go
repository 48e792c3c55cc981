package catalogview

import (
	"sort"
	"strings"

	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Window is the "load more" pagination: Initial cards first, Step more per
// click. The whole filtered set is resident; only the visible prefix varies.
type Window struct {
	Initial int
	Step    int
}

// DefaultWindow shows 8 cards and reveals 8 more per click.
var DefaultWindow = Window{Initial: 8, Step: 8}

// Visible is the visible count after clicks presses, capped at total.
func (w Window) Visible(clicks, total int) int {
	initial := max(w.Initial, 0)
	if initial >= total {
		return max(total, 0)
	}
	if clicks <= 0 || w.Step <= 0 {
		return initial
	}
	// Compare before multiplying so a huge ?more= cannot overflow.
	if clicks > (total-initial)/w.Step {
		return total
	}
	return min(initial+clicks*w.Step, total)
}

// Page is the visible prefix of a filtered list.
type Page struct {
	Items   []models.Record
	Visible int
	Total   int
	Clicks  int
	HasMore bool
}

// Slice returns the visible prefix of records after clicks presses.
func (w Window) Slice(records []models.Record, clicks int) Page {
	if clicks < 0 {
		clicks = 0
	}
	n := w.Visible(clicks, len(records))
	return Page{
		Items:   records[:n:n],
		Visible: n,
		Total:   len(records),
		Clicks:  clicks,
		HasMore: n < len(records),
	}
}

// DefaultFeaturedLimit is how many featured records public pages show
// before "show all".
const DefaultFeaturedLimit = 3

// FeaturedSet is the highlights strip.
type FeaturedSet struct {
	Items     []models.Record
	Total     int
	ShowAll   bool
	CanToggle bool // more featured records exist than the limit
}

// Featured picks the featured records: the first limit by default, every
// one when showAll is set.
func Featured(records []models.Record, limit int, showAll bool) FeaturedSet {
	all := make([]models.Record, 0)
	for _, rec := range records {
		if rec.IsFeatured {
			all = append(all, rec)
		}
	}
	set := FeaturedSet{Total: len(all), ShowAll: showAll, CanToggle: limit >= 0 && len(all) > limit}
	if showAll || limit < 0 || len(all) <= limit {
		set.Items = all
		return set
	}
	set.Items = all[:limit:limit]
	return set
}

// EmptyKind tells a template which empty state to render.
type EmptyKind int

const (
	NotEmpty EmptyKind = iota
	NoData             // nothing loaded at all
	NoMatch            // records exist but the filters exclude all of them
)

// Empty classifies an empty filtered result.
func Empty(total, filtered int) EmptyKind {
	switch {
	case filtered > 0:
		return NotEmpty
	case total == 0:
		return NoData
	default:
		return NoMatch
	}
}

// Options is a dropdown's choices and where they came from.
type Options struct {
	Values  []string
	Derived bool // taken from the loaded records because the endpoint failed
}

// Option fields understood by ResolveOptions and Distinct.
const (
	OptionCategory = "category"
	OptionLanguage = "language"
	OptionAudience = "audience"
	OptionAuthor   = "author"
)

// ResolveOptions prefers the metadata endpoint. Only when it failed (or the
// kind has none) are the values derived from records, and the result is
// flagged Derived.
func ResolveOptions(endpoint []string, endpointErr error, records []models.Record, field string) Options {
	if endpointErr == nil {
		return Options{Values: dedupe(endpoint)}
	}
	return Options{Values: Distinct(records, field), Derived: true}
}

// Distinct collects field's distinct non-empty values from records,
// sorted case-insensitively.
func Distinct(records []models.Record, field string) []string {
	var vals []string
	for _, rec := range records {
		switch field {
		case OptionCategory:
			vals = append(vals, rec.Category)
		case OptionLanguage:
			vals = append(vals, rec.Language)
		case OptionAudience:
			vals = append(vals, rec.TargetAudience...)
		case OptionAuthor:
			vals = append(vals, rec.Authors...)
		}
	}
	out := dedupe(vals)
	sort.SliceStable(out, func(i, j int) bool { return text.Fold(out[i]) < text.Fold(out[j]) })
	return out
}

func dedupe(vals []string) []string {
	out := make([]string, 0, len(vals))
	seen := make(map[string]bool, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		k := strings.ToLower(v)
		if v == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// Upsert replaces the record with rec.ID or, when absent, puts rec first.
// The input slice is not modified.
func Upsert(records []models.Record, rec models.Record) []models.Record {
	out := make([]models.Record, 0, len(records)+1)
	replaced := false
	for _, r := range records {
		if !replaced && r.ID == rec.ID {
			out = append(out, rec)
			replaced = true
			continue
		}
		out = append(out, r)
	}
	if !replaced {
		out = append([]models.Record{rec}, out...)
	}
	return out
}

// Remove drops the first record with id. removed is false (and the result
// equal to the input) when no such record exists.
func Remove(records []models.Record, id string) (out []models.Record, removed bool) {
	out = make([]models.Record, 0, len(records))
	for _, r := range records {
		if !removed && r.ID == id {
			removed = true
			continue
		}
		out = append(out, r)
	}
	return out, removed
}
