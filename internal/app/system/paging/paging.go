// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the number of rows on one page of an admin table.
const PageSize = 50

// LimitPlusOne is the Find limit that fetches one row past the page so
// TrimPage can tell whether a next page exists.
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart reads the 1-based "start" query parameter, defaulting to 1.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Offset converts a 1-based start into a Mongo skip.
func Offset(start int) int64 {
	if start < 1 {
		return 0
	}
	return int64(start - 1)
}

// Result holds the output of TrimPage.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims a slice fetched with LimitPlusOne. It modifies the slice
// in place and returns pagination indicators.
func TrimPage[T any](rows *[]T, start int) Result {
	res := Result{HasPrev: start > 1}
	if len(*rows) > PageSize {
		*rows = (*rows)[:PageSize]
		res.HasNext = true
	}
	return res
}

// Range is the "showing X-Y" window of a page plus the neighbouring starts.
// Start and End are zero when the page is empty.
type Range struct {
	Start     int
	End       int
	PrevStart int
	NextStart int
}

// ComputeRange derives the display window from start and the rows shown.
func ComputeRange(start, shown int) Range {
	if shown == 0 {
		return Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}
	}

	return Range{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: max(start-PageSize, 1),
		NextStart: start + shown,
	}
}
