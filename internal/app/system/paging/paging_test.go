package paging

import (
	"net/http/httptest"
	"testing"
)

func TestLimitPlusOne(t *testing.T) {
	want := int64(PageSize + 1)
	got := LimitPlusOne()
	if got != want {
		t.Errorf("LimitPlusOne() = %d, want %d", got, want)
	}
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?start=51", 51},
		{"?start=0", 1},
		{"?start=-4", 1},
		{"?start=abc", 1},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/admin/activity"+tt.query, nil)
		if got := ParseStart(r); got != tt.want {
			t.Errorf("ParseStart(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1); got != 0 {
		t.Errorf("Offset(1) = %d", got)
	}
	if got := Offset(51); got != 50 {
		t.Errorf("Offset(51) = %d", got)
	}
	if got := Offset(0); got != 0 {
		t.Errorf("Offset(0) = %d", got)
	}
}

func TestTrimPage(t *testing.T) {
	tests := []struct {
		name       string
		rows       []int
		start      int
		wantLen    int
		wantResult Result
	}{
		{"first page with no extra", []int{1, 2, 3}, 1, 3, Result{HasPrev: false, HasNext: false}},
		{"first page with extra (has next)", make([]int, PageSize+1), 1, PageSize, Result{HasPrev: false, HasNext: true}},
		{"later page with extra", make([]int, PageSize+1), PageSize + 1, PageSize, Result{HasPrev: true, HasNext: true}},
		{"last page", []int{1}, PageSize + 1, 1, Result{HasPrev: true, HasNext: false}},
		{"empty", nil, 1, 0, Result{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := tt.rows
			got := TrimPage(&rows, tt.start)
			if got != tt.wantResult {
				t.Errorf("TrimPage() = %+v, want %+v", got, tt.wantResult)
			}
			if len(rows) != tt.wantLen {
				t.Errorf("len(rows) = %d, want %d", len(rows), tt.wantLen)
			}
		})
	}
}

func TestComputeRange(t *testing.T) {
	tests := []struct {
		name  string
		start int
		shown int
		want  Range
	}{
		{"no results", 1, 0, Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}},
		{"first page full", 1, PageSize, Range{Start: 1, End: PageSize, PrevStart: 1, NextStart: PageSize + 1}},
		{"second page partial", PageSize + 1, 10, Range{Start: PageSize + 1, End: PageSize + 10, PrevStart: 1, NextStart: PageSize + 11}},
		{"third page", 2*PageSize + 1, PageSize, Range{Start: 2*PageSize + 1, End: 3 * PageSize, PrevStart: PageSize + 1, NextStart: 3*PageSize + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeRange(tt.start, tt.shown); got != tt.want {
				t.Errorf("ComputeRange(%d, %d) = %+v, want %+v", tt.start, tt.shown, got, tt.want)
			}
		})
	}
}
