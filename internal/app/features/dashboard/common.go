// internal/app/features/dashboard/common.go
package dashboard

import "github.com/dalemusser/neurohub/internal/app/system/viewdata"

// totals are the summary cards across every kind.
type totals struct {
	Records   int
	Published int
	Drafts    int
	Featured  int
	Downloads int
	Views     int
}

// kindSummary is one row of the per-kind table, linking to the kind's tab.
type kindSummary struct {
	Label        string
	Href         string
	HasAnalytics bool
	totals
}

type recentRow struct {
	Type    string
	Title   string
	Status  string
	Updated string
	EditURL string
}

type dashboardData struct {
	viewdata.BaseVM

	Totals totals
	Kinds  []kindSummary
	Recent []recentRow

	LoadError *viewdata.LoadError
}
