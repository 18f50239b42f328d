package dashboard

import (
	"time"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/domain/identity"
)

// ViewInput is a grid view request. With Wait false an uncached fetch is
// awaited only briefly; if it has not finished the view reports loading and
// the fetch completes in the background.
type ViewInput struct {
	State grid.State
	Wait  bool
}

// PageMeta identifies the page a view belongs to
type PageMeta struct {
	ID      string        `json:"id"`
	Portal  identity.Role `json:"portal"`
	Title   string        `json:"title"`
	Section string        `json:"section,omitempty"`
}

// PageView is a rendered grid plus page metadata
type PageView struct {
	Page      PageMeta   `json:"page"`
	Grid      grid.View  `json:"grid"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Cached    bool       `json:"cached"`
}

// ExportResult is a finished export file
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// pageData is what gets cached per session and page: the rows after
// aggregation and the decimal strings of remote KPI values by KPI index.
type pageData struct {
	Rows      []grid.Row     `json:"rows"`
	Remote    map[int]string `json:"remote,omitempty"`
	Skipped   int            `json:"skipped,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}
