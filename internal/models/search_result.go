package models

import "time"

// DRM is the rights-management state of a book offer.
// The zero value means the store did not report anything.
type DRM int

const (
	DRMUnlocked DRM = 1
	DRMLocked   DRM = 2
	DRMUnknown  DRM = 3
)

func (d DRM) String() string {
	switch d {
	case DRMUnlocked:
		return "unlocked"
	case DRMLocked:
		return "locked"
	case DRMUnknown:
		return "unknown"
	}
	return ""
}

// ParseDRM is the inverse of String. Unrecognised text maps to the zero value.
func ParseDRM(s string) DRM {
	switch s {
	case "unlocked":
		return DRMUnlocked
	case "locked":
		return DRMLocked
	case "unknown":
		return DRMUnknown
	}
	return 0
}

// TitlePending marks a placeholder result whose details have not been fetched yet.
const TitlePending = "..."

// Result statuses used by the results table.
const (
	StatusNeedsDetails  = "needs_details"
	StatusIncomplete    = "incomplete"
	StatusComplete      = "complete"
	StatusDetailsFailed = "details_failed"
)

// SearchResult holds everything a store knows about one book offer.
type SearchResult struct {
	ID         int64     `json:"id,omitempty" db:"id"`
	Store      string    `json:"store" db:"store"`
	DetailItem string    `json:"detail_item" db:"detail_item"`
	Title      string    `json:"title" db:"title"`
	Author     string    `json:"author,omitempty" db:"author"`
	Price      string    `json:"price,omitempty" db:"price"`
	CoverURL   string    `json:"cover_url,omitempty" db:"cover_url"`
	Formats    string    `json:"formats,omitempty" db:"formats"`
	DRM        DRM       `json:"drm,omitempty" db:"drm"`
	Status     string    `json:"status,omitempty" db:"status"`
	ScrapedAt  time.Time `json:"scraped_at,omitempty" db:"scraped_at"`

	// DRMText is the raw DRM description a parser found on the page.
	// Normalisation turns it into DRM.
	DRMText string `json:"-" db:"-"`
}

// ResultFilters holds all possible query parameters for filtering stored results.
type ResultFilters struct {
	Store    string
	Status   string
	Title    string
	MaxPrice float64
	// For Pagination
	Limit  int
	Offset int
}
