package notify

import "time"

const (
	EventWebsiteChanged = "website_changed"
	EventCrawlCompleted = "crawl_completed"
)

type Website struct {
	ID   string
	Name string
	URL  string
}

// Analysis is the optional AI annotation attached by the change analyzer.
type Analysis struct {
	Score      int
	Meaningful bool
	Reasoning  string
	AnalyzedAt int64
	Model      string
}

// CrawlSummary describes a completed full-site crawl session.
type CrawlSummary struct {
	SessionID    string
	StartedAt    int64
	CompletedAt  *int64
	PagesFound   int
	PagesChanged int
	PagesAdded   int
	PagesRemoved int
}

// Event is a single change-detected or crawl-completed occurrence. It is
// transient: constructed by the caller, consumed by one delivery attempt,
// never persisted. Timestamps are epoch milliseconds.
type Event struct {
	Kind           string
	Website        Website
	ScrapeResultID string
	ChangeType     string
	ChangeStatus   string
	DiffText       string
	Title          string
	Description    string
	Markdown       string
	ScrapedAt      int64
	AI             *Analysis
	Crawl          *CrawlSummary
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("Jan 2, 2006 15:04 MST")
}

func isoMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
