package notify

import (
	"fmt"
	"strings"
	"time"
)

const (
	summaryLimit  = 200
	markdownLimit = 1000
)

type payloadWebsite struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

type payloadDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

type payloadChange struct {
	DetectedAt   string       `json:"detectedAt"`
	ChangeType   string       `json:"changeType"`
	ChangeStatus string       `json:"changeStatus"`
	Summary      string       `json:"summary"`
	Diff         *payloadDiff `json:"diff,omitempty"`
}

type payloadScrapeResult struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Markdown    string `json:"markdown"`
}

type payloadAI struct {
	MeaningfulChangeScore int    `json:"meaningfulChangeScore"`
	IsMeaningfulChange    bool   `json:"isMeaningfulChange"`
	Reasoning             string `json:"reasoning"`
	AnalyzedAt            string `json:"analyzedAt"`
	Model                 string `json:"model"`
}

type payloadCrawl struct {
	SessionID   string `json:"sessionId"`
	StartedAt   string `json:"startedAt"`
	CompletedAt string `json:"completedAt,omitempty"`
	PagesFound  int    `json:"pagesFound"`
	Duration    string `json:"duration,omitempty"`
}

type webhookPayload struct {
	Event        string               `json:"event"`
	Timestamp    string               `json:"timestamp"`
	Website      payloadWebsite       `json:"website"`
	Change       *payloadChange       `json:"change,omitempty"`
	ScrapeResult *payloadScrapeResult `json:"scrapeResult,omitempty"`
	AIAnalysis   *payloadAI           `json:"aiAnalysis,omitempty"`
	CrawlSummary *payloadCrawl        `json:"crawlSummary,omitempty"`
	Note         string               `json:"note,omitempty"`
}

// truncate cuts s to limit characters, appending "..." when anything was
// dropped.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func diffSummary(diffText string, limit int) string {
	if diffText == "" {
		return "Website content has changed"
	}
	return truncate(diffText, limit)
}

// diffLines splits unified-diff text into added and removed lines, dropping
// the +++/--- file headers.
func diffLines(diffText string) *payloadDiff {
	if diffText == "" {
		return nil
	}
	diff := &payloadDiff{Added: []string{}, Removed: []string{}}
	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			diff.Added = append(diff.Added, line[1:])
		case strings.HasPrefix(line, "-"):
			diff.Removed = append(diff.Removed, line[1:])
		}
	}
	return diff
}

func buildAI(a *Analysis) *payloadAI {
	if a == nil {
		return nil
	}
	return &payloadAI{
		MeaningfulChangeScore: a.Score,
		IsMeaningfulChange:    a.Meaningful,
		Reasoning:             a.Reasoning,
		AnalyzedAt:            isoMillis(a.AnalyzedAt),
		Model:                 a.Model,
	}
}

// BuildPayload assembles the provider-neutral JSON body for a generic
// webhook target.
func BuildPayload(e *Event) interface{} {
	payload := &webhookPayload{
		Event:     e.Kind,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Website: payloadWebsite{
			ID:   e.Website.ID,
			Name: e.Website.Name,
			URL:  e.Website.URL,
		},
	}

	if e.Kind == EventCrawlCompleted && e.Crawl != nil {
		payload.Website.Type = "full_site"
		crawl := &payloadCrawl{
			SessionID:  e.Crawl.SessionID,
			StartedAt:  isoMillis(e.Crawl.StartedAt),
			PagesFound: e.Crawl.PagesFound,
		}
		if e.Crawl.CompletedAt != nil {
			crawl.CompletedAt = isoMillis(*e.Crawl.CompletedAt)
			crawl.Duration = crawlDuration(e.Crawl)
		}
		payload.CrawlSummary = crawl
		payload.Note = "Individual page changes trigger separate notifications with detailed diffs"
		return payload
	}

	payload.Change = &payloadChange{
		DetectedAt:   isoMillis(e.ScrapedAt),
		ChangeType:   e.ChangeType,
		ChangeStatus: e.ChangeStatus,
		Summary:      diffSummary(e.DiffText, summaryLimit),
		Diff:         diffLines(e.DiffText),
	}
	payload.ScrapeResult = &payloadScrapeResult{
		ID:          e.ScrapeResultID,
		Title:       e.Title,
		Description: e.Description,
		Markdown:    truncate(e.Markdown, markdownLimit),
	}
	payload.AIAnalysis = buildAI(e.AI)
	return payload
}

func crawlDuration(c *CrawlSummary) string {
	if c.CompletedAt == nil {
		return ""
	}
	seconds := (*c.CompletedAt - c.StartedAt + 500) / 1000
	return fmt.Sprintf("%ds", seconds)
}
