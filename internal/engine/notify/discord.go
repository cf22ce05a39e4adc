package notify

import (
	"fmt"
	"strings"
	"time"
)

// Discord hard-caps field values at 1024 characters; staying at 1000 leaves
// headroom for the code-fence wrapper added around diffs.
const (
	discordFieldLimit     = 1000
	discordReasoningLimit = 180
	discordTitleLimit     = 200
	discordNameLimit      = 100

	colorOrange = 0xEA580C
	colorRed    = 0xEF4444
	colorGray   = 0x6B7280
	colorGreen  = 0x22C55E
)

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Footer    discordFooter  `json:"footer"`
	Timestamp string         `json:"timestamp"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func truncateLabel(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// BuildDiscordPayload reshapes an event into Discord's embeds/fields schema
// with the provider's truncation limits applied.
func BuildDiscordPayload(e *Event, appName string) interface{} {
	websiteField := discordField{
		Name:   "Website",
		Value:  fmt.Sprintf("[%s](%s)", truncateLabel(e.Website.Name, discordNameLimit), e.Website.URL),
		Inline: true,
	}

	if e.Kind == EventCrawlCompleted && e.Crawl != nil {
		return buildDiscordCrawlPayload(e, websiteField, appName)
	}

	changeStatus := e.ChangeStatus
	if changeStatus == "" {
		changeStatus = "changed"
	}

	fields := []discordField{
		websiteField,
		{Name: "Change Type", Value: changeStatus, Inline: true},
		{Name: "Detected At", Value: formatMillis(e.ScrapedAt), Inline: true},
	}

	if e.Title != "" {
		fields = append(fields, discordField{
			Name:  "Page Title",
			Value: truncateLabel(e.Title, discordTitleLimit),
		})
	}

	color := colorOrange
	if e.AI != nil {
		if e.AI.Meaningful {
			color = colorRed
		} else {
			color = colorGray
		}
		meaningful := "No"
		if e.AI.Meaningful {
			meaningful = "Yes"
		}
		fields = append(fields, discordField{
			Name: "AI Analysis",
			Value: fmt.Sprintf("Score: %d%% | Meaningful: %s\n%s",
				e.AI.Score, meaningful, truncate(e.AI.Reasoning, discordReasoningLimit)),
		})
	}

	// The summary fence eats ~20 characters of the field budget.
	summary := strings.TrimSpace(diffSummary(e.DiffText, discordFieldLimit-20))
	if summary == "" {
		summary = "No diff content available"
	}
	fields = append(fields, discordField{
		Name:  "Change Summary",
		Value: "```diff\n" + summary + "\n```",
	})

	return &discordPayload{
		Embeds: []discordEmbed{{
			Title:     "Change Detected: " + truncateLabel(e.Website.Name, discordTitleLimit),
			URL:       e.Website.URL,
			Color:     color,
			Fields:    fields,
			Footer:    discordFooter{Text: appName},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

func buildDiscordCrawlPayload(e *Event, websiteField discordField, appName string) interface{} {
	fields := []discordField{
		websiteField,
		{Name: "Pages Found", Value: fmt.Sprintf("%d", e.Crawl.PagesFound), Inline: true},
		{Name: "Started At", Value: formatMillis(e.Crawl.StartedAt), Inline: true},
	}

	if e.Crawl.CompletedAt != nil {
		fields = append(fields, discordField{
			Name:   "Duration",
			Value:  crawlDuration(e.Crawl),
			Inline: true,
		})
	}

	var stats []string
	if e.Crawl.PagesChanged > 0 {
		stats = append(stats, fmt.Sprintf("Changed: %d", e.Crawl.PagesChanged))
	}
	if e.Crawl.PagesAdded > 0 {
		stats = append(stats, fmt.Sprintf("Added: %d", e.Crawl.PagesAdded))
	}
	if e.Crawl.PagesRemoved > 0 {
		stats = append(stats, fmt.Sprintf("Removed: %d", e.Crawl.PagesRemoved))
	}
	if len(stats) > 0 {
		fields = append(fields, discordField{Name: "Changes", Value: strings.Join(stats, "\n")})
	}

	return &discordPayload{
		Embeds: []discordEmbed{{
			Title:     "Crawl Completed: " + truncateLabel(e.Website.Name, discordTitleLimit),
			URL:       e.Website.URL,
			Color:     colorGreen,
			Fields:    fields,
			Footer:    discordFooter{Text: appName},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
}
