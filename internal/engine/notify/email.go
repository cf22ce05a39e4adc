package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"observer/internal/pkg/sanitize"
	"observer/internal/platform/email"
)

// SendEmail renders the event into HTML and hands it to the email
// collaborator. A non-empty customTemplate is placeholder-substituted and
// sanitized; an unusable one falls back to the built-in template. Provider
// failures propagate to the caller after logging.
func (d *Dispatcher) SendEmail(ctx context.Context, to, customTemplate string, e *Event) error {
	html := d.renderEmail(customTemplate, e)

	msg := email.Message{
		From:    d.email.From(),
		To:      to,
		Subject: "Changes detected on " + e.Website.Name,
		HTML:    html,
	}

	if err := d.email.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("to", to).Str("website", e.Website.Name).Msg("email delivery failed")
		return err
	}
	log.Info().Str("to", to).Str("website", e.Website.Name).Msg("email notification sent")
	return nil
}

// SendTestEmail verifies the email configuration end to end.
func (d *Dispatcher) SendTestEmail(ctx context.Context, to string) error {
	msg := email.Message{
		From:    d.email.From(),
		To:      to,
		Subject: fmt.Sprintf("Test Email from %s", d.appName),
		HTML: fmt.Sprintf(`<h2>Email Configuration Working!</h2>
<p>This is a test email from %s.</p>
<p>If you received this, your email notifications are properly configured.</p>`, d.appName),
	}

	if err := d.email.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("to", to).Msg("test email failed")
		return err
	}
	return nil
}

func (d *Dispatcher) renderEmail(customTemplate string, e *Event) string {
	if customTemplate != "" {
		rendered := sanitize.HTML(applyTemplate(customTemplate, e, d.appURL))
		if strings.TrimSpace(rendered) != "" {
			return rendered
		}
		log.Warn().Str("website", e.Website.Name).Msg("custom email template rendered empty, using default")
	}
	return defaultTemplate(e, d.appURL)
}

// applyTemplate substitutes the documented {{placeholder}} variables into a
// user-supplied template. Unknown placeholders are left untouched.
func applyTemplate(tmpl string, e *Event, appURL string) string {
	aiScore, aiMeaningful, aiReasoning, aiModel, aiAnalyzedAt := "N/A", "No", "N/A", "N/A", "N/A"
	if e.AI != nil {
		aiScore = fmt.Sprintf("%d", e.AI.Score)
		if e.AI.Meaningful {
			aiMeaningful = "Yes"
		}
		aiReasoning = e.AI.Reasoning
		aiModel = e.AI.Model
		aiAnalyzedAt = formatMillis(e.AI.AnalyzedAt)
	}

	pageTitle := e.Title
	if pageTitle == "" {
		pageTitle = "N/A"
	}

	replacer := strings.NewReplacer(
		"{{websiteName}}", e.Website.Name,
		"{{websiteUrl}}", e.Website.URL,
		"{{changeDate}}", formatMillis(e.ScrapedAt),
		"{{changeType}}", e.ChangeStatus,
		"{{pageTitle}}", pageTitle,
		"{{viewChangesUrl}}", appURL,
		"{{aiMeaningfulScore}}", aiScore,
		"{{aiIsMeaningful}}", aiMeaningful,
		"{{aiReasoning}}", aiReasoning,
		"{{aiModel}}", aiModel,
		"{{aiAnalyzedAt}}", aiAnalyzedAt,
	)
	return replacer.Replace(tmpl)
}

func defaultTemplate(e *Event, appURL string) string {
	var b strings.Builder

	b.WriteString("<h2>Website Change Alert</h2>\n")
	b.WriteString("<p>We've detected changes on the website you're monitoring:</p>\n")
	b.WriteString(`<div style="background: #f5f5f5; padding: 15px; border-radius: 8px; margin: 20px 0;">` + "\n")
	fmt.Fprintf(&b, "<h3>%s</h3>\n", e.Website.Name)
	fmt.Fprintf(&b, `<p><a href="%s">%s</a></p>`+"\n", e.Website.URL, e.Website.URL)
	fmt.Fprintf(&b, "<p><strong>Changed at:</strong> %s</p>\n", formatMillis(e.ScrapedAt))
	if e.Title != "" {
		fmt.Fprintf(&b, "<p><strong>Page Title:</strong> %s</p>\n", e.Title)
	}
	if e.AI != nil {
		meaningful := "No"
		if e.AI.Meaningful {
			meaningful = "Yes"
		}
		b.WriteString(`<div style="background: #e8f4f8; border-left: 4px solid #2196F3; padding: 12px; margin: 15px 0;">` + "\n")
		b.WriteString("<h4>AI Analysis</h4>\n")
		fmt.Fprintf(&b, "<p><strong>Meaningful Change:</strong> %s (%d%% score)</p>\n", meaningful, e.AI.Score)
		fmt.Fprintf(&b, "<p><strong>Reasoning:</strong> %s</p>\n", e.AI.Reasoning)
		fmt.Fprintf(&b, "<p>Analyzed by %s at %s</p>\n", e.AI.Model, formatMillis(e.AI.AnalyzedAt))
		b.WriteString("</div>\n")
	}
	b.WriteString("</div>\n")
	fmt.Fprintf(&b, `<p><a href="%s" style="background: #ff6600; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View Changes</a></p>`, appURL)

	return b.String()
}
