package notify

import "strings"

// privateMarkers identifies destinations the dispatcher cannot reach
// directly. Matching is deliberately substring-based and matches the
// upstream behavior: "172." over-matches beyond 172.16/12, which is
// acceptable because relaying a public URL is harmless while calling a
// private one directly always fails.
var privateMarkers = []string{
	"localhost",
	"127.0.0.1",
	"0.0.0.0",
	"192.168.",
	"10.",
	"172.",
}

const discordWebhookMarker = "discord.com/api/webhooks"

// Route is the one-time classification of a webhook destination; formatting
// and sending dispatch on it rather than re-sniffing the URL.
type Route struct {
	Private bool
	Discord bool
}

func Classify(webhookURL string) Route {
	route := Route{
		Discord: strings.Contains(webhookURL, discordWebhookMarker),
	}
	for _, marker := range privateMarkers {
		if strings.Contains(webhookURL, marker) {
			route.Private = true
			break
		}
	}
	return route
}
