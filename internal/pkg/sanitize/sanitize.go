package sanitize

import "github.com/microcosm-cc/bluemonday"

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Email templates lean on inline styles for layout, which UGCPolicy strips.
	p.AllowAttrs("style").Globally()
	p.AllowElements("style")
	return p
}

// HTML neutralizes script injection and event handlers in user-supplied
// markup before it is rendered into an outgoing email.
func HTML(raw string) string {
	return policy.Sanitize(raw)
}
