package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"observer/internal/pkg/errors"
	"observer/internal/platform/config"
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Client talks to the Resend-style email HTTP API. It is constructed once
// and injected into whatever needs to send mail; there is no package-level
// instance.
type Client struct {
	apiKey  string
	baseURL string
	from    string
	http    *http.Client
}

func NewClient(cfg config.EmailConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		from:    fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// From returns the configured sender identity ("Name <address>").
func (c *Client) From() string {
	return c.from
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.TransportError{Provider: "email", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &errors.ProviderError{Provider: "email", Status: resp.StatusCode, Body: string(text)}
	}
	return nil
}
