package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"observer/internal/pkg/errors"
	"observer/internal/platform/config"
	"observer/internal/platform/email"
)

// Result reports the outcome of one delivery attempt. There are no retries
// here: a failed delivery surfaces to the invoking scheduler, which owns
// retry policy.
type Result struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// Dispatcher fans one event out to a webhook, Discord, or email destination.
// Each delivery is a single attempt: build, route, send.
type Dispatcher struct {
	client    *http.Client
	email     *email.Client
	relayURL  string
	userAgent string
	appName   string
	appURL    string
}

func NewDispatcher(cfg config.NotifyConfig, emailClient *email.Client) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		client:    &http.Client{Timeout: timeout},
		email:     emailClient,
		relayURL:  cfg.RelayURL,
		userAgent: cfg.UserAgent,
		appName:   cfg.AppName,
		appURL:    cfg.AppURL,
	}
}

// SendWebhook delivers the event to webhookURL. Private-network destinations
// go through the relay endpoint, since this process may not be able to reach
// them directly; Discord destinations are reshaped to the embed schema. The
// returned error is always typed (provider vs transport) and already logged,
// never swallowed.
func (d *Dispatcher) SendWebhook(ctx context.Context, webhookURL string, e *Event) (*Result, error) {
	route := Classify(webhookURL)

	var payload interface{}
	if route.Discord {
		payload = BuildDiscordPayload(e, d.appName)
	} else {
		payload = BuildPayload(e)
	}

	var result *Result
	var err error
	if route.Private {
		result, err = d.sendViaRelay(ctx, webhookURL, payload)
	} else {
		result, err = d.sendDirect(ctx, webhookURL, payload)
	}

	if err != nil {
		log.Error().Err(err).Str("url", webhookURL).Str("event", e.Kind).Msg("webhook delivery failed")
		return nil, err
	}
	log.Info().Str("url", webhookURL).Str("event", e.Kind).Int("status", result.Status).Msg("webhook delivered")
	return result, nil
}

func (d *Dispatcher) sendDirect(ctx context.Context, webhookURL string, payload interface{}) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, &errors.TransportError{Provider: "webhook", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &errors.TransportError{Provider: "webhook", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &errors.ProviderError{Provider: "webhook", Status: resp.StatusCode, Body: string(text)}
	}

	return &Result{Success: true, Status: resp.StatusCode}, nil
}

type relayRequest struct {
	TargetURL string      `json:"targetUrl"`
	Payload   interface{} `json:"payload"`
}

type relayResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// sendViaRelay wraps the payload for the internal forwarding endpoint, which
// performs the actual call from a network position that can reach private
// addresses.
func (d *Dispatcher) sendViaRelay(ctx context.Context, targetURL string, payload interface{}) (*Result, error) {
	body, err := json.Marshal(relayRequest{TargetURL: targetURL, Payload: payload})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.relayURL, bytes.NewReader(body))
	if err != nil {
		return nil, &errors.TransportError{Provider: "webhook relay", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &errors.TransportError{Provider: "webhook relay", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &errors.ProviderError{Provider: "webhook relay", Status: resp.StatusCode, Body: string(text)}
	}

	var relayed relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&relayed); err != nil {
		return nil, &errors.ProviderError{Provider: "webhook relay", Status: resp.StatusCode, Body: "malformed relay response"}
	}

	return &Result{Success: relayed.Success, Status: relayed.Status}, nil
}
