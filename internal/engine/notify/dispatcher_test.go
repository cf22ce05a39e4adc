package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "observer/internal/pkg/errors"
	"observer/internal/platform/config"
)

func newTestDispatcher(relayURL string) *Dispatcher {
	return NewDispatcher(config.NotifyConfig{
		RelayURL:  relayURL,
		UserAgent: "Observer/1.0",
		AppName:   "Observer",
		AppURL:    "https://app.example.com",
	}, nil)
}

// Test servers bind to 127.0.0.1, which the private-network markers match, so
// the direct path is exercised through sendDirect rather than SendWebhook.
func TestDispatcher_SendDirect(t *testing.T) {
	var gotUserAgent, gotContentType string
	var gotBody webhookPayload
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	d := newTestDispatcher("")

	result, err := d.sendDirect(context.Background(), target.URL, BuildPayload(changeEvent()))
	if err != nil {
		t.Fatalf("sendDirect failed: %v", err)
	}
	if !result.Success || result.Status != http.StatusOK {
		t.Errorf("Unexpected result %+v", result)
	}
	if gotUserAgent != "Observer/1.0" {
		t.Errorf("Expected configured user agent, got %q", gotUserAgent)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}
	if gotBody.Event != EventWebsiteChanged {
		t.Errorf("Expected the generic payload, got event %q", gotBody.Event)
	}
}

func TestDispatcher_SendWebhookPrivateGoesThroughRelay(t *testing.T) {
	targetHit := false
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		targetHit = true
	}))
	defer target.Close()

	var gotRelay struct {
		TargetURL string          `json:"targetUrl"`
		Payload   json.RawMessage `json:"payload"`
	}
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotRelay)
		json.NewEncoder(w).Encode(relayResponse{Success: true, Status: 204})
	}))
	defer relay.Close()

	d := newTestDispatcher(relay.URL)

	privateURL := "http://192.168.1.5/hook"
	result, err := d.SendWebhook(context.Background(), privateURL, changeEvent())
	if err != nil {
		t.Fatalf("SendWebhook failed: %v", err)
	}
	if !result.Success || result.Status != 204 {
		t.Errorf("Expected the relay's reported outcome, got %+v", result)
	}
	if targetHit {
		t.Error("Expected the private target never to be called directly")
	}
	if gotRelay.TargetURL != privateURL {
		t.Errorf("Expected relay to receive the target URL, got %q", gotRelay.TargetURL)
	}
	if len(gotRelay.Payload) == 0 {
		t.Error("Expected relay to receive the built payload")
	}
}

func TestDispatcher_SendDirectProviderError(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such hook", http.StatusNotFound)
	}))
	defer target.Close()

	d := newTestDispatcher("")

	_, err := d.sendDirect(context.Background(), target.URL, BuildPayload(changeEvent()))
	var pe *pkgerrors.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if pe.Status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", pe.Status)
	}
}

func TestDispatcher_SendDirectTransportError(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target.Close()

	d := newTestDispatcher("")

	_, err := d.sendDirect(context.Background(), target.URL, BuildPayload(changeEvent()))
	var te *pkgerrors.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
}

func TestDispatcher_RelayFailurePropagates(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay unavailable", http.StatusBadGateway)
	}))
	defer relay.Close()

	d := newTestDispatcher(relay.URL)

	_, err := d.SendWebhook(context.Background(), "http://10.0.0.1/hook", changeEvent())
	var pe *pkgerrors.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if pe.Status != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", pe.Status)
	}
}

func TestDispatcher_SendWebhookDiscordShape(t *testing.T) {
	var gotBody discordPayload
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
	}))
	defer target.Close()

	d := newTestDispatcher("")

	payload := BuildDiscordPayload(changeEvent(), "Observer")
	if _, err := d.sendDirect(context.Background(), target.URL, payload); err != nil {
		t.Fatalf("sendDirect failed: %v", err)
	}
	if len(gotBody.Embeds) != 1 {
		t.Fatal("Expected the embed-shaped payload on the wire")
	}
}
