package keys

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"observer/internal/platform/config"
	"observer/internal/platform/models"
	"observer/internal/platform/repositories"
	"observer/internal/platform/secrets"
)

// RefreshResult mirrors what callers see from a credit refresh: the summed
// remaining credit across every key that answered, or an error string when
// none did.
type RefreshResult struct {
	Succeeded      bool   `json:"success"`
	TotalRemaining int64  `json:"remaining_tokens,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CreditTracker reconciles per-key remaining credit from the provider's
// credit-usage endpoint back into the key store.
type CreditTracker struct {
	repo     *repositories.KeyRepository
	cipher   *secrets.Cipher
	client   *http.Client
	endpoint string
}

func NewCreditTracker(repo *repositories.KeyRepository, cipher *secrets.Cipher, cfg config.FirecrawlConfig) *CreditTracker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CreditTracker{
		repo:     repo,
		cipher:   cipher,
		client:   &http.Client{Timeout: timeout},
		endpoint: cfg.CreditUsageURL,
	}
}

type creditUsageResponse struct {
	Data struct {
		RemainingCredits *int64 `json:"remaining_credits"`
	} `json:"data"`
}

// Refresh checks credit for one key (keyID set) or the whole pool (keyID
// empty). Each key is queried independently: a key that fails the network
// call or returns garbage is logged and skipped without touching its
// exhausted flag, and the refresh only counts as failed when no key answered.
func (t *CreditTracker) Refresh(ctx context.Context, ownerID, keyID string) (*RefreshResult, error) {
	var targets []*models.CredentialKey

	if keyID != "" {
		key, err := t.repo.GetByID(ownerID, keyID)
		if err != nil {
			return nil, err
		}
		if key != nil {
			targets = append(targets, key)
		}
	} else {
		all, err := t.repo.ListByOwner(ownerID)
		if err != nil {
			return nil, err
		}
		targets = all
	}

	if len(targets) == 0 {
		return &RefreshResult{Succeeded: false, Error: "no API keys found"}, nil
	}

	var totalRemaining int64
	anySuccess := false

	for _, key := range targets {
		remaining, err := t.fetchRemaining(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key_id", key.ID).Msg("credit usage check failed")
			continue
		}

		totalRemaining += remaining
		anySuccess = true

		if err := t.repo.SetCreditCache(key.ID, remaining, remaining <= 0); err != nil {
			return nil, err
		}
	}

	if !anySuccess {
		return &RefreshResult{Succeeded: false, Error: "failed to fetch credit usage for any key"}, nil
	}
	return &RefreshResult{Succeeded: true, TotalRemaining: totalRemaining}, nil
}

func (t *CreditTracker) fetchRemaining(ctx context.Context, key *models.CredentialKey) (int64, error) {
	secret, err := t.cipher.Decrypt(key.SecretEnc)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &statusError{status: resp.StatusCode}
	}

	var body creditUsageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}

	// A well-formed response without the field counts as zero: better to
	// mark the key exhausted than to keep issuing from a spent one.
	if body.Data.RemainingCredits == nil {
		return 0, nil
	}
	return *body.Data.RemainingCredits, nil
}

// ReportExhaustion is the fast path for a scrape call that hit a quota
// error: the key is benched immediately instead of waiting for the next
// scheduled credit check.
func (t *CreditTracker) ReportExhaustion(keyID string) error {
	log.Info().Str("key_id", keyID).Msg("key reported exhausted")
	return t.repo.SetExhausted(keyID, true)
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.status)
}
