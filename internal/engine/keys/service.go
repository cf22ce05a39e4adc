package keys

import (
	"fmt"
	"strings"

	"observer/internal/pkg/errors"
	"observer/internal/platform/models"
	"observer/internal/platform/repositories"
	"observer/internal/platform/secrets"
)

const (
	minSecretLength = 20
	secretPrefix    = "fc-"
)

// Service is the single choke point for mutating an owner's key pool. All
// secrets are encrypted before they reach the repository and only ever leave
// it masked, except through ActiveSecret for the scrape engine.
type Service struct {
	repo   *repositories.KeyRepository
	cipher *secrets.Cipher
}

func NewService(repo *repositories.KeyRepository, cipher *secrets.Cipher) *Service {
	return &Service{repo: repo, cipher: cipher}
}

// MaskSecret renders a secret as its first 8 and last 4 characters. Secrets
// too short to mask meaningfully come back as a fixed placeholder instead of
// leaking or panicking.
func MaskSecret(secret string) string {
	if len(secret) < 12 {
		return "********"
	}
	return secret[:8] + "..." + secret[len(secret)-4:]
}

func (s *Service) validateSecret(secret string) (string, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" || len(trimmed) < minSecretLength {
		return "", errors.NewValidation("invalid API key format")
	}
	if !strings.HasPrefix(trimmed, secretPrefix) {
		return "", errors.NewValidation("invalid Firecrawl API key format, keys should start with %q", secretPrefix)
	}
	return trimmed, nil
}

func (s *Service) List(ownerID string) ([]*models.CredentialKeyView, error) {
	records, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.CredentialKeyView, 0, len(records))
	for _, k := range records {
		secret, err := s.cipher.Decrypt(k.SecretEnc)
		if err != nil {
			return nil, err
		}
		views = append(views, &models.CredentialKeyView{
			ID:                k.ID,
			Label:             k.Label,
			Priority:          k.Priority,
			Exhausted:         k.Exhausted,
			RemainingCredit:   k.RemainingCredit,
			LastCreditCheckAt: k.LastCreditCheckAt,
			LastUsedAt:        k.LastUsedAt,
			CreatedAt:         k.CreatedAt,
			UpdatedAt:         k.UpdatedAt,
			MaskedSecret:      MaskSecret(secret),
		})
	}
	return views, nil
}

func (s *Service) Add(ownerID, secret, label string) (*models.CredentialKey, error) {
	trimmed, err := s.validateSecret(secret)
	if err != nil {
		return nil, err
	}

	enc, err := s.cipher.Encrypt(trimmed)
	if err != nil {
		return nil, err
	}

	if label == "" {
		existing, err := s.repo.ListByOwner(ownerID)
		if err != nil {
			return nil, err
		}
		label = fmt.Sprintf("Key %d", len(existing)+1)
	}

	key := &models.CredentialKey{
		OwnerID:   ownerID,
		SecretEnc: enc,
		Label:     label,
	}
	if err := s.repo.Create(key); err != nil {
		return nil, err
	}
	return key, nil
}

// SetLegacy supports the single-key API from before pools existed: it
// replaces the secret of the owner's first key, or creates a priority-0
// "Default Key" when the pool is empty. Preserved as-is, not extended.
func (s *Service) SetLegacy(ownerID, secret string) error {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" || len(trimmed) < minSecretLength {
		return errors.NewValidation("invalid API key format")
	}

	enc, err := s.cipher.Encrypt(trimmed)
	if err != nil {
		return err
	}

	records, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		return s.repo.UpdateSecret(records[0].ID, enc)
	}

	return s.repo.Create(&models.CredentialKey{
		OwnerID:   ownerID,
		SecretEnc: enc,
		Label:     "Default Key",
	})
}

func (s *Service) Remove(ownerID, id string) error {
	deleted, err := s.repo.Delete(ownerID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.NewNotFound("key")
	}
	return nil
}

// RemoveLowest is the legacy delete-without-id path. Deleting from an empty
// pool is a no-op, matching the original behavior.
func (s *Service) RemoveLowest(ownerID string) error {
	_, err := s.repo.DeleteLowest(ownerID)
	return err
}

func (s *Service) Reorder(ownerID, id string, newPriority int) error {
	if newPriority < 0 {
		return errors.NewValidation("priority must be non-negative")
	}
	moved, err := s.repo.Reorder(ownerID, id, newPriority)
	if err != nil {
		return err
	}
	if !moved {
		return errors.NewNotFound("key")
	}
	return nil
}

func (s *Service) Update(ownerID, id string, label *string, exhausted *bool) error {
	updated, err := s.repo.UpdateMeta(ownerID, id, label, exhausted)
	if err != nil {
		return err
	}
	if !updated {
		return errors.NewNotFound("key")
	}
	return nil
}

// ActiveSecret hands the scrape engine the best available plaintext secret
// and stamps the key as used. Returns ("", "", nil) when every key is
// exhausted or the pool is empty.
func (s *Service) ActiveSecret(ownerID string) (secret, keyID string, err error) {
	records, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		return "", "", err
	}

	active := SelectActive(records)
	if active == nil {
		return "", "", nil
	}

	plain, err := s.cipher.Decrypt(active.SecretEnc)
	if err != nil {
		return "", "", err
	}
	if err := s.repo.TouchUsed(active.ID); err != nil {
		return "", "", err
	}
	return plain, active.ID, nil
}
