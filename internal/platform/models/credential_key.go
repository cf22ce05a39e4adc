package models

// CredentialKey is one scraping API key in an owner's pool. SecretEnc holds
// the AES-GCM encrypted secret and never crosses the JSON boundary; read
// paths expose MaskedSecret instead.
type CredentialKey struct {
	ID                string `json:"id"`
	OwnerID           string `json:"owner_id"`
	SecretEnc         string `json:"-"`
	Label             string `json:"label"`
	Priority          int    `json:"priority"`
	Exhausted         bool   `json:"is_exhausted"`
	RemainingCredit   *int64 `json:"remaining_credits,omitempty"`
	LastCreditCheckAt *int64 `json:"last_credit_check,omitempty"`
	LastUsedAt        *int64 `json:"last_used,omitempty"`
	CreatedAt         int64  `json:"created_at"`
	UpdatedAt         int64  `json:"updated_at"`
}

// CredentialKeyView is the read-path shape returned to API callers.
type CredentialKeyView struct {
	ID                string `json:"id"`
	Label             string `json:"name"`
	Priority          int    `json:"priority"`
	Exhausted         bool   `json:"is_exhausted"`
	RemainingCredit   *int64 `json:"remaining_credits,omitempty"`
	LastCreditCheckAt *int64 `json:"last_credit_check,omitempty"`
	LastUsedAt        *int64 `json:"last_used,omitempty"`
	CreatedAt         int64  `json:"created_at"`
	UpdatedAt         int64  `json:"updated_at"`
	MaskedSecret      string `json:"masked_key"`
}
