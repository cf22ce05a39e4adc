package keys

import (
	"sort"

	"observer/internal/platform/models"
)

// SelectActive picks the key that should back the next scrape: the
// non-exhausted key with the lowest priority, or nil when the pool is empty
// or fully exhausted. Equal priorities cannot survive a completed mutation,
// but if they ever appear the oldest key wins.
//
// This is an advisory read. Nothing is locked or reserved; concurrent
// callers may receive the same key, and exhaustion is detected after the
// fact by the credit tracker.
func SelectActive(records []*models.CredentialKey) *models.CredentialKey {
	available := make([]*models.CredentialKey, 0, len(records))
	for _, k := range records {
		if !k.Exhausted {
			available = append(available, k)
		}
	}
	if len(available) == 0 {
		return nil
	}

	sort.SliceStable(available, func(i, j int) bool {
		if available[i].Priority != available[j].Priority {
			return available[i].Priority < available[j].Priority
		}
		return available[i].CreatedAt < available[j].CreatedAt
	})

	return available[0]
}
