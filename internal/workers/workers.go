package workers

import (
	"context"

	"github.com/rs/zerolog/log"
	"observer/internal/engine/keys"
	"observer/internal/platform/repositories"
)

// RefreshAllCredits walks every owner with at least one key and refreshes
// the cached credit balances. A failing owner is logged and skipped so the
// sweep always completes.
func RefreshAllCredits(ctx context.Context, repo *repositories.KeyRepository, tracker *keys.CreditTracker) error {
	owners, err := repo.ListOwners()
	if err != nil {
		return err
	}

	for _, owner := range owners {
		result, err := tracker.Refresh(ctx, owner, "")
		if err != nil {
			log.Error().Err(err).Str("owner_id", owner).Msg("credit refresh sweep failed for owner")
			continue
		}
		if !result.Succeeded {
			log.Warn().Str("owner_id", owner).Str("reason", result.Error).Msg("credit refresh returned no data")
			continue
		}
		log.Info().Str("owner_id", owner).Int64("remaining", result.TotalRemaining).Msg("credit refresh completed")
	}
	return nil
}
