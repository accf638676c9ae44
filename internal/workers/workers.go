package workers

import (
	"github.com/rs/zerolog/log"

	"tillpoint/internal/engine/pairing"
	"tillpoint/internal/platform/repositories"
)

// SweepExpiredPairings reclaims pending devices whose pairing window has
// passed. Redemption checks expiry on its own path, so this only keeps the
// devices table tidy.
func SweepExpiredPairings(registry *pairing.Registry) {
	n, err := registry.SweepExpired()
	if err != nil {
		log.Error().Err(err).Msg("pairing sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int64("reclaimed", n).Msg("swept expired pairing codes")
	}
}

// DisableFailingWebhooks pauses endpoints that have exhausted their retry
// budget so the dispatcher stops hammering dead URLs.
func DisableFailingWebhooks(repo *repositories.WebhookRepository, maxRetries int) {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	n, err := repo.DisableExceeded(maxRetries)
	if err != nil {
		log.Error().Err(err).Msg("webhook disable pass failed")
		return
	}
	if n > 0 {
		log.Warn().Int64("disabled", n).Msg("disabled webhooks past retry budget")
	}
}
