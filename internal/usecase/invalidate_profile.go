package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"dojo-hub/internal/domain"
	"dojo-hub/metrics"
)

// Invalidation origins.
const (
	// OriginLocal is a profile write made through this service.
	OriginLocal = "local"
	// OriginInternal is a write reported by another service.
	OriginInternal = "internal"
	// OriginRemote is an invalidation received from another replica.
	OriginRemote = "remote"
)

// InvalidateProfile drops a user's cached profile and tells the other replicas.
type InvalidateProfile struct {
	cache       domain.ProfileCache
	broadcaster domain.InvalidationBroadcaster
	logger      *slog.Logger
}

// NewInvalidateProfile creates a new InvalidateProfile usecase. broadcaster may
// be nil on single-replica deployments.
func NewInvalidateProfile(c domain.ProfileCache, b domain.InvalidationBroadcaster, l *slog.Logger) *InvalidateProfile {
	return &InvalidateProfile{cache: c, broadcaster: b, logger: l}
}

// Execute invalidates userID locally and, unless the event came from another
// replica, publishes it. Publish failures are logged, not returned.
func (uc *InvalidateProfile) Execute(ctx context.Context, userID, origin string) error {
	if userID == "" {
		return fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}

	uc.cache.Invalidate(userID)
	metrics.RecordInvalidation(origin)

	if origin == OriginRemote || uc.broadcaster == nil {
		return nil
	}
	if err := uc.broadcaster.Publish(ctx, userID); err != nil {
		uc.logger.WarnContext(ctx, "failed to broadcast profile invalidation",
			"user_id", userID, "error", err)
	}
	return nil
}

// HandleRemote applies an invalidation received from another replica.
func (uc *InvalidateProfile) HandleRemote(userID string) {
	_ = uc.Execute(context.Background(), userID, OriginRemote)
}
