package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cruisemate/cruisemate/internal/models"
)

// TokenCleaner removes refresh tokens that can no longer be exchanged
type TokenCleaner struct {
	db     *gorm.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewTokenCleaner creates a cleaner for the refresh token table
func NewTokenCleaner(db *gorm.DB, logger zerolog.Logger) *TokenCleaner {
	return &TokenCleaner{
		db:     db,
		logger: logger.With().Str("component", "token_cleanup").Logger(),
		now:    time.Now,
	}
}

// Run deletes expired and revoked refresh tokens and returns how many were removed
func (c *TokenCleaner) Run(ctx context.Context) (int64, error) {
	now := c.now()
	result := c.db.WithContext(ctx).
		Where("expires_at <= ? OR revoked_at IS NOT NULL", now).
		Delete(&models.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete stale refresh tokens: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		c.logger.Info().Int64("deleted", result.RowsAffected).Msg("Removed stale refresh tokens")
	} else {
		c.logger.Debug().Msg("No stale refresh tokens")
	}
	return result.RowsAffected, nil
}

// StartTokenCleanup schedules the cleaner on a cron schedule such as "@hourly"
// or "0 * * * *". The caller stops the returned scheduler on shutdown.
func StartTokenCleanup(schedule string, cleaner *TokenCleaner) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := cleaner.Run(context.Background()); err != nil {
			cleaner.logger.Error().Err(err).Msg("Token cleanup failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	c.Start()
	cleaner.logger.Info().Str("schedule", schedule).Msg("Token cleanup scheduled")
	return c, nil
}
