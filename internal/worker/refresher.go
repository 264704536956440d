// Package worker runs background maintenance for the address attribute
// catalog.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Cache is a catalog whose cached entries can be dropped.
type Cache interface {
	Invalidate()
	GetAllAttributes(ctx context.Context) ([]domain.AddressAttribute, error)
}

// Config holds refresher configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs
	WorkerID string

	// Interval is how often the cache is flushed and re-warmed
	Interval time.Duration

	// WarmTimeout bounds the catalog read after each flush
	WarmTimeout time.Duration
}

// Refresher periodically flushes the catalog cache and reloads the
// attribute list. It stands in for change notifications when none are
// configured.
type Refresher struct {
	config Config
	cache  Cache
	logger zerolog.Logger
}

// NewRefresher creates a new catalog cache refresher
func NewRefresher(cache Cache, config Config, logger zerolog.Logger) *Refresher {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("refresher-%s", uuid.New().String()[:8])
	}
	if config.Interval == 0 {
		config.Interval = 5 * time.Minute
	}
	if config.WarmTimeout == 0 {
		config.WarmTimeout = 10 * time.Second
	}

	return &Refresher{
		config: config,
		cache:  cache,
		logger: logger.With().Str("worker_id", config.WorkerID).Logger(),
	}
}

// Start refreshes on every tick until the context is cancelled. The cache
// is warmed once before the first tick.
func (r *Refresher) Start(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.config.Interval).Msg("catalog refresher starting")

	r.warm(ctx)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("catalog refresher shutting down")
			return ctx.Err()

		case <-ticker.C:
			r.cache.Invalidate()
			r.warm(ctx)
		}
	}
}

func (r *Refresher) warm(ctx context.Context) {
	warmCtx, cancel := context.WithTimeout(ctx, r.config.WarmTimeout)
	defer cancel()

	attrs, err := r.cache.GetAllAttributes(warmCtx)
	if err != nil {
		r.logger.Error().Err(err).Msg("catalog warm-up failed")
		return
	}
	r.logger.Debug().Int("attributes", len(attrs)).Msg("catalog cache warmed")
}
