// Package sweep holds the periodic maintenance jobs of the listing service.
package sweep

import (
	"context"
	"fmt"
	"time"

	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/metrics"
)

const (
	ExpiryAge = 30 * 24 * time.Hour

	// Listings below ViewsFloor grow by FreshViewsMin..FreshViewsMax per run, never past the floor.
	ViewsFloor    = 100
	FreshViewsMin = 10
	FreshViewsMax = 20

	// Listings at the floor and older than MatureAge grow by MatureViewsMin..MatureViewsMax.
	MatureAge      = 7 * 24 * time.Hour
	MatureViewsMin = 1
	MatureViewsMax = 5
)

type ExpiryStore interface {
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpirySweeper moves for-sale listings older than ExpiryAge to expired.
type ExpirySweeper struct {
	store   ExpiryStore
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewExpirySweeper(store ExpiryStore, m *metrics.Metrics, log *logger.Logger) *ExpirySweeper {
	return &ExpirySweeper{store: store, now: time.Now, metrics: m, logger: log}
}

func (s *ExpirySweeper) Run(ctx context.Context) error {
	cutoff := s.now().Add(-ExpiryAge)
	n, err := s.store.ExpireOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to expire listings: %w", err)
	}
	s.metrics.Swept("expiry", n)
	if n > 0 {
		s.logger.Info("Expired %d listings created before %s", n, cutoff.Format(time.RFC3339))
	}
	return nil
}

// ViewRange bounds a random per-row increment.
type ViewRange struct {
	Min int
	Max int
}

type ViewsStore interface {
	GrowFreshViews(ctx context.Context, floor int, inc ViewRange) (int64, error)
	GrowMatureViews(ctx context.Context, createdBefore time.Time, floor int, inc ViewRange) (int64, error)
}

// ViewsGrower adds view counts to for-sale listings.
type ViewsGrower struct {
	store   ViewsStore
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewViewsGrower(store ViewsStore, m *metrics.Metrics, log *logger.Logger) *ViewsGrower {
	return &ViewsGrower{store: store, now: time.Now, metrics: m, logger: log}
}

// Run grows mature listings first so a listing reaching the floor in this run is not bumped twice.
func (g *ViewsGrower) Run(ctx context.Context) error {
	mature, err := g.store.GrowMatureViews(ctx, g.now().Add(-MatureAge), ViewsFloor, ViewRange{MatureViewsMin, MatureViewsMax})
	if err != nil {
		return fmt.Errorf("failed to grow mature views: %w", err)
	}
	fresh, err := g.store.GrowFreshViews(ctx, ViewsFloor, ViewRange{FreshViewsMin, FreshViewsMax})
	if err != nil {
		return fmt.Errorf("failed to grow views: %w", err)
	}

	g.metrics.Swept("views", mature+fresh)
	g.logger.Debug("Views grown on %d fresh and %d mature listings", fresh, mature)
	return nil
}
