package summary

import (
	"context"
	"errors"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/internal/events"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks"
	"github.com/hawthornlabs/salesdesk-backend/pkg/metrics"
)

// Counter is the count surface every classifier service exposes.
type Counter interface {
	Count(ctx context.Context, filter events.Filter) (int64, error)
}

// Result is the per-category candidate count for one filter set.
type Result struct {
	Counts map[tasks.Category]int64 `json:"counts"`
	Total  int64                    `json:"total"`
}

// Service rolls the five classifiers up into one dashboard count.
type Service interface {
	Summarize(ctx context.Context, filter events.Filter) (*Result, error)
}

type service struct {
	counters map[tasks.Category]Counter
	stats    *metrics.TaskMetrics
	now      func() time.Time
}

// NewService builds the summary service over the five classifier counters.
func NewService(purchases, carts, searches, repeatVisits, performance Counter, stats *metrics.TaskMetrics) (Service, error) {
	counters := map[tasks.Category]Counter{
		tasks.CategoryPurchase:    purchases,
		tasks.CategoryCart:        carts,
		tasks.CategorySearch:      searches,
		tasks.CategoryRepeatVisit: repeatVisits,
		tasks.CategoryPerformance: performance,
	}
	for category, counter := range counters {
		if counter == nil {
			return nil, errors.New("summary counter is required: " + string(category))
		}
	}
	return &service{
		counters: counters,
		stats:    stats,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Summarize counts candidates per category. Counts run sequentially in the
// fixed category order so a failure names the classifier that broke.
func (s *service) Summarize(ctx context.Context, filter events.Filter) (*Result, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	started := s.now()
	result := &Result{Counts: make(map[tasks.Category]int64, len(tasks.Categories))}
	for _, category := range tasks.Categories {
		total, err := s.counters[category].Count(ctx, filter)
		if err != nil {
			return nil, err
		}
		result.Counts[category] = total
		result.Total += total
	}
	s.stats.ObserveQuery("summary", s.now().Sub(started))
	return result, nil
}
