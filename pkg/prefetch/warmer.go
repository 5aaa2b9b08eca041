// Package prefetch provides parallel cache warming for dashboard
// resources. Warming the cache ahead of user traffic keeps dashboard
// page loads off the Voice Bot API's critical path.
package prefetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds cache warmer configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel fetches.
	MaxConcurrency int
	// Timeout per resource fetch.
	Timeout time.Duration
	// Resources lists the resource names to warm per business.
	// Defaults to all cacheable dashboard resources.
	Resources []string
}

// DefaultResources are the cacheable dashboard resources worth warming.
var DefaultResources = []string{
	"profile",
	"services",
	"hours",
	"prompts",
	"sms",
	"integrations",
	"staff",
}

// DefaultConfig returns safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
		Resources:      DefaultResources,
	}
}

// ResourceFetcher fetches a single dashboard resource for a business,
// populating the response cache as a side effect.
type ResourceFetcher interface {
	FetchResource(ctx context.Context, businessID, resource string) error
}

// Failure records a single resource fetch that did not complete.
type Failure struct {
	BusinessID string
	Resource   string
	Err        error
}

// Report summarizes a warm-up run.
type Report struct {
	Warmed   int
	Failed   int
	Failures []Failure
	Duration time.Duration
}

// Warmer fans resource fetches out across a worker pool.
type Warmer struct {
	fetcher ResourceFetcher
	config  Config
}

// NewWarmer creates a cache warmer. Zero config fields get defaults.
func NewWarmer(fetcher ResourceFetcher, config Config) *Warmer {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if len(config.Resources) == 0 {
		config.Resources = DefaultResources
	}

	return &Warmer{
		fetcher: fetcher,
		config:  config,
	}
}

type job struct {
	businessID string
	resource   string
}

// WarmAll fetches every configured resource for every business in
// parallel. Individual failures are collected, not fatal: a partial
// warm-up still saves upstream calls. The error is non-nil only when
// every fetch failed or the context was cancelled.
func (w *Warmer) WarmAll(ctx context.Context, businessIDs []string) (Report, error) {
	start := time.Now()
	total := len(businessIDs) * len(w.config.Resources)

	log.Info().
		Int("businesses", len(businessIDs)).
		Int("resources", len(w.config.Resources)).
		Int("total_fetches", total).
		Msg("Starting cache warm-up")

	jobs := make(chan job, total)
	results := make(chan Failure, total)

	go func() {
		defer close(jobs)
		for _, businessID := range businessIDs {
			for _, resource := range w.config.Resources {
				select {
				case jobs <- job{businessID: businessID, resource: resource}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.config.MaxConcurrency; i++ {
		wg.Add(1)
		go w.worker(ctx, jobs, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	report := Report{}
	for failure := range results {
		if failure.Err != nil {
			report.Failed++
			report.Failures = append(report.Failures, failure)
			continue
		}
		report.Warmed++
	}
	report.Duration = time.Since(start)

	log.Info().
		Int("warmed", report.Warmed).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("Cache warm-up complete")

	if ctx.Err() != nil {
		return report, fmt.Errorf("warm-up interrupted (%d/%d fetched): %w", report.Warmed, total, ctx.Err())
	}
	if total > 0 && report.Warmed == 0 {
		return report, fmt.Errorf("warm-up failed: all %d fetches errored", total)
	}

	return report, nil
}

// worker processes warm-up jobs from the queue. Each fetch gets its
// own timeout so one slow resource cannot stall the run.
func (w *Warmer) worker(ctx context.Context, jobs <-chan job, results chan<- Failure, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for j := range jobs {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Msg("Warm-up worker stopping (context cancelled)")
			return
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		err := w.fetcher.FetchResource(fetchCtx, j.businessID, j.resource)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Str("business_id", j.businessID).
				Str("resource", j.resource).
				Msg("Warm-up fetch failed")
		}

		select {
		case results <- Failure{BusinessID: j.businessID, Resource: j.resource, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}
