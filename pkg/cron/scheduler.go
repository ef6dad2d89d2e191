// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
)

// CatalogConsumer receives a freshly loaded catalog.
type CatalogConsumer interface {
	Reload(catalog *categorization.Catalog) error
}

// CatalogConsumerFunc adapts a function to CatalogConsumer.
type CatalogConsumerFunc func(catalog *categorization.Catalog) error

func (f CatalogConsumerFunc) Reload(catalog *categorization.Catalog) error {
	return f(catalog)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	path      string
	schedule  string
	consumers []CatalogConsumer
	logger    *slog.Logger

	mu      sync.Mutex
	modTime time.Time
}

// NewScheduler creates a scheduler that reloads the catalog file at path on
// schedule (standard 5-field format) and hands it to every consumer.
func NewScheduler(path, schedule string, logger *slog.Logger, consumers ...CatalogConsumer) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		path:      path,
		schedule:  schedule,
		consumers: consumers,
		logger:    logger,
	}
}

// Start begins scheduled jobs. Without a catalog path there is nothing to
// reload and no job is registered.
func (s *Scheduler) Start() error {
	if s.path != "" {
		if _, err := s.cron.AddFunc(s.schedule, s.reloadJob); err != nil {
			return fmt.Errorf("invalid catalog reload schedule %q: %w", s.schedule, err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop halts the scheduler and returns a channel closed once running jobs
// have finished.
func (s *Scheduler) Stop() <-chan struct{} {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop().Done()
}

// RunNow triggers a catalog reload outside the schedule.
func (s *Scheduler) RunNow() {
	go s.reloadJob()
}

func (s *Scheduler) reloadJob() {
	if _, err := s.ReloadCatalog(); err != nil {
		s.logger.Error("failed to reload catalog",
			slog.String("path", s.path),
			slog.Any("error", err))
	}
}

// ReloadCatalog loads the catalog file when it changed since the last
// successful reload. It reports whether a new catalog was installed. When a
// consumer rejects the catalog the remaining consumers are still updated and
// the file is retried on the next run.
func (s *Scheduler) ReloadCatalog() (bool, error) {
	if s.path == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return false, fmt.Errorf("failed to stat catalog: %w", err)
	}
	if !s.modTime.IsZero() && !info.ModTime().After(s.modTime) {
		s.logger.Debug("catalog unchanged", slog.String("path", s.path))
		return false, nil
	}

	catalog, err := categorization.LoadCatalogFile(s.path)
	if err != nil {
		return false, err
	}

	var errs []error
	for _, c := range s.consumers {
		if err := c.Reload(catalog); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return false, err
	}

	s.modTime = info.ModTime()
	s.logger.Info("catalog reloaded",
		slog.String("path", s.path),
		slog.Int("providers", len(catalog.Providers)),
		slog.Int("consumers", len(s.consumers)))
	return true, nil
}
