package maintenance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inviteforge/inviteforge/internal/cache"
	"github.com/inviteforge/inviteforge/pkg/logger"
)

const (
	defaultCacheSpec = "@hourly"
	defaultSweepSpec = "@daily"

	// staleTempAge is how old an abandoned temp upload must be before the
	// sweeper removes it. Fresh temp files may belong to an in-flight write.
	staleTempAge = time.Hour
)

// Cleaner runs background maintenance: pruning expired cache entries (which
// also retires stale rate-limit counters) and sweeping abandoned temp files
// out of the image storage directory.
type Cleaner struct {
	cache      *cache.DatabaseStore
	storageDir string
	cron       *cron.Cron
	now        func() time.Time
	log        *zap.Logger

	cacheSchedule string
	sweepSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithCacheSchedule overrides the cron specification for cache pruning.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// WithSweepSchedule overrides the cron specification for the temp file sweep.
func WithSweepSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sweepSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil cache store or empty storage
// directory disables the corresponding job.
func NewCleaner(cacheStore *cache.DatabaseStore, storageDir string, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		cache:         cacheStore,
		storageDir:    storageDir,
		now:           time.Now,
		cacheSchedule: defaultCacheSpec,
		sweepSchedule: defaultSweepSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the maintenance jobs and launches the scheduler if at least
// one job is enabled.
func (c *Cleaner) Start() error {
	enabled := false

	if c.cache != nil {
		if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
			if _, err := c.pruneCache(context.Background()); err != nil {
				c.log.Warn("cache prune failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
		enabled = true
	}

	if c.storageDir != "" {
		if _, err := c.cron.AddFunc(c.sweepSchedule, func() {
			if _, err := c.sweepTempFiles(); err != nil {
				c.log.Warn("temp file sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
		enabled = true
	}

	if enabled {
		c.cron.Start()
	}
	return nil
}

// Stop halts the scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured maintenance jobs sequentially. Used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.cache != nil {
		if _, err := c.pruneCache(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.storageDir != "" {
		if _, err := c.sweepTempFiles(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (c *Cleaner) pruneCache(ctx context.Context) (int64, error) {
	removed, err := c.cache.PruneExpired(ctx, c.now())
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	if removed > 0 {
		c.log.Info("expired cache entries pruned", zap.Int64("removed", removed))
	}
	return removed, nil
}

// sweepTempFiles removes temp upload files that a crashed write left behind.
func (c *Cleaner) sweepTempFiles() (int, error) {
	entries, err := os.ReadDir(c.storageDir)
	if err != nil {
		return 0, fmt.Errorf("sweep temp files: %w", err)
	}

	cutoff := c.now().Add(-staleTempAge)
	removed := 0
	var errs error

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), ".upload-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			errs = multierr.Append(errs, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(c.storageDir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierr.Append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		c.log.Info("stale temp files swept", zap.Int("removed", removed))
	}
	return removed, errs
}
