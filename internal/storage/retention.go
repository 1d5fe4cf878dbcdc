package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/pdfqa/internal/config"
	"github.com/hyperjump/pdfqa/pkg/utils"
)

// Janitor enforces the retention policy: documents older than the TTL are
// removed, and the oldest documents are evicted when the store holds more
// than MaxDocuments.
type Janitor struct {
	store    Storage
	ttl      time.Duration
	maxDocs  int
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// JanitorOption configures a Janitor.
type JanitorOption func(*Janitor)

// WithJanitorLogger sets the logger for sweep results.
func WithJanitorLogger(l *zap.Logger) JanitorOption {
	return func(j *Janitor) { j.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) JanitorOption {
	return func(j *Janitor) { j.now = now }
}

// NewJanitor returns a janitor for store using the retention settings in cfg.
func NewJanitor(store Storage, cfg *config.StorageConfig, opts ...JanitorOption) *Janitor {
	j := &Janitor{
		store:    store,
		ttl:      cfg.TTL,
		maxDocs:  cfg.MaxDocuments,
		interval: cfg.SweepInterval,
		now:      time.Now,
	}
	for _, o := range opts {
		o(j)
	}
	j.logger = utils.OrNop(j.logger)
	return j
}

// ExpiresAt returns the retention deadline for a document created at created,
// or the zero time when documents never expire.
func (j *Janitor) ExpiresAt(created time.Time) time.Time {
	if j.ttl <= 0 {
		return time.Time{}
	}
	return created.Add(j.ttl)
}

// Sweep applies the policy once and returns the number of documents removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	expired, err := j.store.DeleteExpired(ctx, j.now())
	if err != nil {
		return expired, err
	}
	evicted := 0
	if j.maxDocs > 0 {
		if evicted, err = j.store.EvictOldest(ctx, j.maxDocs); err != nil {
			return expired, err
		}
	}
	if expired+evicted > 0 {
		j.logger.Info("retention sweep", zap.Int("expired", expired), zap.Int("evicted", evicted))
	}
	return expired + evicted, nil
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		return
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
				j.logger.Warn("retention sweep failed", zap.Error(err))
			}
		}
	}
}
