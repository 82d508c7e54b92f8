// Package pool keeps a periodically refreshed snapshot of the SmilePool state
// and decides whether a claim may be offered.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/metrics"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// StatsSource reads the pool's aggregate state
type StatsSource interface {
	PoolStats(ctx context.Context) (models.PoolStats, error)
}

// Reader manages the periodic refresh of the pool snapshot
type Reader struct {
	source   StatsSource
	pool     common.Address
	interval time.Duration
	snapshot atomic.Pointer[models.PoolSnapshot]
	lastErr  atomic.Pointer[error]
	now      func() time.Time
	stopChan chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	running  bool
	logger   logger.Logger
}

// NewReader creates a new pool reader
func NewReader(source StatsSource, pool common.Address, interval time.Duration, log logger.Logger) *Reader {
	return &Reader{
		source:   source,
		pool:     pool,
		interval: interval,
		now:      time.Now,
		logger:   log,
	}
}

// Start begins the periodic refresh. The first refresh runs immediately.
func (r *Reader) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}

	r.stopChan = make(chan struct{})
	r.done = make(chan struct{})
	r.running = true

	go r.run(ctx, r.stopChan, r.done)
}

// Stop halts the periodic refresh and waits for the in-flight read to finish
func (r *Reader) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	close(r.stopChan)
	done := r.done
	r.stopChan = nil
	r.running = false
	r.mu.Unlock()

	<-done
}

// IsRunning returns whether the routine is currently running
func (r *Reader) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reader) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-runCtx.Done():
		}
	}()

	r.refreshLogged(runCtx)

	for {
		select {
		case <-ticker.C:
			r.refreshLogged(runCtx)
		case <-runCtx.Done():
			return
		}
	}
}

func (r *Reader) refreshLogged(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
		r.logger.ErrorWithLayer(logger.Execution, "Failed to refresh pool snapshot: %v", err)
	}
}

// Refresh reads the pool state now and replaces the snapshot. An uninitialized
// pool address yields no snapshot and no read. A failed read keeps the
// previous snapshot.
func (r *Reader) Refresh(ctx context.Context) (*models.PoolSnapshot, error) {
	if r.pool == (common.Address{}) {
		return nil, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats, err := r.source.PoolStats(timeoutCtx)
	if err != nil {
		err = fmt.Errorf("pool %s: %w", r.pool.Hex(), err)
		r.lastErr.Store(&err)
		metrics.PoolRefreshErrors.Inc()
		return nil, err
	}

	snap := &models.PoolSnapshot{
		Pool:      r.pool,
		Stats:     stats,
		FetchedAt: r.now(),
	}
	r.snapshot.Store(snap)
	r.lastErr.Store(nil)

	r.recordMetrics(snap)
	r.logger.DebugWithLayer(logger.Execution, "Pool snapshot: balance %s, reward %s",
		models.FormatUnits(stats.PoolBalance, models.TokenDecimals), models.FormatUnits(stats.RewardAmount, models.TokenDecimals))
	return snap, nil
}

// Snapshot returns the latest snapshot, or nil if none was read yet
func (r *Reader) Snapshot() *models.PoolSnapshot {
	return r.snapshot.Load()
}

// LastError returns the error of the most recent failed refresh, cleared by the next success
func (r *Reader) LastError() error {
	if p := r.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (r *Reader) recordMetrics(snap *models.PoolSnapshot) {
	if f, ok := tokenFloat(snap.Stats.PoolBalance); ok {
		metrics.PoolBalance.Set(f)
	}
	if f, ok := tokenFloat(snap.Stats.RewardAmount); ok {
		metrics.PoolRewardAmount.Set(f)
	}
	metrics.PoolSnapshotTimestamp.Set(float64(snap.FetchedAt.Unix()))
}
