package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smilepool/smilepool-executor/pkg/logger"
)

// NonceSource reports the next nonce the execution layer expects from an account
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// nonceSyncInterval is how long a synced nonce is trusted while base
// transactions are still pending
const nonceSyncInterval = 5 * time.Minute

// Reservation is a contiguous nonce range held by one base transaction
type Reservation struct {
	BaseTxID  string
	First     uint64
	Count     uint64
	CreatedAt time.Time
}

// NonceManager hands out contiguous execution-layer nonce ranges, one per base transaction
type NonceManager struct {
	source       NonceSource
	address      common.Address
	currentNonce uint64
	lastSync     time.Time
	syncInterval time.Duration
	pending      map[string]*Reservation
	logger       logger.Logger
	mu           sync.Mutex
}

// NewNonceManager creates a nonce manager for one account
func NewNonceManager(source NonceSource, address common.Address, log logger.Logger) *NonceManager {
	return &NonceManager{
		source:       source,
		address:      address,
		syncInterval: nonceSyncInterval,
		pending:      make(map[string]*Reservation),
		logger:       log,
	}
}

// Reserve allocates count consecutive nonces and returns the first one
func (nm *NonceManager) Reserve(ctx context.Context, count uint64) (uint64, error) {
	if count == 0 {
		return 0, fmt.Errorf("cannot reserve zero nonces")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()

	// Re-read the chain nonce when nothing is in flight or the last sync is stale
	if len(nm.pending) == 0 || nm.lastSync.IsZero() || time.Since(nm.lastSync) > nm.syncInterval {
		if err := nm.syncLocked(ctx); err != nil {
			return 0, err
		}
	}

	first := nm.currentNonce
	nm.currentNonce += count
	return first, nil
}

// Track binds a reserved range to the base transaction that will use it
func (nm *NonceManager) Track(baseTxID string, first, count uint64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nm.pending[baseTxID] = &Reservation{
		BaseTxID:  baseTxID,
		First:     first,
		Count:     count,
		CreatedAt: time.Now(),
	}
	nm.logger.DebugWithLayer(logger.Execution, "Tracking nonces %d..%d for base tx %s", first, first+count-1, baseTxID)
}

// Confirm marks the base transaction's nonces as consumed
func (nm *NonceManager) Confirm(baseTxID string) bool {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	r, ok := nm.pending[baseTxID]
	if !ok {
		nm.logger.Debug("No nonce reservation found for base tx %s", baseTxID)
		return false
	}
	delete(nm.pending, baseTxID)
	nm.logger.DebugWithLayer(logger.Execution, "Nonces %d..%d consumed by base tx %s", r.First, r.First+r.Count-1, baseTxID)
	return true
}

// Release returns the base transaction's nonces. The range is handed out again
// only when it is the most recent allocation; otherwise the next Reserve
// re-syncs with the chain once nothing else is pending.
func (nm *NonceManager) Release(baseTxID string) bool {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	r, ok := nm.pending[baseTxID]
	if !ok {
		nm.logger.Debug("No nonce reservation found for base tx %s", baseTxID)
		return false
	}
	delete(nm.pending, baseTxID)

	if nm.currentNonce == r.First+r.Count {
		nm.currentNonce = r.First
		nm.logger.DebugWithLayer(logger.Execution, "Reusing nonce %d after base tx %s was abandoned", r.First, baseTxID)
		return true
	}
	return false
}

// Unreserve hands back a range that was never bound to a base transaction
func (nm *NonceManager) Unreserve(first, count uint64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if nm.currentNonce == first+count {
		nm.currentNonce = first
	}
}

// PendingCount returns the number of unsettled reservations
func (nm *NonceManager) PendingCount() int {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return len(nm.pending)
}

// Sync re-reads the pending nonce from the chain
func (nm *NonceManager) Sync(ctx context.Context) error {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return nm.syncLocked(ctx)
}

func (nm *NonceManager) syncLocked(ctx context.Context) error {
	nonce, err := nm.source.PendingNonceAt(ctx, nm.address)
	if err != nil {
		return fmt.Errorf("failed to get pending nonce: %v", err)
	}

	// Never move backwards past nonces still held by unsettled base transactions
	if nonce > nm.currentNonce || len(nm.pending) == 0 {
		if nonce != nm.currentNonce {
			nm.logger.DebugWithLayer(logger.Execution, "Updating nonce for %s: %d -> %d", nm.address.Hex(), nm.currentNonce, nonce)
		}
		nm.currentNonce = nonce
	}
	nm.lastSync = time.Now()
	return nil
}
