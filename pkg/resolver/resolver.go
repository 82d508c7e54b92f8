// Package resolver maps a confirmed base transaction to the execution-layer
// transaction that carried its effect.
package resolver

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/smilepool/smilepool-executor/pkg/contracts"
	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/metrics"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// DefaultLookback is the number of blocks searched below the current height
const DefaultLookback = 20

// LogSource reads execution-layer logs
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Config holds the resolver settings
type Config struct {
	Pool        common.Address
	Lookback    uint64
	ExplorerURL string
	MempoolURL  string
}

// Resolver finds the execution hash of an action from the pool's event logs
type Resolver struct {
	source LogSource
	cfg    Config
	topics map[models.Action]common.Hash
	now    func() time.Time
	logger logger.Logger
}

// New creates a resolver over the given log source
func New(source LogSource, cfg Config, log logger.Logger) (*Resolver, error) {
	parsed, err := contracts.ParseSmilePoolABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %v", err)
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = DefaultLookback
	}
	cfg.ExplorerURL = strings.TrimSuffix(cfg.ExplorerURL, "/")
	cfg.MempoolURL = strings.TrimSuffix(cfg.MempoolURL, "/")

	return &Resolver{
		source: source,
		cfg:    cfg,
		topics: map[models.Action]common.Hash{
			models.ActionClaim:  parsed.Events[contracts.EventSmileSubmitted].ID,
			models.ActionDonate: parsed.Events[contracts.EventDonated].ID,
		},
		now:    time.Now,
		logger: log,
	}, nil
}

// Resolve never fails: when no matching log is found in the window, or any
// read fails, the result links the base transaction on the settlement explorer.
func (r *Resolver) Resolve(ctx context.Context, action models.Action, baseTxID string) models.TxResult {
	result := models.TxResult{
		Action:      action,
		BaseTxID:    baseTxID,
		ConfirmedAt: r.now(),
	}

	hash, err := r.find(ctx, action)
	if err != nil {
		r.logger.ErrorWithLayer(logger.Execution, "Could not resolve execution hash for %s %s, using settlement link: %v", action, baseTxID, err)
		metrics.ResolverOutcomes.WithLabelValues(string(action), "fallback").Inc()
		result.ExplorerURL = r.FallbackURL(baseTxID)
		return result
	}

	metrics.ResolverOutcomes.WithLabelValues(string(action), "resolved").Inc()
	result.ExecutionTxHash = hash
	result.Resolved = true
	result.ExplorerURL = fmt.Sprintf("%s/tx/%s", r.cfg.ExplorerURL, hash.Hex())
	r.logger.InfoWithLayer(logger.Execution, "Resolved %s %s to execution tx %s", action, baseTxID, hash.Hex())
	return result
}

// FallbackURL links the base transaction on the settlement-chain explorer
func (r *Resolver) FallbackURL(baseTxID string) string {
	return fmt.Sprintf("%s/tx/%s", r.cfg.MempoolURL, baseTxID)
}

func (r *Resolver) find(ctx context.Context, action models.Action) (common.Hash, error) {
	topic, ok := r.topics[action]
	if !ok {
		return common.Hash{}, fmt.Errorf("no event for action %q", action)
	}

	height, err := r.source.BlockNumber(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get block number: %w", err)
	}

	from := uint64(0)
	if height > r.cfg.Lookback {
		from = height - r.cfg.Lookback
	}

	logs, err := r.source.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(height),
		Addresses: []common.Address{r.cfg.Pool},
		Topics:    [][]common.Hash{{topic}},
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to filter logs in [%d, %d]: %w", from, height, err)
	}

	latest, ok := latestLog(logs)
	if !ok {
		return common.Hash{}, fmt.Errorf("no %s log in blocks [%d, %d]", action, from, height)
	}
	return latest.TxHash, nil
}

// latestLog returns the log with the greatest (block, index) position.
// The window is not narrowed to the caller's own address, so a concurrent
// action by another user in the same window can be picked.
func latestLog(logs []types.Log) (types.Log, bool) {
	var best types.Log
	found := false
	for _, l := range logs {
		if l.Removed {
			continue
		}
		if !found || l.BlockNumber > best.BlockNumber || (l.BlockNumber == best.BlockNumber && l.Index > best.Index) {
			best = l
			found = true
		}
	}
	return best, found
}
