// Package executor runs claim and donate actions through the intention
// pipeline: build, finalize, sign in order, broadcast once, wait for
// confirmation and resolve the execution-layer hash.
package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/smilepool/smilepool-executor/pkg/circuitbreaker"
	"github.com/smilepool/smilepool-executor/pkg/intention"
	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/metrics"
	"github.com/smilepool/smilepool-executor/pkg/models"
	"github.com/smilepool/smilepool-executor/pkg/pool"
)

// MaxScore is the upper bound of a smile score
const MaxScore = 100

// Finalizer encloses the intentions of one action in a base transaction
type Finalizer interface {
	Finalize(ctx context.Context, intentions []models.Intention) (*models.BaseTransaction, error)
}

// Signer signs one intention against a finalized base transaction
type Signer interface {
	SignIntention(ctx context.Context, intention models.Intention, baseTxID string) (*models.SignedIntention, error)
}

// Settler is implemented by finalizers that hold resources until the outcome is known
type Settler interface {
	Settle(baseTxID string, landed bool)
}

// Broadcaster submits the signed bundle and the base transaction in one call
type Broadcaster interface {
	SendBaseTransactions(ctx context.Context, signed []*models.SignedIntention, raw []byte) error
}

// Waiter blocks until a base transaction is confirmed
type Waiter interface {
	WaitForConfirmation(ctx context.Context, txID string, depth int) error
}

// Resolver maps a confirmed base transaction to its execution-layer result
type Resolver interface {
	Resolve(ctx context.Context, action models.Action, baseTxID string) models.TxResult
}

// AccountReader reads the per-user claim state
type AccountReader interface {
	AccountState(ctx context.Context, user common.Address) (*models.AccountState, error)
}

// PoolState provides the pool snapshot
type PoolState interface {
	Snapshot() *models.PoolSnapshot
	Refresh(ctx context.Context) (*models.PoolSnapshot, error)
}

// FeedRecorder stores the off-chain record of a successful claim
type FeedRecorder interface {
	SaveProfilePhoto(ctx context.Context, photo models.ProfilePhoto) error
	Append(ctx context.Context, entry models.FeedEntry) error
}

// Deps are the collaborators of an Executor. Breaker and Feed are optional.
type Deps struct {
	Builder     *intention.Builder
	Finalizer   Finalizer
	Signer      Signer
	Broadcaster Broadcaster
	Waiter      Waiter
	Resolver    Resolver
	Accounts    AccountReader
	Pool        PoolState
	Breaker     *circuitbreaker.CircuitBreaker
	Feed        FeedRecorder
	Logger      logger.Logger
}

// Config holds the executor settings
type Config struct {
	// Account is the execution-layer address claims are made for
	Account          common.Address
	Confirmations    int
	DefaultThreshold int64
	// RewardToken is withdrawn back to the base chain after a claim
	RewardToken common.Address
}

// ClaimInput holds the user inputs of a claim
type ClaimInput struct {
	Score    int64
	Message  string
	PhotoURL string
}

// DonateInput holds the user inputs of a donation
type DonateInput struct {
	Amount *big.Int
	Asset  common.Address
	RuneID string
}

// Executor runs one action at a time for a single session
type Executor struct {
	deps     Deps
	cfg      Config
	machine  *machine
	inFlight atomic.Bool
	now      func() time.Time
	logger   logger.Logger
}

// New creates an executor
func New(deps Deps, cfg Config) (*Executor, error) {
	switch {
	case deps.Builder == nil:
		return nil, fmt.Errorf("builder is required")
	case deps.Finalizer == nil:
		return nil, fmt.Errorf("finalizer is required")
	case deps.Signer == nil:
		return nil, fmt.Errorf("signer is required")
	case deps.Broadcaster == nil:
		return nil, fmt.Errorf("broadcaster is required")
	case deps.Waiter == nil:
		return nil, fmt.Errorf("waiter is required")
	case deps.Resolver == nil:
		return nil, fmt.Errorf("resolver is required")
	case deps.Accounts == nil:
		return nil, fmt.Errorf("account reader is required")
	case deps.Pool == nil:
		return nil, fmt.Errorf("pool state is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.EmptyLogger{}
	}
	if cfg.Confirmations < 1 {
		cfg.Confirmations = 1
	}

	return &Executor{
		deps:    deps,
		cfg:     cfg,
		machine: newMachine(),
		now:     time.Now,
		logger:  deps.Logger,
	}, nil
}

// Status returns the current state of the action machine
func (e *Executor) Status() Status {
	return e.machine.current()
}

// Subscribe delivers every transition to the returned channel until the
// cancel function is called. A full buffer drops transitions for that observer.
func (e *Executor) Subscribe(buffer int) (<-chan Status, func()) {
	if buffer < 1 {
		buffer = 16
	}
	return e.machine.subscribe(buffer)
}

// Busy reports whether an action is in flight
func (e *Executor) Busy() bool {
	return e.inFlight.Load()
}

// Eligibility reads fresh account state and evaluates the claim control for
// the score. The cached snapshot is used when the pool cannot be re-read.
func (e *Executor) Eligibility(ctx context.Context, score int64, hasScore bool) (pool.ClaimControl, *models.AccountState, error) {
	account, err := e.deps.Accounts.AccountState(ctx, e.cfg.Account)
	if err != nil {
		return pool.ClaimControl{}, nil, err
	}

	snap, err := e.deps.Pool.Refresh(ctx)
	if err != nil {
		e.logger.ErrorWithLayer(logger.Execution, "Using cached pool snapshot: %v", err)
		snap = e.deps.Pool.Snapshot()
	}

	ctl := pool.Evaluate(pool.Eligibility{
		Score:            score,
		HasScore:         hasScore,
		Snapshot:         snap,
		Account:          account,
		Now:              e.now(),
		DefaultThreshold: e.cfg.DefaultThreshold,
	})
	return ctl, account, nil
}

// Claim claims the pool reward for the score
func (e *Executor) Claim(ctx context.Context, in ClaimInput) (models.TxResult, error) {
	var reward *big.Int

	build := func(ctx context.Context) ([]models.Intention, *buildError) {
		if in.Score < 0 || in.Score > MaxScore {
			return nil, &buildError{CategoryValidation, fmt.Errorf("score %d outside 0-%d", in.Score, MaxScore)}
		}

		ctl, account, err := e.Eligibility(ctx, in.Score, true)
		if err != nil {
			return nil, &buildError{CategoryGenericNetwork, fmt.Errorf("failed to read account state: %w", err)}
		}
		if !ctl.Enabled {
			return nil, &buildError{reasonCategory(ctl.Reason), errors.New(ctl.Reason.Message())}
		}

		if snap := e.deps.Pool.Snapshot(); snap != nil && snap.Stats.RewardAmount != nil {
			reward = new(big.Int).Set(snap.Stats.RewardAmount)
		}

		intentions, err := e.deps.Builder.ClaimAction(intention.ClaimRequest{
			Score:        big.NewInt(in.Score),
			Nonce:        account.Nonce,
			Message:      in.Message,
			RewardToken:  e.cfg.RewardToken,
			RewardAmount: reward,
		})
		if err != nil {
			return nil, &buildError{CategoryValidation, err}
		}
		e.logger.InfoWithLayer(logger.Execution, "Claiming with score %d and nonce %s", in.Score, account.Nonce.String())
		return intentions, nil
	}

	result, err := e.run(ctx, models.ActionClaim, build)
	if err != nil {
		return result, err
	}
	e.recordFeed(ctx, in, result)
	return result, nil
}

// Donate donates amount of the asset to the pool
func (e *Executor) Donate(ctx context.Context, in DonateInput) (models.TxResult, error) {
	build := func(ctx context.Context) ([]models.Intention, *buildError) {
		switch {
		case in.Amount == nil || in.Amount.Sign() <= 0:
			return nil, &buildError{CategoryValidation, fmt.Errorf("donation amount must be positive")}
		case in.Asset == (common.Address{}):
			return nil, &buildError{CategoryValidation, fmt.Errorf("no asset selected")}
		case strings.TrimSpace(in.RuneID) == "":
			return nil, &buildError{CategoryValidation, fmt.Errorf("rune id is required for the deposit")}
		}

		intentions, err := e.deps.Builder.DonateAction(intention.DonateRequest{
			Amount: in.Amount,
			Asset:  in.Asset,
			RuneID: in.RuneID,
		})
		if err != nil {
			return nil, &buildError{CategoryValidation, err}
		}
		e.logger.InfoWithLayer(logger.Execution, "Donating %s of %s", models.FormatUnits(in.Amount, models.TokenDecimals), in.Asset.Hex())
		return intentions, nil
	}

	return e.run(ctx, models.ActionDonate, build)
}

type buildError struct {
	category Category
	err      error
}

// run drives one action through the state machine
func (e *Executor) run(ctx context.Context, action models.Action, build func(context.Context) ([]models.Intention, *buildError)) (models.TxResult, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return models.TxResult{}, ErrActionInFlight
	}
	defer e.inFlight.Store(false)

	metrics.ActionInFlight.Set(1)
	defer metrics.ActionInFlight.Set(0)

	started := e.now()
	stage := StateBuilding
	stageStart := started
	actionID := uuid.NewString()

	if e.machine.current().State.Terminal() {
		e.machine.transition(StateIdle, func(s *Status) { *s = Status{State: StateIdle} })
	}
	e.machine.transition(StateBuilding, func(s *Status) {
		*s = Status{ActionID: actionID, Action: action, State: StateBuilding}
	})

	advance := func(to State, update func(*Status)) {
		metrics.StageDuration.WithLabelValues(string(action), stage.String()).Observe(time.Since(stageStart).Seconds())
		stage, stageStart = to, time.Now()
		e.machine.transition(to, update)
	}

	baseTxID := ""
	finish := func(to State, category Category, err error) error {
		ae := &ActionError{Action: action, Stage: stage, Category: category, BaseTxID: baseTxID, Err: err}
		metrics.StageDuration.WithLabelValues(string(action), stage.String()).Observe(time.Since(stageStart).Seconds())
		e.machine.transition(to, func(s *Status) {
			s.Error = err.Error()
			s.Category = category
		})
		metrics.Actions.WithLabelValues(string(action), to.String()).Inc()
		metrics.ActionErrors.WithLabelValues(string(action), string(category)).Inc()
		metrics.ActionDuration.WithLabelValues(string(action)).Observe(time.Since(started).Seconds())
		e.logger.Error("Action %s (%s) ended %s: %v", action, actionID, to, ae)
		return ae
	}
	fail := func(category Category, err error) error {
		return finish(StateFailed, category, err)
	}

	e.logger.Info("Starting %s action %s", action, actionID)

	if e.deps.Breaker != nil && e.deps.Breaker.IsOpen() {
		metrics.BroadcastsRejected.Inc()
		return models.TxResult{}, fail(CategoryGenericNetwork, ErrCircuitOpen)
	}

	intentions, berr := build(ctx)
	if berr != nil {
		return models.TxResult{}, fail(berr.category, berr.err)
	}

	// Finalizing
	advance(StateFinalizing, nil)
	base, err := e.deps.Finalizer.Finalize(ctx, intentions)
	if err != nil {
		category := CategorySigning
		if isNetworkError(err) {
			category = CategoryGenericNetwork
		}
		return models.TxResult{}, fail(category, fmt.Errorf("failed to finalize base transaction: %w", err))
	}
	baseTxID = base.ID
	e.logger.InfoWithLayer(logger.Settlement, "Finalized base tx %s", base.ID)

	// Signing, strictly in creation order
	signed := make([]*models.SignedIntention, 0, len(intentions))
	for i, in := range intentions {
		position := i + 1
		advance(StateSigning, func(s *Status) {
			s.BaseTxID = base.ID
			s.Signing = position
			s.Total = len(intentions)
		})
		artifact, err := e.deps.Signer.SignIntention(ctx, in, base.ID)
		if err != nil {
			e.settle(base.ID, false)
			return models.TxResult{}, fail(CategorySigning, fmt.Errorf("failed to sign %s intention %d/%d: %w", in.Kind, position, len(intentions), err))
		}
		signed = append(signed, artifact)
	}

	// Broadcasting, at most once
	advance(StateBroadcasting, nil)
	if err := e.deps.Broadcaster.SendBaseTransactions(ctx, signed, base.Raw); err != nil {
		e.settle(base.ID, false)
		category := classifyBroadcastError(err)
		if category == CategoryGenericNetwork && e.deps.Breaker != nil {
			e.deps.Breaker.RecordFailure()
		}
		return models.TxResult{}, fail(category, err)
	}
	if e.deps.Breaker != nil {
		e.deps.Breaker.RecordSuccess()
	}
	// Submitted nonces are spent whatever the confirmation outcome
	e.settle(base.ID, true)

	// Confirming
	advance(StateConfirming, nil)
	if err := e.deps.Waiter.WaitForConfirmation(ctx, base.ID, e.cfg.Confirmations); err != nil {
		category := classifyWaitError(err)
		if category == CategoryConfirmationTimeout {
			return models.TxResult{}, finish(StateOutcomeUnknown, category, err)
		}
		return models.TxResult{}, fail(category, fmt.Errorf("failed waiting for confirmation: %w", err))
	}

	// ResolvingHash never fails
	advance(StateResolvingHash, nil)
	result := e.deps.Resolver.Resolve(ctx, action, base.ID)

	advance(StateSucceeded, func(s *Status) { s.Result = &result })
	metrics.Actions.WithLabelValues(string(action), StateSucceeded.String()).Inc()
	metrics.ActionDuration.WithLabelValues(string(action)).Observe(time.Since(started).Seconds())
	e.logger.Notice("Action %s (%s) succeeded: %s", action, actionID, result.ExplorerURL)

	if _, err := e.deps.Pool.Refresh(ctx); err != nil {
		e.logger.ErrorWithLayer(logger.Execution, "Failed to refresh pool after %s: %v", action, err)
	}
	return result, nil
}

func (e *Executor) settle(baseTxID string, landed bool) {
	if s, ok := e.deps.Finalizer.(Settler); ok {
		s.Settle(baseTxID, landed)
	}
}

// recordFeed stores the claim off-chain. Failures are logged only.
func (e *Executor) recordFeed(ctx context.Context, in ClaimInput, result models.TxResult) {
	if e.deps.Feed == nil {
		return
	}

	address := strings.ToLower(e.cfg.Account.Hex())
	txHash := result.BaseTxID
	if result.HasExecutionHash() {
		txHash = result.ExecutionTxHash.Hex()
	}

	if in.PhotoURL != "" {
		if err := e.deps.Feed.SaveProfilePhoto(ctx, models.ProfilePhoto{
			Address:   address,
			PhotoURL:  in.PhotoURL,
			BestScore: in.Score,
			UpdatedAt: e.now(),
		}); err != nil {
			metrics.FeedErrors.WithLabelValues("save_photo").Inc()
			e.logger.Error("Failed to save profile photo for %s: %v", address, err)
		}
	}

	if err := e.deps.Feed.Append(ctx, models.FeedEntry{
		ID:          uuid.NewString(),
		Address:     address,
		PhotoURL:    in.PhotoURL,
		Score:       in.Score,
		Message:     in.Message,
		TxHash:      txHash,
		ExplorerURL: result.ExplorerURL,
		CreatedAt:   e.now(),
	}); err != nil {
		metrics.FeedErrors.WithLabelValues("append").Inc()
		e.logger.Error("Failed to append feed entry for %s: %v", address, err)
	}
}

func reasonCategory(r pool.Reason) Category {
	switch r {
	case pool.ReasonPoolInsufficient:
		return CategoryPoolInsufficient
	case pool.ReasonScoreTooLow:
		return CategoryScoreTooLow
	case pool.ReasonAlreadyClaimed:
		return CategoryAlreadyClaimed
	default:
		return CategoryValidation
	}
}
