package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/smilepool/smilepool-executor/pkg/circuitbreaker"
	"github.com/smilepool/smilepool-executor/pkg/contracts"
	"github.com/smilepool/smilepool-executor/pkg/intention"
	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/mempool"
	"github.com/smilepool/smilepool-executor/pkg/models"
	"github.com/smilepool/smilepool-executor/pkg/pool"
	"github.com/smilepool/smilepool-executor/pkg/resolver"
	"github.com/smilepool/smilepool-executor/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	poolAddress     = common.HexToAddress("0xFAACE8aD6dFE99023142d16eCe92408D9a2C7E30")
	executorAddress = common.HexToAddress("0x00000000000000000000000000000000000E0001")
	runeAsset       = common.HexToAddress("0x0E267e8EB516adeeA7606483828055a56c198AF2")
	rewardToken     = common.HexToAddress("0x00000000000000000000000000000000000A0001")
)

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// fakeChain is a minimal SmilePool contract layer. It executes claim, approve,
// donate and completion calls from a broadcast bundle and emits the matching logs.
type fakeChain struct {
	mu          sync.Mutex
	abis        []abi.ABI
	smileTopic  common.Hash
	donateTopic common.Hash

	balance   *big.Int
	reward    *big.Int
	threshold int64
	nonce     uint64
	lastDay   uint64
	unlimited bool
	allowance *big.Int

	height     uint64
	logs       []types.Log
	broadcasts int
	sendErr    error
}

func newFakeChain(t *testing.T, balance, reward, threshold int64) *fakeChain {
	poolABI, err := contracts.ParseSmilePoolABI()
	require.NoError(t, err)
	erc20ABI, err := contracts.ParseERC20ABI()
	require.NoError(t, err)
	execABI, err := contracts.ParseExecutorABI()
	require.NoError(t, err)

	return &fakeChain{
		abis:        []abi.ABI{poolABI, erc20ABI, execABI},
		smileTopic:  poolABI.Events[contracts.EventSmileSubmitted].ID,
		donateTopic: poolABI.Events[contracts.EventDonated].ID,
		balance:     tokens(balance),
		reward:      tokens(reward),
		threshold:   threshold,
		lastDay:     models.DayIndex(time.Now()) - 1,
		allowance:   big.NewInt(0),
		height:      100,
	}
}

func (c *fakeChain) PoolStats(context.Context) (models.PoolStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.PoolStats{
		PoolBalance:    new(big.Int).Set(c.balance),
		RewardAmount:   new(big.Int).Set(c.reward),
		ScoreThreshold: big.NewInt(c.threshold),
		TotalDonated:   big.NewInt(0),
		TotalClaimed:   big.NewInt(0),
		TotalSmiles:    big.NewInt(0),
		TotalSmilers:   big.NewInt(0),
		TotalDonations: big.NewInt(0),
	}, nil
}

func (c *fakeChain) AccountState(_ context.Context, user common.Address) (*models.AccountState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &models.AccountState{
		Address:      user,
		Nonce:        new(big.Int).SetUint64(c.nonce),
		LastClaimDay: c.lastDay,
		Unlimited:    c.unlimited,
	}, nil
}

func (c *fakeChain) BlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height, nil
}

func (c *fakeChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []types.Log
	for _, l := range c.logs {
		if l.BlockNumber < q.FromBlock.Uint64() || l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if len(q.Topics) > 0 && l.Topics[0] != q.Topics[0][0] {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *fakeChain) method(data []byte) (*abi.Method, error) {
	if len(data) < 4 {
		return nil, errors.New("short calldata")
	}
	for _, parsed := range c.abis {
		if m, err := parsed.MethodById(data[:4]); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown selector %x", data[:4])
}

func (c *fakeChain) SendBaseTransactions(_ context.Context, signed []*models.SignedIntention, raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.broadcasts++
	if c.sendErr != nil {
		return c.sendErr
	}
	if len(raw) == 0 {
		return errors.New("empty base transaction")
	}

	today := models.DayIndex(time.Now())
	for _, s := range signed {
		var tx types.Transaction
		data := []byte(s.Raw)
		if err := tx.UnmarshalBinary(s.Raw); err == nil {
			data = tx.Data()
		}

		m, err := c.method(data)
		if err != nil {
			return err
		}
		args, err := m.Inputs.Unpack(data[4:])
		if err != nil {
			return err
		}

		switch m.Name {
		case "claimReward":
			score, nonce := args[0].(*big.Int), args[1].(*big.Int)
			switch {
			case nonce.Uint64() != c.nonce:
				return fmt.Errorf("execution reverted: SmilePool: invalid nonce")
			case !c.unlimited && c.lastDay == today:
				return fmt.Errorf("execution reverted: SmilePool: already claimed today")
			case score.Int64() < c.threshold:
				return fmt.Errorf("execution reverted: SmilePool: score too low")
			case c.balance.Cmp(c.reward) < 0:
				return fmt.Errorf("execution reverted: SmilePool: insufficient pool balance")
			}
			c.nonce++
			c.lastDay = today
			c.balance.Sub(c.balance, c.reward)
			c.emit(c.smileTopic, s.Raw)
		case "approve":
			c.allowance = new(big.Int).Set(args[1].(*big.Int))
		case "donate":
			amount := args[0].(*big.Int)
			if c.allowance.Cmp(amount) < 0 {
				return fmt.Errorf("execution reverted: ERC20: insufficient allowance")
			}
			c.allowance.Sub(c.allowance, amount)
			c.balance.Add(c.balance, amount)
			c.emit(c.donateTopic, s.Raw)
		case "completeTx":
		}
	}
	return nil
}

func (c *fakeChain) emit(topic common.Hash, raw []byte) {
	c.height++
	c.logs = append(c.logs, types.Log{
		Address:     poolAddress,
		Topics:      []common.Hash{topic},
		BlockNumber: c.height,
		TxHash:      crypto.Keccak256Hash(raw),
	})
}

// recordingSigner records the kinds of the intentions it signs and can fail
// at a given position
type recordingSigner struct {
	inner  Signer
	kinds  []models.IntentionKind
	failAt int
}

func (r *recordingSigner) SignIntention(ctx context.Context, in models.Intention, baseTxID string) (*models.SignedIntention, error) {
	if r.failAt > 0 && len(r.kinds)+1 == r.failAt {
		return nil, errors.New("user rejected the request")
	}
	r.kinds = append(r.kinds, in.Kind)
	return r.inner.SignIntention(ctx, in, baseTxID)
}

// countingFinalizer counts finalizations and the intentions passed in
type countingFinalizer struct {
	*wallet.KeyedWallet
	calls      int
	intentions [][]models.Intention
	settled    map[string]bool
}

func (f *countingFinalizer) Finalize(ctx context.Context, intentions []models.Intention) (*models.BaseTransaction, error) {
	f.calls++
	f.intentions = append(f.intentions, intentions)
	return f.KeyedWallet.Finalize(ctx, intentions)
}

func (f *countingFinalizer) Settle(baseTxID string, landed bool) {
	f.settled[baseTxID] = landed
	f.KeyedWallet.Settle(baseTxID, landed)
}

type fakeWaiter struct {
	err   error
	block chan struct{}
}

func (w *fakeWaiter) WaitForConfirmation(ctx context.Context, _ string, _ int) error {
	if w.block != nil {
		select {
		case <-w.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return w.err
}

type fakeFeed struct {
	mu      sync.Mutex
	entries []models.FeedEntry
	photos  []models.ProfilePhoto
}

func (f *fakeFeed) SaveProfilePhoto(_ context.Context, p models.ProfilePhoto) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, p)
	return nil
}

func (f *fakeFeed) Append(_ context.Context, e models.FeedEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

type harness struct {
	exec      *Executor
	chain     *fakeChain
	finalizer *countingFinalizer
	signer    *recordingSigner
	waiter    *fakeWaiter
	feed      *fakeFeed
	breaker   *circuitbreaker.CircuitBreaker
}

func newHarness(t *testing.T, chain *fakeChain) *harness {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	balance, _ := new(big.Int).SetString("10000000000000000000", 10)
	//nolint:SA1019 // Using deprecated GenesisAccount for compatibility
	sim := simulated.NewBackend(map[common.Address]core.GenesisAccount{
		crypto.PubkeyToAddress(key.PublicKey): {Balance: balance},
	})
	t.Cleanup(func() { _ = sim.Close() })

	w, err := wallet.NewKeyedWalletFromKey(key, sim.Client(), wallet.Options{
		ChainID:       big.NewInt(1337),
		GasLimit:      300000,
		GasMultiplier: 1.1,
	}, &logger.EmptyLogger{})
	require.NoError(t, err)

	builder, err := intention.NewBuilder(poolAddress, executorAddress)
	require.NoError(t, err)

	res, err := resolver.New(chain, resolver.Config{
		Pool:        poolAddress,
		ExplorerURL: "https://blockscout.staging.midl.xyz",
		MempoolURL:  "https://mempool.staging.midl.xyz",
	}, &logger.EmptyLogger{})
	require.NoError(t, err)

	h := &harness{
		chain:     chain,
		finalizer: &countingFinalizer{KeyedWallet: w, settled: map[string]bool{}},
		signer:    &recordingSigner{inner: w},
		waiter:    &fakeWaiter{},
		feed:      &fakeFeed{},
		breaker:   circuitbreaker.NewCircuitBreaker(true, 2, time.Minute, time.Minute, nil),
	}

	h.exec, err = New(Deps{
		Builder:     builder,
		Finalizer:   h.finalizer,
		Signer:      h.signer,
		Broadcaster: chain,
		Waiter:      h.waiter,
		Resolver:    res,
		Accounts:    chain,
		Pool:        pool.NewReader(chain, poolAddress, time.Hour, &logger.EmptyLogger{}),
		Breaker:     h.breaker,
		Feed:        h.feed,
		Logger:      &logger.EmptyLogger{},
	}, Config{
		Account:          w.Address(),
		Confirmations:    1,
		DefaultThreshold: 75,
		RewardToken:      rewardToken,
	})
	require.NoError(t, err)
	return h
}

func drain(ch <-chan Status) []State {
	var states []State
	for {
		select {
		case s := <-ch:
			states = append(states, s.State)
		default:
			return states
		}
	}
}

func TestClaimEndToEnd(t *testing.T) {
	h := newHarness(t, newFakeChain(t, 500, 10, 75))
	updates, cancel := h.exec.Subscribe(64)
	defer cancel()

	result, err := h.exec.Claim(context.Background(), ClaimInput{Score: 82, Message: "gm", PhotoURL: "https://photos/1.jpg"})
	require.NoError(t, err)

	assert.True(t, result.Resolved)
	assert.True(t, result.HasExecutionHash())
	assert.Equal(t, h.chain.logs[0].TxHash, result.ExecutionTxHash)
	assert.Equal(t, h.chain.smileTopic, h.chain.logs[0].Topics[0])
	assert.Equal(t, "https://blockscout.staging.midl.xyz/tx/"+result.ExecutionTxHash.Hex(), result.ExplorerURL)

	// claim before completion
	assert.Equal(t, []models.IntentionKind{models.KindClaim, models.KindCompletion}, h.signer.kinds)
	assert.Equal(t, 1, h.chain.broadcasts)
	assert.Equal(t, uint64(1), h.chain.nonce)

	assert.Equal(t, []State{
		StateBuilding, StateFinalizing, StateSigning, StateSigning,
		StateBroadcasting, StateConfirming, StateResolvingHash, StateSucceeded,
	}, drain(updates))

	status := h.exec.Status()
	assert.Equal(t, StateSucceeded, status.State)
	require.NotNil(t, status.Result)
	assert.Equal(t, result.BaseTxID, status.BaseTxID)

	require.Len(t, h.feed.entries, 1)
	assert.Equal(t, result.ExecutionTxHash.Hex(), h.feed.entries[0].TxHash)
	assert.Equal(t, int64(82), h.feed.entries[0].Score)
	require.Len(t, h.feed.photos, 1)
	assert.True(t, h.finalizer.settled[result.BaseTxID])
}

func TestClaimBelowThresholdNeverReachesChain(t *testing.T) {
	h := newHarness(t, newFakeChain(t, 500, 10, 75))

	_, err := h.exec.Claim(context.Background(), ClaimInput{Score: 60})
	ae, ok := AsActionError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryScoreTooLow, ae.Category)
	assert.Equal(t, StateBuilding, ae.Stage)
	assert.Equal(t, 0, h.finalizer.calls)
	assert.Equal(t, 0, h.chain.broadcasts)
	assert.Equal(t, StateFailed, h.exec.Status().State)
}

func TestClaimBlockedByPoolAndCooldown(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(c *fakeChain)
		category Category
	}{
		{
			name:     "pool insufficient",
			setup:    func(c *fakeChain) { c.balance = tokens(5) },
			category: CategoryPoolInsufficient,
		},
		{
			name:     "already claimed today",
			setup:    func(c *fakeChain) { c.lastDay = models.DayIndex(time.Now()) },
			category: CategoryAlreadyClaimed,
		},
		{
			name:     "invalid score",
			setup:    func(c *fakeChain) {},
			category: CategoryValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := newFakeChain(t, 500, 10, 75)
			tt.setup(chain)
			h := newHarness(t, chain)

			score := int64(82)
			if tt.category == CategoryValidation {
				score = 101
			}
			_, err := h.exec.Claim(context.Background(), ClaimInput{Score: score})
			ae, ok := AsActionError(err)
			require.True(t, ok)
			assert.Equal(t, tt.category, ae.Category)
			assert.Equal(t, 0, h.chain.broadcasts)
		})
	}
}

func TestUnlimitedClaimerClaimsTwice(t *testing.T) {
	chain := newFakeChain(t, 500, 10, 75)
	chain.unlimited = true
	h := newHarness(t, chain)

	_, err := h.exec.Claim(context.Background(), ClaimInput{Score: 90})
	require.NoError(t, err)
	_, err = h.exec.Claim(context.Background(), ClaimInput{Score: 90})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), chain.nonce)
}

// staleAccounts keeps returning the first account state it read
type staleAccounts struct {
	inner AccountReader
	state *models.AccountState
}

func (s *staleAccounts) AccountState(ctx context.Context, user common.Address) (*models.AccountState, error) {
	if s.state == nil {
		state, err := s.inner.AccountState(ctx, user)
		if err != nil {
			return nil, err
		}
		s.state = state
	}
	return s.state, nil
}

func TestClaimWithReusedNonceIsRejected(t *testing.T) {
	chain := newFakeChain(t, 500, 10, 75)
	chain.unlimited = true
	h := newHarness(t, chain)
	h.exec.deps.Accounts = &staleAccounts{inner: chain}

	_, err := h.exec.Claim(context.Background(), ClaimInput{Score: 90})
	require.NoError(t, err)

	_, err = h.exec.Claim(context.Background(), ClaimInput{Score: 90})
	ae, ok := AsActionError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryNonceMismatch, ae.Category)
	assert.Equal(t, StateBroadcasting, ae.Stage)
	assert.True(t, ae.NeedsStateRefresh())
	assert.False(t, ae.Retriggerable())
	assert.Equal(t, uint64(1), chain.nonce)
	assert.False(t, h.finalizer.settled[ae.BaseTxID])
}

func TestDonateCreatesApproveThenDonate(t *testing.T) {
	chain := newFakeChain(t, 500, 10, 75)
	h := newHarness(t, chain)

	result, err := h.exec.Donate(context.Background(), DonateInput{Amount: tokens(100), Asset: runeAsset, RuneID: "840000:1"})
	require.NoError(t, err)

	require.Len(t, h.finalizer.intentions, 1)
	intentions := h.finalizer.intentions[0]
	require.Len(t, intentions, 2)
	assert.Equal(t, models.KindApprove, intentions[0].Kind)
	assert.Equal(t, runeAsset, intentions[0].Target)
	assert.Equal(t, models.KindDonate, intentions[1].Kind)
	assert.Equal(t, poolAddress, intentions[1].Target)
	require.NotNil(t, intentions[1].Deposit)
	assert.Equal(t, tokens(100), intentions[1].Deposit.Amount)

	assert.Equal(t, []models.IntentionKind{models.KindApprove, models.KindDonate}, h.signer.kinds)
	assert.True(t, result.Resolved)
	assert.Equal(t, chain.donateTopic, chain.logs[0].Topics[0])
	assert.Equal(t, tokens(600), chain.balance)
	assert.Empty(t, h.feed.entries)
}

func TestDonateValidation(t *testing.T) {
	h := newHarness(t, newFakeChain(t, 500, 10, 75))

	inputs := []DonateInput{
		{Amount: big.NewInt(0), Asset: runeAsset, RuneID: "1:1"},
		{Amount: tokens(1), RuneID: "1:1"},
		{Amount: tokens(1), Asset: runeAsset},
	}
	for _, in := range inputs {
		_, err := h.exec.Donate(context.Background(), in)
		ae, ok := AsActionError(err)
		require.True(t, ok)
		assert.Equal(t, CategoryValidation, ae.Category)
		assert.True(t, ae.Retriggerable())
	}
	assert.Equal(t, 0, h.finalizer.calls)
}

func TestSigningFailureAbortsBeforeBroadcast(t *testing.T) {
	h := newHarness(t, newFakeChain(t, 500, 10, 75))
	h.signer.failAt = 2

	_, err := h.exec.Donate(context.Background(), DonateInput{Amount: tokens(1), Asset: runeAsset, RuneID: "1:1"})
	ae, ok := AsActionError(err)
	require.True(t, ok)
	assert.Equal(t, CategorySigning, ae.Category)
	assert.Equal(t, StateSigning, ae.Stage)
	assert.True(t, ae.Retriggerable())
	assert.Equal(t, 0, h.chain.broadcasts)

	landed, settled := h.finalizer.settled[ae.BaseTxID]
	assert.True(t, settled)
	assert.False(t, landed)

	status := h.exec.Status()
	assert.Equal(t, 2, status.Signing)
	assert.Equal(t, 2, status.Total)
}

func TestConfirmationTimeoutIsOutcomeUnknown(t *testing.T) {
	h := newHarness(t, newFakeChain(t, 500, 10, 75))
	h.waiter.err = fmt.Errorf("%w: after 10m", mempool.ErrConfirmationTimeout)

	_, err := h.exec.Claim(context.Background(), ClaimInput{Score: 82})
	ae, ok := AsActionError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryConfirmationTimeout, ae.Category)
	assert.True(t, ae.CheckExplorer())
	assert.False(t, ae.Retriggerable())
	assert.Equal(t, StateOutcomeUnknown, h.exec.Status().State)
	assert.Equal(t, 1, h.chain.broadcasts)
}

func TestConcurrentActionIsRejected(t *testing.T) {
	h := newHarness(t, newFakeChain(t, 500, 10, 75))
	h.waiter.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.exec.Claim(context.Background(), ClaimInput{Score: 82})
		done <- err
	}()

	require.Eventually(t, func() bool { return h.exec.Status().State == StateConfirming }, 5*time.Second, 5*time.Millisecond)
	assert.True(t, h.exec.Busy())

	_, err := h.exec.Donate(context.Background(), DonateInput{Amount: tokens(1), Asset: runeAsset, RuneID: "1:1"})
	assert.ErrorIs(t, err, ErrActionInFlight)
	assert.Equal(t, StateConfirming, h.exec.Status().State)

	close(h.waiter.block)
	require.NoError(t, <-done)
	assert.False(t, h.exec.Busy())
}

func TestBreakerOpensAfterNetworkFailures(t *testing.T) {
	chain := newFakeChain(t, 500, 10, 75)
	chain.sendErr = errors.New("Post \"https://rpc\": dial tcp: connection refused")
	h := newHarness(t, chain)

	for i := 0; i < 2; i++ {
		_, err := h.exec.Claim(context.Background(), ClaimInput{Score: 82})
		ae, ok := AsActionError(err)
		require.True(t, ok)
		assert.Equal(t, CategoryGenericNetwork, ae.Category)
	}
	assert.True(t, h.breaker.IsOpen())

	_, err := h.exec.Claim(context.Background(), ClaimInput{Score: 82})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, chain.broadcasts)
	assert.Equal(t, 0, h.finalizer.KeyedWallet.Nonces().PendingCount())
}

func TestClassifyBroadcastError(t *testing.T) {
	tests := []struct {
		err  string
		want Category
	}{
		{"execution reverted: SmilePool: already claimed today", CategoryAlreadyClaimed},
		{"execution reverted: Insufficient pool balance", CategoryPoolInsufficient},
		{"execution reverted: Score too low", CategoryScoreTooLow},
		{"execution reverted: Invalid nonce", CategoryNonceMismatch},
		{"nonce too low", CategoryNonceMismatch},
		{"execution reverted", CategoryGenericRevert},
		{"ERC20: insufficient allowance", CategoryGenericRevert},
		{"dial tcp 127.0.0.1:8545: connection refused", CategoryGenericNetwork},
		{"context deadline exceeded", CategoryGenericNetwork},
		{`Post "http://node:8545": context deadline exceeded (Client.Timeout exceeded while awaiting headers)`, CategoryGenericNetwork},
		{"unexpected EOF", CategoryGenericNetwork},
		{"invalid btc transaction", CategoryGenericRevert},
	}

	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyBroadcastError(errors.New(tt.err)))
		})
	}
	assert.Equal(t, CategoryGenericNetwork, classifyBroadcastError(fmt.Errorf("wrapped: %w", ErrCircuitOpen)))
	assert.Equal(t, CategoryGenericNetwork, classifyBroadcastError(fmt.Errorf("send: %v", context.DeadlineExceeded)))
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, validTransition(StateIdle, StateBuilding))
	assert.True(t, validTransition(StateSigning, StateSigning))
	assert.True(t, validTransition(StateBroadcasting, StateFailed))
	assert.True(t, validTransition(StateConfirming, StateOutcomeUnknown))
	assert.True(t, validTransition(StateSucceeded, StateIdle))

	assert.False(t, validTransition(StateIdle, StateSigning))
	assert.False(t, validTransition(StateConfirming, StateBroadcasting))
	assert.False(t, validTransition(StateBroadcasting, StateOutcomeUnknown))
	assert.False(t, validTransition(StateFailed, StateBuilding))
	assert.False(t, validTransition(StateSucceeded, StateFailed))
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Deps{}, Config{})
	assert.Error(t, err)
}
