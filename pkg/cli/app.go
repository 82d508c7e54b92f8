package cli

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smilepool/smilepool-executor/pkg/chainclient"
	"github.com/smilepool/smilepool-executor/pkg/circuitbreaker"
	"github.com/smilepool/smilepool-executor/pkg/config"
	"github.com/smilepool/smilepool-executor/pkg/executor"
	"github.com/smilepool/smilepool-executor/pkg/feed"
	"github.com/smilepool/smilepool-executor/pkg/health"
	"github.com/smilepool/smilepool-executor/pkg/intention"
	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/mempool"
	"github.com/smilepool/smilepool-executor/pkg/pool"
	"github.com/smilepool/smilepool-executor/pkg/resolver"
	"github.com/smilepool/smilepool-executor/pkg/vision"
	"github.com/smilepool/smilepool-executor/pkg/wallet"
)

// App holds the components wired from the configuration
type App struct {
	Config      *config.Config
	Logger      logger.Logger
	Chain       *chainclient.Client
	Pool        *pool.Reader
	Breaker     *circuitbreaker.CircuitBreaker
	Feed        feed.Store
	RewardToken common.Address

	// Wallet and Executor are nil without a configured key
	Wallet   *wallet.KeyedWallet
	Executor *executor.Executor

	// Vision is nil without a configured API key
	Vision vision.Scorer
}

// NewApp connects to the chain and wires every component the configuration allows
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)
	poolAddress := common.HexToAddress(cfg.PoolAddress)

	chain, err := chainclient.Dial(ctx, cfg.RPCURL, cfg.ChainID, poolAddress, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.RPCURL, err)
	}
	if err := chain.CheckChainID(ctx); err != nil {
		chain.Close()
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: log,
		Chain:  chain,
		Pool:   pool.NewReader(chain, poolAddress, cfg.PollingInterval, log),
		Breaker: circuitbreaker.NewCircuitBreaker(
			cfg.CircuitBreaker.Enabled,
			cfg.CircuitBreaker.Threshold,
			cfg.CircuitBreaker.WindowDuration,
			cfg.CircuitBreaker.ResetTimeout,
			log,
		),
	}

	if poolAddress != (common.Address{}) {
		if token, err := chain.RewardToken(ctx); err != nil {
			log.Error("Failed to read reward token, claims will not withdraw it: %v", err)
		} else {
			app.RewardToken = token
		}
	}

	if cfg.FeedDatabaseURL != "" {
		store, err := feed.NewPostgresStore(ctx, cfg.FeedDatabaseURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to open feed store: %w", err)
		}
		app.Feed = store
	} else {
		log.Info("FEED_DATABASE_URL not set, keeping the feed in memory")
		app.Feed = feed.NewMemoryStore()
	}

	if cfg.Vision.APIKey != "" {
		scorer, err := vision.NewGeminiClient(vision.Config{
			APIKey:    cfg.Vision.APIKey,
			Model:     cfg.Vision.Model,
			Endpoint:  cfg.Vision.Endpoint,
			RateLimit: cfg.Vision.RateLimit,
		}, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Vision = scorer
	}

	if cfg.HasSigner() {
		if err := app.wireExecutor(); err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

func (a *App) wireExecutor() error {
	cfg := a.Config

	w, err := wallet.NewKeyedWallet(cfg.PrivateKey, a.Chain, wallet.Options{
		ChainID:       big.NewInt(cfg.ChainID),
		GasLimit:      cfg.IntentionGasLimit,
		GasMultiplier: cfg.GasMultiplier,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load wallet: %w", err)
	}

	builder, err := intention.NewBuilder(a.Chain.PoolAddress, common.HexToAddress(cfg.ExecutorAddress))
	if err != nil {
		return err
	}

	res, err := resolver.New(a.Chain, resolver.Config{
		Pool:        a.Chain.PoolAddress,
		Lookback:    cfg.LookbackBlocks,
		ExplorerURL: cfg.ExplorerURL,
		MempoolURL:  cfg.MempoolURL,
	}, a.Logger)
	if err != nil {
		return err
	}

	exec, err := executor.New(executor.Deps{
		Builder:     builder,
		Finalizer:   w,
		Signer:      w,
		Broadcaster: a.Chain,
		Waiter:      mempool.New(cfg.MempoolAPIURL, cfg.ConfirmationTimeout, cfg.ConfirmationPollInterval, a.Logger),
		Resolver:    res,
		Accounts:    a.Chain,
		Pool:        a.Pool,
		Breaker:     a.Breaker,
		Feed:        a.Feed,
		Logger:      a.Logger,
	}, executor.Config{
		Account:          w.Address(),
		Confirmations:    cfg.Confirmations,
		DefaultThreshold: cfg.ScoreThreshold,
		RewardToken:      a.RewardToken,
	})
	if err != nil {
		return err
	}

	a.Wallet = w
	a.Executor = exec
	a.Logger.Info("Executor ready for account %s", w.Address().Hex())
	return nil
}

// Account returns the signing account, or the zero address without a key
func (a *App) Account() common.Address {
	if a.Wallet == nil {
		return common.Address{}
	}
	return a.Wallet.Address()
}

// HealthServer creates the HTTP server over the app's components
func (a *App) HealthServer() *health.Server {
	var status health.StatusSource
	if a.Executor != nil {
		status = a.Executor
	}
	return health.NewServer(health.Options{
		Port:           a.Config.MetricsPort,
		MetricsAPIKey:  a.Config.MetricsAPIKey,
		Network:        a.Config.Network,
		Account:        a.Account(),
		RewardToken:    a.RewardToken,
		DonationAsset:  a.donationAsset(),
		DonationRuneID: a.Config.Donation.RuneID,
	}, status, a.Pool, a.Chain, a.Feed, a.Breaker, a.Logger)
}

func (a *App) donationAsset() common.Address {
	if !common.IsHexAddress(a.Config.Donation.RuneAsset) {
		return common.Address{}
	}
	return common.HexToAddress(a.Config.Donation.RuneAsset)
}

// Close stops background work and releases connections
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Stop()
	}
	if a.Feed != nil {
		a.Feed.Close()
	}
	if a.Chain != nil {
		a.Chain.Close()
	}
}
