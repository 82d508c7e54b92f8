package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/smilepool/smilepool-executor/pkg/logger"
)

// Config holds the configuration for the SmilePool executor
type Config struct {
	Network                  string
	RPCURL                   string
	ChainID                  int64
	PoolAddress              string
	ExecutorAddress          string
	ExplorerURL              string
	MempoolURL               string
	MempoolAPIURL            string
	PrivateKey               string
	PollingInterval          time.Duration
	LookbackBlocks           uint64
	Confirmations            int
	ConfirmationTimeout      time.Duration
	ConfirmationPollInterval time.Duration
	ScoreThreshold           int64
	GasMultiplier            float64
	IntentionGasLimit        uint64
	MetricsPort              string
	MetricsAPIKey            string
	FeedDatabaseURL          string
	Donation                 DonationConfig
	Vision                   VisionConfig
	CircuitBreaker           CircuitBreakerConfig
	LoggerConfig             LoggerConfig
}

// DonationConfig holds the default asset offered for donations
type DonationConfig struct {
	RuneAsset string
	RuneID    string
}

// VisionConfig holds the smile scoring service configuration
type VisionConfig struct {
	APIKey    string
	Model     string
	Endpoint  string
	RateLimit float64
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	network, err := GetEnvNetwork()
	if err != nil {
		return nil, err
	}

	rpcURL, err := GetEnvRPCURL(network)
	if err != nil {
		return nil, err
	}

	chainID, err := GetEnvChainID(network)
	if err != nil {
		return nil, err
	}

	poolAddress, err := GetEnvPoolAddress(network)
	if err != nil {
		return nil, err
	}

	executorAddress, err := GetEnvExecutorAddress()
	if err != nil {
		return nil, err
	}

	explorerURL, err := GetEnvExplorerURL(network)
	if err != nil {
		return nil, err
	}

	mempoolURL, err := GetEnvMempoolURL(network)
	if err != nil {
		return nil, err
	}

	mempoolAPIURL, err := GetEnvMempoolAPIURL(network)
	if err != nil {
		return nil, err
	}

	runeAsset, err := GetEnvRuneAsset(network)
	if err != nil {
		return nil, err
	}

	runeID, err := GetEnvRuneID(network)
	if err != nil {
		return nil, err
	}

	pollingInterval, err := GetEnvPollingInterval()
	if err != nil {
		return nil, err
	}

	lookback, err := GetEnvLookbackBlocks()
	if err != nil {
		return nil, err
	}

	confirmations, err := GetEnvConfirmations()
	if err != nil {
		return nil, err
	}

	confirmationTimeout, err := GetEnvConfirmationTimeout()
	if err != nil {
		return nil, err
	}

	confirmationPoll, err := GetEnvConfirmationPollInterval()
	if err != nil {
		return nil, err
	}

	scoreThreshold, err := GetEnvScoreThreshold()
	if err != nil {
		return nil, err
	}

	gasMultiplier, err := GetEnvGasMultiplier()
	if err != nil {
		return nil, err
	}

	gasLimit, err := GetEnvIntentionGasLimit()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	feedDSN, err := GetEnvFeedDatabaseURL()
	if err != nil {
		return nil, err
	}

	visionEndpoint, err := GetEnvVisionEndpoint()
	if err != nil {
		return nil, err
	}

	visionRate, err := GetEnvVisionRateLimit()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Network:                  network.Name,
		RPCURL:                   rpcURL,
		ChainID:                  chainID,
		PoolAddress:              poolAddress,
		ExecutorAddress:          executorAddress,
		ExplorerURL:              explorerURL,
		MempoolURL:               mempoolURL,
		MempoolAPIURL:            mempoolAPIURL,
		PrivateKey:               strings.TrimPrefix(os.Getenv("PRIVATE_KEY"), "0x"),
		PollingInterval:          pollingInterval,
		LookbackBlocks:           lookback,
		Confirmations:            confirmations,
		ConfirmationTimeout:      confirmationTimeout,
		ConfirmationPollInterval: confirmationPoll,
		ScoreThreshold:           scoreThreshold,
		GasMultiplier:            gasMultiplier,
		IntentionGasLimit:        gasLimit,
		MetricsPort:              metricsPort,
		MetricsAPIKey:            os.Getenv("METRICS_API_KEY"),
		FeedDatabaseURL:          feedDSN,
		Donation: DonationConfig{
			RuneAsset: runeAsset,
			RuneID:    runeID,
		},
		Vision: VisionConfig{
			APIKey:    os.Getenv("GEMINI_API_KEY"),
			Model:     GetEnvVisionModel(),
			Endpoint:  visionEndpoint,
			RateLimit: visionRate,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasSigner reports whether a private key is configured
func (c *Config) HasSigner() bool {
	return c.PrivateKey != ""
}

// RequireSigner returns an error when actions cannot be signed
func (c *Config) RequireSigner() error {
	if !c.HasSigner() {
		return fmt.Errorf("PRIVATE_KEY environment variable is required")
	}
	return nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.ConfirmationPollInterval >= cfg.ConfirmationTimeout {
		return fmt.Errorf("CONFIRMATION_POLL_INTERVAL (%s) must be shorter than CONFIRMATION_TIMEOUT (%s)",
			cfg.ConfirmationPollInterval, cfg.ConfirmationTimeout)
	}
	if cfg.PrivateKey != "" && len(cfg.PrivateKey) != 64 {
		return fmt.Errorf("PRIVATE_KEY must be a 32-byte hex string")
	}
	return nil
}
