package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smilepool/smilepool-executor/pkg/logger"
)

const (
	staging = "staging"
	local   = "local"

	zeroAddress = "0x0000000000000000000000000000000000000000"

	// DefaultNetwork is the deployment used when NETWORK is unset
	DefaultNetwork = staging

	// DefaultPollingInterval defines the pool snapshot refresh interval in seconds
	DefaultPollingInterval = 10

	// DefaultLookbackBlocks defines how many execution-layer blocks the hash resolver scans
	DefaultLookbackBlocks = 20

	// DefaultConfirmations defines the settlement-chain confirmation depth
	DefaultConfirmations = 1

	// DefaultConfirmationTimeout bounds how long an action waits for confirmation
	DefaultConfirmationTimeout = 10 * time.Minute

	// DefaultConfirmationPollInterval defines how often the settlement chain is polled while confirming
	DefaultConfirmationPollInterval = 5 * time.Second

	// DefaultScoreThreshold is used when the pool snapshot is not available yet
	DefaultScoreThreshold = 75

	// DefaultGasMultiplier pads the suggested fee cap (10% buffer)
	DefaultGasMultiplier = 1.1

	// DefaultIntentionGasLimit is the gas limit of each signed intention
	DefaultIntentionGasLimit = 300000

	// DefaultMetricsPort defines the default port for the health and metrics server
	DefaultMetricsPort = "8080"

	// DefaultExecutorAddress leaves the completion intention out of claims
	DefaultExecutorAddress = zeroAddress

	// DefaultCircuitBreakerEnabled defines whether the circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of network failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 3

	// DefaultCircuitBreakerWindow defines the time window for the circuit breaker
	DefaultCircuitBreakerWindow = 60

	// DefaultCircuitBreakerReset defines the reset timeout for the circuit breaker
	DefaultCircuitBreakerReset = 120

	// DefaultLogLevel defines the default log level
	DefaultLogLevel = logger.InfoLevel

	// DefaultLogColoring defines whether log prefixes are colored
	DefaultLogColoring = true

	// DefaultVisionModel is the Gemini model used for smile scoring
	DefaultVisionModel = "gemini-2.5-flash"

	// DefaultVisionEndpoint is the Gemini REST endpoint
	DefaultVisionEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultVisionRateLimit is the number of scoring requests allowed per second
	DefaultVisionRateLimit = 1.0
)

// GetEnvNetwork returns the configured network preset, defaulting to staging
func GetEnvNetwork() (Network, error) {
	name := os.Getenv("NETWORK")
	if name == "" {
		name = DefaultNetwork
	}

	network, ok := GetNetwork(name)
	if !ok {
		return Network{}, fmt.Errorf("invalid NETWORK value: %s, must be one of %s", name, strings.Join(NetworkNames(), ", "))
	}
	return network, nil
}

// GetEnvRPCURL returns the execution-layer RPC URL
func GetEnvRPCURL(network Network) (string, error) {
	return getEnvURL("EVM_RPC_URL", network.RPCURL)
}

// GetEnvExplorerURL returns the execution-layer explorer URL
func GetEnvExplorerURL(network Network) (string, error) {
	return getEnvURL("EXPLORER_URL", network.ExplorerURL)
}

// GetEnvMempoolURL returns the settlement-chain explorer URL used for fallback links
func GetEnvMempoolURL(network Network) (string, error) {
	return getEnvURL("MEMPOOL_URL", network.MempoolURL)
}

// GetEnvMempoolAPIURL returns the settlement-chain explorer API URL polled for confirmations
func GetEnvMempoolAPIURL(network Network) (string, error) {
	return getEnvURL("MEMPOOL_API_URL", network.MempoolAPIURL)
}

// GetEnvChainID returns the execution-layer chain ID
func GetEnvChainID(network Network) (int64, error) {
	chainID := os.Getenv("CHAIN_ID")
	if chainID == "" {
		return network.ChainID, nil
	}

	id, err := strconv.ParseInt(chainID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid CHAIN_ID value: %s, must be an integer", chainID)
	}
	if id <= 0 {
		return 0, fmt.Errorf("CHAIN_ID must be greater than 0")
	}
	return id, nil
}

// GetEnvPoolAddress returns the SmilePool contract address
func GetEnvPoolAddress(network Network) (string, error) {
	return getEnvAddress("SMILEPOOL_ADDRESS", network.PoolAddress)
}

// GetEnvExecutorAddress returns the executor contract targeted by completion intentions
func GetEnvExecutorAddress() (string, error) {
	return getEnvAddress("EXECUTOR_ADDRESS", DefaultExecutorAddress)
}

// GetEnvRuneAsset returns the ERC20 address of the default donation asset
func GetEnvRuneAsset(network Network) (string, error) {
	return getEnvAddress("RUNE_ASSET_ADDRESS", network.RuneAsset)
}

// GetEnvRuneID returns the rune id (block:tx) of the default donation asset
func GetEnvRuneID(network Network) (string, error) {
	runeID := os.Getenv("RUNE_ID")
	if runeID == "" {
		return network.RuneID, nil
	}

	parts := strings.Split(runeID, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid RUNE_ID value: %s, must be in block:tx format", runeID)
	}
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return "", fmt.Errorf("invalid RUNE_ID value: %s, must be in block:tx format", runeID)
		}
	}
	return runeID, nil
}

// GetEnvPollingInterval returns the pool snapshot polling interval from environment variables
func GetEnvPollingInterval() (time.Duration, error) {
	pollingInterval := os.Getenv("POLLING_INTERVAL")
	if pollingInterval == "" {
		return time.Duration(DefaultPollingInterval) * time.Second, nil
	}

	interval, err := strconv.Atoi(pollingInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid POLLING_INTERVAL value: %s, must be an integer", pollingInterval)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("POLLING_INTERVAL must be greater than 0")
	}
	return time.Duration(interval) * time.Second, nil
}

// GetEnvLookbackBlocks returns the resolver's log lookback window
func GetEnvLookbackBlocks() (uint64, error) {
	lookback := os.Getenv("LOOKBACK_BLOCKS")
	if lookback == "" {
		return DefaultLookbackBlocks, nil
	}

	blocks, err := strconv.ParseUint(lookback, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid LOOKBACK_BLOCKS value: %s, must be a non-negative integer", lookback)
	}
	if blocks == 0 {
		return 0, fmt.Errorf("LOOKBACK_BLOCKS must be greater than 0")
	}
	return blocks, nil
}

// GetEnvConfirmations returns the settlement-chain confirmation depth
func GetEnvConfirmations() (int, error) {
	confirmations := os.Getenv("CONFIRMATIONS")
	if confirmations == "" {
		return DefaultConfirmations, nil
	}

	depth, err := strconv.Atoi(confirmations)
	if err != nil {
		return 0, fmt.Errorf("invalid CONFIRMATIONS value: %s, must be an integer", confirmations)
	}
	if depth <= 0 {
		return 0, fmt.Errorf("CONFIRMATIONS must be greater than 0")
	}
	return depth, nil
}

// GetEnvConfirmationTimeout returns the bound on waiting for confirmation
func GetEnvConfirmationTimeout() (time.Duration, error) {
	return getEnvDuration("CONFIRMATION_TIMEOUT", DefaultConfirmationTimeout)
}

// GetEnvConfirmationPollInterval returns the confirmation polling interval
func GetEnvConfirmationPollInterval() (time.Duration, error) {
	return getEnvDuration("CONFIRMATION_POLL_INTERVAL", DefaultConfirmationPollInterval)
}

// GetEnvScoreThreshold returns the fallback claim threshold
func GetEnvScoreThreshold() (int64, error) {
	threshold := os.Getenv("SCORE_THRESHOLD")
	if threshold == "" {
		return DefaultScoreThreshold, nil
	}

	value, err := strconv.ParseInt(threshold, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid SCORE_THRESHOLD value: %s, must be an integer", threshold)
	}
	if value < 0 || value > 100 {
		return 0, fmt.Errorf("SCORE_THRESHOLD must be between 0 and 100")
	}
	return value, nil
}

// GetEnvGasMultiplier returns the fee cap multiplier
func GetEnvGasMultiplier() (float64, error) {
	multiplier := os.Getenv("GAS_MULTIPLIER")
	if multiplier == "" {
		return DefaultGasMultiplier, nil
	}

	value, err := strconv.ParseFloat(multiplier, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid GAS_MULTIPLIER value: %s, must be a number", multiplier)
	}
	if value < 1 {
		return 0, fmt.Errorf("GAS_MULTIPLIER must be greater than or equal to 1")
	}
	return value, nil
}

// GetEnvIntentionGasLimit returns the gas limit applied to each intention
func GetEnvIntentionGasLimit() (uint64, error) {
	gasLimit := os.Getenv("INTENTION_GAS_LIMIT")
	if gasLimit == "" {
		return DefaultIntentionGasLimit, nil
	}

	value, err := strconv.ParseUint(gasLimit, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid INTENTION_GAS_LIMIT value: %s, must be an integer", gasLimit)
	}
	if value < 21000 {
		return 0, fmt.Errorf("INTENTION_GAS_LIMIT must be at least 21000")
	}
	return value, nil
}

// GetEnvMetricsPort returns the metrics server port from environment variables
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return DefaultMetricsPort, nil
	}

	// Validate port format
	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled from environment variables
func GetEnvCircuitBreakerEnabled() (bool, error) {
	enabled := os.Getenv("CIRCUIT_BREAKER_ENABLED")
	if enabled == "" {
		return DefaultCircuitBreakerEnabled, nil
	}

	if enabled == "true" {
		return true, nil
	} else if enabled == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid CIRCUIT_BREAKER_ENABLED value: %s, must be 'true' or 'false'", enabled)
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker threshold from environment variables
func GetEnvCircuitBreakerThreshold() (int, error) {
	threshold := os.Getenv("CIRCUIT_BREAKER_THRESHOLD")
	if threshold == "" {
		return DefaultCircuitBreakerThreshold, nil
	}

	thresholdInt, err := strconv.Atoi(threshold)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD value: %s, must be an integer", threshold)
	}
	if thresholdInt <= 0 {
		return 0, fmt.Errorf("CIRCUIT_BREAKER_THRESHOLD must be greater than 0")
	}
	return thresholdInt, nil
}

// GetEnvCircuitBreakerWindow returns the circuit breaker window duration from environment variables
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_WINDOW", DefaultCircuitBreakerWindow*time.Second)
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout from environment variables
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_RESET", DefaultCircuitBreakerReset*time.Second)
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return DefaultLogLevel, nil
	}

	parsed, err := logger.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be one of debug, info, notice, error", level)
	}
	return parsed, nil
}

// GetEnvLogColoring returns whether log coloring is enabled from environment variables
func GetEnvLogColoring() (bool, error) {
	coloring := os.Getenv("LOG_COLORING")
	if coloring == "" {
		return DefaultLogColoring, nil
	}

	value, err := strconv.ParseBool(coloring)
	if err != nil {
		return false, fmt.Errorf("invalid LOG_COLORING value: %s, must be 'true' or 'false'", coloring)
	}
	return value, nil
}

// GetEnvFeedDatabaseURL returns the Postgres DSN for the feed store. Empty selects the in-memory store.
func GetEnvFeedDatabaseURL() (string, error) {
	dsn := os.Getenv("FEED_DATABASE_URL")
	if dsn == "" {
		return "", nil
	}

	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return "", fmt.Errorf("invalid FEED_DATABASE_URL value, must be a postgres:// URL")
	}
	return dsn, nil
}

// GetEnvVisionModel returns the Gemini model name
func GetEnvVisionModel() string {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		return DefaultVisionModel
	}
	return model
}

// GetEnvVisionEndpoint returns the Gemini API endpoint
func GetEnvVisionEndpoint() (string, error) {
	return getEnvURL("GEMINI_ENDPOINT", DefaultVisionEndpoint)
}

// GetEnvVisionRateLimit returns the vision request rate in requests per second
func GetEnvVisionRateLimit() (float64, error) {
	limit := os.Getenv("VISION_RATE_LIMIT")
	if limit == "" {
		return DefaultVisionRateLimit, nil
	}

	value, err := strconv.ParseFloat(limit, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid VISION_RATE_LIMIT value: %s, must be a number", limit)
	}
	if value <= 0 {
		return 0, fmt.Errorf("VISION_RATE_LIMIT must be greater than 0")
	}
	return value, nil
}

func getEnvURL(key, fallback string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}

	// Validate URL format
	if _, err := url.ParseRequestURI(value); err != nil {
		return "", fmt.Errorf("invalid %s value: %s, must be a valid URL", key, value)
	}
	return strings.TrimRight(value, "/"), nil
}

func getEnvAddress(key, fallback string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}

	// Validate Ethereum address format
	if !common.IsHexAddress(value) {
		return "", fmt.Errorf("invalid %s value: %s, must be a valid Ethereum address", key, value)
	}
	return value, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	// Validate duration format
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be a valid duration string", key, value)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return parsed, nil
}
