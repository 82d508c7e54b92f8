// Package mempool provides a client for the settlement-chain explorer API.
package mempool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/metrics"
)

// ErrConfirmationTimeout is returned when the base transaction did not reach
// the requested depth within the confirmation timeout
var ErrConfirmationTimeout = errors.New("confirmation timeout")

// errNotFound marks a transaction the explorer has not seen yet
var errNotFound = errors.New("transaction not found")

// TxStatus is the explorer's view of a transaction
type TxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint64 `json:"block_height,omitempty"`
	BlockHash   string `json:"block_hash,omitempty"`
	BlockTime   int64  `json:"block_time,omitempty"`
}

// Depth returns the number of blocks on top of and including the transaction's block
func (s TxStatus) Depth(tip uint64) uint64 {
	if !s.Confirmed || tip < s.BlockHeight {
		return 0
	}
	return tip - s.BlockHeight + 1
}

// Client represents a settlement-chain explorer client
type Client struct {
	endpoint     string
	httpClient   *http.Client
	timeout      time.Duration
	pollInterval time.Duration
	logger       logger.Logger
}

// New creates a new explorer client. timeout bounds every WaitForConfirmation call.
func New(endpoint string, timeout, pollInterval time.Duration, logger logger.Logger) *Client {
	return &Client{
		endpoint:     strings.TrimSuffix(endpoint, "/"),
		httpClient:   createHTTPClient(),
		timeout:      timeout,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// TxStatus gets the confirmation status of a transaction
func (c *Client) TxStatus(ctx context.Context, txID string) (TxStatus, error) {
	body, err := c.get(ctx, "/tx/"+txID+"/status")
	if err != nil {
		return TxStatus{}, err
	}

	var status TxStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return TxStatus{}, fmt.Errorf("failed to decode tx status: %v, body: %s", err, string(body))
	}
	return status, nil
}

// TipHeight gets the height of the settlement chain tip
func (c *Client) TipHeight(ctx context.Context) (uint64, error) {
	body, err := c.get(ctx, "/blocks/tip/height")
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse tip height %q: %v", string(body), err)
	}
	return height, nil
}

// WaitForConfirmation blocks until the transaction has at least depth
// confirmations. Polling errors are logged and polling continues.
func (c *Client) WaitForConfirmation(ctx context.Context, txID string, depth int) error {
	if depth < 1 {
		depth = 1
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		reached, err := c.poll(waitCtx, txID, uint64(depth))
		switch {
		case reached:
			metrics.ConfirmationPolls.WithLabelValues("confirmed").Inc()
			return nil
		case errors.Is(err, errNotFound):
			metrics.ConfirmationPolls.WithLabelValues("not_found").Inc()
			c.logger.DebugWithLayer(logger.Settlement, "Base tx %s not seen by explorer yet", txID)
		case err != nil && waitCtx.Err() == nil:
			metrics.ConfirmationPolls.WithLabelValues("error").Inc()
			c.logger.ErrorWithLayer(logger.Settlement, "Failed to poll status of %s: %v", txID, err)
		default:
			metrics.ConfirmationPolls.WithLabelValues("pending").Inc()
		}

		select {
		case <-waitCtx.Done():
			// The caller's context takes precedence over our own bound
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %s after %s", ErrConfirmationTimeout, txID, c.timeout)
		case <-ticker.C:
		}
	}
}

func (c *Client) poll(ctx context.Context, txID string, depth uint64) (bool, error) {
	status, err := c.TxStatus(ctx, txID)
	if err != nil {
		return false, err
	}
	if !status.Confirmed {
		return false, nil
	}

	// Skip the tip lookup for single-confirmation waits
	if depth == 1 {
		return true, nil
	}

	tip, err := c.TipHeight(ctx)
	if err != nil {
		return false, err
	}
	c.logger.DebugWithLayer(logger.Settlement, "Base tx %s at depth %d/%d", txID, status.Depth(tip), depth)
	return status.Depth(tip) >= depth, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Error("Failed to close response body: %v", err)
		}
	}(resp.Body)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	return bodyBytes, nil
}

// Helper function to create an HTTP client with timeouts
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
