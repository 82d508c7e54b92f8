package chainclient

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/smilepool/smilepool-executor/pkg/contracts"
	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// SendMethod is the JSON-RPC method accepting a base transaction with its signed intentions
const SendMethod = "eth_sendBTCTransactions"

// Backend is the subset of ethclient.Client used by Client
type Backend interface {
	ethereum.ChainReader
	ethereum.BlockNumberReader
	ethereum.ContractCaller
	ethereum.LogFilterer
	ethereum.PendingStateReader
	ethereum.GasPricer1559
	ethereum.ChainIDReader
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// RPCCaller issues raw JSON-RPC calls
type RPCCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Client is the execution-layer client of one SmilePool deployment
type Client struct {
	ChainID     int64
	RPCURL      string
	PoolAddress common.Address
	Backend     Backend
	Pool        *contracts.SmilePool
	rpc         RPCCaller
	closer      func()
	logger      logger.Logger
}

// Dial connects to the execution layer and binds the pool contract
func Dial(ctx context.Context, rpcURL string, chainID int64, pool common.Address, log logger.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to client: %v", err)
	}

	client, err := New(ethclient.NewClient(rpcClient), rpcClient, chainID, pool, log)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}
	client.RPCURL = rpcURL
	client.closer = rpcClient.Close
	return client, nil
}

// New creates a client over an existing backend and RPC caller
func New(backend Backend, caller RPCCaller, chainID int64, pool common.Address, log logger.Logger) (*Client, error) {
	binding, err := contracts.NewSmilePool(pool, &contractBackend{Backend: backend})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize contract: %v", err)
	}

	return &Client{
		ChainID:     chainID,
		PoolAddress: pool,
		Backend:     backend,
		Pool:        binding,
		rpc:         caller,
		logger:      log,
	}, nil
}

// Close releases the RPC connection
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// CheckChainID verifies the node serves the configured chain
func (c *Client) CheckChainID(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	id, err := c.Backend.ChainID(timeoutCtx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %v", err)
	}
	if id.Int64() != c.ChainID {
		return fmt.Errorf("RPC serves chain %s, expected %d", id.String(), c.ChainID)
	}
	return nil
}

// SendBaseTransactions submits the signed intentions together with the raw
// base transaction in a single call. It is never retried.
func (c *Client) SendBaseTransactions(ctx context.Context, signed []*models.SignedIntention, raw []byte) error {
	if len(signed) == 0 {
		return fmt.Errorf("no signed intentions to send")
	}

	serialized := make([]hexutil.Bytes, 0, len(signed))
	for i, s := range signed {
		if s.Position != i {
			return fmt.Errorf("signed intention %d is at position %d", i, s.Position)
		}
		serialized = append(serialized, s.Raw)
	}

	c.logger.InfoWithLayer(logger.Settlement, "Broadcasting base tx %s with %d intentions", signed[0].BaseTxID, len(signed))
	if err := c.rpc.CallContext(ctx, nil, SendMethod, serialized, hex.EncodeToString(raw)); err != nil {
		return fmt.Errorf("failed to broadcast base tx %s: %w", signed[0].BaseTxID, err)
	}
	return nil
}

// BlockNumber returns the latest execution-layer block number
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.Backend.BlockNumber(ctx)
}

// FilterLogs runs a log query against the execution layer
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return c.Backend.FilterLogs(ctx, q)
}

// PendingNonceAt returns the next nonce for the account
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.Backend.PendingNonceAt(ctx, account)
}

// SuggestGasTipCap returns the suggested priority fee
func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return c.Backend.SuggestGasTipCap(ctx)
}

// HeaderByNumber returns a block header, the latest when number is nil
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.Backend.HeaderByNumber(ctx, number)
}

// contractBackend adapts Backend to bind.ContractBackend for read-only bindings
type contractBackend struct {
	Backend
}

func (b *contractBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return b.Backend.HeaderByNumber(ctx, number)
}

func (b *contractBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.Backend.CodeAt(ctx, account, nil)
}

func (b *contractBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return nil, fmt.Errorf("read-only backend")
}

func (b *contractBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 0, fmt.Errorf("read-only backend")
}

func (b *contractBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return fmt.Errorf("read-only backend: transactions go through %s", SendMethod)
}

func (b *contractBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return b.Backend.SubscribeFilterLogs(ctx, q, ch)
}
