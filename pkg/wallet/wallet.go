// Package wallet finalizes base transactions and signs intentions with a local key.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

var (
	// ErrUnknownBaseTx is returned when signing against a base transaction this wallet did not finalize
	ErrUnknownBaseTx = errors.New("unknown base transaction")

	// ErrUnknownIntention is returned when the intention is not part of the base transaction
	ErrUnknownIntention = errors.New("intention not in base transaction")

	// ErrOutOfOrder is returned when intentions are not signed in creation order
	ErrOutOfOrder = errors.New("intention signed out of order")
)

// ChainReader is the execution-layer state needed to finalize a base transaction
type ChainReader interface {
	NonceSource
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Options configures a KeyedWallet
type Options struct {
	ChainID       *big.Int
	GasLimit      uint64
	GasMultiplier float64
}

// envelope is the RLP body of a finalized base transaction
type envelope struct {
	Sender     common.Address
	ChainID    *big.Int
	FirstNonce uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	GasLimit   uint64
	Intentions []common.Hash
	CreatedAt  uint64
}

type pendingBase struct {
	tx     *models.BaseTransaction
	env    envelope
	signed int
}

// KeyedWallet finalizes and signs with a secp256k1 key held in memory
type KeyedWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chain   ChainReader
	nonces  *NonceManager
	signer  types.Signer
	opts    Options
	pending map[string]*pendingBase
	logger  logger.Logger
	mu      sync.Mutex
}

// NewKeyedWallet creates a wallet from a hex private key
func NewKeyedWallet(privateKeyHex string, chain ChainReader, opts Options, log logger.Logger) (*KeyedWallet, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %v", err)
	}
	return NewKeyedWalletFromKey(key, chain, opts, log)
}

// NewKeyedWalletFromKey creates a wallet from a parsed key
func NewKeyedWalletFromKey(key *ecdsa.PrivateKey, chain ChainReader, opts Options, log logger.Logger) (*KeyedWallet, error) {
	if opts.ChainID == nil || opts.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("chain ID is required")
	}
	if opts.GasLimit == 0 {
		return nil, fmt.Errorf("gas limit is required")
	}
	if opts.GasMultiplier < 1 {
		opts.GasMultiplier = 1
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	return &KeyedWallet{
		key:     key,
		address: address,
		chain:   chain,
		nonces:  NewNonceManager(chain, address, log),
		signer:  types.LatestSignerForChainID(opts.ChainID),
		opts:    opts,
		pending: make(map[string]*pendingBase),
		logger:  log,
	}, nil
}

// Address returns the execution-layer address of the wallet
func (w *KeyedWallet) Address() common.Address {
	return w.address
}

// Nonces exposes the wallet's nonce manager
func (w *KeyedWallet) Nonces() *NonceManager {
	return w.nonces
}

// Finalize encloses the intentions in one base transaction. It reserves one
// execution-layer nonce per intention, in order.
func (w *KeyedWallet) Finalize(ctx context.Context, intentions []models.Intention) (*models.BaseTransaction, error) {
	if len(intentions) == 0 {
		return nil, fmt.Errorf("no intentions to finalize")
	}

	tipCap, feeCap, err := w.fees(ctx)
	if err != nil {
		return nil, err
	}

	count := uint64(len(intentions))
	first, err := w.nonces.Reserve(ctx, count)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	env := envelope{
		Sender:     w.address,
		ChainID:    w.opts.ChainID,
		FirstNonce: first,
		GasTipCap:  tipCap,
		GasFeeCap:  feeCap,
		GasLimit:   w.opts.GasLimit,
		Intentions: make([]common.Hash, 0, len(intentions)),
		CreatedAt:  uint64(now.UnixNano()),
	}
	for _, in := range intentions {
		env.Intentions = append(env.Intentions, in.Hash())
	}

	raw, err := rlp.EncodeToBytes(&env)
	if err != nil {
		w.nonces.Unreserve(first, count)
		return nil, fmt.Errorf("failed to encode base transaction: %v", err)
	}

	tx := &models.BaseTransaction{
		ID:         hex.EncodeToString(crypto.Keccak256(raw)),
		Raw:        raw,
		Sender:     w.address,
		Intentions: append([]models.Intention(nil), intentions...),
		CreatedAt:  now,
	}
	w.nonces.Track(tx.ID, first, count)

	w.mu.Lock()
	w.pending[tx.ID] = &pendingBase{tx: tx, env: env}
	w.mu.Unlock()

	w.logger.DebugWithLayer(logger.Settlement, "Finalized base tx %s with %d intentions (nonces from %d)", tx.ID, count, first)
	return tx, nil
}

// SignIntention signs one intention against a finalized base transaction
func (w *KeyedWallet) SignIntention(ctx context.Context, intention models.Intention, baseTxID string) (*models.SignedIntention, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[baseTxID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBaseTx, baseTxID)
	}

	hash := intention.Hash()
	pos, ok := p.tx.Position(hash)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntention, hash.Hex())
	}
	if pos != p.signed {
		return nil, fmt.Errorf("%w: got position %d, expected %d", ErrOutOfOrder, pos, p.signed)
	}

	target := intention.Target
	evmTx, err := types.SignNewTx(w.key, w.signer, &types.DynamicFeeTx{
		ChainID:   w.opts.ChainID,
		Nonce:     p.env.FirstNonce + uint64(pos),
		GasTipCap: p.env.GasTipCap,
		GasFeeCap: p.env.GasFeeCap,
		Gas:       p.env.GasLimit,
		To:        &target,
		Value:     big.NewInt(0),
		Data:      intention.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign intention %d: %v", pos, err)
	}

	raw, err := evmTx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode intention %d: %v", pos, err)
	}

	binding, err := crypto.Sign(BindingDigest(baseTxID, evmTx.Hash()).Bytes(), w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign binding for intention %d: %v", pos, err)
	}

	p.signed++
	return &models.SignedIntention{
		Position:      pos,
		BaseTxID:      baseTxID,
		IntentionHash: hash,
		EVMHash:       evmTx.Hash(),
		Raw:           raw,
		Binding:       binding,
	}, nil
}

// Settle records whether the base transaction landed. Nonces of a base
// transaction that did not land are released for reuse.
func (w *KeyedWallet) Settle(baseTxID string, landed bool) {
	w.mu.Lock()
	delete(w.pending, baseTxID)
	w.mu.Unlock()

	if landed {
		w.nonces.Confirm(baseTxID)
	} else {
		w.nonces.Release(baseTxID)
	}
}

// BindingDigest is the digest signed to bind an intention to its base transaction
func BindingDigest(baseTxID string, evmHash common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte(baseTxID), evmHash.Bytes())
}

func (w *KeyedWallet) fees(ctx context.Context) (*big.Int, *big.Int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tipCap, err := w.chain.SuggestGasTipCap(timeoutCtx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get gas tip cap: %v", err)
	}

	head, err := w.chain.HeaderByNumber(timeoutCtx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get latest header: %v", err)
	}

	baseFee := big.NewInt(0)
	if head.BaseFee != nil {
		baseFee = head.BaseFee
	}

	// feeCap = (2 * baseFee + tip) * multiplier
	feeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tipCap)
	scaled := new(big.Float).Mul(new(big.Float).SetInt(feeCap), big.NewFloat(w.opts.GasMultiplier))
	scaled.Int(feeCap)

	return tipCap, feeCap, nil
}
