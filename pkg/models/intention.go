package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Action is a user-facing operation that produces one base transaction
type Action string

const (
	ActionClaim  Action = "claim"
	ActionDonate Action = "donate"
)

// IntentionKind is the closed set of intention shapes the executor builds
type IntentionKind uint8

const (
	KindClaim IntentionKind = iota + 1
	KindApprove
	KindDonate
	KindCompletion
)

func (k IntentionKind) String() string {
	switch k {
	case KindClaim:
		return "claim"
	case KindApprove:
		return "approve"
	case KindDonate:
		return "donate"
	case KindCompletion:
		return "completion"
	}
	return "unknown"
}

// Deposit moves a base-chain asset into the execution layer alongside a call
type Deposit struct {
	Asset  common.Address `json:"asset"`
	RuneID string         `json:"rune_id"`
	Amount *big.Int       `json:"amount"`
}

// AssetAmount is an asset and amount pair, used for withdrawals back to the base chain
type AssetAmount struct {
	Asset  common.Address `json:"asset"`
	Amount *big.Int       `json:"amount"`
}

// Intention is one execution-layer call queued for inclusion in a base transaction.
// It is immutable once built; Hash identifies it.
type Intention struct {
	Kind        IntentionKind  `json:"kind"`
	Target      common.Address `json:"target"`
	Payload     hexutil.Bytes  `json:"payload"`
	Deposit     *Deposit       `json:"deposit,omitempty"`
	Withdrawals []AssetAmount  `json:"withdrawals,omitempty"`
}

type intentionRLP struct {
	Kind          uint8
	Target        common.Address
	Payload       []byte
	DepositAsset  common.Address
	DepositRuneID string
	DepositAmount *big.Int
	Withdrawals   []AssetAmount
}

// Hash returns the keccak256 hash of the intention's RLP encoding
func (i Intention) Hash() common.Hash {
	enc := intentionRLP{
		Kind:        uint8(i.Kind),
		Target:      i.Target,
		Payload:     i.Payload,
		Withdrawals: i.Withdrawals,
	}
	if i.Deposit != nil {
		enc.DepositAsset = i.Deposit.Asset
		enc.DepositRuneID = i.Deposit.RuneID
		enc.DepositAmount = i.Deposit.Amount
	}

	b, _ := rlp.EncodeToBytes(&enc)
	return crypto.Keccak256Hash(b)
}

// BaseTransaction is the single settlement-chain transaction enclosing every
// intention of one action. Intentions are kept in creation order; the index of
// an intention is its position in the bundle.
type BaseTransaction struct {
	ID         string         `json:"id"`
	Raw        hexutil.Bytes  `json:"raw"`
	Sender     common.Address `json:"sender"`
	Intentions []Intention    `json:"intentions"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Position returns the index of the intention with the given hash
func (b *BaseTransaction) Position(hash common.Hash) (int, bool) {
	for i, intention := range b.Intentions {
		if intention.Hash() == hash {
			return i, true
		}
	}
	return -1, false
}

// SignedIntention is the signed execution-layer transaction for one intention,
// bound to the base transaction it was signed against.
type SignedIntention struct {
	Position      int           `json:"position"`
	BaseTxID      string        `json:"base_tx_id"`
	IntentionHash common.Hash   `json:"intention_hash"`
	EVMHash       common.Hash   `json:"evm_hash"`
	Raw           hexutil.Bytes `json:"raw"`
	Binding       hexutil.Bytes `json:"binding"`
}

// TxResult is the outcome of a completed action
type TxResult struct {
	Action          Action      `json:"action"`
	BaseTxID        string      `json:"base_tx_id"`
	ExecutionTxHash common.Hash `json:"execution_tx_hash,omitempty"`
	ExplorerURL     string      `json:"explorer_url"`
	Resolved        bool        `json:"resolved"`
	ConfirmedAt     time.Time   `json:"confirmed_at"`
}

// HasExecutionHash reports whether the execution-layer hash was resolved from logs
func (r TxResult) HasExecutionHash() bool {
	return r.Resolved && r.ExecutionTxHash != (common.Hash{})
}
