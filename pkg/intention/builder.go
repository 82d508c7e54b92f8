// Package intention encodes SmilePool calls into intentions. It performs no
// network calls and holds no mutable state.
package intention

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/smilepool/smilepool-executor/pkg/contracts"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// Builder creates intentions targeting one pool deployment
type Builder struct {
	pool     common.Address
	executor common.Address
	poolABI  abi.ABI
	erc20ABI abi.ABI
	execABI  abi.ABI
}

// ClaimRequest holds the inputs of a claim action
type ClaimRequest struct {
	Score   *big.Int
	Nonce   *big.Int
	Message string

	// RewardToken and RewardAmount are withdrawn back to the base chain by the completion intention
	RewardToken  common.Address
	RewardAmount *big.Int
}

// DonateRequest holds the inputs of a donate action
type DonateRequest struct {
	Amount *big.Int
	Asset  common.Address
	RuneID string
}

// NewBuilder creates a builder for the given pool. A zero executor address
// leaves the completion intention out of claims.
func NewBuilder(pool, executor common.Address) (*Builder, error) {
	poolABI, err := contracts.ParseSmilePoolABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %v", err)
	}
	erc20ABI, err := contracts.ParseERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %v", err)
	}
	execABI, err := contracts.ParseExecutorABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse executor ABI: %v", err)
	}

	return &Builder{
		pool:     pool,
		executor: executor,
		poolABI:  poolABI,
		erc20ABI: erc20ABI,
		execABI:  execABI,
	}, nil
}

// Pool returns the pool address intentions are built against
func (b *Builder) Pool() common.Address {
	return b.pool
}

// Claim encodes claimReward(score, nonce, message)
func (b *Builder) Claim(score, nonce *big.Int, message string) (models.Intention, error) {
	if err := checkUint("score", score); err != nil {
		return models.Intention{}, err
	}
	if err := checkUint("nonce", nonce); err != nil {
		return models.Intention{}, err
	}

	payload, err := b.poolABI.Pack("claimReward", score, nonce, message)
	if err != nil {
		return models.Intention{}, fmt.Errorf("failed to encode claim: %v", err)
	}

	return models.Intention{
		Kind:    models.KindClaim,
		Target:  b.pool,
		Payload: payload,
	}, nil
}

// Approve encodes approve(spender, amount) on the token contract
func (b *Builder) Approve(token, spender common.Address, amount *big.Int) (models.Intention, error) {
	if err := checkUint("amount", amount); err != nil {
		return models.Intention{}, err
	}

	payload, err := b.erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return models.Intention{}, fmt.Errorf("failed to encode approve: %v", err)
	}

	return models.Intention{
		Kind:    models.KindApprove,
		Target:  token,
		Payload: payload,
	}, nil
}

// Donate encodes donate(amount) carrying the deposit of the donated asset
func (b *Builder) Donate(amount *big.Int, deposit models.Deposit) (models.Intention, error) {
	if err := checkUint("amount", amount); err != nil {
		return models.Intention{}, err
	}
	if err := checkUint("deposit amount", deposit.Amount); err != nil {
		return models.Intention{}, err
	}

	payload, err := b.poolABI.Pack("donate", amount)
	if err != nil {
		return models.Intention{}, fmt.Errorf("failed to encode donate: %v", err)
	}

	d := deposit
	d.Amount = new(big.Int).Set(deposit.Amount)
	return models.Intention{
		Kind:    models.KindDonate,
		Target:  b.pool,
		Payload: payload,
		Deposit: &d,
	}, nil
}

// Completion encodes completeTx for the given withdrawals
func (b *Builder) Completion(withdrawals ...models.AssetAmount) (models.Intention, error) {
	assets := make([]common.Address, 0, len(withdrawals))
	amounts := make([]*big.Int, 0, len(withdrawals))
	for _, w := range withdrawals {
		if err := checkUint("withdrawal amount", w.Amount); err != nil {
			return models.Intention{}, err
		}
		assets = append(assets, w.Asset)
		amounts = append(amounts, w.Amount)
	}

	payload, err := b.execABI.Pack("completeTx", assets, amounts)
	if err != nil {
		return models.Intention{}, fmt.Errorf("failed to encode completion: %v", err)
	}

	return models.Intention{
		Kind:        models.KindCompletion,
		Target:      b.executor,
		Payload:     payload,
		Withdrawals: append([]models.AssetAmount(nil), withdrawals...),
	}, nil
}

// ClaimAction returns the claim intention followed by the completion that
// withdraws the reward to the base chain.
func (b *Builder) ClaimAction(req ClaimRequest) ([]models.Intention, error) {
	claim, err := b.Claim(req.Score, req.Nonce, req.Message)
	if err != nil {
		return nil, err
	}
	intentions := []models.Intention{claim}

	if b.executor == (common.Address{}) {
		return intentions, nil
	}

	var withdrawals []models.AssetAmount
	if req.RewardToken != (common.Address{}) && req.RewardAmount != nil {
		withdrawals = append(withdrawals, models.AssetAmount{Asset: req.RewardToken, Amount: req.RewardAmount})
	}
	completion, err := b.Completion(withdrawals...)
	if err != nil {
		return nil, err
	}
	return append(intentions, completion), nil
}

// DonateAction returns the approval of the pool followed by the donate call
// spending it.
func (b *Builder) DonateAction(req DonateRequest) ([]models.Intention, error) {
	approve, err := b.Approve(req.Asset, b.pool, req.Amount)
	if err != nil {
		return nil, err
	}
	donate, err := b.Donate(req.Amount, models.Deposit{
		Asset:  req.Asset,
		RuneID: req.RuneID,
		Amount: req.Amount,
	})
	if err != nil {
		return nil, err
	}
	return []models.Intention{approve, donate}, nil
}

func checkUint(name string, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("%s is required", name)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	if v.BitLen() > 256 {
		return fmt.Errorf("%s overflows uint256", name)
	}
	return nil
}
