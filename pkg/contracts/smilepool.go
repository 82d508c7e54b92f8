package contracts

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Event names emitted by the SmilePool contract
const (
	EventSmileSubmitted = "SmileSubmitted"
	EventDonated        = "Donated"
)

// SmilePoolABI is the ABI of the SmilePool contract
const SmilePoolABI = `[
	{"inputs":[{"name":"smileScore","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"message","type":"string"}],"name":"claimReward","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"amount","type":"uint256"}],"name":"donate","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"getPoolStats","outputs":[{"name":"_poolBalance","type":"uint256"},{"name":"_rewardAmount","type":"uint256"},{"name":"_scoreThreshold","type":"uint256"},{"name":"_totalDonated","type":"uint256"},{"name":"_totalClaimed","type":"uint256"},{"name":"_totalSmiles","type":"uint256"},{"name":"_totalSmilers","type":"uint256"},{"name":"_totalDonations","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getFeedLength","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"count","type":"uint256"}],"name":"getRecentSmiles","outputs":[{"components":[{"name":"smiler","type":"address"},{"name":"score","type":"uint256"},{"name":"timestamp","type":"uint256"},{"name":"reward","type":"uint256"},{"name":"message","type":"string"}],"name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"count","type":"uint256"}],"name":"getRecentDonations","outputs":[{"components":[{"name":"donor","type":"address"},{"name":"amount","type":"uint256"},{"name":"timestamp","type":"uint256"}],"name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"count","type":"uint256"}],"name":"getTopSmilers","outputs":[{"name":"addrs","type":"address[]"},{"name":"bestScores","type":"uint256[]"},{"name":"totalSmilesCounts","type":"uint256[]"},{"name":"totalEarnedAmounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"user","type":"address"}],"name":"getUserProfile","outputs":[{"components":[{"name":"totalSmiles","type":"uint256"},{"name":"bestScore","type":"uint256"},{"name":"totalEarned","type":"uint256"},{"name":"lastSmileTimestamp","type":"uint256"}],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"user","type":"address"}],"name":"getUserNonce","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"","type":"address"}],"name":"lastClaimDay","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"","type":"address"}],"name":"unlimitedClaimers","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"rewardToken","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"donor","type":"address"},{"indexed":false,"name":"amount","type":"uint256"}],"name":"Donated","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"smiler","type":"address"},{"indexed":false,"name":"score","type":"uint256"},{"indexed":false,"name":"reward","type":"uint256"},{"indexed":false,"name":"message","type":"string"},{"indexed":false,"name":"feedIndex","type":"uint256"}],"name":"SmileSubmitted","type":"event"}
]`

// SmilePoolSmileEntry is an auto generated low-level Go binding around an user-defined struct.
type SmilePoolSmileEntry struct {
	Smiler    common.Address
	Score     *big.Int
	Timestamp *big.Int
	Reward    *big.Int
	Message   string
}

// SmilePoolDonationEntry is an auto generated low-level Go binding around an user-defined struct.
type SmilePoolDonationEntry struct {
	Donor     common.Address
	Amount    *big.Int
	Timestamp *big.Int
}

// SmilePoolUserProfile is an auto generated low-level Go binding around an user-defined struct.
type SmilePoolUserProfile struct {
	TotalSmiles        *big.Int
	BestScore          *big.Int
	TotalEarned        *big.Int
	LastSmileTimestamp *big.Int
}

// SmilePoolStats is the output of getPoolStats.
type SmilePoolStats struct {
	PoolBalance    *big.Int
	RewardAmount   *big.Int
	ScoreThreshold *big.Int
	TotalDonated   *big.Int
	TotalClaimed   *big.Int
	TotalSmiles    *big.Int
	TotalSmilers   *big.Int
	TotalDonations *big.Int
}

// SmilePoolTopSmilers is the output of getTopSmilers.
type SmilePoolTopSmilers struct {
	Addrs              []common.Address
	BestScores         []*big.Int
	TotalSmilesCounts  []*big.Int
	TotalEarnedAmounts []*big.Int
}

// SmilePool is an auto generated Go binding around an Ethereum contract.
type SmilePool struct {
	SmilePoolCaller   // Read-only binding to the contract
	SmilePoolFilterer // Log filterer for contract events
}

// SmilePoolCaller is an auto generated read-only Go binding around an Ethereum contract.
type SmilePoolCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// SmilePoolFilterer is an auto generated log filtering Go binding around an Ethereum contract events.
type SmilePoolFilterer struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// ParseSmilePoolABI parses SmilePoolABI.
func ParseSmilePoolABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(SmilePoolABI))
}

// NewSmilePool creates a new instance of SmilePool, bound to a specific deployed contract.
func NewSmilePool(address common.Address, backend bind.ContractBackend) (*SmilePool, error) {
	contract, err := bindSmilePool(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &SmilePool{SmilePoolCaller: SmilePoolCaller{contract: contract}, SmilePoolFilterer: SmilePoolFilterer{contract: contract}}, nil
}

// NewSmilePoolCaller creates a new read-only instance of SmilePool, bound to a specific deployed contract.
func NewSmilePoolCaller(address common.Address, caller bind.ContractCaller) (*SmilePoolCaller, error) {
	contract, err := bindSmilePool(address, caller, nil, nil)
	if err != nil {
		return nil, err
	}
	return &SmilePoolCaller{contract: contract}, nil
}

// NewSmilePoolFilterer creates a new log filterer instance of SmilePool, bound to a specific deployed contract.
func NewSmilePoolFilterer(address common.Address, filterer bind.ContractFilterer) (*SmilePoolFilterer, error) {
	contract, err := bindSmilePool(address, nil, nil, filterer)
	if err != nil {
		return nil, err
	}
	return &SmilePoolFilterer{contract: contract}, nil
}

// bindSmilePool binds a generic wrapper to an already deployed contract.
func bindSmilePool(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := ParseSmilePoolABI()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, parsed, caller, transactor, filterer), nil
}

// GetPoolStats is a free data retrieval call binding the contract method getPoolStats.
//
// Solidity: function getPoolStats() view returns(uint256 _poolBalance, uint256 _rewardAmount, uint256 _scoreThreshold, uint256 _totalDonated, uint256 _totalClaimed, uint256 _totalSmiles, uint256 _totalSmilers, uint256 _totalDonations)
func (_SmilePool *SmilePoolCaller) GetPoolStats(opts *bind.CallOpts) (SmilePoolStats, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "getPoolStats")

	outstruct := new(SmilePoolStats)
	if err != nil {
		return *outstruct, err
	}

	outstruct.PoolBalance = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	outstruct.RewardAmount = *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	outstruct.ScoreThreshold = *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	outstruct.TotalDonated = *abi.ConvertType(out[3], new(*big.Int)).(**big.Int)
	outstruct.TotalClaimed = *abi.ConvertType(out[4], new(*big.Int)).(**big.Int)
	outstruct.TotalSmiles = *abi.ConvertType(out[5], new(*big.Int)).(**big.Int)
	outstruct.TotalSmilers = *abi.ConvertType(out[6], new(*big.Int)).(**big.Int)
	outstruct.TotalDonations = *abi.ConvertType(out[7], new(*big.Int)).(**big.Int)

	return *outstruct, err
}

// GetFeedLength is a free data retrieval call binding the contract method getFeedLength.
//
// Solidity: function getFeedLength() view returns(uint256)
func (_SmilePool *SmilePoolCaller) GetFeedLength(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "getFeedLength")
	if err != nil {
		return *new(*big.Int), err
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), err
}

// GetRecentSmiles is a free data retrieval call binding the contract method getRecentSmiles.
//
// Solidity: function getRecentSmiles(uint256 count) view returns((address,uint256,uint256,uint256,string)[])
func (_SmilePool *SmilePoolCaller) GetRecentSmiles(opts *bind.CallOpts, count *big.Int) ([]SmilePoolSmileEntry, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "getRecentSmiles", count)
	if err != nil {
		return *new([]SmilePoolSmileEntry), err
	}

	return *abi.ConvertType(out[0], new([]SmilePoolSmileEntry)).(*[]SmilePoolSmileEntry), err
}

// GetRecentDonations is a free data retrieval call binding the contract method getRecentDonations.
//
// Solidity: function getRecentDonations(uint256 count) view returns((address,uint256,uint256)[])
func (_SmilePool *SmilePoolCaller) GetRecentDonations(opts *bind.CallOpts, count *big.Int) ([]SmilePoolDonationEntry, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "getRecentDonations", count)
	if err != nil {
		return *new([]SmilePoolDonationEntry), err
	}

	return *abi.ConvertType(out[0], new([]SmilePoolDonationEntry)).(*[]SmilePoolDonationEntry), err
}

// GetTopSmilers is a free data retrieval call binding the contract method getTopSmilers.
//
// Solidity: function getTopSmilers(uint256 count) view returns(address[] addrs, uint256[] bestScores, uint256[] totalSmilesCounts, uint256[] totalEarnedAmounts)
func (_SmilePool *SmilePoolCaller) GetTopSmilers(opts *bind.CallOpts, count *big.Int) (SmilePoolTopSmilers, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "getTopSmilers", count)

	outstruct := new(SmilePoolTopSmilers)
	if err != nil {
		return *outstruct, err
	}

	outstruct.Addrs = *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)
	outstruct.BestScores = *abi.ConvertType(out[1], new([]*big.Int)).(*[]*big.Int)
	outstruct.TotalSmilesCounts = *abi.ConvertType(out[2], new([]*big.Int)).(*[]*big.Int)
	outstruct.TotalEarnedAmounts = *abi.ConvertType(out[3], new([]*big.Int)).(*[]*big.Int)

	return *outstruct, err
}

// GetUserProfile is a free data retrieval call binding the contract method getUserProfile.
//
// Solidity: function getUserProfile(address user) view returns((uint256,uint256,uint256,uint256))
func (_SmilePool *SmilePoolCaller) GetUserProfile(opts *bind.CallOpts, user common.Address) (SmilePoolUserProfile, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "getUserProfile", user)
	if err != nil {
		return *new(SmilePoolUserProfile), err
	}

	return *abi.ConvertType(out[0], new(SmilePoolUserProfile)).(*SmilePoolUserProfile), err
}

// GetUserNonce is a free data retrieval call binding the contract method getUserNonce.
//
// Solidity: function getUserNonce(address user) view returns(uint256)
func (_SmilePool *SmilePoolCaller) GetUserNonce(opts *bind.CallOpts, user common.Address) (*big.Int, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "getUserNonce", user)
	if err != nil {
		return *new(*big.Int), err
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), err
}

// LastClaimDay is a free data retrieval call binding the contract method lastClaimDay.
//
// Solidity: function lastClaimDay(address ) view returns(uint256)
func (_SmilePool *SmilePoolCaller) LastClaimDay(opts *bind.CallOpts, arg0 common.Address) (*big.Int, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "lastClaimDay", arg0)
	if err != nil {
		return *new(*big.Int), err
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), err
}

// UnlimitedClaimers is a free data retrieval call binding the contract method unlimitedClaimers.
//
// Solidity: function unlimitedClaimers(address ) view returns(bool)
func (_SmilePool *SmilePoolCaller) UnlimitedClaimers(opts *bind.CallOpts, arg0 common.Address) (bool, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "unlimitedClaimers", arg0)
	if err != nil {
		return *new(bool), err
	}

	return *abi.ConvertType(out[0], new(bool)).(*bool), err
}

// RewardToken is a free data retrieval call binding the contract method rewardToken.
//
// Solidity: function rewardToken() view returns(address)
func (_SmilePool *SmilePoolCaller) RewardToken(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	err := _SmilePool.contract.Call(opts, &out, "rewardToken")
	if err != nil {
		return *new(common.Address), err
	}

	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), err
}

// SmilePoolSmileSubmitted represents a SmileSubmitted event raised by the SmilePool contract.
type SmilePoolSmileSubmitted struct {
	Smiler    common.Address
	Score     *big.Int
	Reward    *big.Int
	Message   string
	FeedIndex *big.Int
	Raw       types.Log // Blockchain specific contextual infos
}

// SmilePoolDonated represents a Donated event raised by the SmilePool contract.
type SmilePoolDonated struct {
	Donor  common.Address
	Amount *big.Int
	Raw    types.Log // Blockchain specific contextual infos
}

// SmilePoolSmileSubmittedIterator is returned from FilterSmileSubmitted and is used to iterate over the raw logs and unpacked data for SmileSubmitted events raised by the SmilePool contract.
type SmilePoolSmileSubmittedIterator struct {
	Event *SmilePoolSmileSubmitted // Event containing the contract specifics and raw log

	contract *bind.BoundContract // Generic contract to use for unpacking event data
	event    string              // Event name to use for unpacking event data

	logs chan types.Log        // Log channel receiving the found contract events
	sub  ethereum.Subscription // Subscription for errors, completion and termination
	done bool                  // Whether the subscription completed delivering logs
	fail error                 // Occurred error to stop iteration
}

// Next advances the iterator to the subsequent event, returning whether there
// are any more events found. In case of a retrieval or parsing error, false is
// returned and Error() can be queried for the exact failure.
func (it *SmilePoolSmileSubmittedIterator) Next() bool {
	// If the iterator failed, stop iterating
	if it.fail != nil {
		return false
	}
	// If the iterator completed, deliver directly whatever's available
	if it.done {
		select {
		case log := <-it.logs:
			it.Event = new(SmilePoolSmileSubmitted)
			if err := it.contract.UnpackLog(it.Event, it.event, log); err != nil {
				it.fail = err
				return false
			}
			it.Event.Raw = log
			return true

		default:
			return false
		}
	}
	// Iterator still in progress, wait for either a data or an error event
	select {
	case log := <-it.logs:
		it.Event = new(SmilePoolSmileSubmitted)
		if err := it.contract.UnpackLog(it.Event, it.event, log); err != nil {
			it.fail = err
			return false
		}
		it.Event.Raw = log
		return true

	case err := <-it.sub.Err():
		it.done = true
		it.fail = err
		return it.Next()
	}
}

// Error returns any retrieval or parsing error occurred during filtering.
func (it *SmilePoolSmileSubmittedIterator) Error() error {
	return it.fail
}

// Close terminates the iteration process, releasing any pending underlying
// resources.
func (it *SmilePoolSmileSubmittedIterator) Close() error {
	it.sub.Unsubscribe()
	return nil
}

// FilterSmileSubmitted is a free log retrieval operation binding the contract event SmileSubmitted.
//
// Solidity: event SmileSubmitted(address indexed smiler, uint256 score, uint256 reward, string message, uint256 feedIndex)
func (_SmilePool *SmilePoolFilterer) FilterSmileSubmitted(opts *bind.FilterOpts, smiler []common.Address) (*SmilePoolSmileSubmittedIterator, error) {
	var smilerRule []interface{}
	for _, smilerItem := range smiler {
		smilerRule = append(smilerRule, smilerItem)
	}

	logs, sub, err := _SmilePool.contract.FilterLogs(opts, EventSmileSubmitted, smilerRule)
	if err != nil {
		return nil, err
	}
	return &SmilePoolSmileSubmittedIterator{contract: _SmilePool.contract, event: EventSmileSubmitted, logs: logs, sub: sub}, nil
}

// WatchSmileSubmitted is a free log subscription operation binding the contract event SmileSubmitted.
//
// Solidity: event SmileSubmitted(address indexed smiler, uint256 score, uint256 reward, string message, uint256 feedIndex)
func (_SmilePool *SmilePoolFilterer) WatchSmileSubmitted(opts *bind.WatchOpts, sink chan<- *SmilePoolSmileSubmitted, smiler []common.Address) (event.Subscription, error) {
	var smilerRule []interface{}
	for _, smilerItem := range smiler {
		smilerRule = append(smilerRule, smilerItem)
	}

	logs, sub, err := _SmilePool.contract.WatchLogs(opts, EventSmileSubmitted, smilerRule)
	if err != nil {
		return nil, err
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case log := <-logs:
				// New log arrived, parse the event and forward to the user
				evt := new(SmilePoolSmileSubmitted)
				if err := _SmilePool.contract.UnpackLog(evt, EventSmileSubmitted, log); err != nil {
					return err
				}
				evt.Raw = log

				select {
				case sink <- evt:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// ParseSmileSubmitted is a log parse operation binding the contract event SmileSubmitted.
//
// Solidity: event SmileSubmitted(address indexed smiler, uint256 score, uint256 reward, string message, uint256 feedIndex)
func (_SmilePool *SmilePoolFilterer) ParseSmileSubmitted(log types.Log) (*SmilePoolSmileSubmitted, error) {
	evt := new(SmilePoolSmileSubmitted)
	if err := _SmilePool.contract.UnpackLog(evt, EventSmileSubmitted, log); err != nil {
		return nil, err
	}
	evt.Raw = log
	return evt, nil
}

// ParseDonated is a log parse operation binding the contract event Donated.
//
// Solidity: event Donated(address indexed donor, uint256 amount)
func (_SmilePool *SmilePoolFilterer) ParseDonated(log types.Log) (*SmilePoolDonated, error) {
	evt := new(SmilePoolDonated)
	if err := _SmilePool.contract.UnpackLog(evt, EventDonated, log); err != nil {
		return nil, err
	}
	evt.Raw = log
	return evt, nil
}
