package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ExecutorABI is the ABI of the executor system contract that settles an
// execution-layer bundle back to the base chain. completeTx withdraws the
// listed assets to the sender's base-chain address.
const ExecutorABI = `[
	{"inputs":[{"name":"assets","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"name":"completeTx","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// ParseExecutorABI parses ExecutorABI.
func ParseExecutorABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(ExecutorABI))
}
