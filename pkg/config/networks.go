package config

import (
	"sort"
	"strings"
)

// Network holds the endpoints and deployed addresses for one SmilePool deployment.
// Every field can still be overridden by its environment variable.
type Network struct {
	Name          string
	ChainID       int64
	RPCURL        string
	ExplorerURL   string
	MempoolURL    string
	MempoolAPIURL string
	PoolAddress   string
	RuneAsset     string
	RuneID        string
}

var networks = map[string]Network{
	staging: {
		Name:          staging,
		ChainID:       15001,
		RPCURL:        "https://rpc.staging.midl.xyz",
		ExplorerURL:   "https://blockscout.staging.midl.xyz",
		MempoolURL:    "https://mempool.staging.midl.xyz",
		MempoolAPIURL: "https://mempool.staging.midl.xyz/api",
		PoolAddress:   "0xFAACE8aD6dFE99023142d16eCe92408D9a2C7E30",
		RuneAsset:     "0x0E267e8EB516adeeA7606483828055a56c198AF2",
	},
	local: {
		Name:          local,
		ChainID:       1337,
		RPCURL:        "http://127.0.0.1:8545",
		ExplorerURL:   "http://127.0.0.1:4000",
		MempoolURL:    "http://127.0.0.1:8080",
		MempoolAPIURL: "http://127.0.0.1:8080/api",
		PoolAddress:   zeroAddress,
		RuneAsset:     zeroAddress,
	},
}

// GetNetwork returns the preset for a network name
func GetNetwork(name string) (Network, bool) {
	n, ok := networks[strings.ToLower(name)]
	return n, ok
}

// NetworkNames returns the known network names in sorted order
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
