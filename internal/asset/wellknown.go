package asset

// Test network chain IDs
const (
	ChainIDSomniaTestnet   = 50312
	ChainIDSepolia         = 11155111
	ChainIDHolesky         = 17000
	ChainIDHoodi           = 560048
	ChainIDPolygonAmoy     = 80002
	ChainIDBaseSepolia     = 84532
	ChainIDArbitrumSepolia = 421614
	ChainIDOptimismSepolia = 11155420
	ChainIDBSCTestnet      = 97
)

// Native coins of the supported test networks.
var (
	SomniaSTT          = NewNative(ChainIDSomniaTestnet, "STT", "Somnia Test Token", 18)
	SepoliaETH         = NewNative(ChainIDSepolia, "ETH", "Sepolia Ether", 18)
	HoleskyETH         = NewNative(ChainIDHolesky, "ETH", "Holesky Ether", 18)
	HoodiETH           = NewNative(ChainIDHoodi, "ETH", "Hoodi Ether", 18)
	AmoyPOL            = NewNative(ChainIDPolygonAmoy, "POL", "Amoy POL", 18)
	BaseSepoliaETH     = NewNative(ChainIDBaseSepolia, "ETH", "Base Sepolia Ether", 18)
	ArbitrumSepoliaETH = NewNative(ChainIDArbitrumSepolia, "ETH", "Arbitrum Sepolia Ether", 18)
	OptimismSepoliaETH = NewNative(ChainIDOptimismSepolia, "ETH", "OP Sepolia Ether", 18)
	BSCTestnetBNB      = NewNative(ChainIDBSCTestnet, "tBNB", "BSC Testnet BNB", 18)
)

// DefaultRegistry returns a registry holding the native coins above.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{
		SomniaSTT,
		SepoliaETH,
		HoleskyETH,
		HoodiETH,
		AmoyPOL,
		BaseSepoliaETH,
		ArbitrumSepoliaETH,
		OptimismSepoliaETH,
		BSCTestnetBNB,
	} {
		r.Register(a)
	}
	return r
}

// NativeFor returns the registered native coin for chainID, or a generic
// 18-decimal "ETH" asset for unknown chains.
func NativeFor(r *Registry, chainID uint64) *Asset {
	if a, ok := r.GetNative(chainID); ok {
		return a
	}
	return r.GetOrRegister(NewNative(chainID, "ETH", "Native coin", 18))
}
