package models

// BalancesRequest asks for the balances of many addresses in one call
// swagger:model BalancesRequest
type BalancesRequest struct {
	// Token contract, empty or the zero address for the native coin
	// example: 0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913
	TokenAddress string `json:"tokenAddress"`

	// When set, allowances granted to this spender are returned instead of balances
	// example: 0x2288392445A6323A59bbA29f6672715413a172df
	Spender string `json:"spender,omitempty"`

	// Addresses to read
	// required: true
	Addresses []string `json:"addresses"`
}
