package contracts

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const poolKeyComponents = `[{"name":"currency0","type":"address"},{"name":"currency1","type":"address"},{"name":"fee","type":"uint24"},{"name":"tickSpacing","type":"int24"},{"name":"hooks","type":"address"}]`

// PoolSwapTestMetaData contains the swap entry point of the v4 test router.
var PoolSwapTestMetaData = &bind.MetaData{
	ABI: `[
{"inputs":[
 {"name":"key","type":"tuple","components":` + poolKeyComponents + `},
 {"name":"params","type":"tuple","components":[{"name":"zeroForOne","type":"bool"},{"name":"amountSpecified","type":"int256"},{"name":"sqrtPriceLimitX96","type":"uint160"}]},
 {"name":"testSettings","type":"tuple","components":[{"name":"takeClaims","type":"bool"},{"name":"settleUsingBurn","type":"bool"}]},
 {"name":"hookData","type":"bytes"}],
 "name":"swap","outputs":[{"name":"delta","type":"int256"}],"stateMutability":"payable","type":"function"}
]`,
}

// PoolSwapTest is a binding around the v4 swap router
type PoolSwapTest struct {
	*boundContract
}

// NewPoolSwapTest binds the swap router at address
func NewPoolSwapTest(address common.Address, backend bind.ContractBackend) (*PoolSwapTest, error) {
	b, err := newBoundContract(PoolSwapTestMetaData, address, backend)
	if err != nil {
		return nil, err
	}
	return &PoolSwapTest{b}, nil
}

// Swap is a paid mutator transaction binding the contract method swap.
//
// Solidity: function swap((address,address,uint24,int24,address) key, (bool,int256,uint160) params, (bool,bool) testSettings, bytes hookData) payable returns(int256 delta)
func (r *PoolSwapTest) Swap(opts *bind.TransactOpts, key PoolKey, params SwapParams, settings TestSettings, hookData []byte) (*types.Transaction, error) {
	return r.contract.Transact(opts, "swap", key, params, settings, hookData)
}
