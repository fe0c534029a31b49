package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestMetaData_Parses(t *testing.T) {
	for name, meta := range map[string]*bind.MetaData{
		"erc20":               ERC20MetaData,
		"token_messenger":     TokenMessengerMetaData,
		"message_transmitter": MessageTransmitterMetaData,
		"pool_swap_test":      PoolSwapTestMetaData,
		"copy_trade_hook":     CopyTradeHookMetaData,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := meta.GetAbi()
			require.NoError(t, err)
		})
	}
}

func TestPoolSwapTest_PacksTuples(t *testing.T) {
	parsed, err := PoolSwapTestMetaData.GetAbi()
	require.NoError(t, err)

	key := PoolKey{
		Currency0:   common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
		Currency1:   common.HexToAddress("0x4200000000000000000000000000000000000006"),
		Fee:         big.NewInt(3000),
		TickSpacing: big.NewInt(60),
		Hooks:       common.HexToAddress("0x1111111111111111111111111111111111111111"),
	}
	params := SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   big.NewInt(-10_000_000),
		SqrtPriceLimitX96: big.NewInt(4295128740),
	}

	data, err := parsed.Pack("swap", key, params, TestSettings{}, []byte{})
	require.NoError(t, err)
	require.Equal(t, parsed.Methods["swap"].ID, data[:4])
}

func TestTokenMessenger_PacksDepositForBurn(t *testing.T) {
	parsed, err := TokenMessengerMetaData.GetAbi()
	require.NoError(t, err)

	var recipient [32]byte
	copy(recipient[12:], common.HexToAddress("0x2222222222222222222222222222222222222222").Bytes())

	_, err = parsed.Pack("depositForBurn",
		big.NewInt(1_000_000), uint32(6), recipient,
		common.HexToAddress("0x3600000000000000000000000000000000000000"),
		[32]byte{}, big.NewInt(0), uint32(2000))
	require.NoError(t, err)
}
