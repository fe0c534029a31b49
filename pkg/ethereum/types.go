package ethereum

import (
	"math/big"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ZeroHash marks a step that did not run
var ZeroHash = common.Hash{}

// AddressToBytes32 left-pads an address into the bridge's recipient format
func AddressToBytes32(addr common.Address) [32]byte {
	var out [32]byte
	copy(out[12:], addr.Bytes())
	return out
}

// FormatUnits renders a base-unit amount with the given number of decimals
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ParseUnits converts a human-readable amount into base units. Digits beyond
// the token's precision are truncated.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, apperrors.ValidationError(err, "invalid amount "+amount)
	}
	if d.IsNegative() {
		return nil, apperrors.ValidationError(nil, "negative amount "+amount)
	}
	return d.Shift(decimals).BigInt(), nil
}
