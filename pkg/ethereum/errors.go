package ethereum

import (
	"fmt"
	"strings"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
)

// Node error texts as returned over JSON-RPC. Matching is on text because
// remote errors lose their Go identity.
var (
	revertErrors = []string{
		"execution reverted",
	}
	rejectedErrors = []string{
		"insufficient funds",
		"nonce too low",
		"intrinsic gas too low",
		"exceeds block gas limit",
		"gas limit reached",
		"invalid sender",
	}
)

// classifySendError maps a failed submission onto the error taxonomy. Reverts
// during gas estimation and deterministic node rejections mean the transaction
// was never broadcast. Everything else may or may not have reached the pool.
func classifySendError(err error, method string) error {
	msg := strings.ToLower(err.Error())
	for _, s := range revertErrors {
		if strings.Contains(msg, s) {
			return apperrors.RevertError(err, method+" reverted")
		}
	}
	for _, s := range rejectedErrors {
		if strings.Contains(msg, s) {
			return apperrors.GeneralError(fmt.Errorf("%s rejected: %w", method, err))
		}
	}
	return apperrors.TransientError(err, "failed to submit "+method)
}
