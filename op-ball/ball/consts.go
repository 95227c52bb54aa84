package ball

import (
	"math"

	"github.com/holiman/uint256"
)

// DefaultStoreSeed namespaces the state records in the key/value store.
const DefaultStoreSeed = "Store"

const (
	// BaseReturnFee is the reference native fee of one return trip.
	BaseReturnFee uint64 = 6_365_917
	// ReturnFeeMultiplier pads BaseReturnFee for gas price movements on the remote chain.
	ReturnFeeMultiplier uint64 = 2
)

// EstimatedReturnFee is the native fee attached to every automatic return message.
func EstimatedReturnFee() uint64 {
	return saturatingMul(BaseReturnFee, ReturnFeeMultiplier)
}

func saturatingMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}

// InitialBall is the value a freshly initialized store starts with: 100 * 10^18,
// the same as the counterpart contract.
func InitialBall() *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(100), uint256.NewInt(1_000_000_000_000_000_000))
}
