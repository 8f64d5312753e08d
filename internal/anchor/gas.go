package anchor

import "math"

const (
	gasMarginDivisorConstant = 5
	gasFixedOverheadConstant = 50_000
)

// ComputeGasLimit adds a 20% margin and a fixed relay overhead to the estimate,
// saturating at the maximum uint64 value.
func ComputeGasLimit(estimate uint64) uint64 {
	return saturatingAdd(saturatingAdd(estimate, estimate/gasMarginDivisorConstant), gasFixedOverheadConstant)
}

func saturatingAdd(left uint64, right uint64) uint64 {
	if left > math.MaxUint64-right {
		return math.MaxUint64
	}
	return left + right
}
