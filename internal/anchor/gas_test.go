package anchor_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustblock/trustblock-cli/internal/anchor"
)

func TestComputeGasLimit(testInstance *testing.T) {
	testCases := []struct {
		name     string
		estimate uint64
		expected uint64
	}{
		{name: "zero_estimate", estimate: 0, expected: 50_000},
		{name: "truncating_division", estimate: 9, expected: 50_010},
		{name: "typical_estimate", estimate: 100_000, expected: 170_000},
		{name: "saturates", estimate: math.MaxUint64 - 10, expected: math.MaxUint64},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, anchor.ComputeGasLimit(testCase.estimate))
		})
	}
}

func TestComputeGasLimitIsMonotonic(testInstance *testing.T) {
	previous := anchor.ComputeGasLimit(0)
	for estimate := uint64(1); estimate < 5_000; estimate++ {
		current := anchor.ComputeGasLimit(estimate)
		require.GreaterOrEqual(testInstance, current, previous)
		require.Equal(testInstance, estimate+estimate/5+50_000, current)
		previous = current
	}
}
