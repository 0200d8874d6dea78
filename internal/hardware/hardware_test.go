package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcurrency(t *testing.T) {
	testCases := []struct {
		name        string
		parallelism int
		floor       int
		expect      int
	}{
		{name: "leaves one cpu", parallelism: 8, floor: 1, expect: 7},
		{name: "single cpu floors at min", parallelism: 1, floor: 1, expect: 1},
		{name: "custom floor", parallelism: 2, floor: 3, expect: 3},
		{name: "unknown parallelism", parallelism: 0, floor: 1, expect: DefaultParallelism - 1},
		{name: "invalid floor", parallelism: 1, floor: 0, expect: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Concurrency(tc.parallelism, tc.floor))
		})
	}
}

func TestParallelism(t *testing.T) {
	assert.GreaterOrEqual(t, Parallelism(), 1)
}
