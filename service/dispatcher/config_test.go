package dispatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		config      Config
		expectErr   bool
	}{
		{description: "defaults", config: DefaultConfig()},
		{description: "negative concurrency", config: Config{Concurrency: -1}, expectErr: true},
		{description: "negative timeout", config: Config{UnitTimeout: -time.Second}, expectErr: true},
		{description: "negative queue and capacity", config: Config{MaxQueue: -1, BufferCapacity: -2}, expectErr: true},
	}
	for _, testCase := range testCases {
		err := testCase.config.Validate()
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		assert.NoError(t, err, testCase.description)
	}
}

func TestConfig_Limit(t *testing.T) {
	assert.Equal(t, 6, Config{Concurrency: 6}.Limit())
	assert.GreaterOrEqual(t, Config{MinConcurrency: 2}.Limit(), 2)
	assert.GreaterOrEqual(t, Config{}.Limit(), 1)
}
