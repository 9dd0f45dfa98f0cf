package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/get-eventually/booking/version"
)

func TestEveryVersionIncrementPolicy(t *testing.T) {
	policy := EveryVersionIncrementPolicy(3)

	testCases := []struct {
		name     string
		from, to version.Version
		expected bool
	}{
		{name: "first event of a new stream", from: version.Empty, to: 0, expected: false},
		{name: "third event reached", from: 1, to: 2, expected: true},
		{name: "multiple events crossing the increment", from: 0, to: 4, expected: true},
		{name: "events after the increment", from: 2, to: 4, expected: false},
		{name: "sixth event reached", from: 4, to: 5, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, policy.ShouldRecord(tc.from, tc.to))
		})
	}

	t.Run("non-positive increments never record", func(t *testing.T) {
		assert.False(t, EveryVersionIncrementPolicy(0).ShouldRecord(0, 100))
	})
}

func TestAtFixedIntervalsPolicy(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	policy := NewAtFixedIntervalsPolicy(time.Minute)
	policy.now = func() time.Time { return now }

	assert.True(t, policy.ShouldRecord(version.Empty, 0))
	policy.Record(0)

	now = now.Add(30 * time.Second)
	assert.False(t, policy.ShouldRecord(0, 1))

	now = now.Add(30 * time.Second)
	assert.True(t, policy.ShouldRecord(1, 2))
}

func TestNeverAndAlwaysPolicy(t *testing.T) {
	assert.False(t, NeverPolicy{}.ShouldRecord(0, 1000))
	assert.True(t, AlwaysPolicy{}.ShouldRecord(0, 1))
}
