package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMurmur3_32_Deterministic(t *testing.T) {
	h1 := murmur3_32([]byte("premium-feature:user-123"), 0)
	h2 := murmur3_32([]byte("premium-feature:user-123"), 0)
	assert.Equal(t, h1, h2, "same input must produce same hash")
}

func TestMurmur3_32_DifferentInputs(t *testing.T) {
	h1 := murmur3_32([]byte("flag-a:user-1"), 0)
	h2 := murmur3_32([]byte("flag-b:user-1"), 0)
	assert.NotEqual(t, h1, h2)
}

func TestBucket_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		bucket := Bucket("some-flag", fmt.Sprintf("user-%d", i))
		assert.GreaterOrEqual(t, bucket, 0)
		assert.Less(t, bucket, BucketResolution)
	}
}

func TestBucket_DeterministicAcrossInstances(t *testing.T) {
	// The bucket only depends on the inputs, never on evaluator state, so a
	// fresh process with the same configuration buckets identically.
	b1 := Bucket("my-flag", "user-42")
	b2 := Bucket("my-flag", "user-42")
	assert.Equal(t, b1, b2)
}

func TestInRollout_EdgeCases(t *testing.T) {
	for i := 0; i < 50; i++ {
		uid := fmt.Sprintf("user-%d", i)
		assert.False(t, InRollout("flag", uid, 0), "0%% must never match")
		assert.True(t, InRollout("flag", uid, 100), "100%% must always match")
	}
}

func TestInRollout_Consistency(t *testing.T) {
	r1 := InRollout("feature-x", "user-99", 50)
	r2 := InRollout("feature-x", "user-99", 50)
	assert.Equal(t, r1, r2)
}

// With 10k slots the observed ratio should track the percentage closely
// over a large population.
func TestRolloutDistribution(t *testing.T) {
	tests := []struct {
		percentage int
		tolerance  float64
	}{
		{10, 0.03},
		{25, 0.03},
		{50, 0.03},
		{90, 0.03},
	}

	const numUsers = 10000

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_percent", tt.percentage), func(t *testing.T) {
			inCount := 0
			for i := 0; i < numUsers; i++ {
				if InRollout("distribution-test", fmt.Sprintf("user-%d", i), tt.percentage) {
					inCount++
				}
			}
			actual := float64(inCount) / float64(numUsers)
			expected := float64(tt.percentage) / 100.0
			assert.InDelta(t, expected, actual, tt.tolerance,
				"expected ~%.0f%% but got %.1f%% (%d/%d)",
				expected*100, actual*100, inCount, numUsers)
		})
	}
}

// Hashing the flag key together with the targeting key keeps rollout
// membership independent across flags for the same user.
func TestRollout_IndependentAcrossFlags(t *testing.T) {
	const numUsers = 10000
	both := 0
	for i := 0; i < numUsers; i++ {
		uid := fmt.Sprintf("user-%d", i)
		if InRollout("flag-alpha", uid, 50) && InRollout("flag-beta", uid, 50) {
			both++
		}
	}
	// Independent 50% rollouts overlap on ~25% of users.
	assert.InDelta(t, 0.25, float64(both)/float64(numUsers), 0.04)
}
