package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandWeightedOp(t *testing.T) {
	t.Parallel()
	prng := NewRand(t)

	type op uint8
	const (
		common op = 90
		rare   op = 10
	)

	counts := map[op]int{}
	for range 10_000 {
		counts[RandWeightedOp(prng, []op{common, rare})]++
	}
	assert.Len(t, counts, 2)
	assert.Greater(t, counts[common], counts[rare])
}

func TestRandMapKey(t *testing.T) {
	t.Parallel()
	prng := NewRand(t)

	m := map[string]int{"a": 1, "b": 2, "c": 3}
	seen := map[string]bool{}
	for range 1_000 {
		key := RandMapKey(prng, m)
		assert.Contains(t, m, key)
		seen[key] = true
	}
	assert.Len(t, seen, len(m))
}
