package randomutils

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWeightedIndexDistribution verifies zero-weight choices are never selected and the observed frequencies follow
// the weights.
func TestWeightedIndexDistribution(t *testing.T) {
	randomProvider := rand.New(rand.NewSource(1))
	weights := []uint64{1, 0, 3}
	counts := make([]int, len(weights))

	const draws = 20000
	for i := 0; i < draws; i++ {
		index, err := WeightedIndex(randomProvider, weights)
		require.NoError(t, err)
		counts[index]++
	}

	assert.Zero(t, counts[1])
	assert.InDelta(t, 0.25, float64(counts[0])/draws, 0.02)
	assert.InDelta(t, 0.75, float64(counts[2])/draws, 0.02)
}

// TestWeightedIndexNoChoices verifies empty and all-zero collections are rejected.
func TestWeightedIndexNoChoices(t *testing.T) {
	randomProvider := rand.New(rand.NewSource(1))

	_, err := WeightedIndex(randomProvider, nil)
	assert.ErrorIs(t, err, ErrNoChoices)
	_, err = WeightedIndex(randomProvider, []uint64{0, 0})
	assert.ErrorIs(t, err, ErrNoChoices)
	_, err = UniformIndex(randomProvider, 0)
	assert.ErrorIs(t, err, ErrNoChoices)
}

// TestWeightedRandomChooserDeterminism verifies two choosers over identically seeded streams make identical choices.
func TestWeightedRandomChooserDeterminism(t *testing.T) {
	build := func() *WeightedRandomChooser[string] {
		chooser := NewWeightedRandomChooser[string](rand.New(rand.NewSource(99)))
		chooser.AddChoices(
			NewWeightedRandomChoice("a", 1),
			NewWeightedRandomChoice("b", 2),
			NewWeightedRandomChoice("c", 3),
		)
		return chooser
	}
	first, second := build(), build()
	assert.EqualValues(t, 3, first.ChoiceCount())

	for i := 0; i < 100; i++ {
		x, err := first.Choose()
		require.NoError(t, err)
		y, err := second.Choose()
		require.NoError(t, err)
		assert.Equal(t, *x, *y)
	}
}

// TestForkRandomProvider verifies forks of equally seeded parents produce equal streams, and that successive forks of
// one parent differ.
func TestForkRandomProvider(t *testing.T) {
	a := ForkRandomProvider(rand.New(rand.NewSource(5)))
	b := ForkRandomProvider(rand.New(rand.NewSource(5)))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}

	parent := rand.New(rand.NewSource(5))
	first := ForkRandomProvider(parent)
	second := ForkRandomProvider(parent)
	assert.NotEqual(t, first.Int63(), second.Int63())
}
