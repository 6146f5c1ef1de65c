package randomutils

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// ErrNoChoices is returned when a selection is requested from an empty collection or one whose weights sum to zero.
var ErrNoChoices = errors.New("no choices exist with non-zero weights")

// UniformIndex draws an index in [0, count) uniformly from randomProvider.
func UniformIndex(randomProvider *rand.Rand, count int) (int, error) {
	if count <= 0 {
		return 0, ErrNoChoices
	}
	return randomProvider.Intn(count), nil
}

// WeightedIndex draws an index in [0, len(weights)) where index i is selected with probability
// weights[i] / sum(weights). Exactly one value is consumed from randomProvider per call, so the selection is
// reproducible for a given random stream.
func WeightedIndex(randomProvider *rand.Rand, weights []uint64) (int, error) {
	var total uint64
	for _, w := range weights {
		if total > math.MaxInt64-w {
			return 0, errors.Errorf("total weight of %d choices overflows", len(weights))
		}
		total += w
	}
	if total == 0 {
		return 0, ErrNoChoices
	}

	position := uint64(randomProvider.Int63n(int64(total)))
	for i, w := range weights {
		if position < w {
			return i, nil
		}
		position -= w
	}

	// Unreachable since position < total
	return 0, errors.Errorf("selected weight position does not map to a choice")
}

// WeightedRandomChoice wraps data selectable by a WeightedRandomChooser with a given weight.
type WeightedRandomChoice[T any] struct {
	// Data is returned when this choice is selected.
	Data T

	// weight is the relative likelihood of this choice being selected.
	weight uint64
}

// NewWeightedRandomChoice creates a WeightedRandomChoice with the given data and weight.
func NewWeightedRandomChoice[T any](data T, weight uint64) *WeightedRandomChoice[T] {
	return &WeightedRandomChoice[T]{
		Data:   data,
		weight: weight,
	}
}

// WeightedRandomChooser selects among weighted choices using a provided random stream.
type WeightedRandomChooser[T any] struct {
	// choices are the candidates for selection, in insertion order.
	choices []*WeightedRandomChoice[T]

	// weights holds the weight of each choice, index-aligned with choices.
	weights []uint64

	// randomProvider is the source of randomness for selection.
	randomProvider *rand.Rand
}

// NewWeightedRandomChooser creates an empty WeightedRandomChooser drawing from randomProvider.
func NewWeightedRandomChooser[T any](randomProvider *rand.Rand) *WeightedRandomChooser[T] {
	return &WeightedRandomChooser[T]{
		choices:        make([]*WeightedRandomChoice[T], 0),
		weights:        make([]uint64, 0),
		randomProvider: randomProvider,
	}
}

// ChoiceCount returns the count of choices added to the chooser.
func (c *WeightedRandomChooser[T]) ChoiceCount() int {
	return len(c.choices)
}

// AddChoices adds weighted choices to the chooser.
func (c *WeightedRandomChooser[T]) AddChoices(choices ...*WeightedRandomChoice[T]) {
	for _, choice := range choices {
		c.choices = append(c.choices, choice)
		c.weights = append(c.weights, choice.weight)
	}
}

// Choose selects a weighted random choice and returns a pointer to its data.
func (c *WeightedRandomChooser[T]) Choose() (*T, error) {
	index, err := WeightedIndex(c.randomProvider, c.weights)
	if err != nil {
		return nil, err
	}
	return &c.choices[index].Data, nil
}
