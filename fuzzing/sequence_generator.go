package fuzzing

import (
	"math/rand"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/fuzzing/calls"
	"github.com/crytic/tenet/fuzzing/contracts"
	"github.com/crytic/tenet/fuzzing/valuegeneration"
	"github.com/crytic/tenet/utils/randomutils"
	"github.com/pkg/errors"
)

// CallSequenceGenerator draws call sequences over a fixed set of target contracts and senders. Sequences are
// generated lazily, one call at a time, so that a run which aborts early does not pay for the calls it never
// executes. All randomness is drawn from a single random provider, so a generator is reproducible from its seed.
type CallSequenceGenerator struct {
	// targets selects the target contract of each call.
	targets *randomutils.WeightedRandomChooser[*contracts.TargetContract]

	// functions selects the candidate function of each call, per target contract.
	functions map[*contracts.TargetContract]*randomutils.WeightedRandomChooser[contracts.CandidateFunction]

	// senders selects the sender of each call.
	senders *randomutils.WeightedRandomChooser[common.Address]

	// depth is the maximum length of a sequence.
	depth int

	// valueGenerator generates the input values of each call.
	valueGenerator valuegeneration.ValueGenerator

	// randomProvider is the source of randomness for sequence lengths and every chooser.
	randomProvider *rand.Rand
}

// NewCallSequenceGenerator creates a CallSequenceGenerator over targets and senders. Targets without candidate
// functions are removed from the candidate set. Returns an error if no target or no sender remains, or if depth is
// not positive.
func NewCallSequenceGenerator(targets contracts.Contracts, senders []common.Address, depth int, valueGenerator valuegeneration.ValueGenerator) (*CallSequenceGenerator, error) {
	if depth <= 0 {
		return nil, errors.Errorf("call sequence depth must be positive, got %d", depth)
	}
	if len(senders) == 0 {
		return nil, errors.New("no senders to fuzz with")
	}

	randomProvider := valueGenerator.RandomProvider()
	g := &CallSequenceGenerator{
		targets:        randomutils.NewWeightedRandomChooser[*contracts.TargetContract](randomProvider),
		functions:      make(map[*contracts.TargetContract]*randomutils.WeightedRandomChooser[contracts.CandidateFunction]),
		senders:        randomutils.NewWeightedRandomChooser[common.Address](randomProvider),
		depth:          depth,
		valueGenerator: valueGenerator,
		randomProvider: randomProvider,
	}

	// Every choice carries the same weight, so selection is uniform
	for _, target := range targets {
		candidates := target.CandidateFunctions()
		if len(candidates) == 0 {
			continue
		}
		g.targets.AddChoices(randomutils.NewWeightedRandomChoice(target, 1))

		functions := randomutils.NewWeightedRandomChooser[contracts.CandidateFunction](randomProvider)
		for _, candidate := range candidates {
			functions.AddChoices(randomutils.NewWeightedRandomChoice(candidate, 1))
		}
		g.functions[target] = functions
	}
	if g.targets.ChoiceCount() == 0 {
		return nil, errors.New("no contracts to fuzz")
	}

	for _, sender := range senders {
		g.senders.AddChoices(randomutils.NewWeightedRandomChoice(sender, 1))
	}
	return g, nil
}

// Depth returns the maximum length of a generated sequence.
func (g *CallSequenceGenerator) Depth() int {
	return g.depth
}

// NextLength draws the length of the next sequence, uniformly in [1, depth].
func (g *CallSequenceGenerator) NextLength() int {
	return 1 + g.randomProvider.Intn(g.depth)
}

// NextCall draws a call: a target contract, one of its candidate functions, a sender, and input values for the
// function. Returns an EncodingError if the generated values could not be encoded.
func (g *CallSequenceGenerator) NextCall() (*calls.CallSequenceElement, error) {
	target, err := g.targets.Choose()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	function, err := g.functions[*target].Choose()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sender, err := g.senders.Choose()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	method := function.Method
	args := make([]any, len(method.Inputs))
	for i, input := range method.Inputs {
		args[i], err = valuegeneration.GenerateAbiValue(g.valueGenerator, &input.Type)
		if err != nil {
			return nil, &EncodingError{Method: method.Sig, Err: err}
		}
	}

	element, err := calls.NewCallSequenceElement(*sender, (*target).Address(), (*target).Name(), &method, args)
	if err != nil {
		return nil, &EncodingError{Method: method.Sig, Err: err}
	}
	return element, nil
}

// NewSequence draws a complete sequence of NextLength calls.
func (g *CallSequenceGenerator) NewSequence() (calls.CallSequence, error) {
	length := g.NextLength()
	sequence := make(calls.CallSequence, 0, length)
	for i := 0; i < length; i++ {
		element, err := g.NextCall()
		if err != nil {
			return nil, err
		}
		sequence = append(sequence, element)
	}
	return sequence, nil
}
