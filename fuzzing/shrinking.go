package fuzzing

import (
	"reflect"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/fuzzing/calls"
	"github.com/crytic/tenet/fuzzing/valuegeneration"
	"github.com/crytic/tenet/utils"
	"golang.org/x/net/context"
)

// shrinkValueProbability is the probability that each argument of a call is shrunk in an argument shrinking attempt.
const shrinkValueProbability = 0.5

// sequenceShrinker reduces the call sequence of a single invariant failure while preserving the violation.
type sequenceShrinker struct {
	// checker asserts only the invariant being shrunk.
	checker *invariantChecker

	// snapshot is the clean state every candidate is replayed from.
	snapshot chain.SnapshotID

	// mutator moves call arguments toward simpler values.
	mutator *valuegeneration.ShrinkingValueMutator

	// remaining is the number of replays left to the shrinker.
	remaining int

	// failure is the smallest failure found so far.
	failure *InvariantFailure
}

// shrinkFailures shrinks the sequence of every failure in the campaign's record, in invariant name order. Failures
// with an empty sequence are left as they are.
func (c *Campaign) shrinkFailures(ctx context.Context, state *campaignState) error {
	for _, name := range state.result.Record.Names() {
		failure := state.result.Record[name]
		if failure == nil || len(failure.Sequence) == 0 {
			continue
		}

		shrinker := &sequenceShrinker{
			checker: &invariantChecker{
				backend:    c.backend,
				contract:   c.contract,
				invariants: []abi.Method{c.contract.ABI.Methods[name]},
				gasLimit:   c.config.TransactionGasLimit,
			},
			snapshot: state.cleanSnapshot,
			mutator: valuegeneration.NewShrinkingValueMutator(
				&valuegeneration.ShrinkingValueMutatorConfig{ShrinkValueProbability: shrinkValueProbability},
				c.randomProvider,
			),
			remaining: c.config.ShrinkLimit,
			failure:   failure,
		}
		shrunk, err := shrinker.shrink(ctx)
		if err != nil {
			return err
		}

		if len(shrunk.Sequence) < len(failure.Sequence) {
			c.logger.Debug("Shrunk the sequence violating ", name, " from ", len(failure.Sequence), " to ",
				len(shrunk.Sequence), " call(s)")
		}
		state.result.Record[name] = shrunk
	}
	return nil
}

// shrink removes calls, then simplifies arguments, until no attempt succeeds or the replay budget is spent.
// Returns the smallest failure found, which is the original failure if nothing could be removed or simplified.
func (s *sequenceShrinker) shrink(ctx context.Context) (*InvariantFailure, error) {
	// Removing a call may allow removing another which was needed before, so passes repeat until one makes no
	// progress.
	for progress := true; progress; {
		progress = false
		for i := len(s.failure.Sequence) - 1; i >= 0; i-- {
			if s.exhausted(ctx) {
				return s.failure, nil
			}
			if i >= len(s.failure.Sequence) {
				continue
			}

			accepted, err := s.try(s.failure.Sequence.Without(i))
			if err != nil {
				return nil, err
			}
			progress = progress || accepted
		}
	}

	// Argument passes repeat until the budget is spent or no argument can be simplified further.
	for attempted := true; attempted; {
		attempted = false
		for i := 0; i < len(s.failure.Sequence); i++ {
			if s.exhausted(ctx) {
				return s.failure, nil
			}
			candidate, changed, err := s.shrinkArgs(i)
			if err != nil {
				return nil, err
			}
			if !changed {
				continue
			}
			attempted = true
			if _, err = s.try(candidate); err != nil {
				return nil, err
			}
		}
	}
	return s.failure, nil
}

// exhausted reports whether the shrinker must stop.
func (s *sequenceShrinker) exhausted(ctx context.Context) bool {
	return s.remaining <= 0 || utils.CheckContextDone(ctx)
}

// try replays candidate and keeps it if it still violates the invariant and is no longer than the current failure.
// The kept sequence is the prefix of candidate through the call after which the violation was observed.
func (s *sequenceShrinker) try(candidate calls.CallSequence) (bool, error) {
	s.remaining--
	record, err := s.checker.replay(s.snapshot, candidate)
	if err != nil {
		return false, err
	}

	failure := record[s.checker.invariants[0].Name]
	if failure == nil || len(failure.Sequence) == 0 || len(failure.Sequence) > len(s.failure.Sequence) {
		return false, nil
	}
	s.failure = failure
	return true, nil
}

// shrinkArgs returns a copy of the current failing sequence with the arguments of the call at index simplified.
// Returns false if the mutator left every argument unchanged.
func (s *sequenceShrinker) shrinkArgs(index int) (calls.CallSequence, bool, error) {
	element := s.failure.Sequence[index]
	if element.Method == nil || len(element.Args) == 0 {
		return nil, false, nil
	}

	args := make([]any, len(element.Args))
	changed := false
	for i, input := range element.Method.Inputs {
		arg, err := valuegeneration.MutateAbiValue(s.mutator, &input.Type, element.Args[i])
		if err != nil {
			return nil, false, &EncodingError{Method: element.Method.Sig, Err: err}
		}
		changed = changed || !reflect.DeepEqual(arg, element.Args[i])
		args[i] = arg
	}
	if !changed {
		return nil, false, nil
	}

	shrunk, err := element.WithArgs(args)
	if err != nil {
		return nil, false, &EncodingError{Method: element.Method.Sig, Err: err}
	}
	candidate := s.failure.Sequence.Clone()
	candidate[index] = shrunk
	return candidate, true, nil
}
