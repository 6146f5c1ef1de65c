package calls

import (
	"fmt"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/crypto"
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/fuzzing/valuegeneration"
	"github.com/crytic/tenet/logging"
	"github.com/pkg/errors"
)

// CallSequence describes a sequence of calls sent to a backend.
type CallSequence []*CallSequenceElement

// Log returns a logging.LogBuffer that represents this call sequence. This buffer will be passed to the underlying
// logger which will format it accordingly for console or file.
func (cs CallSequence) Log() *logging.LogBuffer {
	buffer := logging.NewLogBuffer()
	// If we have an empty call sequence, return a special string
	if len(cs) == 0 {
		buffer.Append("<none>")
		return buffer
	}

	for i := 0; i < len(cs); i++ {
		buffer.Append(fmt.Sprintf("%d) %s\n", i+1, cs[i].String()))
	}
	return buffer
}

// String returns the string representation of this call sequence
func (cs CallSequence) String() string {
	return cs.Log().String()
}

// Clone creates a copy of the underlying CallSequence. Elements are copied, so the clone can be modified freely.
func (cs CallSequence) Clone() CallSequence {
	r := make(CallSequence, len(cs))
	for i := 0; i < len(r); i++ {
		r[i] = cs[i].Clone()
	}
	return r
}

// Prefix returns a copy of the first n elements of the sequence. n is capped to the length of the sequence.
func (cs CallSequence) Prefix(n int) CallSequence {
	if n > len(cs) {
		n = len(cs)
	}
	if n < 0 {
		n = 0
	}
	return cs[:n].Clone()
}

// Without returns a copy of the sequence with the element at index removed.
func (cs CallSequence) Without(index int) CallSequence {
	r := make(CallSequence, 0, len(cs))
	for i, cse := range cs {
		if i != index {
			r = append(r, cse.Clone())
		}
	}
	return r
}

// Hash calculates a unique hash which represents the uniqueness of the call sequence and each element in it. Only the
// sender, target and calldata of each element are hashed.
func (cs CallSequence) Hash() (common.Hash, error) {
	hashProvider := crypto.NewKeccakState()
	hashProvider.Reset()
	for _, cse := range cs {
		for _, data := range [][]byte{cse.Sender.Bytes(), cse.Target.Bytes(), crypto.Keccak256(cse.Data)} {
			if _, err := hashProvider.Write(data); err != nil {
				return common.Hash{}, errors.WithStack(err)
			}
		}
	}
	return common.BytesToHash(hashProvider.Sum(nil)), nil
}

// Resolve resolves the Method and Args of every element from the calldata, using the ABI of the deployed contract
// at the element's target. It is used after a sequence was decoded from a reproducer file.
func (cs CallSequence) Resolve(contracts []*chain.DeployedContract) error {
	byAddress := make(map[common.Address]*chain.DeployedContract, len(contracts))
	for _, contract := range contracts {
		byAddress[contract.Address] = contract
	}

	for i, cse := range cs {
		contract, ok := byAddress[cse.Target]
		if !ok {
			return errors.Errorf("call %d targets %v, which is not a deployed contract", i+1, cse.Target)
		}
		if len(cse.Data) < 4 {
			return errors.Errorf("call %d has calldata without a method selector", i+1)
		}
		method, err := contract.ABI.MethodById(cse.Data[:4])
		if err != nil {
			return errors.Wrapf(err, "call %d could not be resolved against %v", i+1, contract.Name)
		}
		args, err := method.Inputs.Unpack(cse.Data[4:])
		if err != nil {
			return errors.Wrapf(err, "call %d could not be unpacked as %v", i+1, method.Sig)
		}
		cse.TargetName = contract.Name
		cse.Method = method
		cse.Args = args
	}
	return nil
}

// CallSequenceElement describes a single call in a call sequence targeting a specific contract.
type CallSequenceElement struct {
	// Sender is the address the call is sent from.
	Sender common.Address

	// Target is the address of the contract receiving the call.
	Target common.Address

	// TargetName is the display name of the contract receiving the call.
	TargetName string

	// Method is the method targeted by the call. It is nil if the element was decoded and not yet resolved.
	Method *abi.Method

	// Args are the input values the calldata was packed from.
	Args []any

	// Data is the calldata: the method selector followed by the packed Args.
	Data []byte
}

// NewCallSequenceElement creates a CallSequenceElement calling method on target with the given arguments, packing
// its calldata. Returns an error if the arguments could not be packed for the method.
func NewCallSequenceElement(sender common.Address, target common.Address, targetName string, method *abi.Method, args []any) (*CallSequenceElement, error) {
	data, err := PackCallData(method, args)
	if err != nil {
		return nil, err
	}
	return &CallSequenceElement{
		Sender:     sender,
		Target:     target,
		TargetName: targetName,
		Method:     method,
		Args:       args,
		Data:       data,
	}, nil
}

// PackCallData packs args for method and prefixes them with its selector.
func PackCallData(method *abi.Method, args []any) ([]byte, error) {
	if method == nil {
		return nil, errors.New("ABI call data packing failed, method definition was not set")
	}
	if len(method.Inputs) != len(args) {
		return nil, errors.Errorf("ABI call data packing failed, method %v describes %d input arguments, but %d were provided", method.Sig, len(method.Inputs), len(args))
	}

	argData, err := method.Inputs.Pack(args...)
	if err != nil {
		return nil, errors.Wrapf(err, "ABI call data packing failed for method %v", method.Sig)
	}
	return append(append([]byte{}, method.ID...), argData...), nil
}

// Clone creates a copy of the underlying CallSequenceElement. The Method is shared and the Args slice is copied.
func (cse *CallSequenceElement) Clone() *CallSequenceElement {
	clone := *cse
	if cse.Args != nil {
		clone.Args = append([]any(nil), cse.Args...)
	}
	clone.Data = append([]byte(nil), cse.Data...)
	return &clone
}

// WithArgs returns a copy of the element calling the same method with different arguments.
func (cse *CallSequenceElement) WithArgs(args []any) (*CallSequenceElement, error) {
	return NewCallSequenceElement(cse.Sender, cse.Target, cse.TargetName, cse.Method, args)
}

// Message creates the chain.CallMessage which executes this element.
func (cse *CallSequenceElement) Message(gasLimit uint64) *chain.CallMessage {
	return chain.NewCallMessage(cse.Sender, cse.Target, gasLimit, cse.Data)
}

// String returns a displayable string representing the CallSequenceElement.
func (cse *CallSequenceElement) String() string {
	contractName := "<unresolved contract>"
	if cse.TargetName != "" {
		contractName = cse.TargetName
	}

	methodName := "<unresolved method>"
	argsText := "<unresolved args>"
	if cse.Method != nil {
		methodName = cse.Method.Name
		if len(cse.Args) == len(cse.Method.Inputs) {
			args := make([]string, len(cse.Args))
			for i, input := range cse.Method.Inputs {
				args[i] = valuegeneration.FormatAbiValue(&input.Type, cse.Args[i])
			}
			argsText = strings.Join(args, ", ")
		}
	}

	return fmt.Sprintf("%s.%s(%s) (sender=%s)", contractName, methodName, argsText, cse.Sender)
}
