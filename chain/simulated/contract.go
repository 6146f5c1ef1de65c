package simulated

import (
	"fmt"
	"math/big"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/crypto"
)

// MethodHandler executes a contract method. It receives the execution context of the call and the unpacked input
// values, and returns the output values to be packed. A *RevertError reverts the call; any other error is treated as
// a fault of the backend.
type MethodHandler func(ctx *CallContext, args []any) ([]any, error)

// ContractDefinition describes a contract implemented natively in Go. Its ABI is assembled from the methods added
// to it, and calls are dispatched to their handlers by selector.
type ContractDefinition struct {
	// Name is the display name of the contract.
	Name string

	// ABI is the interface of the contract.
	ABI *abi.ABI

	// handlers maps method names to their handlers.
	handlers map[string]MethodHandler

	// Setup is an optional constructor, executed once when the contract is deployed.
	Setup func(ctx *CallContext) error
}

// NewContractDefinition creates a ContractDefinition with no methods.
func NewContractDefinition(name string) *ContractDefinition {
	return &ContractDefinition{
		Name: name,
		ABI: &abi.ABI{
			Methods: make(map[string]abi.Method),
		},
		handlers: make(map[string]MethodHandler),
	}
}

// AddMethod adds a method to the contract. The mutability is one of "pure", "view", "nonpayable" or "payable".
func (c *ContractDefinition) AddMethod(name string, mutability string, inputs abi.Arguments, outputs abi.Arguments, handler MethodHandler) *ContractDefinition {
	if name == "" {
		panic("could not add method to simulated contract, empty method name provided")
	}
	if handler == nil {
		panic("could not add method to simulated contract, nil method handler provided")
	}

	method := abi.NewMethod(name, name, abi.Function, mutability, false, mutability == "payable", inputs, outputs)
	c.ABI.Methods[name] = method
	c.handlers[name] = handler
	return c
}

// RevertError is returned by a MethodHandler to revert the call it is executing.
type RevertError struct {
	// Reason is a human-readable description of the revert.
	Reason string

	// Data is the ABI encoded revert data returned to the caller.
	Data []byte
}

// Error returns the revert reason.
func (e *RevertError) Error() string {
	return fmt.Sprintf("execution reverted: %s", e.Reason)
}

var (
	// errorSelector is the selector of the standard Error(string) revert.
	errorSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

	// panicSelector is the selector of the standard Panic(uint256) revert.
	panicSelector = crypto.Keccak256([]byte("Panic(uint256)"))[:4]
)

// Panic codes raised by compiler-inserted checks.
const (
	PanicAssertionFailed = 0x01
	PanicArithmetic      = 0x11
)

// NewRevertError creates a RevertError carrying reason encoded as Error(string).
func NewRevertError(reason string) *RevertError {
	data, err := abi.Arguments{{Type: mustType("string")}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	return &RevertError{
		Reason: reason,
		Data:   append(append([]byte{}, errorSelector...), data...),
	}
}

// NewPanicError creates a RevertError carrying code encoded as Panic(uint256).
func NewPanicError(code uint64) *RevertError {
	data, err := abi.Arguments{{Type: mustType("uint256")}}.Pack(new(big.Int).SetUint64(code))
	if err != nil {
		panic(err)
	}
	return &RevertError{
		Reason: fmt.Sprintf("panic code 0x%x", code),
		Data:   append(append([]byte{}, panicSelector...), data...),
	}
}

// mustType creates an ABI type from its canonical name and panics if the name is invalid.
func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Args builds abi.Arguments from canonical type names, for declaring unnamed method inputs and outputs.
func Args(typeNames ...string) abi.Arguments {
	args := make(abi.Arguments, len(typeNames))
	for i, name := range typeNames {
		args[i] = abi.Argument{Type: mustType(name)}
	}
	return args
}
