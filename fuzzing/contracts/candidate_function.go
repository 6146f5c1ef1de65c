package contracts

import (
	"github.com/crytic/medusa-geth/accounts/abi"
)

// CandidateFunction describes a method which may be called on a target contract.
type CandidateFunction struct {
	// Contract describes the target contract which contains the method.
	Contract *TargetContract

	// Method describes the method which is available through the target contract.
	Method abi.Method
}

// Selector returns the four byte selector of the method.
func (f CandidateFunction) Selector() [4]byte {
	var selector [4]byte
	copy(selector[:], f.Method.ID)
	return selector
}
