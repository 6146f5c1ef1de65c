package contracts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/pkg/errors"
)

// HasInvariants reports whether contractAbi declares a method whose name starts with one of prefixes.
func HasInvariants(contractAbi *abi.ABI, prefixes []string) bool {
	for name := range contractAbi.Methods {
		if hasPrefix(name, prefixes) {
			return true
		}
	}
	return false
}

// InvariantMethods returns the invariant methods declared by contractAbi, ordered by name. A method is an invariant
// if its name starts with one of prefixes. An invariant taking inputs is an error. A prefixed method which does not
// return a single bool is skipped, and a warning describing it is returned.
func InvariantMethods(contractAbi *abi.ABI, prefixes []string) ([]abi.Method, []string, error) {
	names := make([]string, 0)
	for name := range contractAbi.Methods {
		if hasPrefix(name, prefixes) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var (
		methods  []abi.Method
		warnings []string
	)
	for _, name := range names {
		method := contractAbi.Methods[name]
		if len(method.Inputs) != 0 {
			return nil, nil, errors.Errorf("invariant test function %v should have no inputs", method.Sig)
		}
		if len(method.Outputs) != 1 || method.Outputs[0].Type.T != abi.BoolTy {
			warnings = append(warnings, fmt.Sprintf("%v matches an invariant prefix but does not return a single bool, it is ignored", method.Sig))
			continue
		}
		methods = append(methods, method)
	}
	return methods, warnings, nil
}

func hasPrefix(name string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
