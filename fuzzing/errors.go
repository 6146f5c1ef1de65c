package fuzzing

import (
	"fmt"
)

// BackendFatalError describes a fault of the execution backend, as opposed to a reverted call. It aborts the campaign
// it occurred in.
type BackendFatalError struct {
	// Operation describes what the campaign was doing when the backend failed.
	Operation string

	// Err is the error returned by the backend.
	Err error
}

// Error returns the error message.
func (e *BackendFatalError) Error() string {
	return fmt.Sprintf("backend fault while %s: %v", e.Operation, e.Err)
}

// Unwrap returns the error returned by the backend.
func (e *BackendFatalError) Unwrap() error {
	return e.Err
}

// EncodingError describes a generated value that could not be encoded for the method it was generated for. It
// aborts the campaign it occurred in.
type EncodingError struct {
	// Method is the signature of the method the call was generated for.
	Method string

	// Err describes the encoding failure.
	Err error
}

// Error returns the error message.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("could not encode a call to %s: %v", e.Method, e.Err)
}

// Unwrap returns the encoding failure.
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// TargetSelectionWarning describes a target selection accessor that could not be queried, or the absence of the
// targetContracts allow-list. Selection continues as if the accessor were absent.
type TargetSelectionWarning struct {
	// Accessor is the name of the accessor method.
	Accessor string

	// Missing indicates the invariant contract does not declare the accessor.
	Missing bool

	// Reason describes why the accessor could not be queried.
	Reason string
}

// String returns the warning message.
func (w TargetSelectionWarning) String() string {
	if w.Missing {
		return fmt.Sprintf("the function %s was not found, every deployed contract is a target", w.Accessor)
	}
	return fmt.Sprintf("the function %s was found but there was an error querying its data: %s", w.Accessor, w.Reason)
}
