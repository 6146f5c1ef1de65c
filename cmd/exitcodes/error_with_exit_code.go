package exitcodes

import "github.com/pkg/errors"

// ErrorWithExitCode attaches the process exit code to an error returned by a tenet command, such as
// ExitCodeTestFailed when a campaign violated an invariant.
type ErrorWithExitCode struct {
	err      error
	exitCode int
}

// NewErrorWithExitCode wraps err so that main exits with exitCode when err reaches it.
func NewErrorWithExitCode(err error, exitCode int) *ErrorWithExitCode {
	return &ErrorWithExitCode{
		err:      err,
		exitCode: exitCode,
	}
}

// Error returns the message of the wrapped error, or an empty string when there is none.
func (e *ErrorWithExitCode) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

// Unwrap returns the inner error.
func (e *ErrorWithExitCode) Unwrap() error {
	return e.err
}

// GetInnerErrorAndExitCode resolves the error main reports and the code it exits with. A nil error exits with
// ExitCodeSuccess. The outermost ErrorWithExitCode in the chain of err decides the code, and its inner error is
// reported. Any other error exits with ExitCodeGeneralError.
func GetInnerErrorAndExitCode(err error) (error, int) {
	if err == nil {
		return nil, ExitCodeSuccess
	}
	var withCode *ErrorWithExitCode
	if errors.As(err, &withCode) {
		return withCode.err, withCode.exitCode
	}
	return err, ExitCodeGeneralError
}
