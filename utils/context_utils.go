package utils

import "golang.org/x/net/context"

// CheckContextDone polls ctx between the calls of a campaign or a shrinking pass, returning true once the fuzzer was
// terminated or its time budget ran out.
func CheckContextDone(ctx context.Context) bool {
	return ctx.Err() != nil
}
