package registry

import "context"

// Result is the application-level outcome of a bridge method. A handler that
// ran to completion reports success or failure here; Err is the message shown
// to the embedded caller when Success is false.
type Result struct {
	Success bool
	Data    map[string]any
	Err     string
}

// Handler implements one bridge method. Params is the decoded params object
// from the request (empty map when the request carried none). Returning a
// non-nil error means the handler itself failed to execute, which is distinct
// from returning a Result with Success=false (an application-level failure
// the handler chose to report).
//
// The context carries the per-request deadline. Handlers that block should
// honor ctx cancellation; the dispatcher stops waiting at the deadline either
// way.
type Handler func(ctx context.Context, params map[string]any) (Result, error)

// OK builds a successful Result.
func OK(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failed Result with the given caller-facing message.
func Fail(msg string) Result {
	return Result{Success: false, Err: msg}
}
