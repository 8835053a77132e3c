package helix

// ResultState is the position of an asynchronous request.
type ResultState int

// Request lifecycle states.
const (
	StateLoading ResultState = iota
	StateSuccess
	StateFailure
)

// Result carries the outcome of a Helix request together with its lifecycle
// state, so callers can render loading, success, and failure uniformly.
type Result[T any] struct {
	State   ResultState
	Value   T
	Message string
}

// Loading returns an in-flight Result.
func Loading[T any]() Result[T] {
	return Result[T]{State: StateLoading}
}

// Success returns a completed Result wrapping value.
func Success[T any](value T) Result[T] {
	return Result[T]{State: StateSuccess, Value: value}
}

// Failure returns a failed Result with a human-readable message.
func Failure[T any](message string) Result[T] {
	return Result[T]{State: StateFailure, Message: message}
}

// OK reports whether the request completed successfully.
func (r Result[T]) OK() bool {
	return r.State == StateSuccess
}
