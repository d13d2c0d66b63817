package edital

// StageResult is the two-variant outcome of one pipeline stage. A failed
// stage carries a machine-readable reason so the orchestrator can log why
// it moved on; no stage failure is ever propagated as a Go error past the
// resolver boundary.
type StageResult[T any] struct {
	value  T
	reason string
	ok     bool
}

// Ok wraps a successful stage value.
func Ok[T any](value T) StageResult[T] {
	return StageResult[T]{value: value, ok: true}
}

// Fail records a failure reason.
func Fail[T any](reason string) StageResult[T] {
	return StageResult[T]{reason: reason}
}

// FailErr records a failure carrying an error's message.
func FailErr[T any](err error) StageResult[T] {
	if err == nil {
		return StageResult[T]{reason: "unknown failure"}
	}
	return StageResult[T]{reason: err.Error()}
}

// OK reports whether the stage succeeded.
func (r StageResult[T]) OK() bool { return r.ok }

// Value returns the stage value; only meaningful when OK.
func (r StageResult[T]) Value() T { return r.value }

// Reason returns the failure reason, empty on success.
func (r StageResult[T]) Reason() string { return r.reason }
