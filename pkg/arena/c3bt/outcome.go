package c3bt

// Outcome is the result of a mutating Tree operation (Add or Remove).
//
// It has the Ok/Err shape of a Result type, but Add and Remove need to
// distinguish duplicate/not-found from invalid-argument/out-of-memory
// without the caller re-parsing an error string, so Outcome carries one of
// this package's four named errors rather than an arbitrary error value.
type Outcome struct {
	err error
}

func ok() Outcome { return Outcome{} }

func outcomeErr(err error) Outcome { return Outcome{err: err} }

// OK reports whether the operation succeeded.
func (o Outcome) OK() bool { return o.err == nil }

// Err returns the failure reason, or nil on success. When non-nil it is
// always one of ErrDuplicateKey, ErrNotFound, ErrInvalidArgument, or
// ErrOutOfMemory.
func (o Outcome) Err() error { return o.err }
