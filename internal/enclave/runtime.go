package enclave

import "fmt"

// Runtime is the native enclave lifecycle. Both calls are blocking and
// must complete or fail; they are never cancelled.
type Runtime interface {
	Init(attr Attr) error
	Destroy() error
}

// CodeError carries the non-zero return code of a native call.
type CodeError struct {
	Op   string
	Code int32
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("%s returned %d", e.Op, e.Code)
}
