package awaittree

import (
	goerrors "github.com/go-errors/errors"
)

// panicContractViolation aborts the current goroutine with a stack-carrying
// error, used for programming-contract violations (pop, step out of, or
// remove the root; poll an already-Ready future; double-initialize the
// global registry; Current with no registry available). The
// teacher's direct go-errors/errors require exists for exactly this: turning
// a panic value into something that still prints a full stack when logged or
// recovered upstream, instead of a bare string.
func panicContractViolation(msg string) {
	panic(goerrors.New(msg))
}
