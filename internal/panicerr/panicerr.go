// Package panicerr turns panics and runtime.Goexit calls into ordinary errors,
// so that a bug inside an instruction handler surfaces as a run error rather
// than tearing down the whole process.
package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Error is a panic or runtime.Goexit recovered by Recover.
type Error struct {
	// Name is the name given to Recover.
	Name string

	// Value is what was passed to panic; it is nil after runtime.Goexit.
	Value interface{}

	// Stack is a trace taken where the panic was recovered.
	Stack []byte
}

// Recover runs f in a new goroutine, waiting for it to finish; a panic or
// runtime.Goexit inside f is returned as an *Error.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		returned := false
		defer func() {
			if returned {
				return
			}
			perr := &Error{Name: name}
			if perr.Value = recover(); perr.Value != nil {
				perr.Stack = debug.Stack()
			}
			errch <- perr
		}()
		err := f()
		returned = true
		errch <- err
	}()
	return <-errch
}

// As returns the *Error inside err, if any.
func As(err error) (*Error, bool) {
	var perr *Error
	ok := errors.As(err, &perr)
	return perr, ok
}

// Goexit reports whether the goroutine exited rather than panicked.
func (perr *Error) Goexit() bool { return perr.Value == nil }

func (perr *Error) Error() string { return fmt.Sprint(perr) }

// Format writes the panic stack after the message under %+v.
func (perr *Error) Format(f fmt.State, c rune) {
	if perr.Name != "" {
		fmt.Fprintf(f, "%v ", perr.Name)
	}
	if perr.Goexit() {
		fmt.Fprint(f, "called runtime.Goexit")
		return
	}
	fmt.Fprintf(f, "panicked: %v", perr.Value)
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nPanic stack: %s", perr.Stack)
	}
}

// Unwrap returns the panic value when it was an error.
func (perr *Error) Unwrap() error {
	err, _ := perr.Value.(error)
	return err
}
