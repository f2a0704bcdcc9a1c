// Package panicerr isolates function calls on their own goroutine, turning
// panics and runtime.Goexit into ordinary errors.
package panicerr

import (
	"context"
	"fmt"
)

// Recover runs f in a new goroutine, recovering any panic or abnormal exit
// as a non-nil error return.
func Recover(name string, f func() error) error {
	return <-start(name, f)
}

// RecoverContext is like Recover, but stops waiting once ctx is done,
// returning an error wrapping ctx.Err(). The goroutine running f is then
// abandoned: f keeps running until it returns on its own, and anything it
// touches must not be used again by the caller.
func RecoverContext(ctx context.Context, name string, f func() error) error {
	errch := start(name, f)
	select {
	case err := <-errch:
		return err
	case <-ctx.Done():
		return abandonedError{name, ctx.Err()}
	}
}

func start(name string, f func() error) <-chan error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer recoverExitError(name, errch)
		defer recoverPanicError(name, errch)
		errch <- f()
	}()
	return errch
}

type abandonedError struct {
	name string
	err  error
}

func (ae abandonedError) Error() string {
	if ae.name == "" {
		return fmt.Sprintf("abandoned: %v", ae.err)
	}
	return fmt.Sprintf("%v abandoned: %v", ae.name, ae.err)
}

func (ae abandonedError) Unwrap() error { return ae.err }
