package panicerr

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Recover(t *testing.T) {
	for _, tc := range []struct {
		name      string
		err       string
		wraps     string
		fun       func() error
		haveStack bool
		isPanic   bool
		isExit    bool
	}{
		{
			name:      "",
			err:       "panicked: shrug",
			wraps:     "shrug",
			haveStack: true,
			isPanic:   true,
			fun:       func() error { panic(errors.New("shrug")) },
		},
		{
			name:   "",
			err:    "runtime.Goexit called",
			isExit: true,
			fun:    func() error { runtime.Goexit(); return nil },
		},
		{
			name: "normal",
			fun:  func() error { return nil },
		},
		{
			name: "normal err",
			err:  "bang",
			fun:  func() error { return errors.New("bang") },
		},
		{
			name:      "eval",
			err:       "eval panicked: bang",
			wraps:     "bang",
			haveStack: true,
			isPanic:   true,
			fun:       func() error { panic(errors.New("bang")) },
		},
		{
			name:      "hello panic",
			err:       "hello panic panicked: hello",
			haveStack: true,
			isPanic:   true,
			fun:       func() error { panic("hello") },
		},
		{
			name:   "exit",
			err:    "exit called runtime.Goexit",
			isExit: true,
			fun:    func() error { runtime.Goexit(); return nil },
		},
		{
			name:      "index panic",
			err:       "index panic panicked: runtime error: index out of range [1] with length 0",
			haveStack: true,
			isPanic:   true,
			fun:       func() error { _ = ([]int)(nil)[1]; return nil },
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := Recover(tc.name, tc.fun)
			if tc.err == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tc.err)
				if tc.wraps != "" {
					assert.EqualError(t, errors.Unwrap(err), tc.wraps, "expected panic(error) value")
				}
			}
			assert.Equal(t, tc.isPanic, IsPanic(err))
			assert.Equal(t, tc.isExit, IsExit(err))
			assert.False(t, IsAbandoned(err))

			stack := PanicStack(err)
			if tc.haveStack {
				assert.NotEqual(t, "", stack, "expected a stack trace")
			} else {
				assert.Equal(t, "", stack, "expected no stack trace")
			}
			if t.Failed() && stack != "" {
				t.Logf("panic stack: %v", stack)
			}
		})
	}
}

func Test_Recover_stacktrace(t *testing.T) {
	err := Recover("", func() error {
		panic("nope")
	})
	require.Error(t, err, "must have an error")

	assert.True(t,
		strings.HasSuffix(fmt.Sprintf("%+v", err), PanicStack(err)),
		"expected verbose format to end with a stack trace")
}

func Test_RecoverContext(t *testing.T) {
	t.Run("completes", func(t *testing.T) {
		err := RecoverContext(context.Background(), "quick", func() error {
			return errors.New("done")
		})
		assert.EqualError(t, err, "done")
	})

	t.Run("panics", func(t *testing.T) {
		err := RecoverContext(context.Background(), "oops", func() error {
			panic("nope")
		})
		assert.True(t, IsPanic(err))
	})

	t.Run("abandoned", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		release := make(chan struct{})
		defer close(release)
		err := RecoverContext(ctx, "slow", func() error {
			<-release
			return nil
		})
		assert.True(t, IsAbandoned(err), "expected abandoned error, got %v", err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.EqualError(t, err, "slow abandoned: context deadline exceeded")
	})
}
