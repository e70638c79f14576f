package panicerr_test

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/stackvm/internal/panicerr"
)

func Test_Recover(t *testing.T) {
	for _, tc := range []struct {
		name      string
		err       string
		wraps     string
		fun       func() error
		recovered bool
		goexit    bool
	}{
		{
			name:      "",
			err:       "panicked: shrug",
			wraps:     "shrug",
			recovered: true,
			fun:       func() error { panic(errors.New("shrug")) },
		},
		{
			name:      "",
			err:       "called runtime.Goexit",
			recovered: true,
			goexit:    true,
			fun:       func() error { runtime.Goexit(); return nil },
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
			name:      "panic err",
			err:       "panic err panicked: bang",
			wraps:     "bang",
			recovered: true,
			fun:       func() error { panic(errors.New("bang")) },
		},
		{
			name:      "hello panic",
			err:       "hello panic panicked: hello",
			recovered: true,
			fun:       func() error { panic("hello") },
		},
		{
			name:      "exit",
			err:       "exit called runtime.Goexit",
			recovered: true,
			goexit:    true,
			fun:       func() error { runtime.Goexit(); return nil },
		},
		{
			name:      "index panic",
			err:       "index panic panicked: runtime error: index out of range [1] with length 0",
			recovered: true,
			fun:       func() error { _ = ([]int64)(nil)[1]; return nil },
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := panicerr.Recover(tc.name, tc.fun)
			if tc.err == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tc.err)
				if tc.wraps != "" {
					assert.EqualError(t, errors.Unwrap(err), tc.wraps, "expected panic(error) value")
				}
			}

			perr, ok := panicerr.As(err)
			require.Equal(t, tc.recovered, ok, "recovered")
			if !ok {
				return
			}
			assert.Equal(t, tc.name, perr.Name)
			assert.Equal(t, tc.goexit, perr.Goexit(), "goexit")
			if tc.goexit {
				assert.Empty(t, perr.Stack, "expected no stack trace")
			} else {
				assert.NotEmpty(t, perr.Stack, "expected a stack trace")
			}
			if t.Failed() && len(perr.Stack) > 0 {
				t.Logf("panic stack: %s", perr.Stack)
			}
		})
	}
}

func Test_Recover_stacktrace(t *testing.T) {
	err := panicerr.Recover("", func() error {
		panic("nope")
	})
	require.Error(t, err, "must have a recovered error")

	perr, ok := panicerr.As(fmt.Errorf("run: %w", err))
	require.True(t, ok, "found through wrapping")
	assert.True(t,
		strings.HasSuffix(fmt.Sprintf("%+v", err), string(perr.Stack)),
		"expected verbose format to end with a stack trace")
}
