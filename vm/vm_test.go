package vm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/stackvm/internal/logio"
	"github.com/jcorbin/stackvm/program"
)

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	{
		var exclusive []vmTestCase
		for _, vmt := range vmts {
			if vmt.exclusive {
				exclusive = append(exclusive, vmt)
			}
		}
		if len(exclusive) > 0 {
			vmts = exclusive
		}
	}
	for _, vmt := range vmts {
		t.Run(vmt.name, vmt.run)
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	return vmt
}

type optFunc func(vm *VM)

func (f optFunc) apply(vm *VM) { f(vm) }

type vmTestCase struct {
	name    string
	code    []program.Instruction
	opts    []interface{}
	expect  []func(t *testing.T, vm *VM)
	steps   int
	timeout time.Duration
	wantErr error

	exclusive   bool
	nextInputID int
}

func (vmt vmTestCase) apply(wraps ...func(vmTestCase) vmTestCase) vmTestCase {
	for _, wrap := range wraps {
		vmt = wrap(vmt)
	}
	return vmt
}

func (vmt vmTestCase) exclusiveTest() vmTestCase {
	vmt.exclusive = true
	return vmt
}

func (vmt vmTestCase) withCode(code ...program.Instruction) vmTestCase {
	vmt.code = append(vmt.code, code...)
	return vmt
}

func (vmt vmTestCase) withOptions(opts ...Option) vmTestCase {
	for _, opt := range opts {
		vmt.opts = append(vmt.opts, opt)
	}
	return vmt
}

func (vmt vmTestCase) withStack(values ...int64) vmTestCase {
	vmt.opts = append(vmt.opts, optFunc(func(vm *VM) {
		vm.stack = append(vm.stack, values...)
	}))
	return vmt
}

func (vmt vmTestCase) withCalls(addrs ...int) vmTestCase {
	vmt.opts = append(vmt.opts, optFunc(func(vm *VM) {
		vm.calls = append(vm.calls, addrs...)
	}))
	return vmt
}

func (vmt vmTestCase) withIP(ip int) vmTestCase {
	vmt.opts = append(vmt.opts, optFunc(func(vm *VM) {
		vm.ip = ip
	}))
	return vmt
}

func (vmt vmTestCase) withMemAt(addr uint64, values ...int64) vmTestCase {
	vmt.opts = append(vmt.opts, optFunc(func(vm *VM) {
		if err := vm.mem.Stor(addr, values...); err != nil {
			panic(err)
		}
	}))
	return vmt
}

func (vmt vmTestCase) withInput(input string) vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) Option {
		name := t.Name() + "/input"
		if id := vmt.nextInputID; id > 0 {
			name += "_" + strconv.Itoa(id+1)
		}
		vmt.nextInputID++
		return WithInput(namedReader{strings.NewReader(input), name})
	})
	return vmt
}

func (vmt vmTestCase) withNamedInput(name string, input string) vmTestCase {
	vmt.opts = append(vmt.opts, WithInput(namedReader{strings.NewReader(input), name}))
	return vmt
}

// withSteps calls Step the given number of times, rather than Run.
func (vmt vmTestCase) withSteps(n int) vmTestCase {
	vmt.steps = n
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectFault(kind FaultKind, ip int) vmTestCase {
	vmt.wantErr = kind
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, Faulted, vm.State(), "expected faulted state")
		if assert.NotNil(t, vm.Fault(), "expected a fault") {
			assert.Equal(t, kind, vm.Fault().Kind, "expected fault kind")
			assert.Equal(t, ip, vm.Fault().IP, "expected fault ip")
		}
		assert.Equal(t, ip, vm.IP(), "expected ip to stay at the faulting instruction")
	})
	return vmt
}

func (vmt vmTestCase) expectFaultDetail(detail string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if assert.NotNil(t, vm.Fault(), "expected a fault") {
			assert.Contains(t, vm.Fault().Error(), detail, "expected fault detail")
		}
	})
	return vmt
}

func (vmt vmTestCase) expectHalt(code int64) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, Halted, vm.State(), "expected halted state")
		assert.Equal(t, code, vm.ExitCode(), "expected exit code")
	})
	return vmt
}

func (vmt vmTestCase) expectIP(ip int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, ip, vm.IP(), "expected instruction pointer")
	})
	return vmt
}

func (vmt vmTestCase) expectStack(values ...int64) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if values == nil {
			values = []int64{}
		}
		stack := vm.Stack()
		if stack == nil {
			stack = []int64{}
		}
		assert.Equal(t, values, stack, "expected stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectCalls(addrs ...int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if addrs == nil {
			addrs = []int{}
		}
		calls := vm.Calls()
		if calls == nil {
			calls = []int{}
		}
		assert.Equal(t, addrs, calls, "expected call stack")
	})
	return vmt
}

func (vmt vmTestCase) expectSteps(steps uint64) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, steps, vm.Steps(), "expected step count")
	})
	return vmt
}

func (vmt vmTestCase) expectMemAt(addr uint64, values ...int64) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		buf := make([]int64, len(values))
		if assert.NoError(t, vm.mem.LoadInto(addr, buf), "must load @%v", addr) {
			assert.Equal(t, values, buf, "expected memory values @%v", addr)
		}
	})
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithOutput(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return vmt
}

func (vmt vmTestCase) expectDump(dump string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		var out strings.Builder
		assert.NoError(t, vm.Dump(&out))
		assert.Equal(t, dump, out.String(), "expected dump")
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	var trace []string
	vm := vmt.buildVM(t, func(mess string, args ...interface{}) {
		trace = append(trace, fmt.Sprintf(mess, args...))
	})

	defer func() {
		if t.Failed() {
			for _, line := range trace {
				t.Log(line)
			}
			vmt.dumpToTest(t, vm)
		}
	}()

	timeout := vmt.timeout
	if timeout == 0 {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := vmt.runVM(ctx, vm)
	if vmt.wantErr != nil {
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error: %v\ngot: %+v", vmt.wantErr, err)
	} else {
		assert.NoError(t, err, "unexpected VM run error")
	}

	for _, expect := range vmt.expect {
		expect(t, vm)
	}
}

func (vmt vmTestCase) runVM(ctx context.Context, vm *VM) error {
	if vmt.steps == 0 {
		return vm.Run(ctx)
	}
	for i := 0; i < vmt.steps; i++ {
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return vm.out.Flush()
}

func (vmt vmTestCase) buildVM(t *testing.T, logfn func(mess string, args ...interface{})) *VM {
	opts := []Option{WithLogf(logfn)}
	for _, o := range vmt.opts {
		switch impl := o.(type) {
		case func(vmt *vmTestCase, t *testing.T) Option:
			opts = append(opts, impl(&vmt, t))
		case Option:
			opts = append(opts, impl)
		default:
			t.Fatalf("unsupported vmTestCase opt type %T", o)
		}
	}
	return New(program.New(vmt.code...), opts...)
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	lw := logio.Writer{Logf: t.Logf}
	defer lw.Close()
	vm.Dump(&lw)
}

//// utilities

type namedReader struct {
	*strings.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

var (
	op   = program.Op
	push = program.PushOf
	jump = program.JumpTo
)

func fmtf(mess string, args ...interface{}) string {
	return fmt.Sprintf(mess, args...)
}
