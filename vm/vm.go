// Package vm implements the execution engine: a single threaded machine that
// runs a decoded program against an evaluation stack, a call stack and a
// bounded memory of int64 cells, until it halts or faults.
//
// Every instruction checks all of its preconditions before mutating anything,
// so a faulted machine holds exactly the state from before the faulting
// instruction.
package vm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jcorbin/stackvm/internal/config"
	"github.com/jcorbin/stackvm/internal/fileinput"
	"github.com/jcorbin/stackvm/internal/flushio"
	"github.com/jcorbin/stackvm/internal/mem"
	"github.com/jcorbin/stackvm/internal/panicerr"
	"github.com/jcorbin/stackvm/program"
)

// State is the coarse state of a machine.
type State uint8

// Machine states; a machine starts out Running, and stops in either of the
// other two.
const (
	Running State = iota
	Halted
	Faulted
)

func (st State) String() string {
	switch st {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	}
	return fmt.Sprintf("state_%d", uint8(st))
}

// ctxCheckInterval is how many steps Run takes between checks of its context.
const ctxCheckInterval = 1024

// VM is a machine bound to a single program.
type VM struct {
	logging

	prog  *program.Program
	ip    int
	stack []int64
	calls []int
	mem   mem.Words
	steps uint64

	stackLimit int
	callDepth  int
	stepLimit  uint64

	in         fileinput.Input
	outw       flushio.WriteFlusher
	tees       []flushio.WriteFlusher
	out        flushio.WriteFlusher
	promptw    flushio.WriteFlusher
	promptText string

	state    State
	exitCode int64
	fault    *Fault
}

// New creates a machine, ready to run p from its first instruction.
func New(p *program.Program, opts ...Option) *VM {
	vm := &VM{prog: p}
	vm.apply(opts...)
	vm.out = flushio.Multi(append([]flushio.WriteFlusher{vm.outw}, vm.tees...)...)
	return vm
}

// Run steps the machine until it halts or faults, returning nil when it
// halted, or the *Fault that stopped it. A done context stops the run early,
// returning the context's error, and leaving the machine Running. Any output
// is flushed before Run returns.
func (vm *VM) Run(ctx context.Context) error {
	err := panicerr.Recover("VM", func() error {
		return vm.run(ctx)
	})
	if perr, ok := panicerr.As(err); ok && !perr.Goexit() {
		vm.logf("!", "%+v", perr)
	}
	if ferr := vm.out.Flush(); ferr != nil && err == nil {
		err = vm.failAt(OutputError, ferr)
	}
	return err
}

func (vm *VM) run(ctx context.Context) error {
	for vm.state == Running {
		if vm.steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return vm.Err()
}

// Step executes exactly one instruction. It returns a *Fault if the
// instruction faulted; once stopped, it just returns Err() again.
func (vm *VM) Step() error {
	if vm.state != Running {
		return vm.Err()
	}

	if vm.stepLimit != 0 && vm.steps >= vm.stepLimit {
		return vm.failAt(StepLimitExceeded, fmt.Errorf("limit %v", vm.stepLimit))
	}

	if vm.ip < 0 || vm.ip >= vm.prog.Len() {
		return vm.failAt(InstructionPointerOutOfRange,
			fmt.Errorf("program has %v instructions", vm.prog.Len()))
	}

	in := vm.prog.At(vm.ip)
	if vm.logfn != nil {
		vm.logf(">", "@%v %v %v", vm.ip, in, vm.stack)
	}
	if f := vm.exec(in); f != nil {
		vm.stop(f)
		return f
	}
	vm.steps++
	return nil
}

func (vm *VM) failAt(kind FaultKind, err error) *Fault {
	f := &Fault{Kind: kind, IP: vm.ip, Err: err}
	if vm.ip >= 0 && vm.ip < vm.prog.Len() {
		f.Op = vm.prog.At(vm.ip).Op
	}
	vm.stop(f)
	return f
}

func (vm *VM) stop(f *Fault) {
	vm.state = Faulted
	vm.fault = f
	vm.logf("!", "%v", f)
}

func (vm *VM) halt(code int64) {
	vm.state = Halted
	vm.exitCode = code
	vm.logf("#", "halt %v", code)
}

// Err returns the fault that stopped the machine, or nil.
func (vm *VM) Err() error {
	if vm.fault != nil {
		return vm.fault
	}
	return nil
}

// State returns the machine state.
func (vm *VM) State() State { return vm.state }

// ExitCode returns the exit code of a halted machine.
func (vm *VM) ExitCode() int64 { return vm.exitCode }

// IP returns the index of the next instruction to execute; in a stopped
// machine, that of the instruction which halted or faulted.
func (vm *VM) IP() int { return vm.ip }

// Stack returns a copy of the evaluation stack, bottom first.
func (vm *VM) Stack() []int64 { return append([]int64(nil), vm.stack...) }

// Calls returns a copy of the call stack of return addresses, oldest first.
func (vm *VM) Calls() []int { return append([]int(nil), vm.calls...) }

// Steps returns how many instructions have been executed to completion.
func (vm *VM) Steps() uint64 { return vm.steps }

// Fault returns the fault that stopped the machine, if any.
func (vm *VM) Fault() *Fault { return vm.fault }

// Program returns the program being run.
func (vm *VM) Program() *program.Program { return vm.prog }

// MemSize returns the number of addressable memory cells.
func (vm *VM) MemSize() int { return int(vm.mem.Limit) }

// Load returns the value of a memory cell.
func (vm *VM) Load(addr int64) (int64, error) {
	if addr < 0 {
		return 0, mem.LimitError{Addr: uint64(addr), Limit: vm.mem.Limit, Op: "load"}
	}
	return vm.mem.Load(uint64(addr))
}

func (vm *VM) String() string {
	switch vm.state {
	case Halted:
		return fmt.Sprintf("halted @%v exit %v", vm.ip, vm.exitCode)
	case Faulted:
		return fmt.Sprintf("faulted: %v", vm.fault)
	}
	return fmt.Sprintf("running @%v", vm.ip)
}

type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}

func (vm *VM) setLimits(cfg config.VM) {
	if cfg.MemSize > 0 {
		vm.mem.Limit = uint64(cfg.MemSize)
	}
	if cfg.StackLimit > 0 {
		vm.stackLimit = cfg.StackLimit
	}
	if cfg.CallDepth > 0 {
		vm.callDepth = cfg.CallDepth
	}
	vm.stepLimit = cfg.StepLimit
}
