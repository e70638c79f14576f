package vm

import (
	"fmt"

	"github.com/jcorbin/stackvm/program"
)

// exec executes a single instruction at vm.ip, returning a fault without
// having changed any state, or advancing ip on success.
func (vm *VM) exec(in program.Instruction) *Fault {
	pops, pushes := in.Op.Arity()
	if f := vm.need(pops); f != nil {
		return f
	}
	if grow := pushes - pops; grow > 0 {
		if f := vm.room(grow); f != nil {
			return f
		}
	}

	next := vm.ip + 1

	switch in.Op {
	case program.Nop:

	case program.Halt:
		vm.halt(0)
		return nil

	case program.Exit:
		vm.halt(vm.pop())
		return nil

	case program.Push:
		vm.push(in.Arg)

	case program.Pop:
		vm.pop()

	case program.Dup:
		vm.push(vm.peek(0))

	case program.Swap:
		a, b := vm.pop2()
		vm.push(b)
		vm.push(a)

	case program.Over:
		vm.push(vm.peek(1))

	case program.Add:
		a, b := vm.pop2()
		vm.push(a + b)

	case program.Sub:
		a, b := vm.pop2()
		vm.push(a - b)

	case program.Mul:
		a, b := vm.pop2()
		vm.push(a * b)

	case program.Div, program.Mod:
		if vm.peek(0) == 0 {
			return vm.newFault(DivisionByZero, nil)
		}
		a, b := vm.pop2()
		if in.Op == program.Div {
			vm.push(a / b)
		} else {
			vm.push(a % b)
		}

	case program.Neg:
		vm.push(-vm.pop())

	case program.Eq:
		a, b := vm.pop2()
		vm.push(boolValue(a == b))
	case program.Ne:
		a, b := vm.pop2()
		vm.push(boolValue(a != b))
	case program.Lt:
		a, b := vm.pop2()
		vm.push(boolValue(a < b))
	case program.Le:
		a, b := vm.pop2()
		vm.push(boolValue(a <= b))
	case program.Gt:
		a, b := vm.pop2()
		vm.push(boolValue(a > b))
	case program.Ge:
		a, b := vm.pop2()
		vm.push(boolValue(a >= b))
	case program.Not:
		vm.push(boolValue(vm.pop() == 0))

	case program.Jmp:
		if f := vm.checkTarget(in); f != nil {
			return f
		}
		next = int(in.Arg)

	case program.Jz, program.Jnz:
		if f := vm.checkTarget(in); f != nil {
			return f
		}
		if c := vm.pop(); (c == 0) == (in.Op == program.Jz) {
			next = int(in.Arg)
		}

	case program.Call:
		if f := vm.checkTarget(in); f != nil {
			return f
		}
		if depth := len(vm.calls) + 1; depth > vm.callDepth {
			return vm.faultf(CallStackOverflow, "depth %v exceeds limit %v", depth, vm.callDepth)
		}
		vm.calls = append(vm.calls, next)
		next = int(in.Arg)

	case program.Ret:
		i := len(vm.calls) - 1
		if i < 0 {
			return vm.newFault(CallStackUnderflow, nil)
		}
		next = vm.calls[i]
		vm.calls = vm.calls[:i]

	case program.Load:
		addr, f := vm.checkAddr(vm.peek(0), "load")
		if f != nil {
			return f
		}
		val, err := vm.mem.Load(addr)
		if err != nil {
			return vm.newFault(MemoryOutOfBounds, err)
		}
		vm.stack[len(vm.stack)-1] = val

	case program.Store:
		addr, f := vm.checkAddr(vm.peek(0), "stor")
		if f != nil {
			return f
		}
		if err := vm.mem.Stor(addr, vm.peek(1)); err != nil {
			return vm.newFault(MemoryOutOfBounds, err)
		}
		vm.pop2()

	case program.Print:
		if f := vm.print(vm.peek(0)); f != nil {
			return f
		}
		vm.pop()

	case program.PrintC:
		if f := vm.printc(vm.peek(0)); f != nil {
			return f
		}
		vm.pop()

	case program.Read:
		v, f := vm.read()
		if f != nil {
			return f
		}
		vm.push(v)

	default:
		// Decode never yields an unknown opcode
		panic(fmt.Sprintf("unimplemented opcode %v", in.Op))
	}

	vm.ip = next
	return nil
}

func (vm *VM) checkTarget(in program.Instruction) *Fault {
	if n := vm.prog.Len(); in.Arg < 0 || in.Arg >= int64(n) {
		return vm.newFault(InvalidJumpTarget, &program.JumpTargetError{
			Index:  vm.ip,
			Op:     in.Op,
			Target: in.Arg,
			Len:    n,
		})
	}
	return nil
}

func (vm *VM) checkAddr(addr int64, op string) (uint64, *Fault) {
	if addr < 0 {
		return 0, vm.faultf(MemoryOutOfBounds, "%v @%v negative address", op, addr)
	}
	return uint64(addr), nil
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
