package vm

import "fmt"

// need checks that the stack holds at least n values.
func (vm *VM) need(n int) *Fault {
	if have := len(vm.stack); have < n {
		return vm.faultf(StackUnderflow, "need %v values, have %v", n, have)
	}
	return nil
}

// room checks that n more values can be pushed.
func (vm *VM) room(n int) *Fault {
	if depth := len(vm.stack) + n; depth > vm.stackLimit {
		return vm.faultf(StackOverflow, "depth %v exceeds limit %v", depth, vm.stackLimit)
	}
	return nil
}

// The following helpers are only safe after need and room checks pass.

func (vm *VM) push(v int64) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() int64 {
	i := len(vm.stack) - 1
	v := vm.stack[i]
	vm.stack = vm.stack[:i]
	return v
}

func (vm *VM) peek(i int) int64 { return vm.stack[len(vm.stack)-1-i] }

// pop2 returns a and b from a stack of [... a b].
func (vm *VM) pop2() (a, b int64) {
	b = vm.pop()
	a = vm.pop()
	return a, b
}

func (vm *VM) newFault(kind FaultKind, err error) *Fault {
	return &Fault{Kind: kind, IP: vm.ip, Op: vm.prog.At(vm.ip).Op, Err: err}
}

func (vm *VM) faultf(kind FaultKind, mess string, args ...interface{}) *Fault {
	return vm.newFault(kind, fmt.Errorf(mess, args...))
}
