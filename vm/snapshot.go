package vm

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/jcorbin/stackvm/internal/config"
	"github.com/jcorbin/stackvm/program"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot captures the full state of a machine, including its program, so
// that it may be written out, inspected later, or restored to continue
// running.
type Snapshot struct {
	Code       []byte       `cbor:"code"`
	State      State        `cbor:"state"`
	IP         int          `cbor:"ip"`
	Steps      uint64       `cbor:"steps"`
	ExitCode   int64        `cbor:"exit,omitempty"`
	Fault      *FaultRecord `cbor:"fault,omitempty"`
	Stack      []int64      `cbor:"stack"`
	Calls      []int        `cbor:"calls"`
	MemSize    int          `cbor:"memSize"`
	StackLimit int          `cbor:"stackLimit"`
	CallDepth  int          `cbor:"callDepth"`
	StepLimit  uint64       `cbor:"stepLimit,omitempty"`
	Memory     []Cell       `cbor:"memory"`
}

// FaultRecord is the serializable form of a Fault; its detail error only
// survives as text.
type FaultRecord struct {
	Kind   FaultKind      `cbor:"kind"`
	IP     int            `cbor:"ip"`
	Op     program.Opcode `cbor:"op"`
	Detail string         `cbor:"detail,omitempty"`
}

// Cell is a single non-zero memory cell.
type Cell struct {
	_    struct{} `cbor:",toarray"`
	Addr uint64
	Val  int64
}

// Snapshot captures the current machine state.
func (vm *VM) Snapshot() *Snapshot {
	snap := &Snapshot{
		Code:       program.Encode(vm.prog.Instructions()...),
		State:      vm.state,
		IP:         vm.ip,
		Steps:      vm.steps,
		ExitCode:   vm.exitCode,
		Stack:      vm.Stack(),
		Calls:      vm.Calls(),
		MemSize:    vm.MemSize(),
		StackLimit: vm.stackLimit,
		CallDepth:  vm.callDepth,
		StepLimit:  vm.stepLimit,
	}
	if f := vm.fault; f != nil {
		snap.Fault = &FaultRecord{Kind: f.Kind, IP: f.IP, Op: f.Op}
		if f.Err != nil {
			snap.Fault.Detail = f.Err.Error()
		}
	}
	vm.mem.Each(func(addr uint64, val int64) {
		snap.Memory = append(snap.Memory, Cell{Addr: addr, Val: val})
	})
	return snap
}

// snapshotFields has the fields of Snapshot but none of its methods, so that
// the codec encodes it field by field instead of calling back into
// MarshalBinary.
type snapshotFields Snapshot

// MarshalBinary encodes the snapshot as canonical CBOR.
func (snap *Snapshot) MarshalBinary() ([]byte, error) {
	return cborEncMode.Marshal((*snapshotFields)(snap))
}

// UnmarshalBinary decodes a snapshot from CBOR.
func (snap *Snapshot) UnmarshalBinary(data []byte) error {
	var s snapshotFields
	if err := cbor.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	*snap = Snapshot(s)
	return nil
}

// Restore creates a machine in the captured state; any options given apply
// after the captured limits, so may override them, and are the only way to
// provide I/O to the restored machine.
func (snap *Snapshot) Restore(opts ...Option) (*VM, error) {
	prog, err := program.Decode(snap.Code)
	if err != nil {
		return nil, fmt.Errorf("vm: restore snapshot: %w", err)
	}

	vm := New(prog, WithConfig(snap.config()), Options(opts...))

	vm.state = snap.State
	vm.ip = snap.IP
	vm.steps = snap.Steps
	vm.exitCode = snap.ExitCode
	vm.stack = append([]int64(nil), snap.Stack...)
	vm.calls = append([]int(nil), snap.Calls...)
	if fr := snap.Fault; fr != nil {
		vm.fault = &Fault{Kind: fr.Kind, IP: fr.IP, Op: fr.Op}
		if fr.Detail != "" {
			vm.fault.Err = errors.New(fr.Detail)
		}
	}
	for _, cell := range snap.Memory {
		if err := vm.mem.Stor(cell.Addr, cell.Val); err != nil {
			return nil, fmt.Errorf("vm: restore snapshot: %w", err)
		}
	}

	switch {
	case vm.state == Faulted && vm.fault == nil:
		return nil, errors.New("vm: restore snapshot: faulted without a fault record")
	case vm.state != Faulted && vm.fault != nil:
		return nil, fmt.Errorf("vm: restore snapshot: %v with a fault record", vm.state)
	case vm.state > Faulted:
		return nil, fmt.Errorf("vm: restore snapshot: invalid %v", vm.state)
	case len(vm.stack) > vm.stackLimit:
		return nil, fmt.Errorf("vm: restore snapshot: stack depth %v exceeds limit %v", len(vm.stack), vm.stackLimit)
	case len(vm.calls) > vm.callDepth:
		return nil, fmt.Errorf("vm: restore snapshot: call depth %v exceeds limit %v", len(vm.calls), vm.callDepth)
	}
	return vm, nil
}

func (snap *Snapshot) config() config.VM {
	return config.VM{
		MemSize:    snap.MemSize,
		StackLimit: snap.StackLimit,
		CallDepth:  snap.CallDepth,
		StepLimit:  snap.StepLimit,
	}
}
