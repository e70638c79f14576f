package program

import "fmt"

// JumpTargetError reports a literal jump or call target outside the program.
type JumpTargetError struct {
	Index  int
	Op     Opcode
	Target int64
	Len    int
}

func (err *JumpTargetError) Error() string {
	return fmt.Sprintf("%v: %v @%v targets %v, program has %v instructions",
		ErrInvalidJumpTarget, err.Op, err.Index, err.Target, err.Len)
}

// Unwrap returns ErrInvalidJumpTarget.
func (err *JumpTargetError) Unwrap() error { return ErrInvalidJumpTarget }

// Validate checks every literal jump and call target against the program
// length, returning the first violation. Return addresses are not literals;
// the engine still checks those as it runs.
func Validate(p *Program) error {
	n := p.Len()
	for i, in := range p.code {
		if in.Op.IsJump() && (in.Arg < 0 || in.Arg >= int64(n)) {
			return &JumpTargetError{Index: i, Op: in.Op, Target: in.Arg, Len: n}
		}
	}
	return nil
}
