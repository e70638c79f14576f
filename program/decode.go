package program

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrMalformed matches any DecodeError.
	ErrMalformed = errors.New("malformed program")

	// ErrInvalidJumpTarget matches any JumpTargetError.
	ErrInvalidJumpTarget = errors.New("invalid jump target")
)

// DecodeError reports where decoding failed. Offset is the position of the
// offending opcode byte: either the unknown opcode itself, or the opcode
// whose operand was cut short by the end of the stream.
type DecodeError struct {
	Offset int
	Op     Opcode
	Need   int // operand bytes required, for a truncated instruction
	Have   int // operand bytes available, for a truncated instruction
}

func (err *DecodeError) Error() string {
	if !err.Op.Valid() {
		return fmt.Sprintf("%v: unknown opcode 0x%02x @%v", ErrMalformed, byte(err.Op), err.Offset)
	}
	return fmt.Sprintf("%v: truncated %v operand @%v, need %v bytes, have %v",
		ErrMalformed, err.Op, err.Offset, err.Need, err.Have)
}

// Unwrap returns ErrMalformed.
func (err *DecodeError) Unwrap() error { return ErrMalformed }

// Decode transforms raw bytes into a Program, consuming the whole input.
// Nothing is retained from data.
func Decode(data []byte) (*Program, error) {
	var p Program
	for off := 0; off < len(data); {
		op := Opcode(data[off])
		if !op.Valid() {
			return nil, &DecodeError{Offset: off, Op: op}
		}

		in := Instruction{Op: op}
		if op.HasOperand() {
			operand := data[off+1:]
			if len(operand) < OperandSize {
				return nil, &DecodeError{Offset: off, Op: op, Need: OperandSize, Have: len(operand)}
			}
			in.Arg = int64(binary.LittleEndian.Uint64(operand))
		}

		p.code = append(p.code, in)
		p.offsets = append(p.offsets, off)
		off += op.Size()
	}
	return &p, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler around Decode.
func (p *Program) UnmarshalBinary(data []byte) error {
	dec, err := Decode(data)
	if err != nil {
		return err
	}
	*p = *dec
	return nil
}
