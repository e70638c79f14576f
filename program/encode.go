package program

import "encoding/binary"

// Encode returns the binary form of the given instructions.
func Encode(code ...Instruction) []byte {
	size := 0
	for _, in := range code {
		size += in.Op.Size()
	}
	buf := make([]byte, 0, size)
	for _, in := range code {
		buf = append(buf, byte(in.Op))
		if in.Op.HasOperand() {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(in.Arg))
		}
	}
	return buf
}

// MarshalBinary implements encoding.BinaryMarshaler; the result decodes back
// into an identical program.
func (p *Program) MarshalBinary() ([]byte, error) {
	return Encode(p.code...), nil
}
