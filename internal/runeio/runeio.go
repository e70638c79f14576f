// Package runeio provides rune oriented reading and writing around plain
// io.Readers and io.Writers.
package runeio

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// Reader is an io.Reader that also supports reading runes.
type Reader interface {
	io.Reader
	io.RuneReader
}

// NewReader returns a Reader from r; if r already implements, it is simply returned.
// Otherwise bufio.Reader is used to provide rune reading around the given reader.
// If the r implements Name() string, so will the returned Reader.
func NewReader(r io.Reader) Reader {
	if impl, ok := r.(Reader); ok {
		return impl
	}
	rr := runeReader{r, bufio.NewReader(r)}
	if impl, ok := r.(interface{ Name() string }); ok {
		return namedRuneReader{rr, impl.Name()}
	}
	return rr
}

type runeReader struct {
	io.Reader
	io.RuneReader
}

type namedRuneReader struct {
	Reader
	name string
}

func (nr namedRuneReader) Name() string { return nr.name }

// WriteRune writes r to w in utf8 form, using w's own WriteRune or
// WriteString when it has one. Control characters are written as they are.
func WriteRune(w io.Writer, r rune) (n int, err error) {
	switch impl := w.(type) {
	case interface{ WriteRune(rune) (int, error) }:
		return impl.WriteRune(r)
	case io.StringWriter:
		return impl.WriteString(string(r))
	}
	var buf [utf8.UTFMax]byte
	return w.Write(utf8.AppendRune(buf[:0], r))
}
