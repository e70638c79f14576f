// Package fileinput reads whitespace separated tokens from a queue of input
// streams, tracking the name and line of each so that a bad token can be
// reported where it was found.
package fileinput

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/jcorbin/stackvm/internal/runeio"
)

// Location names a line in an Input file.
type Location struct {
	Name string
	Line int
}

// Line combines a Location along with a bytes.Buffer for handling it.
type Line struct {
	Location
	bytes.Buffer
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }
func (il Line) String() string      { return fmt.Sprintf("%v %q", il.Location, il.Buffer.String()) }

// Input implements sequential rune reading through a Queue of one or more
// input streams. Both the current and last scanned lines are tracked to
// facilitate user feedback.
type Input struct {
	rr    io.RuneReader
	Queue []io.Reader
	Last  Line
	Scan  Line
}

// ReadRune reads one rune from the current input stream, appending it into the
// current Scan line, and rolling Scan over to Last after line feed. The end of
// one stream moves on to the next one queued; io.EOF is only returned once
// the queue is exhausted.
func (in *Input) ReadRune() (rune, int, error) {
	return in.read(true)
}

// read reads the next rune; unless advance is set, the end of the current
// stream is reported as io.EOF rather than moving on to the next one.
func (in *Input) read(advance bool) (rune, int, error) {
	for {
		if in.rr == nil && (!advance || !in.nextIn()) {
			return 0, 0, io.EOF
		}

		r, n, err := in.rr.ReadRune()
		if n > 0 {
			if r == '\n' {
				in.nextLine()
			} else {
				in.Scan.WriteRune(r)
			}
			return r, n, nil
		}
		if err != io.EOF {
			return 0, 0, err
		}
		in.closeIn()
	}
}

// Token skips any leading whitespace then reads runes up to the next
// whitespace or the end of input. It returns the Location at which the token
// started; io.EOF is returned only if no token was found.
func (in *Input) Token() (string, Location, error) {
	var sb strings.Builder
	var loc Location
	for {
		r, _, err := in.ReadRune()
		if err != nil {
			return "", in.Scan.Location, err
		}
		if !unicode.IsSpace(r) {
			loc = in.Scan.Location
			sb.WriteRune(r)
			break
		}
	}
	for {
		r, _, err := in.read(false)
		if err == io.EOF {
			break
		} else if err != nil {
			return sb.String(), loc, err
		} else if unicode.IsSpace(r) {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String(), loc, nil
}

func (in *Input) nextLine() {
	in.Last.Reset()
	in.Last.Name = in.Scan.Name
	in.Last.Line = in.Scan.Line
	in.Last.Write(in.Scan.Bytes())
	in.Scan.Reset()
	in.Scan.Line++
}

func (in *Input) closeIn() {
	if cl, ok := in.rr.(io.Closer); ok {
		cl.Close()
	}
	in.rr = nil
}

func (in *Input) nextIn() bool {
	if len(in.Queue) == 0 {
		return false
	}
	if in.Scan.Len() > 0 {
		in.nextLine()
	}
	r := in.Queue[0]
	in.Queue = in.Queue[1:]
	in.rr = runeio.NewReader(r)
	in.Scan.Name = nameOf(r)
	in.Scan.Line = 1
	return true
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
