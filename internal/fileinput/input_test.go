package fileinput_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/stackvm/internal/fileinput"
)

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func named(name, content string) io.Reader {
	return namedReader{strings.NewReader(content), name}
}

func TestInput_Token(t *testing.T) {
	in := fileinput.Input{Queue: []io.Reader{
		named("a", "  12 -3\n\n  x"),
		named("b", "4"),
		named("c", "  \n "),
		named("d", "5 6"),
	}}

	type tok struct {
		s   string
		loc fileinput.Location
	}
	var got []tok
	for {
		s, loc, err := in.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, tok{s, loc})
	}

	assert.Equal(t, []tok{
		{"12", fileinput.Location{Name: "a", Line: 1}},
		{"-3", fileinput.Location{Name: "a", Line: 1}},
		{"x", fileinput.Location{Name: "a", Line: 3}},
		{"4", fileinput.Location{Name: "b", Line: 1}},
		{"5", fileinput.Location{Name: "d", Line: 1}},
		{"6", fileinput.Location{Name: "d", Line: 1}},
	}, got, "tokens never span streams")

	_, _, err := in.Token()
	assert.Equal(t, io.EOF, err, "stays at EOF")
}

func TestInput_lines(t *testing.T) {
	in := fileinput.Input{Queue: []io.Reader{named("in", "1 2\n3")}}
	for i := 0; i < 3; i++ {
		_, _, err := in.Token()
		require.NoError(t, err)
	}
	assert.Equal(t, `in:1 "1 2"`, in.Last.String())
	assert.Equal(t, `in:2 "3"`, in.Scan.String())
}
