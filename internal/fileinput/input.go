package fileinput

import (
	"fmt"
	"io"
	"strings"

	"github.com/jcorbin/goforth/internal/runeio"
)

// Location names a line in an Input stream.
type Location struct {
	Name string
	Line int
}

func (loc Location) String() string {
	if loc.Name == "" {
		return fmt.Sprintf("line %v", loc.Line)
	}
	return fmt.Sprintf("%v:%v", loc.Name, loc.Line)
}

// Input implements sequential rune reading through a Queue of one or more
// input streams. The location of the last rune read is kept in Loc.
//
// A line feed is synthesized at the end of every stream that does not end
// with one, so that the last line of one stream never runs into the first
// line of the next.
type Input struct {
	Queue []io.Reader
	Loc   Location

	rr      io.RuneReader
	newline bool
	last    rune
}

// Push appends a stream to the input queue.
func (in *Input) Push(r io.Reader) {
	in.Queue = append(in.Queue, r)
}

// ReadRune reads one rune from the current input stream, moving on to the
// next queued stream after the current one is exhausted. Returns io.EOF only
// once all queued streams are exhausted.
func (in *Input) ReadRune() (rune, int, error) {
	for {
		if in.rr == nil && !in.nextIn() {
			return 0, 0, io.EOF
		}

		if in.newline {
			in.newline = false
			in.Line()
		}

		r, n, err := in.rr.ReadRune()
		if err == nil {
			in.last = r
			if r == '\n' {
				in.newline = true
			}
			return r, n, nil
		}

		if err != io.EOF {
			return 0, 0, err
		}
		in.closeIn()
		if in.last != '\n' && in.last != 0 {
			in.last = '\n'
			in.newline = true
			return '\n', 0, nil
		}
	}
}

// Line advances the location to the next line.
func (in *Input) Line() {
	in.Loc.Line++
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
	r := in.Queue[0]
	in.Queue = in.Queue[1:]
	in.rr = runeio.NewReader(r)
	in.Loc = Location{Name: nameOf(r), Line: 1}
	in.newline = false
	in.last = 0
	return true
}

// Named attaches a name to a reader, used for the Location of its runes.
func Named(name string, r io.Reader) io.Reader {
	return namedReader{r, name}
}

// String returns a named reader over a string.
func String(name, s string) io.Reader {
	return Named(name, strings.NewReader(s))
}

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
