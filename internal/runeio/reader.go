package runeio

import (
	"bufio"
	"io"
)

// Reader is an io.Reader that also supports reading runes.
type Reader interface {
	io.Reader
	io.RuneReader
}

// NewReader returns a Reader from r; if r already implements, it is simply returned.
// Otherwise bufio.Reader is used to provide rune reading around the given reader.
// If r implements Name() string or io.Closer, so will the returned Reader.
func NewReader(r io.Reader) Reader {
	if impl, ok := r.(Reader); ok {
		return impl
	}
	var rr Reader = runeReader{bufio.NewReader(r)}
	if cl, ok := r.(io.Closer); ok {
		rr = closingRuneReader{rr, cl}
	}
	if impl, ok := r.(interface{ Name() string }); ok {
		return namedRuneReader{rr, impl.Name()}
	}
	return rr
}

// runeReader hides any methods of the bufio.Reader beyond Reader, so that
// callers type asserting for Name or Close see only what was preserved.
type runeReader struct{ br *bufio.Reader }

func (rr runeReader) Read(p []byte) (int, error)   { return rr.br.Read(p) }
func (rr runeReader) ReadRune() (rune, int, error) { return rr.br.ReadRune() }

type closingRuneReader struct {
	Reader
	io.Closer
}

type namedRuneReader struct {
	Reader
	name string
}

func (nr namedRuneReader) Name() string { return nr.name }

func (nr namedRuneReader) Close() error {
	if cl, ok := nr.Reader.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
