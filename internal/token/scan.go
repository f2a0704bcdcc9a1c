package token

import (
	"io"
	"strings"
	"unicode"

	"github.com/jcorbin/goforth/internal/fileinput"
)

// Scanner reads tokens from a queue of input streams.
//
// Comments are dropped: a `\` atom discards the rest of its line, and an
// atom starting with `(` discards everything through the next `)`; any text
// after that `)` within the same atom is scanned as an atom of its own.
type Scanner struct {
	fileinput.Input

	sb  strings.Builder
	eol bool
}

// NewScanner creates a scanner reading from the given streams in order.
func NewScanner(rs ...io.Reader) *Scanner {
	var sc Scanner
	for _, r := range rs {
		sc.Push(r)
	}
	return &sc
}

// Lex scans all tokens from src, attributing them to the given name.
func Lex(name, src string) []Token {
	toks, _ := NewScanner(fileinput.String(name, src)).All()
	return toks
}

// All returns every remaining token.
func (sc *Scanner) All() (toks []Token, err error) {
	for {
		tok, err := sc.Next()
		if err == io.EOF {
			return toks, nil
		} else if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
	}
}

// Next returns the next token, or io.EOF once input is exhausted.
func (sc *Scanner) Next() (Token, error) {
	for {
		tok, eol, err := sc.scan()
		if err != nil || !eol {
			return tok, err
		}
	}
}

// Line returns the tokens up to the end of the next line of input. Returns
// io.EOF only when no input remains; a final line without a line feed is
// still returned without error.
func (sc *Scanner) Line() (toks []Token, err error) {
	started := false
	for {
		tok, eol, err := sc.scan()
		if err == io.EOF && started {
			return toks, nil
		} else if err != nil {
			return toks, err
		}
		started = true
		if eol {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

// scan reads the next atom, returning either a token, or eol=true when a
// line ended before any atom started.
func (sc *Scanner) scan() (tok Token, eol bool, err error) {
	for {
		if sc.eol {
			sc.eol = false
			return tok, true, nil
		}

		text, err := sc.atom()
		if err != nil {
			return tok, false, err
		}
		if text == "" {
			return tok, true, nil
		}
		loc := sc.Loc

		switch {
		case text == `\`:
			if err := sc.skipLine(); err != nil {
				return tok, false, err
			}
			return tok, true, nil

		case text[0] == '(':
			for text != "" && text[0] == '(' {
				end := strings.IndexByte(text, ')')
				if end < 0 {
					if err := sc.skipPast(')'); err != nil {
						return tok, false, err
					}
					text = ""
				} else {
					text = text[end+1:]
				}
			}
			if text == "" {
				continue
			}
		}

		return Classify(text, loc), false, nil
	}
}

// atom reads the next space delimited atom; an empty string means that a
// line feed was read first.
func (sc *Scanner) atom() (string, error) {
	sc.sb.Reset()
	for {
		r, _, err := sc.ReadRune()
		if err != nil {
			return "", err
		}
		if r == '\n' {
			return "", nil
		}
		if !isSpace(r) {
			sc.sb.WriteRune(r)
			break
		}
	}
	for {
		r, _, err := sc.ReadRune()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", err
		}
		if r == '\n' {
			sc.eol = true
			break
		}
		if isSpace(r) {
			break
		}
		sc.sb.WriteRune(r)
	}
	return sc.sb.String(), nil
}

func (sc *Scanner) skipLine() error {
	if sc.eol {
		sc.eol = false
		return nil
	}
	return sc.skipPast('\n')
}

func (sc *Scanner) skipPast(end rune) error {
	sc.eol = false
	for {
		r, _, err := sc.ReadRune()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if r == end {
			return nil
		}
	}
}

func isSpace(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }
