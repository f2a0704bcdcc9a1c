// Package token implements the token source: it splits program text into
// whitespace delimited atoms, elides comments, and classifies what remains as
// integer literals, word names, or the two definition delimiters.
package token

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jcorbin/goforth/internal/fileinput"
)

// Kind classifies a Token.
type Kind uint8

const (
	KindWord Kind = iota
	KindInteger
	KindColon
	KindSemicolon
)

var kindNames = [...]string{
	KindWord:      "word",
	KindInteger:   "integer",
	KindColon:     "colon",
	KindSemicolon: "semicolon",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Token is one lexical item. Text holds the atom as spelled in the source;
// Int holds the value of an integer literal.
type Token struct {
	Kind Kind
	Int  int64
	Text string
	Loc  fileinput.Location
}

// Colon and Semicolon open and close a definition.
var (
	Colon     = Token{Kind: KindColon, Text: ":"}
	Semicolon = Token{Kind: KindSemicolon, Text: ";"}
)

// Integer returns an integer literal token.
func Integer(n int64) Token {
	return Token{Kind: KindInteger, Int: n, Text: strconv.FormatInt(n, 10)}
}

// Word returns a word atom token.
func Word(text string) Token {
	return Token{Kind: KindWord, Text: text}
}

// Classify builds the token for a single atom.
func Classify(text string, loc fileinput.Location) Token {
	switch text {
	case ":":
		return Token{Kind: KindColon, Text: text, Loc: loc}
	case ";":
		return Token{Kind: KindSemicolon, Text: text, Loc: loc}
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Token{Kind: KindInteger, Int: n, Text: text, Loc: loc}
	}
	return Token{Kind: KindWord, Text: text, Loc: loc}
}

func (tok Token) String() string { return tok.Text }

// Is returns true if tok is a word atom, matching name case-insensitively.
func (tok Token) Is(name string) bool {
	return tok.Kind == KindWord && strings.EqualFold(tok.Text, name)
}
