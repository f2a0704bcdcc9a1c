package parse

import (
	"errors"
	"fmt"

	"github.com/jcorbin/goforth/internal/token"
)

// ErrorKind classifies parse errors.
type ErrorKind uint8

// Incomplete error kinds come first; they mean more input could complete the
// program. All others are malformed: no continuation can fix them.
const (
	UnterminatedDefinition ErrorKind = iota
	UnterminatedConditional

	UnexpectedToken
	ExpectedWordName
	NestedDefinition
	ControlOutsideDefinition
	UnmatchedLoop
	UnclosedLoop
	UnclosedConditional
)

var errorKindMess = []string{
	UnterminatedDefinition:   "unterminated definition",
	UnterminatedConditional:  "unterminated conditional",
	UnexpectedToken:          "unexpected token",
	ExpectedWordName:         "expected word name after :",
	NestedDefinition:         "nested definitions are not supported",
	ControlOutsideDefinition: "control word outside of definition",
	UnmatchedLoop:            "loop without matching do",
	UnclosedLoop:             "do without matching loop",
	UnclosedConditional:      "if without matching then",
}

func (kind ErrorKind) String() string {
	if int(kind) < len(errorKindMess) {
		return errorKindMess[kind]
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(kind))
}

// Error is a parse failure at a token.
type Error struct {
	Kind  ErrorKind
	Token token.Token
}

func errorAt(kind ErrorKind, tok token.Token) *Error {
	return &Error{Kind: kind, Token: tok}
}

// Incomplete returns true if more input could resolve the error.
func (err *Error) Incomplete() bool { return err.Kind <= UnterminatedConditional }

func (err *Error) Error() string {
	mess := err.Kind.String()
	if text := err.Token.Text; text != "" {
		mess = fmt.Sprintf("%v %q", mess, text)
	}
	if loc := err.Token.Loc; loc.Line != 0 {
		mess = fmt.Sprintf("%v: %v", loc, mess)
	}
	return mess
}

// IsIncomplete returns true if err is, or wraps, an incomplete parse error.
func IsIncomplete(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Incomplete()
}
