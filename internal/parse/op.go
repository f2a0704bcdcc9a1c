// Package parse turns a token stream into an operation tree.
//
// Builtin words, arithmetic and the like, resolve to their own operation
// codes at parse time; any other word becomes a reference resolved by the
// evaluator's dictionary when it runs. Definitions, conditionals, and counted
// loops are structural: the parser enforces their balance and nests
// definition bodies and conditional branches into their containing Op.
package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// Code identifies the kind of an operation.
type Code uint8

const (
	Push Code = iota // push a literal value

	Add // binary arithmetic
	Sub //
	Mul //
	Div //
	Mod //

	Eq // binary comparison, -1 for true, 0 for false
	Lt //
	Gt //

	Dup      // ( x -- x x )
	Drop     // ( x -- )
	Swap     // ( a b -- b a )
	Over     // ( a b -- a b a )
	Rot      // ( a b c -- b c a )
	MinusRot // ( a b c -- c a b )
	QDup     // ( x -- x x ) if x is non-zero, ( 0 -- 0 ) otherwise
	TwoDup   // ( a b -- a b a b )
	TwoDrop  // ( a b -- )
	TwoSwap  // ( a b c d -- c d a b )
	TwoOver  // ( a b c d -- a b c d a b )

	Print      // pop and print the top of the stack
	PrintStack // print the whole stack without consuming it

	Word      // reference to a dictionary word by name
	Define    // define a word: Name, Body, Immediate
	IfElse    // conditional: Body when the popped flag is non-zero, Else otherwise
	Do        // loop start: ( limit start -- ), Target is just after the matching Loop
	Loop      // loop end
	Index     // push the innermost loop index
	Immediate // mark the latest word as immediate

	CodeMax
)

var codeNames = [CodeMax]string{
	Push:       "push",
	Add:        "add",
	Sub:        "sub",
	Mul:        "mul",
	Div:        "div",
	Mod:        "mod",
	Eq:         "eq",
	Lt:         "lt",
	Gt:         "gt",
	Dup:        "dup",
	Drop:       "drop",
	Swap:       "swap",
	Over:       "over",
	Rot:        "rot",
	MinusRot:   "minusrot",
	QDup:       "qdup",
	TwoDup:     "twodup",
	TwoDrop:    "twodrop",
	TwoSwap:    "twoswap",
	TwoOver:    "twoover",
	Print:      "print",
	PrintStack: "printstack",
	Word:       "word",
	Define:     "define",
	IfElse:     "ifelse",
	Do:         "do",
	Loop:       "loop",
	Index:      "index",
	Immediate:  "immediate",
}

func (c Code) String() string {
	if c < CodeMax {
		return codeNames[c]
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// Op returns a bare operation for c.
func (c Code) Op() Op { return Op{Code: c} }

// Op is one executable unit. Only the fields relevant to its Code are set.
//
// Ops nest only through Define bodies and IfElse branches; loops are flat
// Do ... Loop runs within a single sequence.
type Op struct {
	Code Code

	Value int64  // Push
	Name  string // Word, Define

	Body []Op // Define body, IfElse then-branch
	Else []Op // IfElse else-branch, may be empty

	Target    int  // Do: index just past the matching Loop, 0 if unresolved
	Immediate bool // Define
}

// Lit returns an operation pushing n.
func Lit(n int64) Op { return Op{Code: Push, Value: n} }

// Ref returns a reference to the named word.
func Ref(name string) Op { return Op{Code: Word, Name: name} }

// Def returns a definition of name, with its loop targets linked.
func Def(name string, body ...Op) Op {
	Link(body)
	return Op{Code: Define, Name: name, Body: body}
}

// Cond returns a conditional operation.
func Cond(then, els []Op) Op {
	Link(then)
	Link(els)
	return Op{Code: IfElse, Body: then, Else: els}
}

// Link resolves the Target of every Do in ops, and in any nested conditional
// branches, to just past its matching Loop. Unmatched Do operations are left
// with a zero Target.
func Link(ops []Op) {
	var open []int
	for i := range ops {
		switch ops[i].Code {
		case Do:
			ops[i].Target = 0
			open = append(open, i)
		case Loop:
			if j := len(open) - 1; j >= 0 {
				ops[open[j]].Target = i + 1
				open = open[:j]
			}
		case IfElse:
			Link(ops[i].Body)
			Link(ops[i].Else)
		}
	}
}

// MatchLoop returns the index just past the Loop matching the Do at ops[i],
// using its Target if resolved, scanning otherwise. Returns -1 if there is
// no matching Loop.
func MatchLoop(ops []Op, i int) int {
	if t := ops[i].Target; t > i+1 && t <= len(ops) && ops[t-1].Code == Loop {
		return t
	}
	depth := 1
	for j := i + 1; j < len(ops); j++ {
		switch ops[j].Code {
		case Do:
			depth++
		case Loop:
			if depth--; depth == 0 {
				return j + 1
			}
		}
	}
	return -1
}

func (op Op) String() string {
	var sb strings.Builder
	op.format(&sb)
	return sb.String()
}

// Format renders ops back into source form.
func Format(ops []Op) string {
	var sb strings.Builder
	formatOps(&sb, ops)
	return sb.String()
}

func formatOps(sb *strings.Builder, ops []Op) {
	for i, op := range ops {
		if i > 0 {
			sb.WriteByte(' ')
		}
		op.format(sb)
	}
}

func (op Op) format(sb *strings.Builder) {
	switch op.Code {
	case Push:
		sb.WriteString(strconv.FormatInt(op.Value, 10))
	case Word:
		sb.WriteString(op.Name)
	case Define:
		sb.WriteString(": ")
		sb.WriteString(op.Name)
		if len(op.Body) > 0 {
			sb.WriteByte(' ')
			formatOps(sb, op.Body)
		}
		sb.WriteString(" ;")
		if op.Immediate {
			sb.WriteString(" immediate")
		}
	case IfElse:
		sb.WriteString("if")
		if len(op.Body) > 0 {
			sb.WriteByte(' ')
			formatOps(sb, op.Body)
		}
		if len(op.Else) > 0 {
			sb.WriteString(" else ")
			formatOps(sb, op.Else)
		}
		sb.WriteString(" then")
	default:
		if s := spellings[op.Code]; s != "" {
			sb.WriteString(s)
		} else {
			sb.WriteString(op.Code.String())
		}
	}
}
