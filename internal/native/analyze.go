package native

import "github.com/jcorbin/goforth/internal/parse"

// Shape bounds how a body uses the stack relative to its entry top.
type Shape struct {
	// Reach is how many values below the entry top the body may read or
	// overwrite.
	Reach int

	// Growth is how many values above the entry depth the body may hold at
	// any point; callers must provide that much headroom.
	Growth int
}

// arity gives the values consumed and produced by each fixed-effect code.
var arity = [parse.CodeMax]struct{ in, out int }{
	parse.Push:       {0, 1},
	parse.Add:        {2, 1},
	parse.Sub:        {2, 1},
	parse.Mul:        {2, 1},
	parse.Div:        {2, 1},
	parse.Mod:        {2, 1},
	parse.Eq:         {2, 1},
	parse.Lt:         {2, 1},
	parse.Gt:         {2, 1},
	parse.Dup:        {1, 2},
	parse.Drop:       {1, 0},
	parse.Swap:       {2, 2},
	parse.Over:       {2, 3},
	parse.Rot:        {3, 3},
	parse.MinusRot:   {3, 3},
	parse.TwoDup:     {2, 4},
	parse.TwoDrop:    {2, 0},
	parse.TwoSwap:    {4, 4},
	parse.TwoOver:    {4, 6},
	parse.Index:      {0, 1},
	parse.Print:      {1, 0},
	parse.PrintStack: {0, 0},
}

// Analyze computes the Shape of a body, returning an error wrapping
// ErrUnsupported if the body cannot be compiled: word references and output
// have effects outside the stack buffer, and loops must leave the stack
// depth unchanged on every iteration so that their total growth is bounded.
func Analyze(body []parse.Op) (Shape, error) {
	var an analysis
	d, err := an.seq(span{}, body, 0)
	if err != nil {
		return Shape{}, err
	}
	an.grow(d)
	return an.Shape, nil
}

// span is the range of possible stack depths, relative to entry.
type span struct{ lo, hi int }

func (s span) add(n int) span { return span{s.lo + n, s.hi + n} }

func (s span) hull(o span) span {
	if o.lo < s.lo {
		s.lo = o.lo
	}
	if o.hi > s.hi {
		s.hi = o.hi
	}
	return s
}

type analysis struct{ Shape }

func (an *analysis) need(d span, n int) {
	if r := n - d.lo; r > an.Reach {
		an.Reach = r
	}
}

func (an *analysis) grow(d span) {
	if d.hi > an.Growth {
		an.Growth = d.hi
	}
}

func (an *analysis) seq(d span, ops []parse.Op, loops int) (span, error) {
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch op.Code {
		case parse.Word, parse.Define, parse.Immediate, parse.Print, parse.PrintStack:
			return d, unsupportedError{op: op}

		case parse.Loop:
			return d, unsupportedError{op: op, reason: "without matching do"}

		case parse.Index:
			if loops == 0 {
				return d, unsupportedError{op: op, reason: "outside of loop"}
			}
			d = d.add(1)

		case parse.QDup:
			an.need(d, 1)
			d.hi++

		case parse.IfElse:
			an.need(d, 1)
			d = d.add(-1)
			then, err := an.seq(d, op.Body, loops)
			if err != nil {
				return d, err
			}
			els, err := an.seq(d, op.Else, loops)
			if err != nil {
				return d, err
			}
			d = then.hull(els)

		case parse.Do:
			end := parse.MatchLoop(ops, i)
			if end < 0 {
				return d, unsupportedError{op: op, reason: "without matching loop"}
			}
			an.need(d, 2)
			d = d.add(-2)
			after, err := an.seq(d, ops[i+1:end-1], loops+1)
			if err != nil {
				return d, err
			}
			if after != d {
				return d, unsupportedError{op: op, reason: "loop body changes stack depth"}
			}
			i = end - 1

		default:
			ar := arity[op.Code]
			an.need(d, ar.in)
			d = d.add(ar.out - ar.in)
		}
		an.grow(d)
	}
	return d, nil
}
