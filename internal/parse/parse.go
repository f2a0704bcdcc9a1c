package parse

import (
	"strings"

	"github.com/jcorbin/goforth/internal/token"
)

// Parse builds an operation sequence from a complete token stream.
//
// Errors are always *Error; use IsIncomplete to tell whether appending more
// tokens could make the stream parse.
func Parse(toks []token.Token) ([]Op, error) {
	p := parser{toks: toks}
	ops, err := p.top()
	if err != nil {
		return nil, err
	}
	return ops, nil
}

type parser struct {
	toks   []token.Token
	i      int
	branch bool
}

func (p *parser) next() (token.Token, bool) {
	if p.i >= len(p.toks) {
		return token.Token{}, false
	}
	tok := p.toks[p.i]
	p.i++
	return tok, true
}

func (p *parser) top() (ops []Op, _ error) {
	for {
		tok, ok := p.next()
		if !ok {
			return ops, nil
		}
		switch tok.Kind {
		case token.KindColon:
			op, err := p.definition(tok)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		case token.KindSemicolon:
			return nil, errorAt(UnexpectedToken, tok)
		case token.KindInteger:
			ops = append(ops, Lit(tok.Int))
		default:
			if IsControlWord(tok.Text) {
				return nil, errorAt(ControlOutsideDefinition, tok)
			}
			ops = append(ops, atom(tok.Text))
		}
	}
}

func (p *parser) definition(colon token.Token) (Op, error) {
	name, ok := p.next()
	if !ok {
		return Op{}, errorAt(ExpectedWordName, colon)
	}
	if name.Kind != token.KindWord {
		return Op{}, errorAt(ExpectedWordName, name)
	}
	body, err := p.body(colon)
	if err != nil {
		return Op{}, err
	}
	def := Op{Code: Define, Name: strings.ToUpper(name.Text), Body: body}
	if p.i < len(p.toks) && p.toks[p.i].Is("immediate") {
		p.i++
		def.Immediate = true
	}
	return def, nil
}

// body parses a definition body through its closing semicolon.
// A body that runs out of tokens is incomplete, reported at the opening colon.
func (p *parser) body(colon token.Token) ([]Op, error) {
	ops, end, err := p.sequence()
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, errorAt(UnterminatedDefinition, colon)
	}
	Link(ops)
	return ops, nil
}

// parseBranch parses a whole conditional branch; it runs to the end of p.toks.
func (p *parser) parseBranch() ([]Op, error) {
	p.branch = true
	ops, end, err := p.sequence()
	if err != nil {
		return nil, err
	}
	if end != nil {
		return nil, errorAt(UnexpectedToken, *end)
	}
	return ops, nil
}

// sequence parses compiled operations until a semicolon or the end of tokens,
// returning the semicolon token if one was consumed.
func (p *parser) sequence() (ops []Op, end *token.Token, _ error) {
	var loops []int
	for {
		tok, ok := p.next()
		if !ok {
			if p.branch && len(loops) > 0 {
				return nil, nil, errorAt(UnclosedLoop, p.toks[loops[len(loops)-1]])
			}
			return ops, nil, nil
		}
		switch tok.Kind {
		case token.KindColon:
			return nil, nil, errorAt(NestedDefinition, tok)
		case token.KindSemicolon:
			if len(loops) > 0 {
				return nil, nil, errorAt(UnclosedLoop, p.toks[loops[len(loops)-1]])
			}
			return ops, &tok, nil
		case token.KindInteger:
			ops = append(ops, Lit(tok.Int))
			continue
		}
		switch {
		case tok.Is("if"):
			op, err := p.conditional(tok)
			if err != nil {
				return nil, nil, err
			}
			ops = append(ops, op)
		case tok.Is("else"), tok.Is("then"):
			return nil, nil, errorAt(UnexpectedToken, tok)
		case tok.Is("do"):
			loops = append(loops, p.i-1)
			ops = append(ops, Op{Code: Do})
		case tok.Is("loop"):
			if len(loops) == 0 {
				return nil, nil, errorAt(UnmatchedLoop, tok)
			}
			loops = loops[:len(loops)-1]
			ops = append(ops, Op{Code: Loop})
		case tok.Is("i"):
			ops = append(ops, Op{Code: Index})
		default:
			ops = append(ops, atom(tok.Text))
		}
	}
}

// conditional scans forward from just after an if token for its matching then,
// splitting at an else at the same nesting depth, and parses each branch.
func (p *parser) conditional(ifTok token.Token) (Op, error) {
	start, mid := p.i, -1
	depth := 1
	for j := start; j < len(p.toks); j++ {
		tok := p.toks[j]
		switch {
		case tok.Kind == token.KindColon:
			return Op{}, errorAt(NestedDefinition, tok)
		case tok.Kind == token.KindSemicolon:
			return Op{}, errorAt(UnclosedConditional, ifTok)
		case tok.Is("if"):
			depth++
		case tok.Is("else"):
			if depth == 1 {
				if mid >= 0 {
					return Op{}, errorAt(UnexpectedToken, tok)
				}
				mid = j
			}
		case tok.Is("then"):
			if depth--; depth > 0 {
				continue
			}
			thenToks := p.toks[start:j]
			var elseToks []token.Token
			if mid >= 0 {
				thenToks = p.toks[start:mid]
				elseToks = p.toks[mid+1 : j]
			}
			then, err := (&parser{toks: thenToks}).parseBranch()
			if err != nil {
				return Op{}, err
			}
			els, err := (&parser{toks: elseToks}).parseBranch()
			if err != nil {
				return Op{}, err
			}
			p.i = j + 1
			return Cond(then, els), nil
		}
	}
	return Op{}, errorAt(UnterminatedConditional, ifTok)
}
