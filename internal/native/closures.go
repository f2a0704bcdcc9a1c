package native

import "github.com/jcorbin/goforth/internal/parse"

// Closures compiles bodies into trees of Go closures.
//
// Compiled functions hold no state between calls, so they are safe to share
// between evaluators.
type Closures struct{}

// Compile analyzes and compiles body.
func (Closures) Compile(name string, body []parse.Op) (*Entry, error) {
	shape, err := Analyze(body)
	if err != nil {
		return nil, err
	}
	steps := compileSteps(body)
	return &Entry{
		Name:  name,
		Shape: shape,
		Func: func(buf []int64, top int) int {
			m := machine{buf: buf, top: top}
			if !m.run(steps) {
				return m.fault
			}
			return m.top
		},
	}, nil
}

type machine struct {
	buf   []int64
	top   int
	index []int64
	fault int
}

type step func(m *machine) bool

func (m *machine) run(steps []step) bool {
	for _, st := range steps {
		if !st(m) {
			return false
		}
	}
	return true
}

func (m *machine) need(n int) bool {
	if m.top+1 < n {
		m.fault = FaultUnderflow
		return false
	}
	return true
}

func (m *machine) push(v int64) {
	m.top++
	m.buf[m.top] = v
}

func compileSteps(ops []parse.Op) []step {
	steps := make([]step, 0, len(ops))
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch op.Code {
		case parse.IfElse:
			steps = append(steps, ifElseStep(compileSteps(op.Body), compileSteps(op.Else)))
		case parse.Do:
			end := parse.MatchLoop(ops, i)
			steps = append(steps, loopStep(compileSteps(ops[i+1:end-1])))
			i = end - 1
		case parse.Push:
			v := op.Value
			steps = append(steps, func(m *machine) bool {
				m.push(v)
				return true
			})
		default:
			steps = append(steps, stepCodes[op.Code])
		}
	}
	return steps
}

func ifElseStep(then, els []step) step {
	return func(m *machine) bool {
		if !m.need(1) {
			return false
		}
		flag := m.buf[m.top]
		m.top--
		if flag != 0 {
			return m.run(then)
		}
		return m.run(els)
	}
}

func loopStep(body []step) step {
	return func(m *machine) bool {
		if !m.need(2) {
			return false
		}
		start, limit := m.buf[m.top], m.buf[m.top-1]
		m.top -= 2
		if start >= limit {
			return true
		}
		k := len(m.index)
		m.index = append(m.index, start)
		for {
			if !m.run(body) {
				return false
			}
			if m.index[k]++; m.index[k] >= limit {
				break
			}
		}
		m.index = m.index[:k]
		return true
	}
}

func binary(f func(a, b int64) int64) step {
	return func(m *machine) bool {
		if !m.need(2) {
			return false
		}
		m.top--
		m.buf[m.top] = f(m.buf[m.top], m.buf[m.top+1])
		return true
	}
}

func divisive(f func(a, b int64) int64) step {
	return func(m *machine) bool {
		if !m.need(2) {
			return false
		}
		if m.buf[m.top] == 0 {
			m.fault = FaultDivisionByZero
			return false
		}
		m.top--
		m.buf[m.top] = f(m.buf[m.top], m.buf[m.top+1])
		return true
	}
}

func flag(b bool) int64 {
	if b {
		return -1
	}
	return 0
}

var stepCodes = [parse.CodeMax]step{
	parse.Add: binary(func(a, b int64) int64 { return a + b }),
	parse.Sub: binary(func(a, b int64) int64 { return a - b }),
	parse.Mul: binary(func(a, b int64) int64 { return a * b }),
	parse.Div: divisive(func(a, b int64) int64 { return a / b }),
	parse.Mod: divisive(func(a, b int64) int64 { return a % b }),
	parse.Eq:  binary(func(a, b int64) int64 { return flag(a == b) }),
	parse.Lt:  binary(func(a, b int64) int64 { return flag(a < b) }),
	parse.Gt:  binary(func(a, b int64) int64 { return flag(a > b) }),

	parse.Dup: func(m *machine) bool {
		if !m.need(1) {
			return false
		}
		m.push(m.buf[m.top])
		return true
	},
	parse.Drop: func(m *machine) bool {
		if !m.need(1) {
			return false
		}
		m.top--
		return true
	},
	parse.Swap: func(m *machine) bool {
		if !m.need(2) {
			return false
		}
		s := m.buf[m.top-1 : m.top+1]
		s[0], s[1] = s[1], s[0]
		return true
	},
	parse.Over: func(m *machine) bool {
		if !m.need(2) {
			return false
		}
		m.push(m.buf[m.top-1])
		return true
	},
	parse.Rot: func(m *machine) bool {
		if !m.need(3) {
			return false
		}
		s := m.buf[m.top-2 : m.top+1]
		s[0], s[1], s[2] = s[1], s[2], s[0]
		return true
	},
	parse.MinusRot: func(m *machine) bool {
		if !m.need(3) {
			return false
		}
		s := m.buf[m.top-2 : m.top+1]
		s[0], s[1], s[2] = s[2], s[0], s[1]
		return true
	},
	parse.QDup: func(m *machine) bool {
		if !m.need(1) {
			return false
		}
		if v := m.buf[m.top]; v != 0 {
			m.push(v)
		}
		return true
	},
	parse.TwoDup: func(m *machine) bool {
		if !m.need(2) {
			return false
		}
		a, b := m.buf[m.top-1], m.buf[m.top]
		m.push(a)
		m.push(b)
		return true
	},
	parse.TwoDrop: func(m *machine) bool {
		if !m.need(2) {
			return false
		}
		m.top -= 2
		return true
	},
	parse.TwoSwap: func(m *machine) bool {
		if !m.need(4) {
			return false
		}
		s := m.buf[m.top-3 : m.top+1]
		s[0], s[1], s[2], s[3] = s[2], s[3], s[0], s[1]
		return true
	},
	parse.TwoOver: func(m *machine) bool {
		if !m.need(4) {
			return false
		}
		a, b := m.buf[m.top-3], m.buf[m.top-2]
		m.push(a)
		m.push(b)
		return true
	},
	parse.Index: func(m *machine) bool {
		m.push(m.index[len(m.index)-1])
		return true
	},
}
