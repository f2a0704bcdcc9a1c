package native

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/jcorbin/goforth/internal/parse"
)

// LLVM accumulates an LLVM IR module with one function per emitted word,
// following the same calling convention as Func:
//
//	define i64 @NAME(i64* %stack, i64 %top)
//
// A word emitted more than once gets a numbered suffix on each redefinition.
type LLVM struct {
	mod   *ir.Module
	names map[string]int
}

// NewLLVM creates an empty IR module.
func NewLLVM() *LLVM {
	return &LLVM{mod: ir.NewModule(), names: make(map[string]int)}
}

// String renders the module in LLVM assembly form.
func (ll *LLVM) String() string { return ll.mod.String() }

// Funcs returns the names of emitted functions, in emission order.
func (ll *LLVM) Funcs() []string {
	names := make([]string, len(ll.mod.Funcs))
	for i, f := range ll.mod.Funcs {
		names[i] = f.Name()
	}
	return names
}

// Emit adds a function for the given word body, returning its name.
func (ll *LLVM) Emit(name string, body []parse.Op) (string, error) {
	if _, err := Analyze(body); err != nil {
		return "", err
	}

	fname := name
	if n := ll.names[name]; n > 0 {
		fname = fmt.Sprintf("%v.%v", name, n)
	}
	ll.names[name]++

	stack := ir.NewParam("stack", types.NewPointer(types.I64))
	top := ir.NewParam("top", types.I64)
	f := ll.mod.NewFunc(fname, types.I64, stack, top)

	em := emitter{f: f, stack: stack}
	em.entry = f.NewBlock("entry")
	em.cur = em.entry
	em.top = em.entry.NewAlloca(types.I64)
	em.cur.NewStore(top, em.top)
	em.seq(body)
	em.cur.NewRet(em.loadTop())
	return fname, nil
}

var (
	i64Zero = constant.NewInt(types.I64, 0)
	i64One  = constant.NewInt(types.I64, 1)
)

type emitter struct {
	f     *ir.Func
	stack value.Value
	entry *ir.Block
	cur   *ir.Block
	top   value.Value

	underflow *ir.Block
	divzero   *ir.Block
	index     []value.Value
	blocks    int
}

func (em *emitter) block(kind string) *ir.Block {
	em.blocks++
	return em.f.NewBlock(fmt.Sprintf("%v.%v", kind, em.blocks))
}

func (em *emitter) faultBlock(blk **ir.Block, name string, code int64) *ir.Block {
	if *blk == nil {
		*blk = em.f.NewBlock(name)
		(*blk).NewRet(constant.NewInt(types.I64, code))
	}
	return *blk
}

func (em *emitter) loadTop() value.Value { return em.cur.NewLoad(types.I64, em.top) }

func (em *emitter) storeTop(v value.Value) { em.cur.NewStore(v, em.top) }

func (em *emitter) offset(t value.Value, off int64) value.Value {
	if off == 0 {
		return t
	}
	return em.cur.NewAdd(t, constant.NewInt(types.I64, off))
}

func (em *emitter) slot(t value.Value, off int64) value.Value {
	return em.cur.NewGetElementPtr(types.I64, em.stack, em.offset(t, off))
}

func (em *emitter) load(t value.Value, off int64) value.Value {
	return em.cur.NewLoad(types.I64, em.slot(t, off))
}

func (em *emitter) store(t value.Value, off int64, v value.Value) {
	em.cur.NewStore(v, em.slot(t, off))
}

// need branches to the underflow fault unless at least n values are on the
// stack, returning the current top.
func (em *emitter) need(n int64) value.Value {
	t := em.loadTop()
	if n == 0 {
		return t
	}
	ok := em.block("ok")
	short := em.cur.NewICmp(enum.IPredSLT, t, constant.NewInt(types.I64, n-1))
	em.cur.NewCondBr(short, em.faultBlock(&em.underflow, "underflow", FaultUnderflow), ok)
	em.cur = ok
	return t
}

func (em *emitter) seq(ops []parse.Op) {
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch op.Code {
		case parse.Push:
			t := em.offset(em.loadTop(), 1)
			em.store(t, 0, constant.NewInt(types.I64, op.Value))
			em.storeTop(t)

		case parse.Add, parse.Sub, parse.Mul, parse.Div, parse.Mod, parse.Eq, parse.Lt, parse.Gt:
			em.binary(op.Code)

		case parse.Dup:
			t := em.need(1)
			v := em.load(t, 0)
			em.store(t, 1, v)
			em.storeTop(em.offset(t, 1))

		case parse.Drop:
			em.storeTop(em.offset(em.need(1), -1))

		case parse.Swap:
			em.permute(2, 1, 0)

		case parse.Rot:
			em.permute(3, 1, 2, 0)

		case parse.MinusRot:
			em.permute(3, 2, 0, 1)

		case parse.TwoSwap:
			em.permute(4, 2, 3, 0, 1)

		case parse.Over:
			em.copyDown(2, 1)

		case parse.TwoDup:
			em.copyDown(2, 2)

		case parse.TwoOver:
			em.copyDown(4, 2)

		case parse.TwoDrop:
			em.storeTop(em.offset(em.need(2), -2))

		case parse.QDup:
			t := em.need(1)
			v := em.load(t, 0)
			dup, done := em.block("qdup"), em.block("qdup.done")
			em.cur.NewCondBr(em.cur.NewICmp(enum.IPredNE, v, i64Zero), dup, done)
			em.cur = dup
			em.store(t, 1, v)
			em.storeTop(em.offset(t, 1))
			em.cur.NewBr(done)
			em.cur = done

		case parse.IfElse:
			t := em.need(1)
			v := em.load(t, 0)
			em.storeTop(em.offset(t, -1))
			then, els, done := em.block("then"), em.block("else"), em.block("endif")
			em.cur.NewCondBr(em.cur.NewICmp(enum.IPredNE, v, i64Zero), then, els)
			em.cur = then
			em.seq(op.Body)
			em.cur.NewBr(done)
			em.cur = els
			em.seq(op.Else)
			em.cur.NewBr(done)
			em.cur = done

		case parse.Do:
			end := parse.MatchLoop(ops, i)
			em.loop(ops[i+1 : end-1])
			i = end - 1

		case parse.Index:
			idx := em.index[len(em.index)-1]
			t := em.offset(em.loadTop(), 1)
			em.store(t, 0, em.cur.NewLoad(types.I64, idx))
			em.storeTop(t)
		}
	}
}

func (em *emitter) binary(code parse.Code) {
	t := em.need(2)
	b := em.load(t, 0)
	if code == parse.Div || code == parse.Mod {
		ok := em.block("nonzero")
		em.cur.NewCondBr(em.cur.NewICmp(enum.IPredEQ, b, i64Zero),
			em.faultBlock(&em.divzero, "divzero", FaultDivisionByZero), ok)
		em.cur = ok
	}
	a := em.load(t, -1)
	var r value.Value
	switch code {
	case parse.Add:
		r = em.cur.NewAdd(a, b)
	case parse.Sub:
		r = em.cur.NewSub(a, b)
	case parse.Mul:
		r = em.cur.NewMul(a, b)
	case parse.Div:
		r = em.cur.NewSDiv(a, b)
	case parse.Mod:
		r = em.cur.NewSRem(a, b)
	case parse.Eq:
		r = em.cur.NewSExt(em.cur.NewICmp(enum.IPredEQ, a, b), types.I64)
	case parse.Lt:
		r = em.cur.NewSExt(em.cur.NewICmp(enum.IPredSLT, a, b), types.I64)
	case parse.Gt:
		r = em.cur.NewSExt(em.cur.NewICmp(enum.IPredSGT, a, b), types.I64)
	}
	em.store(t, -1, r)
	em.storeTop(em.offset(t, -1))
}

// permute rearranges the top n values so that position i receives the value
// from position from[i], both counted from the deepest of the n.
func (em *emitter) permute(n int64, from ...int64) {
	t := em.need(n)
	vals := make([]value.Value, n)
	for i := range vals {
		vals[i] = em.load(t, int64(i)-n+1)
	}
	for i, j := range from {
		em.store(t, int64(i)-n+1, vals[j])
	}
}

// copyDown pushes copies of k values starting n deep.
func (em *emitter) copyDown(n, k int64) {
	t := em.need(n)
	for i := int64(0); i < k; i++ {
		em.store(t, i+1, em.load(t, i-n+1))
	}
	em.storeTop(em.offset(t, k))
}

func (em *emitter) loop(body []parse.Op) {
	t := em.need(2)
	start, limit := em.load(t, 0), em.load(t, -1)
	em.storeTop(em.offset(t, -2))

	idx := em.entry.NewAlloca(types.I64)
	lim := em.entry.NewAlloca(types.I64)
	em.cur.NewStore(start, idx)
	em.cur.NewStore(limit, lim)

	head, exit := em.block("loop"), em.block("loop.exit")
	em.cur.NewCondBr(em.cur.NewICmp(enum.IPredSGE, start, limit), exit, head)

	em.cur = head
	em.index = append(em.index, idx)
	em.seq(body)
	em.index = em.index[:len(em.index)-1]

	next := em.cur.NewAdd(em.cur.NewLoad(types.I64, idx), i64One)
	em.cur.NewStore(next, idx)
	again := em.cur.NewICmp(enum.IPredSLT, next, em.cur.NewLoad(types.I64, lim))
	em.cur.NewCondBr(again, head, exit)
	em.cur = exit
}
