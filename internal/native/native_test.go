package native_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/goforth/internal/native"
	"github.com/jcorbin/goforth/internal/parse"
	"github.com/jcorbin/goforth/internal/token"
)

// body parses src as the body of a definition.
func body(t *testing.T, src string) []parse.Op {
	ops, err := parse.Parse(token.Lex(t.Name(), ": T "+src+" ;"))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	return ops[0].Body
}

func Test_Analyze(t *testing.T) {
	for _, tc := range []struct {
		src    string
		expect native.Shape
	}{
		{"", native.Shape{}},
		{"+", native.Shape{Reach: 2}},
		{"dup *", native.Shape{Reach: 1, Growth: 1}},
		{"1 2 3 + +", native.Shape{Growth: 3}},
		{"2over", native.Shape{Reach: 4, Growth: 2}},
		{"?dup", native.Shape{Reach: 1, Growth: 1}},
		{"if 1 else 2 3 then", native.Shape{Reach: 1, Growth: 1}},
		{"10 0 do i drop loop", native.Shape{Growth: 2}},
		{"0 5 0 do i + loop", native.Shape{Growth: 3}},
		{"do i + loop", native.Shape{Reach: 3}},
	} {
		t.Run(tc.src, func(t *testing.T) {
			shape, err := native.Analyze(body(t, tc.src))
			require.NoError(t, err)
			assert.Equal(t, tc.expect, shape)
		})
	}
}

func Test_Analyze_unsupported(t *testing.T) {
	for _, src := range []string{
		"foo",
		"1 .",
		".s",
		"immediate",
		"i",
		"10 0 do i loop",
		"10 0 do ?dup loop",
		"if 1 else foo then",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := native.Analyze(body(t, src))
			assert.True(t, errors.Is(err, native.ErrUnsupported), "expected unsupported error, got %v", err)
		})
	}

	_, err := native.Analyze([]parse.Op{parse.Loop.Op()})
	assert.True(t, errors.Is(err, native.ErrUnsupported))
	_, err = native.Analyze([]parse.Op{parse.Do.Op(), parse.Index.Op()})
	assert.True(t, errors.Is(err, native.ErrUnsupported))
}

func Test_Closures(t *testing.T) {
	for _, tc := range []struct {
		src    string
		stack  []int64
		expect []int64
		fault  int
	}{
		{src: "+", stack: []int64{2, 3}, expect: []int64{5}},
		{src: "-", stack: []int64{10, 3}, expect: []int64{7}},
		{src: "*", stack: []int64{6, 7}, expect: []int64{42}},
		{src: "/", stack: []int64{-7, 2}, expect: []int64{-3}},
		{src: "mod", stack: []int64{-7, 2}, expect: []int64{-1}},
		{src: "/", stack: []int64{1, 0}, fault: native.FaultDivisionByZero},
		{src: "mod", stack: []int64{1, 0}, fault: native.FaultDivisionByZero},
		{src: "+", stack: []int64{1}, fault: native.FaultUnderflow},
		{src: "dup *", fault: native.FaultUnderflow},
		{src: "=", stack: []int64{3, 3}, expect: []int64{-1}},
		{src: "<", stack: []int64{1, 2}, expect: []int64{-1}},
		{src: ">", stack: []int64{1, 2}, expect: []int64{0}},
		{src: "swap", stack: []int64{1, 2}, expect: []int64{2, 1}},
		{src: "over", stack: []int64{1, 2}, expect: []int64{1, 2, 1}},
		{src: "rot", stack: []int64{1, 2, 3}, expect: []int64{2, 3, 1}},
		{src: "-rot", stack: []int64{1, 2, 3}, expect: []int64{3, 1, 2}},
		{src: "?dup", stack: []int64{0}, expect: []int64{0}},
		{src: "?dup", stack: []int64{5}, expect: []int64{5, 5}},
		{src: "2dup", stack: []int64{1, 2}, expect: []int64{1, 2, 1, 2}},
		{src: "2drop", stack: []int64{1, 2, 3}, expect: []int64{1}},
		{src: "2swap", stack: []int64{1, 2, 3, 4}, expect: []int64{3, 4, 1, 2}},
		{src: "2over", stack: []int64{1, 2, 3, 4}, expect: []int64{1, 2, 3, 4, 1, 2}},
		{src: "2over", stack: []int64{1, 2, 3}, fault: native.FaultUnderflow},
		{src: "if 1 else 2 then", stack: []int64{0}, expect: []int64{2}},
		{src: "if 1 else 2 then", stack: []int64{7}, expect: []int64{1}},
		{src: "if 1 then", fault: native.FaultUnderflow},
		{src: "0 5 0 do i + loop", expect: []int64{10}},
		{src: "0 3 0 do 2 0 do i + loop loop", expect: []int64{3}},
		{src: "5 5 do 99 drop loop", stack: []int64{1}, expect: []int64{1}},
		{src: "9 5 do 99 drop loop", expect: nil},
		{src: "0 swap 0 do 1 + loop", stack: []int64{4}, expect: []int64{4}},
	} {
		t.Run(fmt.Sprintf("%v %v", tc.stack, tc.src), func(t *testing.T) {
			ent, err := native.Closures{}.Compile("T", body(t, tc.src))
			require.NoError(t, err)
			assert.Equal(t, "T", ent.Name)

			buf := make([]int64, len(tc.stack)+ent.Growth)
			copy(buf, tc.stack)
			top := ent.Func(buf, len(tc.stack)-1)
			if tc.fault != 0 {
				assert.Equal(t, tc.fault, top)
				return
			}
			require.True(t, top >= -1, "unexpected fault %v", top)
			assert.Equal(t, tc.expect, append([]int64(nil), buf[:top+1]...))
		})
	}
}

func Test_Closures_unsupported(t *testing.T) {
	ent, err := native.Closures{}.Compile("T", body(t, "foo"))
	assert.Nil(t, ent)
	assert.True(t, errors.Is(err, native.ErrUnsupported))
}

func Test_LLVM(t *testing.T) {
	ll := native.NewLLVM()

	name, err := ll.Emit("SQ", body(t, "dup *"))
	require.NoError(t, err)
	assert.Equal(t, "SQ", name)

	name, err = ll.Emit("SQ", body(t, "dup * 1 +"))
	require.NoError(t, err)
	assert.Equal(t, "SQ.1", name)

	_, err = ll.Emit("HALF", body(t, "2 /"))
	require.NoError(t, err)

	_, err = ll.Emit("SUM", body(t, "0 swap 0 do i + loop"))
	require.NoError(t, err)

	_, err = ll.Emit("PICK", body(t, "if 1 else ?dup then"))
	require.NoError(t, err)

	_, err = ll.Emit("BAD", body(t, "foo"))
	assert.True(t, errors.Is(err, native.ErrUnsupported))

	assert.Equal(t, []string{"SQ", "SQ.1", "HALF", "SUM", "PICK"}, ll.Funcs())

	ir := ll.String()
	for _, expect := range []string{
		"define i64 @SQ(",
		"define i64 @SQ.1(",
		"define i64 @HALF(",
		"%stack",
		"%top",
		"underflow:",
		"ret i64 -2",
		"divzero:",
		"ret i64 -3",
		"sdiv i64",
		"loop.exit.",
		"icmp slt i64",
	} {
		assert.True(t, strings.Contains(ir, expect), "expected %q in:\n%v", expect, ir)
	}
	assert.False(t, strings.Contains(ir, "BAD"))
}

func Test_Emitting(t *testing.T) {
	ll := native.NewLLVM()
	comp := native.Emitting{Compiler: native.Closures{}, Module: ll}

	ent, err := comp.Compile("DOUBLE", body(t, "2 *"))
	require.NoError(t, err)
	require.NotNil(t, ent)

	buf := make([]int64, 1+ent.Growth)
	buf[0] = 21
	assert.Equal(t, 0, ent.Func(buf, 0))
	assert.Equal(t, int64(42), buf[0])

	_, err = comp.Compile("SHOW", body(t, "."))
	assert.Error(t, err)

	assert.Equal(t, []string{"DOUBLE"}, ll.Funcs())
}

// permissive accepts any body, compiling it to a no-op.
type permissive struct{}

func (permissive) Compile(name string, body []parse.Op) (*native.Entry, error) {
	return &native.Entry{Name: name, Func: func(buf []int64, top int) int { return top }}, nil
}

func Test_Emitting_unemitted(t *testing.T) {
	var logged []string
	comp := native.Emitting{
		Compiler: permissive{},
		Module:   native.NewLLVM(),
		Logf: func(mess string, args ...interface{}) {
			logged = append(logged, fmt.Sprintf(mess, args...))
		},
	}

	ent, err := comp.Compile("GREET", body(t, "hello"))
	require.NoError(t, err, "expected emission failure to leave compilation alone")
	assert.NotNil(t, ent)
	assert.Empty(t, comp.Module.Funcs())
	if assert.Len(t, logged, 1) {
		assert.Contains(t, logged[0], "GREET compiled without IR")
	}

	_, err = comp.Compile("SQ", body(t, "dup *"))
	require.NoError(t, err)
	assert.Equal(t, []string{"SQ"}, comp.Module.Funcs())
	assert.Len(t, logged, 1)
}
