package vm

import (
	"io"
	"io/ioutil"

	"github.com/jcorbin/goforth/internal/flushio"
	"github.com/jcorbin/goforth/internal/native"
)

// Option configures a VM.
type Option interface{ apply(vm *VM) }

// Options combines any number of options into one, applied in order.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, impl)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	return res
}

type options []Option

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

var defaultOptions = Options(
	withOutput(ioutil.Discard),
)

// WithOutput sets where print operations write; output is buffered until the
// end of each Evaluate call.
func WithOutput(w io.Writer) Option { return withOutput(w) }

// WithTee copies output to an additional writer.
func WithTee(w io.Writer) Option { return teeOption{w} }

// WithLogf enables trace logging of evaluation.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

// WithCompiler enables native compilation of defined words.
func WithCompiler(c native.Compiler) Option { return compilerOption{c} }

// WithStack pushes initial values onto the stack.
func WithStack(values ...int64) Option { return stackOption(values) }

// WithDictionary imports definitions into the VM's dictionary.
func WithDictionary(d Dictionary) Option { return dictOption(d) }

type withLogfn func(mess string, args ...interface{})
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type compilerOption struct{ native.Compiler }
type stackOption []int64
type dictOption Dictionary

func withOutput(w io.Writer) outputOption { return outputOption{w} }

func (logfn withLogfn) apply(vm *VM) { vm.logfn = logfn }

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.WriteFlushers(vm.out, flushio.NewWriteFlusher(o.Writer))
}

func (o compilerOption) apply(vm *VM) { vm.compiler = o.Compiler }

func (values stackOption) apply(vm *VM) { vm.stack = append(vm.stack, values...) }

func (d dictOption) apply(vm *VM) { vm.Import(Dictionary(d)) }
