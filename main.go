package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/jcorbin/goforth/internal/logio"
	"github.com/jcorbin/goforth/internal/native"
	"github.com/jcorbin/goforth/internal/panicerr"
	"github.com/jcorbin/goforth/internal/parse"
	"github.com/jcorbin/goforth/internal/token"
	"github.com/jcorbin/goforth/internal/vm"
)

func main() {
	os.Exit(runMain(os.Args[0], os.Args[1:]))
}

func runMain(name string, args []string) int {
	log := logio.NewLogger(os.Stderr)
	cfg, files, err := parseFlags(name, args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		log.Errorf("%v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := command{config: cfg, log: log}
	log.ErrorIf(cmd.Run(ctx, files))
	return log.ExitCode()
}

type command struct {
	config
	log  *logio.Logger
	llvm *native.LLVM
}

func (cmd *command) vmOptions() []vm.Option {
	var opts []vm.Option
	if cmd.Trace {
		opts = append(opts, vm.WithLogf(cmd.log.Leveledf("TRACE")))
	}
	if cmd.Native || cmd.EmitLLVM != "" {
		var comp native.Compiler = native.Closures{}
		if cmd.EmitLLVM != "" {
			cmd.llvm = native.NewLLVM()
			comp = native.Emitting{
				Compiler: comp,
				Module:   cmd.llvm,
				Logf:     cmd.log.Leveledf("WARN"),
			}
		}
		opts = append(opts, vm.WithCompiler(&lockedCompiler{Compiler: comp}))
	}
	return opts
}

// Run runs the command on its own goroutine, so that a crash is reported as
// an error after any history and IR output has been written.
func (cmd *command) Run(ctx context.Context, files []string) error {
	return panicerr.Recover("goforth", func() error {
		return cmd.run(ctx, files)
	})
}

func (cmd *command) run(ctx context.Context, files []string) (err error) {
	opts := cmd.vmOptions()
	defer func() {
		if ierr := cmd.writeIR(); err == nil {
			err = ierr
		}
	}()

	v := vm.New(append(opts, vm.WithOutput(os.Stdout))...)
	defer v.Close()
	sess := newSession(v, cmd.Timeout)

	if err := cmd.runFiles(ctx, sess, cmd.Prelude); err != nil {
		return err
	}

	if cmd.Serve != "" {
		cmd.log.Printf("INFO", "serving on %v", cmd.Serve)
		return listenAndServe(ctx, cmd.Serve, &server{
			log:     cmd.log,
			dict:    v.Dictionary(),
			opts:    opts,
			timeout: cmd.Timeout,
			trace:   cmd.Trace,
		})
	}

	if len(files) > 0 {
		return cmd.runFiles(ctx, sess, files)
	}
	if isTerminal(os.Stdin) {
		return repl{sess: sess, log: cmd.log, history: cmd.History}.Run(ctx)
	}
	return sess.Run(ctx, token.NewScanner(os.Stdin), cmd.log)
}

func (cmd *command) runFiles(ctx context.Context, sess *session, names []string) error {
	for _, name := range names {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		// the scanner closes f once it is exhausted
		if err := sess.Run(ctx, token.NewScanner(f), cmd.log); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *command) writeIR() error {
	if cmd.llvm == nil {
		return nil
	}
	var w io.Writer = os.Stdout
	if cmd.EmitLLVM != "-" {
		f, err := os.Create(cmd.EmitLLVM)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err := io.WriteString(w, cmd.llvm.String())
	return err
}

// lockedCompiler serializes use of a compiler shared by concurrent sessions.
type lockedCompiler struct {
	sync.Mutex
	native.Compiler
}

func (lc *lockedCompiler) Compile(name string, body []parse.Op) (*native.Entry, error) {
	lc.Lock()
	defer lc.Unlock()
	return lc.Compiler.Compile(name, body)
}
