package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/jcorbin/goforth/internal/logio"
	"github.com/jcorbin/goforth/internal/panicerr"
	"github.com/jcorbin/goforth/internal/token"
)

const (
	prompt         = ">> "
	continuePrompt = ".. "
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// repl runs an interactive line editing loop over sess. An interrupted
// prompt discards any pending input; end of input ends the loop.
type repl struct {
	sess    *session
	log     *logio.Logger
	history string
}

func (r repl) Run(ctx context.Context) (err error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	r.readHistory(line)
	defer r.writeHistory(line)

	for lineNo := 1; ; lineNo++ {
		p := prompt
		if r.sess.Pending() {
			p = continuePrompt
		}
		text, err := line.Prompt(p)
		if err == liner.ErrPromptAborted {
			r.sess.Reset()
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		if strings.TrimSpace(text) != "" {
			line.AppendHistory(text)
		}

		toks := token.Lex("stdin", text)
		for i := range toks {
			toks[i].Loc.Line = lineNo
		}
		if err := r.sess.Feed(ctx, toks); panicerr.IsAbandoned(err) {
			return err
		} else if err != nil {
			r.log.Errorf("%v", err)
		}
	}
	r.sess.warnPending(r.log)
	return nil
}

func (r repl) readHistory(line *liner.State) {
	if r.history == "" {
		return
	}
	f, err := os.Open(r.history)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := line.ReadHistory(f); err != nil {
		r.log.Warnf("unable to read history: %v", err)
	}
}

func (r repl) writeHistory(line *liner.State) {
	if r.history == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.history), 0o700); err != nil {
		r.log.Warnf("unable to save history: %v", err)
		return
	}
	f, err := os.Create(r.history)
	if err != nil {
		r.log.Warnf("unable to save history: %v", err)
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		r.log.Warnf("unable to save history: %v", err)
	}
}
