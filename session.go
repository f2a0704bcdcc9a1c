package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jcorbin/goforth/internal/logio"
	"github.com/jcorbin/goforth/internal/panicerr"
	"github.com/jcorbin/goforth/internal/parse"
	"github.com/jcorbin/goforth/internal/token"
	"github.com/jcorbin/goforth/internal/vm"
)

var errSessionAbandoned = errors.New("session abandoned by a previous evaluation")

// session feeds token chunks from a front end to an evaluator, holding back
// any chunk that leaves a construct open until a later chunk closes it.
type session struct {
	vm      *vm.VM
	timeout time.Duration

	// eval runs parsed operations; vm.Evaluate unless replaced by tests.
	eval func(ops []parse.Op) error

	pending   []token.Token
	abandoned bool
}

func newSession(v *vm.VM, timeout time.Duration) *session {
	return &session{
		vm:      v,
		timeout: timeout,
		eval:    v.Evaluate,
	}
}

// Pending returns true if input is buffered awaiting completion.
func (sess *session) Pending() bool { return len(sess.pending) > 0 }

// Reset discards any buffered input, and any definition left open through
// the evaluator's compile mode.
func (sess *session) Reset() {
	sess.pending = nil
	sess.vm.Abort()
}

// Feed appends toks to the pending buffer and evaluates the whole buffer once
// it parses. Incomplete input stays buffered; malformed input is discarded
// and its error returned. Evaluation errors are returned after which the
// session may continue, except when panicerr.IsAbandoned(err).
func (sess *session) Feed(ctx context.Context, toks []token.Token) error {
	if sess.abandoned {
		return errSessionAbandoned
	}
	sess.pending = append(sess.pending, toks...)
	if len(sess.pending) == 0 {
		return nil
	}
	ops, err := parse.Parse(sess.pending)
	if parse.IsIncomplete(err) {
		return nil
	}
	sess.pending = nil
	if err != nil {
		return err
	}
	return sess.evaluate(ctx, ops)
}

func (sess *session) evaluate(ctx context.Context, ops []parse.Op) error {
	if sess.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sess.timeout)
		defer cancel()
	}
	err := panicerr.RecoverContext(ctx, "evaluation", func() error {
		return sess.eval(ops)
	})
	if panicerr.IsAbandoned(err) {
		sess.abandoned = true
	}
	return err
}

// Run feeds every line from sc, logging errors and continuing past them.
// Only an abandoned evaluation, or an input read error, stops it early.
func (sess *session) Run(ctx context.Context, sc *token.Scanner, log *logio.Logger) error {
	for {
		toks, err := sc.Line()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		if err := sess.Feed(ctx, toks); panicerr.IsAbandoned(err) {
			return err
		} else if err != nil {
			log.Errorf("%v", err)
		}
	}
	sess.warnPending(log)
	return nil
}

func (sess *session) warnPending(log *logio.Logger) {
	if !sess.Pending() {
		return
	}
	texts := make([]string, len(sess.pending))
	for i, tok := range sess.pending {
		texts[i] = tok.Text
	}
	log.Warnf("%v: discarding incomplete input: %v",
		sess.pending[0].Loc, strings.Join(texts, " "))
	sess.pending = nil
}
