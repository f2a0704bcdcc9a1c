package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/jcorbin/goforth/internal/logio"
	"github.com/jcorbin/goforth/internal/panicerr"
	"github.com/jcorbin/goforth/internal/token"
	"github.com/jcorbin/goforth/internal/vm"
)

// server runs one evaluator session per websocket connection. Each text
// message is fed to the session as one chunk of input, and answered with a
// JSON reply.
type server struct {
	log     *logio.Logger
	dict    vm.Dictionary
	opts    []vm.Option
	timeout time.Duration

	// trace copies each session's output into the log
	trace bool

	// started, if set, sees each new session before it reads any input
	started func(sess *session)

	upgrader websocket.Upgrader
}

type reply struct {
	Session string  `json:"session"`
	Output  string  `json:"output,omitempty"`
	Error   string  `json:"error,omitempty"`
	Pending bool    `json:"pending"`
	Stack   []int64 `json:"stack"`
}

func (srv *server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := srv.upgrader.Upgrade(w, req, nil)
	if err != nil {
		srv.log.Warnf("%v: %v", req.RemoteAddr, err)
		return
	}
	defer conn.Close()

	id := uuid.New().String()
	srv.log.Printf("INFO", "session %v: started for %v", id, req.RemoteAddr)

	var out bytes.Buffer
	opts := []vm.Option{
		vm.Options(srv.opts...),
		vm.WithOutput(&out),
		vm.WithDictionary(srv.dict),
	}
	if srv.trace {
		opts = append(opts, vm.WithTee(&logio.Writer{
			Logf: func(mess string, args ...interface{}) {
				srv.log.Printf("OUTPUT", "session %v: "+mess, append([]interface{}{id}, args...)...)
			},
		}))
	}
	sess := newSession(vm.New(opts...), srv.timeout)
	if srv.started != nil {
		srv.started(sess)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				srv.log.Warnf("session %v: %v", id, err)
			}
			break
		}

		rep := reply{Session: id}
		err = sess.Feed(req.Context(), token.Lex(id, string(msg)))
		if panicerr.IsAbandoned(err) {
			// the abandoned evaluation still owns the VM
			rep.Error = err.Error()
			srv.log.Warnf("session %v: %v", id, err)
			if err := conn.WriteJSON(rep); err != nil {
				srv.log.Warnf("session %v: %v", id, err)
			} else if err := conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "evaluation abandoned"),
				time.Now().Add(time.Second),
			); err != nil {
				srv.log.Warnf("session %v: %v", id, err)
			}
			break
		}
		if err != nil {
			rep.Error = err.Error()
		}
		rep.Output = out.String()
		out.Reset()
		rep.Pending = sess.Pending()
		rep.Stack = sess.vm.Stack()
		if rep.Stack == nil {
			rep.Stack = []int64{}
		}
		if err := conn.WriteJSON(rep); err != nil {
			srv.log.Warnf("session %v: %v", id, err)
			break
		}
	}
	srv.log.Printf("INFO", "session %v: ended", id)
}

// listenAndServe serves h at addr until ctx is done or the listener fails.
func listenAndServe(ctx context.Context, addr string, h http.Handler) error {
	hs := &http.Server{Addr: addr, Handler: h}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutCtx)
	})
	return eg.Wait()
}
