package main

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jcorbin/goforth/internal/logio"
	"github.com/jcorbin/goforth/internal/native"
	"github.com/jcorbin/goforth/internal/parse"
	"github.com/jcorbin/goforth/internal/vm"
)

type wsClient struct {
	conn *websocket.Conn
}

func dial(ts *httptest.Server) (wsClient, error) {
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return wsClient{conn}, err
}

func (c wsClient) exchange(src string) (rep reply, err error) {
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(src)); err != nil {
		return rep, err
	}
	err = c.conn.ReadJSON(&rep)
	return rep, err
}

// syncBuffer collects log output written by server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (sb *syncBuffer) Write(p []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.Write(p)
}

func (sb *syncBuffer) String() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.String()
}

func testServer(t *testing.T, prelude string, opts ...func(srv *server)) (*syncBuffer, *httptest.Server) {
	base := newSession(vm.New(), 0)
	require.NoError(t, feed(t, base, prelude))

	var logs syncBuffer
	srv := &server{
		log:  logio.NewLogger(&logs),
		dict: base.vm.Dictionary(),
		opts: []vm.Option{vm.WithCompiler(&lockedCompiler{Compiler: native.Closures{}})},
	}
	for _, opt := range opts {
		opt(srv)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &logs, ts
}

func Test_server(t *testing.T) {
	_, ts := testServer(t, ": SQ dup * ;")
	c, err := dial(ts)
	require.NoError(t, err)
	defer c.conn.Close()

	rep, err := c.exchange("3 SQ")
	require.NoError(t, err)
	_, err = uuid.Parse(rep.Session)
	assert.NoError(t, err, "expected a uuid session id")
	assert.Equal(t, []int64{9}, rep.Stack)
	assert.False(t, rep.Pending)
	id := rep.Session

	rep, err = c.exchange(": CUBE dup SQ")
	require.NoError(t, err)
	assert.Equal(t, reply{Session: id, Pending: true, Stack: []int64{9}}, rep)

	rep, err = c.exchange("* ; CUBE dup .")
	require.NoError(t, err)
	assert.Equal(t, reply{Session: id, Output: "729\n", Stack: []int64{729}}, rep)

	rep, err = c.exchange("drop drop")
	require.NoError(t, err)
	assert.Equal(t, reply{Session: id, Error: "stack underflow", Stack: []int64{}}, rep)

	rep, err = c.exchange("then")
	require.NoError(t, err)
	assert.Contains(t, rep.Error, "then")
	assert.False(t, rep.Pending)
}

func Test_server_sessions(t *testing.T) {
	_, ts := testServer(t, ": SQ dup * ;")

	var (
		mu  sync.Mutex
		ids = make(map[string]bool)
	)
	eg, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 8; i++ {
		i := int64(i)
		eg.Go(func() error {
			c, err := dial(ts)
			if err != nil {
				return err
			}
			defer c.conn.Close()

			if _, err := c.exchange(fmt.Sprintf(": MINE %d ;", i)); err != nil {
				return err
			}
			rep, err := c.exchange(fmt.Sprintf("%d SQ MINE", i))
			if err != nil {
				return err
			}
			if !assert.Equal(t, []int64{i * i, i}, rep.Stack, "session %v", i) {
				return fmt.Errorf("session %v saw another's state", i)
			}

			mu.Lock()
			defer mu.Unlock()
			ids[rep.Session] = true
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	assert.Len(t, ids, 8, "expected distinct session ids")
}

func Test_server_trace(t *testing.T) {
	logs, ts := testServer(t, "", func(srv *server) { srv.trace = true })
	c, err := dial(ts)
	require.NoError(t, err)
	defer c.conn.Close()

	rep, err := c.exchange("6 7 * .")
	require.NoError(t, err)
	assert.Equal(t, "42\n", rep.Output, "expected output in the reply too")
	assert.Contains(t, logs.String(), "OUTPUT: session "+rep.Session+": 42\n")
}

func Test_server_abandoned(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	logs, ts := testServer(t, "", func(srv *server) {
		srv.timeout = 10 * time.Millisecond
		srv.started = func(sess *session) {
			sess.eval = func([]parse.Op) error {
				<-release
				return nil
			}
		}
	})
	c, err := dial(ts)
	require.NoError(t, err)
	defer c.conn.Close()

	rep, err := c.exchange("1")
	require.NoError(t, err)
	assert.Contains(t, rep.Error, "abandoned")
	assert.Nil(t, rep.Stack, "expected no state from an abandoned session")

	_, _, err = c.conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseTryAgainLater), "expected close, got %v", err)
	assert.Contains(t, logs.String(), "WARN: session "+rep.Session+": evaluation abandoned")
}
