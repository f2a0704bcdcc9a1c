package logio

import (
	"bytes"
	"sync"
)

// Writer is an io.Writer that logs each complete line written to it through
// Logf; for example, to send evaluator output or a state dump to a test log.
type Writer struct {
	Logf func(mess string, args ...interface{})

	mu      sync.Mutex
	partial []byte
}

// Write logs any lines completed by p, buffering any trailing partial line.
func (lw *Writer) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			lw.partial = append(lw.partial, p...)
			break
		}
		lw.emit(p[:i])
		p = p[i+1:]
	}
	return n, nil
}

// Close logs any remaining partial line.
func (lw *Writer) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if len(lw.partial) > 0 {
		lw.emit(nil)
	}
	return nil
}

func (lw *Writer) emit(tail []byte) {
	line := string(append(lw.partial, tail...))
	lw.partial = lw.partial[:0]
	lw.Logf("%s", line)
}
