package process

import (
	"io"
	"os"
	"reflect"
	"sync"
)

// SyncWriter returns a writer whose Write calls are serialized. Files, nil and
// already wrapped writers are returned unchanged.
func SyncWriter(w io.Writer) io.Writer {
	switch w.(type) {
	case nil, *os.File, *syncWriter:
		return w
	}
	return &syncWriter{w: w}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// SyncStdio wraps stdout and stderr with SyncWriter. os/exec copies every
// non-file child stream on its own goroutine, so children and diagnostics
// writing the same sink must go through one wrapper. Both results share a
// lock when stdout and stderr are the same writer.
func SyncStdio(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	out := SyncWriter(stdout)
	if sameWriter(stdout, stderr) {
		return out, out
	}
	return out, SyncWriter(stderr)
}

func sameWriter(a, b io.Writer) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	return ta == tb && ta.Comparable() && a == b
}
