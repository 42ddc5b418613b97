package store

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// cycleLock serializes dispatch cycles across goroutines. The goroutine
// holding it may enter again, since middleware and listeners dispatch
// nested actions from inside a cycle.
type cycleLock struct {
	mu    sync.Mutex
	owner atomic.Uint64
}

// acquire blocks until the calling goroutine owns the lock and returns the
// matching release. A nested acquire by the owner returns a no-op release.
func (l *cycleLock) acquire() func() {
	id := goroutineID()
	if l.owner.Load() == id {
		return func() {}
	}

	l.mu.Lock()
	l.owner.Store(id)
	return func() {
		l.owner.Store(0)
		l.mu.Unlock()
	}
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine's id from its stack header,
// "goroutine 42 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		panic("store: cannot read goroutine id: " + err.Error())
	}
	return id
}
