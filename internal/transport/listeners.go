package transport

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("transport: handle closed")

// listeners is a concurrency-safe set of notification callbacks.
type listeners struct {
	mu    sync.RWMutex
	data  []func([]byte)
	end   []func()
	errs  []func(error)
	drain []func()
}

func (l *listeners) addData(fn func([]byte)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data = append(l.data, fn)
}

func (l *listeners) addEnd(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.end = append(l.end, fn)
}

func (l *listeners) addError(fn func(error)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, fn)
}

func (l *listeners) addDrain(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drain = append(l.drain, fn)
}

func (l *listeners) emitData(chunk []byte) {
	l.mu.RLock()
	fns := l.data
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(chunk)
	}
}

func (l *listeners) emitEnd() {
	l.mu.RLock()
	fns := l.end
	l.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

func (l *listeners) emitError(err error) {
	l.mu.RLock()
	fns := l.errs
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(err)
	}
}

func (l *listeners) emitDrain() {
	l.mu.RLock()
	fns := l.drain
	l.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}
