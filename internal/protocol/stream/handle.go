package stream

import "reflect"

// Readable is a push-based input handle.
type Readable interface {
	OnData(fn func(chunk []byte))
	OnEnd(fn func())
	OnError(fn func(err error))
}

// Writable is an output handle. Write reports false when the handle's
// internal buffer is saturated and the caller should wait for it to drain.
// done, when non-nil, is called once the bytes were handed to the sink.
type Writable interface {
	Write(p []byte, done func(err error)) bool
	OnError(fn func(err error))
}

// sameHandle compares handles by identity. Handles with non-comparable
// dynamic types are never considered the same.
func sameHandle(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
