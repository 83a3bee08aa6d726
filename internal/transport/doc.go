// Package transport adapts byte streams into push-based handles.
//
// Ownership boundary:
// - io.Reader pumps that push chunks, end and error notifications
// - buffered io.Writer sinks with high-water-mark backpressure
// - duplex connection and in-memory loopback handles
//
// Transport never retries or reconnects; faults are reported once to the
// registered error listeners.
package transport
