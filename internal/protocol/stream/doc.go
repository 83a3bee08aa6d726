// Package stream attaches newline-delimited JSON framing to push-based
// byte handles.
//
// Ownership boundary:
// - input/output handle attachment and error normalization
// - record classification and event dispatch
// - record serialization and backpressure propagation
//
// A Stream processes one chunk at a time. Chunks delivered while another
// chunk is being processed are queued and handled in arrival order.
package stream
