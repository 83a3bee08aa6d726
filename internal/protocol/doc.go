// Package protocol owns the newline-delimited JSON wire contract.
//
// Ownership boundary:
// - frame: chunk reassembly and record classification primitives
// - stream: handle attachment, event dispatch and record writes
package protocol
