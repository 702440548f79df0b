// Package session owns the client side of the hub connection.
//
// Ownership boundary:
// - dialing the hub over WebSocket or newline-delimited TCP
// - yielding one raw message per read
// - retry/backoff primitives for optional redial
//
// Message decoding lives in protocol/frame.
package session
