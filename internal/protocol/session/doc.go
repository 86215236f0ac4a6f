// Package session owns the worker<->runtime stream protocol helpers.
//
// Ownership boundary:
//   - connect handshake frames
//   - op wire codec (one frame per op, both directions)
//   - session timeouts, retry backoff, transport security validation
package session
