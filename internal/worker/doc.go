// Package worker defines the boundary between a worker process and the
// runtime that owns the authoritative simulation.
//
// Ownership boundary:
// - op kinds delivered by the runtime, one batch per frame
// - entity, component, command, and request identifiers
// - the Connection send/receive contract
//
// Encoding of ops on the wire lives in protocol/session; a stream-backed
// Connection lives in worker/stream.
package worker
