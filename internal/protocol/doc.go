// Package protocol owns the worker<->runtime wire contract.
//
// Ownership boundary:
// - frame/header primitives (frame)
// - schema object fields (tlv)
// - message-type requirement tables (schema)
// - op framing, handshake, and session policy (session)
package protocol
