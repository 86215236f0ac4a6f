// Package stream implements worker.Connection over a framed TCP or TLS
// stream.
//
// A background goroutine reads and decodes op frames into a bounded buffer;
// GetOpList drains it without blocking. Sends are serialized by a write mutex.
// Client dials with retry backoff and performs the connect handshake; Accept
// is the runtime side of the same handshake.
package stream
