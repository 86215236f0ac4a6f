// Package spatial keeps a local ecs.World consistent with a remote
// authoritative runtime.
//
// Ownership:
//   - Registry maps component ids to type-erased Dispatchers built from
//     generated Definitions.
//   - Component cells track local writes (dirty flag or pending partial update)
//     until the Writer flushes them.
//   - CommandRequests hold inbound command requests until answered; the
//     CommandSender correlates outbound requests with asynchronous responses.
//   - Reader routes inbound ops into the world; Writer replicates local state
//     back to the runtime.
//
// A frame runs Reader, then application systems, then Writer, strictly in
// sequence on one goroutine. Nothing in this package is safe for concurrent use
// except Registry registration.
package spatial
