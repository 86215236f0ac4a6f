// Package ecs is the host world the replication core plugs into.
//
// Ownership boundary:
// - local entity handles (create, delete, liveness)
// - sparse-set typed stores keyed by Go type
// - typed singleton resources
// - sequential system scheduling within one frame
//
// The world is not safe for concurrent use; frames run systems one after
// another.
package ecs
