// Package devruntime is a small stand-in for a simulation runtime. It admits
// workers over the stream protocol, seeds each one with a handful of player
// entities it is authoritative over, sends a CreatePlayer command, and then
// records whatever the worker replicates back.
//
// It is meant for local runs and end-to-end tests, not for production load.
package devruntime
