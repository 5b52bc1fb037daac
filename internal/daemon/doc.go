// Package daemon implements the Broadcast Service: a single producer that
// drives a procfs.Sampler on a fixed interval, turns each tick's tick-delta
// map into a per-core load map via treedelta.Compute, and fans that load map
// out to every connected client through a one-slot Broadcast.
//
// Client connections are served independently of the producer: each
// handler reads its watched pids once, then blocks on its own Subscription
// until the next publication, writing one wire frame per tick. A handler
// that falls behind is resynchronised rather than fed a backlog; there is
// never more than one outstanding value per subscriber.
package daemon
