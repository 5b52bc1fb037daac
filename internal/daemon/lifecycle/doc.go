// Package lifecycle implements the "with_daemon" collaborator spec.md names
// but leaves unspecified: singleton detection via a PID-file flock, Unix
// socket bind with stale-socket recovery, and a shutdown control handle.
//
// Acquire is the entry point for singleton detection (NewControl builds the
// shutdown handle separately). It either returns an Instance that owns
// the PID file and a freshly bound listener (this process is the daemon),
// or ErrAlreadyRunning (another process already holds the lock, so this
// process should behave as a client instead). Exactly one process in a
// given PID-file/socket pair ever reaches the daemon branch; the race
// between two processes starting at once is resolved by the underlying
// flock(2) call being atomic.
package lifecycle
