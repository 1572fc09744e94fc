// Package client implements the connection pool coordinator of chrono-go:
// one persistent, authenticated connection per configured cluster server,
// weight/backup based selection for every operation, retry of transient
// failures on a different server and a single reconnect loop with
// exponential backoff while any server is unreachable.
//
// Error handling contract:
//
//   - AuthenticationError: fatal, surfaced immediately, never retried
//   - PoolError: no connection available across all selection tiers (or
//     reported by the server), surfaced immediately
//   - ServerError / connection closed: the connection is marked unavailable
//     for the cooldown and the request is retried on another connection
//   - QueryError / InsertError: the request content was rejected, surfaced
//     immediately since a retry would likely fail again
//   - ErrTimedOut: no reply within the configured duration
package client
