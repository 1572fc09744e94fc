package common

import "errors"

// --------------------------------------------------------------------------
// Sentinel errors
// --------------------------------------------------------------------------

var (
	// ErrTimedOut is returned when no reply arrived within the request timeout.
	ErrTimedOut = errors.New("request timed out")

	// ErrConnClosed is returned when a request is attempted on (or interrupted
	// by) a closed connection.
	ErrConnClosed = errors.New("connection is closed")
)

// --------------------------------------------------------------------------
// Typed server failure kinds
// --------------------------------------------------------------------------

// AuthenticationError is returned for invalid credentials, an unknown
// database or use of an unauthenticated connection. It is fatal and is
// never retried on another server.
type AuthenticationError struct {
	Msg string
}

func (e *AuthenticationError) Error() string { return "authentication error: " + e.Msg }

// PoolError is returned when the server reports a pool fault or when the
// client has no available connection for an operation. Retrying after a
// reasonable delay may succeed.
type PoolError struct {
	Msg string
}

func (e *PoolError) Error() string { return "pool error: " + e.Msg }

// ServerError is returned for transient server faults. The client treats it
// as retryable on a different connection.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string { return "server error: " + e.Msg }

// QueryError is returned when the server rejected the query itself. The same
// query is likely to fail again, so it is never retried.
type QueryError struct {
	Msg string
}

func (e *QueryError) Error() string { return "query error: " + e.Msg }

// InsertError is returned when the server rejected the insert data itself.
// The same data is likely to fail again, so it is never retried.
type InsertError struct {
	Msg string
}

func (e *InsertError) Error() string { return "insert error: " + e.Msg }

// ProtocolError is returned when a response cannot be interpreted, for
// example an unknown response type code. Usually a client/server version
// mismatch.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Msg }
