package transport

import (
	"net"
	"time"

	"github.com/chronostore/chrono-go/common"
)

// Connector defines the transport-specific connection operations used by the
// per-server connection layer. Injecting it keeps the connection state
// machine independent of the transport medium and lets tests substitute an
// in-process transport.
type Connector interface {
	// Connect establishes a single connection to the endpoint within the
	// given timeout
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies socket settings to an established connection
	UpgradeConnection(conn net.Conn, conf common.SocketConfig) error
}
