package common

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Default values
// --------------------------------------------------------------------------

const (
	// DefaultConnectTimeout is used while connecting to a ChronoDB server
	DefaultConnectTimeout = 10 * time.Second

	// DefaultRequestTimeout is the default timeout for insert and query requests
	DefaultRequestTimeout = 3600 * time.Second

	// DefaultInactiveTime is how long a server stays marked unavailable after
	// a transient failure before it becomes eligible again
	DefaultInactiveTime = 30 * time.Second

	// DefaultMaxWaitRetry caps the exponential backoff of the reconnect loop
	DefaultMaxWaitRetry = 90 * time.Second

	// DefaultKeepAliveInterval is the idle interval after which a ping is sent
	DefaultKeepAliveInterval = 45 * time.Second
)

// --------------------------------------------------------------------------
// Server endpoint configuration
// --------------------------------------------------------------------------

// ServerConfig describes one cluster server the client may connect to.
type ServerConfig struct {
	Host string
	Port uint16

	// Weight is the relative selection probability among available servers.
	// Must be a value between 1 and 9, a zero value defaults to 1.
	Weight int

	// Backup servers are only chosen when no non-backup server is available.
	Backup bool
}

// Endpoint returns the host:port address of the server.
func (s *ServerConfig) Endpoint() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(int(s.Port)))
}

// --------------------------------------------------------------------------
// Socket configuration
// --------------------------------------------------------------------------

// SocketConfig holds optional TCP socket tuning applied after dialing.
type SocketConfig struct {
	// TCPNoDelay disables Nagle's algorithm
	TCPNoDelay bool

	// WriteBufferSize sets the socket write buffer size in bytes (0 = OS default)
	WriteBufferSize int

	// ReadBufferSize sets the socket read buffer size in bytes (0 = OS default)
	ReadBufferSize int

	// TCPKeepAliveSec enables TCP level keep-alive with the given period
	// in seconds (0 = disabled, the protocol level ping is always active)
	TCPKeepAliveSec int
}

// --------------------------------------------------------------------------
// Client configuration
// --------------------------------------------------------------------------

// ClientConfig holds all parameters to construct a pool client.
type ClientConfig struct {
	// Credentials used to authenticate every connection
	Username string
	Password string

	// Database is the name of the database to use
	Database string

	// Servers lists all cluster servers (or a subset of them)
	Servers []ServerConfig

	// InactiveTime is the unavailability cooldown (default 30s)
	InactiveTime time.Duration

	// MaxWaitRetry caps the reconnect backoff (default 90s)
	MaxWaitRetry time.Duration

	// Socket holds optional TCP tuning
	Socket SocketConfig
}

// Validate normalizes defaults and checks construction-time invariants.
func (c *ClientConfig) Validate() error {
	if len(c.Servers) == 0 {
		return fmt.Errorf("no servers provided")
	}
	for i := range c.Servers {
		s := &c.Servers[i]
		if s.Weight == 0 {
			s.Weight = 1
		}
		if s.Weight < 1 || s.Weight > 9 {
			return fmt.Errorf("server %s: weight should be a value between 1 and 9, got %d",
				s.Endpoint(), s.Weight)
		}
	}
	if c.InactiveTime == 0 {
		c.InactiveTime = DefaultInactiveTime
	}
	if c.MaxWaitRetry == 0 {
		c.MaxWaitRetry = DefaultMaxWaitRetry
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Username", c.Username)
	addField("Database", c.Database)
	addField("Inactive Time", c.InactiveTime.String())
	addField("Max Wait Retry", c.MaxWaitRetry.String())

	addSection("Servers")
	for i, server := range c.Servers {
		opts := fmt.Sprintf("weight=%d", server.Weight)
		if server.Backup {
			opts += ", backup"
		}
		addField(strconv.Itoa(i), fmt.Sprintf("%s (%s)", server.Endpoint(), opts))
	}

	return sb.String()
}
