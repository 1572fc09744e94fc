package client

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chronostore/chrono-go/codec"
	"github.com/chronostore/chrono-go/common"
	"github.com/chronostore/chrono-go/protocol"
	"github.com/chronostore/chrono-go/transport"
)

const (
	// readBufferSize is the size of the receive buffer of the read loop
	readBufferSize = 64 * 1024

	// keepAliveTimeout is the timeout of protocol level ping requests
	keepAliveTimeout = 15 * time.Second
)

// serverConn wraps one configured cluster server. It owns the connect and
// authenticate lifecycle, the availability state, keepalive pinging and the
// unavailability cooldown, and delegates wire work to a protocol session.
//
// Lifecycle: created once at pool construction, cycles through
// disconnected -> connecting -> connected -> authenticated (available)
// -> (unavailable <-> available) -> disconnected until the pool is closed.
// Available implies connected, never the other way around.
type serverConn struct {
	cfg  common.ServerConfig
	conf *common.ClientConfig

	connector transport.Connector
	codec     codec.Codec
	clock     clockwork.Clock

	// onLost notifies the pool's reconnect trigger
	onLost func()

	// connectMu serializes connect attempts, a concurrent attempt waits and
	// then observes the connected state
	connectMu sync.Mutex

	// mu protects conn and session
	mu      sync.Mutex
	conn    net.Conn
	session *protocol.Session

	connected atomic.Bool
	available atomic.Bool
	lastResp  atomic.Int64 // unix nanos of the last successful response
}

func newServerConn(
	conf *common.ClientConfig,
	cfg common.ServerConfig,
	connector transport.Connector,
	c codec.Codec,
	clock clockwork.Clock,
	onLost func(),
) *serverConn {
	return &serverConn{
		cfg:       cfg,
		conf:      conf,
		connector: connector,
		codec:     c,
		clock:     clock,
		onLost:    onLost,
	}
}

// --------------------------------------------------------------------------
// Connect / authenticate
// --------------------------------------------------------------------------

// connect opens the transport and immediately authenticates over a fresh
// session. Authentication failure is terminal for this attempt: the transport
// stays open but the connection never becomes available, and the error is
// surfaced untouched so the pool can recognize the fatal kinds.
func (c *serverConn) connect(timeout time.Duration) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.connected.Load() {
		return nil
	}

	conn, err := c.connector.Connect(c.cfg.Endpoint(), timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", c.cfg.Endpoint(), err)
	}

	if err := c.connector.UpgradeConnection(conn, c.conf.Socket); err != nil {
		conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %v", c.cfg.Endpoint(), err)
	}

	session := protocol.NewSession(conn, c.codec, c.clock)

	c.mu.Lock()
	c.conn = conn
	c.session = session
	c.mu.Unlock()

	c.connected.Store(true)
	c.markResponded()

	go c.readLoop(conn, session)
	go c.keepaliveLoop(session, common.DefaultKeepAliveInterval)

	_, err = session.Send(
		protocol.ReqAuth,
		[]any{c.conf.Username, c.conf.Password, c.conf.Database},
		timeout,
	)
	if err != nil {
		return err
	}

	c.available.Store(true)
	Logger.Infof("connected to %s using %s transport", c.cfg.Endpoint(), c.connector.GetName())
	return nil
}

// disconnect closes the transport. The read loop observes the error and
// finalizes the state transition.
func (c *serverConn) disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// --------------------------------------------------------------------------
// Read loop
// --------------------------------------------------------------------------

// readLoop moves raw bytes from the transport into the session until the
// transport fails or is closed.
func (c *serverConn) readLoop(conn net.Conn, session *protocol.Session) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			session.Feed(buf[:n])
		}
		if err != nil {
			c.connectionLost(conn)
			return
		}
	}
}

// connectionLost marks the connection disconnected and unavailable, clears
// the session and notifies the pool. Only the currently owned transport may
// finalize the state, stale read loops from a previous connection are no-ops.
func (c *serverConn) connectionLost(conn net.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.session = nil
	c.mu.Unlock()

	c.connected.Store(false)
	c.available.Store(false)
	conn.Close()

	connectionsLostTotal.Inc()
	Logger.Warningf("connection to %s lost", c.cfg.Endpoint())

	if c.onLost != nil {
		c.onLost()
	}
}

// --------------------------------------------------------------------------
// Keepalive
// --------------------------------------------------------------------------

// keepaliveLoop pings the server whenever a full interval passed without any
// traffic. The cadence adapts to actual traffic: after a response the next
// wakeup is delayed by the remaining idle time instead of firing
// unconditionally. A failed ping force-closes the transport.
func (c *serverConn) keepaliveLoop(session *protocol.Session, interval time.Duration) {
	c.markResponded()
	sleep := interval
	for {
		c.clock.Sleep(sleep)

		if !c.connected.Load() || c.currentSession() != session {
			return
		}

		idle := interval - c.clock.Since(time.Unix(0, c.lastResp.Load()))
		if idle < 0 {
			idle = 0
		}
		sleep = idle
		if sleep == 0 {
			sleep = interval
		}
		if sleep == interval {
			Logger.Debugf("sending keep-alive package to %s...", c.cfg.Endpoint())
			keepalivePingsTotal.Inc()
			if _, err := session.Send(protocol.ReqPing, nil, keepAliveTimeout); err != nil {
				Logger.Errorf("keep-alive to %s failed: %v", c.cfg.Endpoint(), err)
				c.disconnect()
				return
			}
			c.markResponded()
		}
	}
}

// --------------------------------------------------------------------------
// Availability
// --------------------------------------------------------------------------

// setNotAvailable flips an available connection to unavailable and schedules
// the cooldown release.
func (c *serverConn) setNotAvailable() {
	if c.available.CompareAndSwap(true, false) {
		unavailableTotal.Inc()
		Logger.Warningf("marking %s as unavailable for %s", c.cfg.Endpoint(), c.conf.InactiveTime)
		c.clock.AfterFunc(c.conf.InactiveTime, c.setAvailable)
	}
}

// setAvailable releases the cooldown. A connection that dropped in the
// meantime stays unavailable.
func (c *serverConn) setAvailable() {
	if c.connected.Load() {
		c.available.Store(true)
	}
}

func (c *serverConn) isConnected() bool { return c.connected.Load() }
func (c *serverConn) isAvailable() bool { return c.available.Load() }

// markResponded records the time of the last successful response, feeding
// the adaptive keepalive cadence.
func (c *serverConn) markResponded() {
	c.lastResp.Store(c.clock.Now().UnixNano())
}

// --------------------------------------------------------------------------
// Sending
// --------------------------------------------------------------------------

func (c *serverConn) currentSession() *protocol.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// send forwards a request to the current session.
func (c *serverConn) send(tipe protocol.TypeCode, data any, timeout time.Duration) (any, error) {
	session := c.currentSession()
	if session == nil {
		return nil, common.ErrConnClosed
	}
	return session.Send(tipe, data, timeout)
}
