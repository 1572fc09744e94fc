package client

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lni/dragonboat/v4/logger"

	"github.com/chronostore/chrono-go/codec"
	"github.com/chronostore/chrono-go/common"
	"github.com/chronostore/chrono-go/protocol"
	"github.com/chronostore/chrono-go/transport"
)

var Logger = logger.GetLogger("client")

// Client is the entry point for talking to a ChronoDB cluster. It owns one
// serverConn per configured server, selects a healthy connection for each
// operation using the weight/backup policy and keeps reconnecting with
// exponential backoff while any server is unreachable.
//
// All methods are safe for concurrent use. There is no caller initiated
// cancellation beyond closing the whole client, requests are bounded by
// their timeouts only.
type Client struct {
	conf common.ClientConfig

	conns []*serverConn

	// pool is the weighted selection sequence: each connection appears
	// exactly weight times, so drawing uniformly from the availability
	// filtered sequence selects proportionally to weight. Immutable after
	// construction.
	pool []*serverConn

	connector transport.Connector
	codec     codec.Codec
	clock     clockwork.Clock

	mu            sync.Mutex
	retryConnect  bool
	inConnectLoop bool
}

// Option customizes a Client beyond its configuration.
type Option func(*Client)

// WithConnector substitutes the transport connector (tests, tunnels).
func WithConnector(connector transport.Connector) Option {
	return func(c *Client) { c.connector = connector }
}

// WithCodec substitutes the payload value codec.
func WithCodec(cd codec.Codec) Option {
	return func(c *Client) { c.codec = cd }
}

// WithClock substitutes the clock so tests can advance virtual time.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// New validates the configuration and creates a client. No connection is
// attempted before Connect is called. A server weight outside [1,9] is a
// construction-time error.
func New(conf common.ClientConfig, opts ...Option) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		conf:      conf,
		connector: transport.NewTCPConnector(),
		codec:     codec.NewMsgpackCodec(),
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i := range c.conf.Servers {
		conn := newServerConn(&c.conf, c.conf.Servers[i], c.connector, c.codec, c.clock, c.triggerReconnect)
		c.conns = append(c.conns, conn)
		for j := 0; j < c.conf.Servers[i].Weight; j++ {
			c.pool = append(c.pool, conn)
		}
	}

	return c, nil
}

// --------------------------------------------------------------------------
// Connect / Close
// --------------------------------------------------------------------------

// Connect initiates a connect attempt for every server not currently
// connected, in parallel, and awaits all outcomes. Authentication failures
// (bad credentials, unknown database) are fatal and returned immediately.
// For servers that stayed unreachable the reconnect loop is started and the
// first failure is returned so the caller knows the cluster is not fully up,
// reconnection continues in the background regardless. A zero timeout uses
// the default of 10s.
func (c *Client) Connect(timeout time.Duration) error {
	if timeout == 0 {
		timeout = common.DefaultConnectTimeout
	}

	c.mu.Lock()
	c.retryConnect = true
	c.mu.Unlock()

	Logger.Infof(c.conf.String())

	errs := c.connectAll(timeout)

	for _, err := range errs {
		var authErr *common.AuthenticationError
		if errors.As(err, &authErr) {
			return err
		}
	}

	if !c.allConnected() {
		c.triggerReconnect()
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// connectAll starts a connect attempt for every unconnected server in
// parallel and collects the outcomes.
func (c *Client) connectAll(timeout time.Duration) []error {
	var wg sync.WaitGroup
	errs := make([]error, len(c.conns))

	for i, conn := range c.conns {
		if conn.isConnected() {
			continue
		}
		wg.Add(1)
		go func(i int, conn *serverConn) {
			defer wg.Done()
			errs[i] = conn.connect(timeout)
		}(i, conn)
	}

	wg.Wait()
	return errs
}

func (c *Client) allConnected() bool {
	for _, conn := range c.conns {
		if !conn.isConnected() {
			return false
		}
	}
	return true
}

// Close disables future reconnect attempts and disconnects every currently
// connected server.
func (c *Client) Close() {
	c.mu.Lock()
	c.retryConnect = false
	c.mu.Unlock()

	for _, conn := range c.conns {
		if conn.isConnected() {
			conn.disconnect()
		}
	}
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// Insert sends time-series data to the cluster. On a transient failure
// (connection closed, server error) the failing connection is marked
// unavailable and the insert is retried on another connection. Content
// rejections (InsertError) and all other failures are surfaced immediately,
// the same data would likely fail again. A zero timeout uses the default of
// 3600s.
//
// Unlike Query, Insert never falls back to an unavailable connection, that
// would risk duplicate writes.
func (c *Client) Insert(data any, timeout time.Duration) (any, error) {
	if timeout == 0 {
		timeout = common.DefaultRequestTimeout
	}
	for {
		conn, err := c.pickConnection(false)
		if err != nil {
			return nil, err
		}

		requestsTotal.Inc()
		result, err := conn.send(protocol.ReqInsert, data, timeout)
		if err != nil {
			if isTransient(err) {
				Logger.Debugf("insert on %s failed with error %v, trying another server if one is available...",
					conn.cfg.Endpoint(), err)
				if conn.isConnected() {
					conn.setNotAvailable()
				}
				requestRetriesTotal.Inc()
				continue
			}
			return nil, err
		}

		conn.markResponded()
		return result, nil
	}
}

// Query sends a query to the cluster. Retry policy matches Insert, with one
// addition: if no available connection exists, Query falls back once per
// call to a connected but unavailable connection. timePrecision is optional,
// an empty string leaves the database default. A zero timeout uses the
// default of 3600s.
func (c *Client) Query(query string, timePrecision string, timeout time.Duration) (any, error) {
	if timeout == 0 {
		timeout = common.DefaultRequestTimeout
	}

	var precision any
	if timePrecision != "" {
		precision = timePrecision
	}

	tryUnavailable := true
	for {
		conn, err := c.pickConnection(tryUnavailable)
		if err != nil {
			return nil, err
		}

		requestsTotal.Inc()
		result, err := conn.send(protocol.ReqQuery, []any{query, precision}, timeout)
		if err != nil {
			if isTransient(err) {
				Logger.Debugf("query on %s failed with error %v, trying another server if one is available...",
					conn.cfg.Endpoint(), err)
				if conn.isConnected() {
					conn.setNotAvailable()
				}
				requestRetriesTotal.Inc()

				// only try unavailable once
				tryUnavailable = false
				continue
			}
			return nil, err
		}

		conn.markResponded()
		return result, nil
	}
}

// isTransient reports whether a request failure is worth retrying on a
// different connection. Content rejections, authentication failures and
// timeouts are not, the same request would likely fail again.
func isTransient(err error) bool {
	var serverErr *common.ServerError
	return errors.Is(err, common.ErrConnClosed) || errors.As(err, &serverErr)
}
