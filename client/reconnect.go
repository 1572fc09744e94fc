package client

import (
	"time"

	"github.com/chronostore/chrono-go/common"
)

// initialBackoff is where every reconnect loop starts, the wait doubles each
// round up to the configured MaxWaitRetry.
const initialBackoff = time.Second

// triggerReconnect starts the reconnect loop unless reconnecting is disabled
// or a loop is already running. Called whenever a connection transitions to
// disconnected and after a partially failed Connect.
func (c *Client) triggerReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.retryConnect || c.inConnectLoop {
		return
	}
	c.inConnectLoop = true
	go c.reconnectLoop()
}

// reconnectLoop retries connecting to all unconnected servers until every
// server is connected or the client is closed.
func (c *Client) reconnectLoop() {
	defer c.finishReconnectLoop()

	sleep := initialBackoff
	for {
		Logger.Debugf("reconnecting in %s...", sleep)
		c.clock.Sleep(sleep)

		c.mu.Lock()
		retry := c.retryConnect
		c.mu.Unlock()
		if !retry {
			return
		}

		reconnectRoundsTotal.Inc()
		c.connectAll(common.DefaultConnectTimeout)

		if c.allConnected() {
			return
		}

		sleep = nextBackoff(sleep, c.conf.MaxWaitRetry)
	}
}

// finishReconnectLoop clears the running flag on loop exit. A connection may
// drop between the loop's final allConnected check and the flag reset, its
// trigger would then see a loop that is about to exit, so the check is
// repeated here and the loop restarted if anything is down again.
func (c *Client) finishReconnectLoop() {
	c.mu.Lock()
	c.inConnectLoop = false
	c.mu.Unlock()

	if !c.allConnected() {
		c.triggerReconnect()
	}
}

// nextBackoff doubles the wait duration, capped at max.
func nextBackoff(cur, max time.Duration) time.Duration {
	cur *= 2
	if cur > max {
		return max
	}
	return cur
}
