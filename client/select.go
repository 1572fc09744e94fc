package client

import (
	"math/rand"

	"github.com/chronostore/chrono-go/common"
)

// pickConnection selects a connection for one request attempt. Selection
// draws uniformly from the weighted sequence filtered by current
// availability, which yields weight-proportional probability without
// per-draw weighted sampling. Tiers, in order:
//
//  1. available non-backup connections
//  2. available connections including backups
//  3. connected connections regardless of availability, only when the
//     fallback is permitted
//
// When every tier is empty a PoolError is returned.
func (c *Client) pickConnection(allowUnavailable bool) (*serverConn, error) {
	available := make([]*serverConn, 0, len(c.pool))
	nonBackups := make([]*serverConn, 0, len(c.pool))

	for _, conn := range c.pool {
		if conn.isAvailable() {
			available = append(available, conn)
			if !conn.cfg.Backup {
				nonBackups = append(nonBackups, conn)
			}
		}
	}

	if len(nonBackups) > 0 {
		return nonBackups[rand.Intn(len(nonBackups))], nil
	}

	if len(available) > 0 {
		return available[rand.Intn(len(available))], nil
	}

	if allowUnavailable {
		connected := make([]*serverConn, 0, len(c.pool))
		for _, conn := range c.pool {
			if conn.isConnected() {
				connected = append(connected, conn)
			}
		}
		if len(connected) > 0 {
			return connected[rand.Intn(len(connected))], nil
		}
	}

	return nil, &common.PoolError{Msg: "no available connections found"}
}
