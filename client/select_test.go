package client

import (
	"errors"
	"testing"

	"github.com/chronostore/chrono-go/common"
)

// TestWeightedPoolComposition verifies the selection sequence replicates each
// connection according to its weight
func TestWeightedPoolComposition(t *testing.T) {
	conf := clientConf(
		common.ServerConfig{Host: "127.0.0.1", Port: 9000, Weight: 3},
		common.ServerConfig{Host: "127.0.0.1", Port: 9001, Weight: 1},
		common.ServerConfig{Host: "127.0.0.1", Port: 9002}, // defaults to 1
	)

	c, err := New(conf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if len(c.pool) != 5 {
		t.Fatalf("pool length = %d, want 5", len(c.pool))
	}

	counts := map[*serverConn]int{}
	for _, conn := range c.pool {
		counts[conn]++
	}
	if counts[c.conns[0]] != 3 || counts[c.conns[1]] != 1 || counts[c.conns[2]] != 1 {
		t.Errorf("pool replication = %d/%d/%d, want 3/1/1",
			counts[c.conns[0]], counts[c.conns[1]], counts[c.conns[2]])
	}
}

// TestWeightOutOfRangeRejected verifies weights outside [1,9] fail construction
func TestWeightOutOfRangeRejected(t *testing.T) {
	for _, weight := range []int{-1, 10, 100} {
		conf := clientConf(common.ServerConfig{Host: "127.0.0.1", Port: 9000, Weight: weight})
		if _, err := New(conf); err == nil {
			t.Errorf("New() with weight %d succeeded, want error", weight)
		}
	}
}

// TestPickPrefersNonBackup verifies backups are never chosen while a
// non-backup connection is available
func TestPickPrefersNonBackup(t *testing.T) {
	conf := clientConf(
		common.ServerConfig{Host: "127.0.0.1", Port: 9000},
		common.ServerConfig{Host: "127.0.0.1", Port: 9001, Backup: true},
	)

	c, err := New(conf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	for _, conn := range c.conns {
		conn.connected.Store(true)
		conn.available.Store(true)
	}

	for i := 0; i < 50; i++ {
		conn, err := c.pickConnection(false)
		if err != nil {
			t.Fatalf("pickConnection() error: %v", err)
		}
		if conn.cfg.Backup {
			t.Fatal("backup chosen while a non-backup connection was available")
		}
	}
}

// TestPickFallsBackToBackup verifies backups serve when no non-backup is available
func TestPickFallsBackToBackup(t *testing.T) {
	conf := clientConf(
		common.ServerConfig{Host: "127.0.0.1", Port: 9000},
		common.ServerConfig{Host: "127.0.0.1", Port: 9001, Backup: true},
	)

	c, err := New(conf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	c.conns[1].connected.Store(true)
	c.conns[1].available.Store(true)

	conn, err := c.pickConnection(false)
	if err != nil {
		t.Fatalf("pickConnection() error: %v", err)
	}
	if !conn.cfg.Backup {
		t.Error("expected the backup connection")
	}
}

// TestPickUnavailableTier verifies the connected-but-unavailable tier is only
// reachable when explicitly allowed
func TestPickUnavailableTier(t *testing.T) {
	conf := clientConf(common.ServerConfig{Host: "127.0.0.1", Port: 9000})

	c, err := New(conf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	c.conns[0].connected.Store(true) // connected, not available

	if _, err := c.pickConnection(true); err != nil {
		t.Errorf("pickConnection(true) error: %v, want the connected connection", err)
	}

	var poolErr *common.PoolError
	if _, err := c.pickConnection(false); !errors.As(err, &poolErr) {
		t.Errorf("pickConnection(false) error = %v, want PoolError", err)
	}
}
