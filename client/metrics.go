package client

import "github.com/VictoriaMetrics/metrics"

// Client side counters, exposable via metrics.WritePrometheus.
var (
	requestsTotal        = metrics.NewCounter("chrono_client_requests_total")
	requestRetriesTotal  = metrics.NewCounter("chrono_client_request_retries_total")
	keepalivePingsTotal  = metrics.NewCounter("chrono_client_keepalive_pings_total")
	unavailableTotal     = metrics.NewCounter("chrono_client_marked_unavailable_total")
	connectionsLostTotal = metrics.NewCounter("chrono_client_connections_lost_total")
	reconnectRoundsTotal = metrics.NewCounter("chrono_client_reconnect_rounds_total")
)
