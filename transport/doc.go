// Package transport abstracts how connections to cluster servers are
// established. The Connector interface covers dialing and socket tuning so
// the connection layer can be composed over TCP in production and over
// in-process transports in tests.
package transport
