// Package cmd implements the chrono command line interface: query, insert
// and ping commands against a ChronoDB cluster, configured through flags,
// environment variables (CHRONO_ prefix) and .env files.
package cmd
