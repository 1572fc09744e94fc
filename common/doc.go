// Package common provides shared configuration, error kinds and logging
// utilities used by all chrono-go packages.
//
// The package focuses on:
//   - Client and server endpoint configuration with validation and defaults
//   - The typed error taxonomy shared between the protocol and pool layers
//   - A logger factory producing uniformly formatted package loggers
package common
