// Package protocol implements the binary wire protocol of ChronoDB clusters:
// the fixed 8-byte frame header, incremental decoding of the byte stream and
// the per-connection Session that multiplexes many concurrent requests over
// one transport.
//
// The package focuses on:
//   - Framing: [length uint32 LE][pid uint16 LE][type uint8][check uint8]
//     where the check byte always equals the type code XOR 0xFF
//   - Correlating replies to in-flight requests by a 16-bit request id,
//     independent of arrival order
//   - Timeout-only cancellation: a request already written to the wire
//     cannot be retracted, a late reply for a timed out id is dropped
//   - Fail-fast corruption handling: a bad check byte flushes the whole
//     receive buffer instead of attempting to resync
package protocol
