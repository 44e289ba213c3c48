// Kunhua Huang 2026

package transfer

import "fmt"

// ProtocolError reports a peer that broke the wire contract, e.g.
// closing the connection before the checksum byte arrived.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}
