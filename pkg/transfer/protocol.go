// Kunhua Huang 2026

package transfer

import "fmt"

// Protocol selects the wire behavior between client and server. The
// two sides of a deployment must agree; a server runs exactly one.
type Protocol string

const (
	// ProtocolChecksum is the canonical wire contract: the client
	// streams the file and half-closes, the server replies with the
	// single XOR-fold byte of everything it received.
	ProtocolChecksum Protocol = "checksum"

	// ProtocolEcho mirrors every byte back to the peer verbatim; the
	// client folds the mirrored stream itself.
	ProtocolEcho Protocol = "echo"
)

func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(s) {
	case ProtocolChecksum:
		return ProtocolChecksum, nil
	case ProtocolEcho:
		return ProtocolEcho, nil
	default:
		return "", fmt.Errorf("unknown protocol %q (want %q or %q)", s, ProtocolChecksum, ProtocolEcho)
	}
}
