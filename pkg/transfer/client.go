// Kunhua Huang 2026

package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecstasoy/mediabench/pkg/checksum"
)

// Client streams a local file to a peer server and obtains the
// stream's checksum under the configured protocol.
type Client struct {
	opts *ClientOptions
}

func NewClient(options ...ClientOption) *Client {
	opts := DefaultClientOptions()

	for _, o := range options {
		o(opts)
	}

	return &Client{opts: opts}
}

// Transfer sends the contents of inputPath to address and returns the
// resulting checksum: the peer's single reply byte under the checksum
// protocol, or the local fold of the mirrored stream under echo.
func (c *Client) Transfer(ctx context.Context, inputPath, address string) (byte, error) {
	dialer := &net.Dialer{
		Timeout: c.opts.DialTimeout,
	}
	if c.opts.KeepAlive {
		dialer.KeepAlive = c.opts.KeepAlivePeriod
	}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return 0, fmt.Errorf("dial tcp %s: %w", address, err)
	}
	defer conn.Close()

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return 0, fmt.Errorf("unexpected connection type %T", conn)
	}
	if err := tcpConn.SetNoDelay(true); err != nil {
		return 0, fmt.Errorf("set no delay: %w", err)
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	c.opts.Logger.Debug("transfer started",
		zap.String("file", inputPath),
		zap.String("address", address),
		zap.String("protocol", string(c.opts.Protocol)))

	switch c.opts.Protocol {
	case ProtocolEcho:
		return c.echo(tcpConn, file)
	default:
		return c.remoteChecksum(tcpConn, file)
	}
}

// remoteChecksum streams the file, half-closes the write direction so
// the peer observes end-of-stream, then reads the peer's one-byte
// fold. The half-close must precede the read: the peer only responds
// once its inbound side ends.
func (c *Client) remoteChecksum(conn *net.TCPConn, file *os.File) (byte, error) {
	if _, err := io.Copy(conn, file); err != nil {
		return 0, fmt.Errorf("send file: %w", err)
	}

	if err := conn.CloseWrite(); err != nil {
		return 0, fmt.Errorf("half-close write direction: %w", err)
	}

	var reply [1]byte
	if _, err := io.ReadFull(conn, reply[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, &ProtocolError{Reason: "connection closed before the checksum byte arrived"}
		}
		return 0, fmt.Errorf("read checksum reply: %w", err)
	}

	return reply[0], nil
}

// echo sends and receives concurrently. A peer that mirrors as it
// receives fills its send buffer unless the client drains in
// parallel; sequential send-then-read stalls on large files. The two
// tasks own disjoint connection halves, so no extra synchronization
// is needed, and both run to completion before the outcome decision.
func (c *Client) echo(conn *net.TCPConn, file *os.File) (byte, error) {
	var (
		g   errgroup.Group
		sum byte
	)

	g.Go(func() error {
		if _, err := io.Copy(conn, file); err != nil {
			return fmt.Errorf("send file: %w", err)
		}
		if err := conn.CloseWrite(); err != nil {
			return fmt.Errorf("half-close write direction: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s, err := checksum.Sum(conn)
		if err != nil {
			return fmt.Errorf("checksum echoed stream: %w", err)
		}
		sum = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return sum, nil
}
