// Kunhua Huang 2026

package transfer

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ecstasoy/mediabench/pkg/checksum"
	"github.com/ecstasoy/mediabench/pkg/metrics"
)

// Server accepts transfer connections and serves each in its own
// goroutine under the configured protocol mode. A handler failure is
// logged and dropped at the connection boundary; it never reaches the
// accept loop or sibling connections.
type Server struct {
	address  string
	opts     *ServerOptions
	listener net.Listener
	wg       sync.WaitGroup
	mu       sync.RWMutex
	serving  bool
	closed   bool
	// atomic counters
	activeConnections int64
	totalConnections  int64
	// semaphore to limit max concurrent connections
	connSemaphore chan struct{}
}

func NewServer(options ...ServerOption) *Server {
	opts := DefaultServerOptions()

	for _, o := range options {
		o(opts)
	}

	server := &Server{opts: opts}

	if opts.MaxConnections > 0 {
		server.connSemaphore = make(chan struct{}, opts.MaxConnections)
	}

	return server
}

func (s *Server) Listen(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("already listening on %s", s.address)
	}

	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.address = listener.Addr().String()

	return nil
}

// Serve runs the accept loop until ctx is canceled or Close is
// called, then waits for live handlers to drain.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()

	if s.listener == nil {
		s.mu.Unlock()
		return fmt.Errorf("not listening, call Listen() first")
	}

	if s.serving {
		s.mu.Unlock()
		return fmt.Errorf("already serving on %s", s.address)
	}

	s.serving = true
	s.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return ctx.Err()
			}

			s.mu.RLock()
			if s.closed {
				s.mu.RUnlock()
				s.wg.Wait()
				return nil
			}
			s.mu.RUnlock()

			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				time.Sleep(10 * time.Millisecond)
				continue
			}

			return fmt.Errorf("accept connection failed: %w", err)
		}

		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
				// acquired semaphore
			default:
				// max connections reached
				s.opts.Logger.Warn("connection limit reached, rejecting",
					zap.String("remote", conn.RemoteAddr().String()))
				metrics.HandlerFailure("rejected")
				conn.Close()
				continue
			}
		}

		atomic.AddInt64(&s.activeConnections, 1)
		atomic.AddInt64(&s.totalConnections, 1)
		metrics.ConnAccepted()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection is the per-connection failure boundary: errors and
// panics end here, logged, with the connection closed.
func (s *Server) handleConnection(conn net.Conn) {
	remote := conn.RemoteAddr().String()

	defer func() {
		if r := recover(); r != nil {
			s.opts.Logger.Error("connection handler panicked",
				zap.String("remote", remote),
				zap.Any("panic", r))
			metrics.HandlerFailure("panic")
		}

		conn.Close()
		atomic.AddInt64(&s.activeConnections, -1)
		metrics.ConnClosed()

		if s.connSemaphore != nil {
			<-s.connSemaphore
		}

		s.wg.Done()
	}()

	s.opts.Logger.Info("connection accepted", zap.String("remote", remote))

	var err error
	switch s.opts.Mode {
	case ProtocolEcho:
		err = s.serveEcho(conn)
	default:
		err = s.serveChecksum(conn)
	}

	if err != nil {
		s.opts.Logger.Error("connection handler failed",
			zap.String("remote", remote),
			zap.String("mode", string(s.opts.Mode)),
			zap.Error(err))
		metrics.HandlerFailure(string(s.opts.Mode))
		return
	}

	s.opts.Logger.Info("connection finished", zap.String("remote", remote))
}

// serveChecksum folds the inbound stream until the peer half-closes,
// then replies with the single fold byte.
func (s *Server) serveChecksum(conn net.Conn) error {
	reducer := checksum.NewReducer()

	n, err := io.Copy(reducer, conn)
	metrics.BytesReceived(n)
	if err != nil {
		return fmt.Errorf("read inbound stream: %w", err)
	}

	if _, err := conn.Write([]byte{reducer.Sum()}); err != nil {
		return fmt.Errorf("write checksum reply: %w", err)
	}

	return nil
}

// serveEcho mirrors inbound bytes back verbatim until the peer closes
// its write direction.
func (s *Server) serveEcho(conn net.Conn) error {
	n, err := io.Copy(conn, conn)
	metrics.BytesReceived(n)
	if err != nil {
		return fmt.Errorf("echo inbound stream: %w", err)
	}

	return nil
}

func (s *Server) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			return fmt.Errorf("close listener failed: %w", err)
		}
	}

	s.wg.Wait()

	return nil
}

func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

func (s *Server) Stats() ServerStats {
	return ServerStats{
		ActiveConnections: atomic.LoadInt64(&s.activeConnections),
		TotalConnections:  atomic.LoadInt64(&s.totalConnections),
		Address:           s.address,
	}
}

type ServerStats struct {
	ActiveConnections int64
	TotalConnections  int64
	Address           string
}
