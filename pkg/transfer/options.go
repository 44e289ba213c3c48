// Kunhua Huang 2026

package transfer

import (
	"time"

	"go.uber.org/zap"
)

// ------------------- Client Options -------------------

type ClientOptions struct {
	Protocol        Protocol
	DialTimeout     time.Duration
	KeepAlive       bool
	KeepAlivePeriod time.Duration
	Logger          *zap.Logger
}

func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		Protocol:        ProtocolChecksum,
		DialTimeout:     5 * time.Second,
		KeepAlive:       true,
		KeepAlivePeriod: 30 * time.Second,
		Logger:          zap.NewNop(),
	}
}

type ClientOption func(*ClientOptions)

func WithProtocol(p Protocol) ClientOption {
	return func(opts *ClientOptions) {
		opts.Protocol = p
	}
}

func WithDialTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.DialTimeout = timeout
	}
}

func WithKeepAlive(keepAlive bool, period time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.KeepAlive = keepAlive
		opts.KeepAlivePeriod = period
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(opts *ClientOptions) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// ------------------- Server Options -------------------

type ServerOptions struct {
	Mode Protocol
	// MaxConnections caps concurrently served connections; 0 means
	// unlimited, matching the original tool's behavior.
	MaxConnections int
	Logger         *zap.Logger
}

func DefaultServerOptions() *ServerOptions {
	return &ServerOptions{
		Mode:           ProtocolChecksum,
		MaxConnections: 0,
		Logger:         zap.NewNop(),
	}
}

type ServerOption func(*ServerOptions)

func WithMode(p Protocol) ServerOption {
	return func(opts *ServerOptions) {
		opts.Mode = p
	}
}

func WithMaxConnections(n int) ServerOption {
	return func(opts *ServerOptions) {
		opts.MaxConnections = n
	}
}

func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(opts *ServerOptions) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}
