// Package server exposes a query.QueryExecutor over JSON/HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/vibesql/vibedb/internal/query"
)

const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 5173
	MaxConnections    = 2
	ReadTimeout       = 10 * time.Second
	WriteTimeout      = 10 * time.Second
	ShutdownTimeout   = 30 * time.Second
	IdleTimeout       = 30 * time.Second
	ReadHeaderTimeout = 5 * time.Second
)

// Options configures a Server. Port 0 picks a free port.
type Options struct {
	Host           string
	Port           int
	MaxConnections int
	// QueryTimeout bounds every executor call. Zero disables it.
	QueryTimeout time.Duration
	// Health backs /healthz; nil always reports ok.
	Health func(context.Context) error
	Logger *zerolog.Logger
}

type Server struct {
	host           string
	port           int
	maxConnections int
	httpServer     *http.Server
	listener       net.Listener
	handler        *Handler
	log            zerolog.Logger
	ready          atomic.Bool
}

func NewServer(executor query.QueryExecutor, opts Options) *Server {
	s := &Server{
		host:           opts.Host,
		port:           opts.Port,
		maxConnections: opts.MaxConnections,
		handler:        NewHandler(executor, opts),
		log:            zerolog.Nop(),
	}
	if s.host == "" {
		s.host = DefaultHost
	}
	if s.maxConnections <= 0 {
		s.maxConnections = MaxConnections
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	return s
}

// Handler returns the routes of s without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handler.RegisterRoutes(mux)
	return mux
}

func (s *Server) Start() error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", addr, err)
	}
	s.listener = listener

	limitListener := &limitedListener{
		Listener:  listener,
		semaphore: make(chan struct{}, s.maxConnections),
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	s.ready.Store(true)
	s.log.Info().
		Str("addr", listener.Addr().String()).
		Int("max_connections", s.maxConnections).
		Msg("HTTP server listening")

	go func() {
		if err := s.httpServer.Serve(limitListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	return nil
}

func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.log.Info().Msg("shutting down HTTP server gracefully")
	s.ready.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	s.log.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) IsReady() bool {
	return s.ready.Load()
}

func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.host, fmt.Sprint(s.port))
}

// WaitForShutdown blocks until SIGINT, SIGTERM or ctx is done, then stops s.
func (s *Server) WaitForShutdown(ctx context.Context) error {
	if !s.IsReady() {
		s.log.Warn().Msg("WaitForShutdown called but server not started")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	s.log.Info().Err(context.Cause(ctx)).Msg("shutdown requested")

	return s.Stop()
}

type limitedListener struct {
	net.Listener
	semaphore chan struct{}
}

func (l *limitedListener) Accept() (net.Conn, error) {
	l.semaphore <- struct{}{}

	conn, err := l.Listener.Accept()
	if err != nil {
		<-l.semaphore
		return nil, err
	}

	return &limitedConn{
		Conn:      conn,
		semaphore: l.semaphore,
	}, nil
}

type limitedConn struct {
	net.Conn
	semaphore chan struct{}
	once      sync.Once
}

func (c *limitedConn) Close() error {
	var err error
	c.once.Do(func() {
		<-c.semaphore
		err = c.Conn.Close()
	})
	return err
}
