// Package server serves the rendered demo site from a directory for the
// duration of a run.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is a static file server over a site root.
type Server struct {
	root   string
	port   int
	log    *zap.Logger
	router *gin.Engine

	srv  *http.Server
	addr *net.TCPAddr
	done chan error
}

// New creates a server for root. A nil logger disables access logs.
func New(root string, port int, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Access log of every request, RFC3339 in UTC
	router.Use(ginzap.Ginzap(log, time.RFC3339, true))

	// Logs all panic to error log
	router.Use(ginzap.RecoveryWithZap(log, true))

	router.StaticFS("/", gin.Dir(root, false))

	return &Server{
		root:   root,
		port:   port,
		log:    log,
		router: router,
	}
}

// Handler returns the HTTP handler serving the site.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening and returns the base URL of the site. Port 0 picks
// a free port.
func (s *Server) Start() (string, error) {
	if s.srv != nil {
		return "", fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return "", fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	s.addr = ln.Addr().(*net.TCPAddr)
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan error, 1)

	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	s.log.Info("serving site", zap.String("root", s.root), zap.Int("port", s.addr.Port))
	return s.URL(), nil
}

// URL returns the base URL of a started server.
func (s *Server) URL() string {
	if s.addr == nil {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", s.addr.Port)
}

// Shutdown stops the server and waits for it to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
