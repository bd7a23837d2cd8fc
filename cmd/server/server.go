package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/JaimeStill/beacon/internal/config"
	"github.com/JaimeStill/beacon/internal/infrastructure"
)

// Server owns the infrastructure, the mounted modules, and the listener.
type Server struct {
	cfg   *config.Config
	infra *infrastructure.Infrastructure
	http  *http.Server
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra, cfg.Version)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"remote", cfg.Remote.BaseURL,
	)

	return &Server{
		cfg:   cfg,
		infra: infra,
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
			WriteTimeout: cfg.Server.WriteTimeoutDuration(),
			IdleTimeout:  cfg.Server.IdleTimeoutDuration(),
			BaseContext:  func(net.Listener) context.Context { return infra.Lifecycle.Context() },
		},
	}, nil
}

// Start binds the listener before returning, so a taken port fails here
// rather than in a background goroutine.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}

	logger := s.infra.Logger.With("system", "http")
	lc := s.infra.Lifecycle

	go func() {
		logger.Info("listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve failed", "error", err)
		}
	}()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeoutDuration())
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			logger.Error("http shutdown incomplete", "error", err)
			return
		}
		logger.Info("http server stopped")
	})

	go func() {
		lc.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
