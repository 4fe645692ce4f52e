// Package server wires the catalog runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/civikit/catalog/internal/api/rest"
	"github.com/civikit/catalog/internal/auth/token"
	"github.com/civikit/catalog/internal/catalog/projection"
	"github.com/civikit/catalog/internal/catalog/service"
	"github.com/civikit/catalog/internal/catalog/storage/sqlite"
	"github.com/civikit/catalog/internal/platform/config"
	"github.com/civikit/catalog/internal/platform/otel"
	"github.com/civikit/catalog/internal/platform/timeouts"
)

// Config holds the catalog server configuration.
type Config struct {
	Addr   string `env:"CIVIKIT_CATALOG_HTTP_ADDR" envDefault:":8080"`
	DBPath string `env:"CIVIKIT_CATALOG_DB_PATH" envDefault:"catalog.db"`
}

// ParseConfig loads the server configuration from the environment and lets
// flags override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The catalog HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the catalog database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Server hosts the catalog HTTP API and storage lifecycle.
type Server struct {
	listener net.Listener
	http     *http.Server
	store    *sqlite.Store
}

// New creates a configured catalog server listening on the provided address.
func New(addr string, store *sqlite.Store, tokens token.Config) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	catalog := service.New(store, projection.DefaultRegistry())
	mux := http.NewServeMux()
	rest.New(catalog, tokens).Routes(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &Server{
		listener: listener,
		http: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: timeouts.ReadHeader,
			ReadTimeout:       timeouts.Request,
			WriteTimeout:      timeouts.Request,
		},
		store: store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run opens the store and serves the catalog API until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "catalog")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	tokens, err := token.LoadConfigFromEnv(nil)
	if err != nil {
		return fmt.Errorf("load token config: %w", err)
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	server, err := New(cfg.Addr, store, tokens)
	if err != nil {
		_ = store.Close()
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("catalog server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.http.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Close releases the listener and the store.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}
}
