// Package health exposes liveness and readiness for orchestrators.
//
// Docker and Kubernetes probe /healthz and /readyz over HTTP. Meshes and
// gRPC-aware load balancers use the standard grpc.health.v1.Health service,
// which reports the same readiness flag.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the gRPC health service name reported alongside the
// overall ("") status.
const ServiceName = "sahayak.Chat"

// Server serves the HTTP probes and, when a port is set, the gRPC health service.
type Server struct {
	port     int
	grpcPort int
	ready    atomic.Bool
	server   *http.Server
	health   *grpchealth.Server
}

// New creates a new health server. A zero grpcPort disables the gRPC service.
func New(port, grpcPort int) *Server {
	s := &Server{port: port, grpcPort: grpcPort, health: grpchealth.NewServer()}
	s.SetReady(false)
	return s
}

// SetReady marks the server as ready (or not) to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Ready reports the current readiness flag.
func (s *Server) Ready() bool { return s.ready.Load() }

// Handler returns the HTTP probe routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Liveness: the process is up and serving HTTP.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	return mux
}

// ListenAndServe starts the health servers.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	if s.grpcPort > 0 {
		go func() {
			if err := s.serveGRPC(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func (s *Server) serveGRPC(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.grpcPort))
	if err != nil {
		return fmt.Errorf("grpc health listen: %w", err)
	}
	return s.ServeGRPC(ctx, lis)
}

// ServeGRPC serves the gRPC health service on lis until the context is cancelled.
func (s *Server) ServeGRPC(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	slog.Info("grpc health service listening", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc health serve: %w", err)
	}
	return nil
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
