// Package health exposes the standard gRPC health service so orchestrators
// can probe whether the HTTP frontend is accepting connections.
package health

import (
	"errors"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name probed for the HTTP frontend. The empty name reports
// the process as a whole.
const Service = "keepalive.http"

type Server struct {
	host   string
	port   string
	grpc   *grpc.Server
	health *grpchealth.Server
	logger *zap.Logger
}

func New(host, port string, logger *zap.Logger) *Server {
	gs := grpc.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		host:   host,
		port:   port,
		grpc:   gs,
		health: hs,
		logger: logger.Named("health"),
	}
}

func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", net.JoinHostPort(s.host, s.port))
}

func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("health server is starting", zap.String("addr", listener.Addr().String()))
	if err := s.grpc.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// SetServing flips both the process and the frontend status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(Service, status)
}

// Stop reports NOT_SERVING to watchers and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
