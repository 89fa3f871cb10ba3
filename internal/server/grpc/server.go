package internalgrpc

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the whole server.
const ServiceName = "breeze.Breeze"

type Config struct {
	Host string
	Port int
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	addr       string
	conn       *grpc.ClientConn
}

func NewServer(config Config) *Server {
	s := &Server{
		addr:   net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		health: health.NewServer(),
	}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(loggingHandler))
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

func (s *Server) Start(_ context.Context) error {
	lsn, err := net.Listen("tcp", s.addr)
	if err != nil {
		log.Errorf("failed to listen grpc endpoint: %v", err)
		return err
	}
	return s.Serve(lsn)
}

// Serve accepts connections on lsn and marks the service as serving.
func (s *Server) Serve(lsn net.Listener) error {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	log.Printf("starting grpc server on %s", s.addr)
	return s.grpcServer.Serve(lsn)
}

// GatewayMux returns a gateway mux whose /healthz endpoint asks this server's
// health service.
func (s *Server) GatewayMux(_ context.Context) (*runtime.ServeMux, error) {
	conn, err := grpc.NewClient(s.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial grpc endpoint %s: %w", s.addr, err)
	}
	s.conn = conn
	return runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn))), nil
}

func (s *Server) Stop(_ context.Context) error {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
