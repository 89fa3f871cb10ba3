package internalgrpc

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	lsn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(Config{Host: "127.0.0.1", Port: lsn.Addr().(*net.TCPAddr).Port})
	go s.Serve(lsn)
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s
}

func TestHealth(t *testing.T) {
	s := startServer(t)

	conn, err := grpc.NewClient(s.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, time.Second*3, time.Millisecond*20)
}

func TestGatewayHealthz(t *testing.T) {
	s := startServer(t)

	mux, err := s.GatewayMux(context.Background())
	require.NoError(t, err)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second*3, time.Millisecond*20)
}
