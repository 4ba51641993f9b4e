package health

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/gurkanbulca/focusflow/internal/logging"
)

func startServer(t *testing.T) (*Server, grpc_health_v1.HealthClient) {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := NewServer(logging.Discard(), false)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return srv, grpc_health_v1.NewHealthClient(conn)
}

func check(t *testing.T, client grpc_health_v1.HealthClient, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

func TestServer_Lifecycle(t *testing.T) {
	srv, client := startServer(t)

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check(t, client, ""))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceTasks))

	srv.MarkServing()
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(t, client, ServiceTasks))

	srv.MarkNotServing()
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceTasks))
}

func TestServer_UnknownService(t *testing.T) {
	_, client := startServer(t)

	_, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "nope"})
	assert.Error(t, err)
}

func TestServer_Watch(t *testing.T) {
	srv, client := startServer(t)
	srv.MarkServing()

	var down atomic.Bool
	checker := func(context.Context) error {
		if down.Load() {
			return errors.New("connection refused")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Watch(ctx, 10*time.Millisecond, checker)
		close(done)
	}()

	serving := func(want grpc_health_v1.HealthCheckResponse_ServingStatus) func() bool {
		return func() bool {
			resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceTasks})
			return err == nil && resp.Status == want
		}
	}

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(t, client, ServiceTasks))

	down.Store(true)
	assert.Eventually(t, serving(grpc_health_v1.HealthCheckResponse_NOT_SERVING), time.Second, 5*time.Millisecond)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(t, client, ""), "the process itself stays up")

	down.Store(false)
	assert.Eventually(t, serving(grpc_health_v1.HealthCheckResponse_SERVING), time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestServer_WatchAfterShutdown(t *testing.T) {
	srv, client := startServer(t)
	srv.MarkServing()
	srv.MarkNotServing()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	srv.Watch(ctx, 10*time.Millisecond, func(context.Context) error { return nil })

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceTasks))
}
