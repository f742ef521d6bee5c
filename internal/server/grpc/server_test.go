package grpcserver

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	cfgpkg "github.com/BaraaAbuhalima/counter-app/internal/config"
	"github.com/BaraaAbuhalima/counter-app/internal/counter"
	"github.com/BaraaAbuhalima/counter-app/internal/runtime"
	memstore "github.com/BaraaAbuhalima/counter-app/internal/storage/memory"
	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

const bufSize = 1 << 20

func dialer(s *grpc.Server) func(context.Context, string) (net.Conn, error) {
	lis := bufconn.Listen(bufSize)
	go func() { _ = s.Serve(lis) }()
	return func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
}

func quietLogger() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel), logpkg.WithOutput(logpkg.NullOutput{}))
}

func connect(t *testing.T, rt *runtime.Runtime) (*grpc.ClientConn, context.Context) {
	t.Helper()
	srv := New(rt, nil, quietLogger())
	t.Cleanup(srv.Close)
	d := dialer(srv.grpc)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(d),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, ctx
}

func openRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	rt, err := runtime.Open(context.Background(), runtime.Options{DataDir: t.TempDir(), Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestHealthOverGRPC(t *testing.T) {
	conn, ctx := connect(t, openRuntime(t))
	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", res.GetStatus())
	}
}

func TestGetApplyOverGRPC(t *testing.T) {
	conn, ctx := connect(t, openRuntime(t))
	c := NewCounterServiceClient(conn)

	got, err := c.Get(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Fields["video"].GetNumberValue() != 0 || got.Fields["photo"].GetNumberValue() != 0 {
		t.Fatalf("fresh counters: %v", got.AsMap())
	}

	req, _ := structpb.NewStruct(map[string]any{"key": counter.Photo, "delta": 4})
	res, err := c.Apply(ctx, req)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Fields["photo"].GetNumberValue() != 4 {
		t.Fatalf("after apply: %v", res.AsMap())
	}
	if _, ok := res.Fields[PersistedField]; ok {
		t.Fatalf("unexpected %s on persisted write", PersistedField)
	}

	req, _ = structpb.NewStruct(map[string]any{"key": counter.Photo, "delta": -1})
	if res, err = c.Apply(ctx, req); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Fields["photo"].GetNumberValue() != 3 {
		t.Fatalf("after decrement: %v", res.AsMap())
	}
}

func TestApplyInvalidArgument(t *testing.T) {
	conn, ctx := connect(t, openRuntime(t))
	c := NewCounterServiceClient(conn)

	for _, fields := range []map[string]any{
		{"key": "audio", "delta": 1},
		{"delta": 1},
		{"key": "video", "delta": 1.5},
		{"key": "video", "delta": "one"},
		{"key": "video", "delta": 1e300},
		{"key": "video", "delta": 9.3e18},
		{"key": "video", "delta": -1e19},
	} {
		req, _ := structpb.NewStruct(fields)
		_, err := c.Apply(ctx, req)
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("%v: code = %v", fields, status.Code(err))
		}
	}
}

type downBackend struct{ *memstore.Store }

func (downBackend) Ping(context.Context) error { return errors.New("unreachable") }

func (downBackend) Save(context.Context, counter.Record) error { return errors.New("unreachable") }

func TestHealthNotServingAndFallback(t *testing.T) {
	rt := runtime.New(downBackend{memstore.New()}, cfgpkg.Default())
	conn, ctx := connect(t, rt)

	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v", res.GetStatus())
	}

	req, _ := structpb.NewStruct(map[string]any{"key": counter.Video, "delta": 2})
	out, err := NewCounterServiceClient(conn).Apply(ctx, req)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Fields["video"].GetNumberValue() != 2 {
		t.Fatalf("counters: %v", out.AsMap())
	}
	if v, ok := out.Fields[PersistedField]; !ok || v.GetBoolValue() {
		t.Fatalf("expected %s=false, got %v", PersistedField, out.AsMap())
	}
}
