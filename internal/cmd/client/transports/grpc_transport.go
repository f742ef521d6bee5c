// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	grpcserver "github.com/BaraaAbuhalima/counter-app/internal/server/grpc"
)

// GrpcTransport implements CounterTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli grpcserver.CounterServiceClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(grpcserver.NewCounterServiceClient(conn))
}

// Get reads the counters via gRPC.
func (t *GrpcTransport) Get(ctx context.Context) (Counters, error) {
	var out Counters
	err := t.withClient(ctx, func(cli grpcserver.CounterServiceClient) error {
		res, err := cli.Get(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		out = countersFromStruct(res)
		return nil
	})
	return out, err
}

// Apply adds delta to key via gRPC.
func (t *GrpcTransport) Apply(ctx context.Context, key string, delta int64) (Counters, error) {
	var out Counters
	err := t.withClient(ctx, func(cli grpcserver.CounterServiceClient) error {
		req := &structpb.Struct{Fields: map[string]*structpb.Value{
			"key":   structpb.NewStringValue(key),
			"delta": structpb.NewNumberValue(float64(delta)),
		}}
		res, err := cli.Apply(ctx, req)
		if err != nil {
			return err
		}
		out = countersFromStruct(res)
		return nil
	})
	return out, err
}

func countersFromStruct(s *structpb.Struct) Counters {
	out := Counters{Values: map[string]int64{}, Persisted: true}
	for k, v := range s.GetFields() {
		if k == grpcserver.PersistedField {
			out.Persisted = v.GetBoolValue()
			continue
		}
		out.Values[k] = int64(v.GetNumberValue())
	}
	return out
}
