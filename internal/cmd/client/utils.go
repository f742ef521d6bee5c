package client

import (
	"context"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// grpcAddrFromEnv returns the gRPC server address from COUNTER_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("COUNTER_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// HTTPBaseFromEnv returns the REST base URL from COUNTER_HTTP or a default.
func HTTPBaseFromEnv() string {
	if u := os.Getenv("COUNTER_HTTP"); u != "" {
		return u
	}
	return "http://127.0.0.1:8080"
}

// dialGRPCContext dials the gRPC endpoint with insecure transport for local/dev.
func dialGRPCContext(ctx context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}
