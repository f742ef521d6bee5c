// Package grpcserver hosts the gRPC server for the counters, registering
// counter.v1.CounterService and the standard grpc.health.v1 service and
// delegating to the shared counters service.
//
// The service is described by hand with grpc.ServiceDesc; its messages are
// the protobuf well-known Empty and Struct types, so no generated code is
// needed on either side.
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{DataDir: "./data", Config: config.Default()})
//	s := grpcserver.New(rt, nil, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
