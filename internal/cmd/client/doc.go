// Package client provides the `counter` command-line client.
//
// The CLI talks to the counter HTTP and gRPC endpoints to read and update
// the counters from a terminal.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it is read
// from COUNTER_HTTP (default http://127.0.0.1:8080). The gRPC address is
// read from COUNTER_GRPC (default 127.0.0.1:50051).
//
// Usage
//
//	counter get
//	counter add --key video --delta -1
//	counter add --key photo --transport grpc
//	counter watch --filter 'key == "photo" && counters["photo"] > 10'
package client
