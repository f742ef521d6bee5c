package grpcserver

import (
	"context"
	"errors"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
	countersvc "github.com/BaraaAbuhalima/counter-app/internal/services/counters"
	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

// PersistedField is set to false in responses served from the memory fallback.
const PersistedField = "_persisted"

type countersSvc struct {
	svc    *countersvc.Service
	logger logpkg.Logger
}

func (s *countersSvc) Get(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.svc.Get(ctx)
	if err != nil {
		s.logger.Error("read counters failed", logpkg.Err(err))
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return snapshotStruct(snap), nil
}

func (s *countersSvc) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	key := fields["key"].GetStringValue()
	if !counter.Valid(key) {
		return nil, status.Error(codes.InvalidArgument, "invalid key")
	}
	var delta int64
	if v, ok := fields["delta"]; ok {
		n, isNum := v.GetKind().(*structpb.Value_NumberValue)
		if !isNum || n.NumberValue != math.Trunc(n.NumberValue) {
			return nil, status.Error(codes.InvalidArgument, "delta must be an integer")
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
		if n.NumberValue >= math.MaxInt64 || n.NumberValue < math.MinInt64 {
			return nil, status.Error(codes.InvalidArgument, "delta out of range")
		}
		delta = int64(n.NumberValue)
	}
	snap, err := s.svc.Apply(ctx, key, delta)
	if err != nil {
		if errors.Is(err, counter.ErrUnknownCounter) {
			return nil, status.Error(codes.InvalidArgument, "invalid key")
		}
		if errors.Is(err, counter.ErrOverflow) {
			return nil, status.Error(codes.InvalidArgument, "delta out of range")
		}
		s.logger.Error("apply delta failed", logpkg.Str("key", key), logpkg.Int64("delta", delta), logpkg.Err(err))
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return snapshotStruct(snap), nil
}

func snapshotStruct(snap countersvc.Snapshot) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(snap.Counters)+1)}
	for k, v := range snap.Counters {
		out.Fields[k] = structpb.NewNumberValue(float64(v))
	}
	if !snap.Persisted {
		out.Fields[PersistedField] = structpb.NewBoolValue(false)
	}
	return out
}
