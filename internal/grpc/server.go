package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/internal/fleet"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type Server struct {
	fleet *fleet.Service
}

func NewServer(svc *fleet.Service) *Server {
	return &Server{fleet: svc}
}

// ListMonitors accepts {from, size, search, sortField, sortDirection, state}
// and answers {monitors, totalMonitors} like the HTTP API.
func (s *Server) ListMonitors(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	result, err := s.fleet.ListMonitors(ctx, fleet.ListRequest{
		From:          int(fields["from"].GetNumberValue()),
		Size:          int(fields["size"].GetNumberValue()),
		Search:        fields["search"].GetStringValue(),
		SortField:     fields["sortField"].GetStringValue(),
		SortDirection: fields["sortDirection"].GetStringValue(),
		State:         fields["state"].GetStringValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(result)
}

// GetMonitor accepts {id} and answers {monitor, version, activeCount, dayCount}.
func (s *Server) GetMonitor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	detail, err := s.fleet.GetMonitor(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(map[string]interface{}{
		"monitor":     detail.Monitor.Monitor,
		"version":     detail.Monitor.Version,
		"activeCount": detail.Summary.ActiveCount,
		"dayCount":    detail.Summary.DayCount,
	})
}

// toStruct converts v to a Struct through its JSON form.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, fleet.ErrInvalidSortKey),
		errors.Is(err, fleet.ErrInvalidDirection),
		errors.Is(err, fleet.ErrInvalidState),
		errors.Is(err, fleet.ErrInvalidPage):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// UnaryLoggingInterceptor logs every call with its duration and status code.
func UnaryLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		}
		if status.Code(err) == codes.Internal {
			logger.Warn("gRPC call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("gRPC call", fields...)
		}
		return resp, err
	}
}

// NewGRPCServer returns a gRPC server with the fleet service registered.
func NewGRPCServer(svc *fleet.Service) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(UnaryLoggingInterceptor()))
	RegisterFleetServer(s, NewServer(svc))
	return s
}

// StartServer serves the fleet service on addr until s is stopped.
func StartServer(s *grpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	logger.Info("gRPC server listening", zap.String("address", addr))
	return s.Serve(lis)
}
