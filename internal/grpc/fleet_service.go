package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages are google.protobuf.Struct values, so the service needs no
// generated code.

const fleetServiceName = "alerting.v1.FleetService"

const (
	listMonitorsMethod = "/" + fleetServiceName + "/ListMonitors"
	getMonitorMethod   = "/" + fleetServiceName + "/GetMonitor"
)

// FleetServer is the server API of alerting.v1.FleetService.
type FleetServer interface {
	ListMonitors(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMonitor(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterFleetServer(s grpc.ServiceRegistrar, srv FleetServer) {
	s.RegisterService(&fleetServiceDesc, srv)
}

var fleetServiceDesc = grpc.ServiceDesc{
	ServiceName: fleetServiceName,
	HandlerType: (*FleetServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListMonitors", Handler: listMonitorsHandler},
		{MethodName: "GetMonitor", Handler: getMonitorHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alerting/v1/fleet.proto",
}

func listMonitorsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetServer).ListMonitors(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listMonitorsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetServer).ListMonitors(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getMonitorHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetServer).GetMonitor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getMonitorMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetServer).GetMonitor(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// FleetClient calls alerting.v1.FleetService.
type FleetClient struct {
	cc grpc.ClientConnInterface
}

func NewFleetClient(cc grpc.ClientConnInterface) *FleetClient {
	return &FleetClient{cc: cc}
}

func (c *FleetClient) ListMonitors(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listMonitorsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FleetClient) GetMonitor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getMonitorMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
