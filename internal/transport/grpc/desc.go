package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "slotkeeper.v1.Scheduling"

const (
	MethodGetAvailability  = "GetAvailability"
	MethodCreateBooking    = "CreateBooking"
	MethodCancelBooking    = "CancelBooking"
	MethodListBookings     = "ListBookings"
	MethodListServices     = "ListServices"
	MethodSaveService      = "SaveService"
	MethodDeleteService    = "DeleteService"
	MethodGetShopConfig    = "GetShopConfig"
	MethodUpdateShopConfig = "UpdateShopConfig"
)

func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type SchedulingServiceServer interface {
	GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error)
	CreateBooking(context.Context, *CreateBookingRequest) (*CreateBookingResponse, error)
	CancelBooking(context.Context, *CancelBookingRequest) (*CancelBookingResponse, error)
	ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	ListServices(context.Context, *ListServicesRequest) (*ListServicesResponse, error)
	SaveService(context.Context, *SaveServiceRequest) (*SaveServiceResponse, error)
	DeleteService(context.Context, *DeleteServiceRequest) (*DeleteServiceResponse, error)
	GetShopConfig(context.Context, *GetShopConfigRequest) (*GetShopConfigResponse, error)
	UpdateShopConfig(context.Context, *UpdateShopConfigRequest) (*UpdateShopConfigResponse, error)
}

func RegisterSchedulingServiceServer(r grpc.ServiceRegistrar, srv SchedulingServiceServer) {
	r.RegisterService(&schedulingServiceDesc, srv)
}

var schedulingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetAvailability, SchedulingServiceServer.GetAvailability),
		unary(MethodCreateBooking, SchedulingServiceServer.CreateBooking),
		unary(MethodCancelBooking, SchedulingServiceServer.CancelBooking),
		unary(MethodListBookings, SchedulingServiceServer.ListBookings),
		unary(MethodListServices, SchedulingServiceServer.ListServices),
		unary(MethodSaveService, SchedulingServiceServer.SaveService),
		unary(MethodDeleteService, SchedulingServiceServer.DeleteService),
		unary(MethodGetShopConfig, SchedulingServiceServer.GetShopConfig),
		unary(MethodUpdateShopConfig, SchedulingServiceServer.UpdateShopConfig),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "slotkeeper/v1/scheduling",
}

// unary builds the method descriptor that decodes Req, runs the interceptor
// chain and dispatches to call.
func unary[Req, Resp any](method string, call func(SchedulingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SchedulingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SchedulingServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
