package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client calls the Scheduling service over a connection that uses the JSON
// codec.
type Client struct {
	conn  grpc.ClientConnInterface
	close func() error
}

// Dial opens a plaintext connection to addr. Extra options are applied after
// the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(ContentSubtype)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, close: conn.Close}, nil
}

// NewClient wraps an existing connection. Close does not close it.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// WithAdminPIN attaches the admin PIN to outgoing calls made with ctx.
func WithAdminPIN(ctx context.Context, pin string) context.Context {
	if pin == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, AdminPINHeader, pin)
}

// WithIdempotencyKey makes a retried CreateBooking return the first result.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "idempotency-key", key)
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, FullMethod(method), req, resp, grpc.CallContentSubtype(ContentSubtype))
}

func (c *Client) GetAvailability(ctx context.Context, req *GetAvailabilityRequest) (*GetAvailabilityResponse, error) {
	out := new(GetAvailabilityResponse)
	if err := c.invoke(ctx, MethodGetAvailability, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*CreateBookingResponse, error) {
	out := new(CreateBookingResponse)
	if err := c.invoke(ctx, MethodCreateBooking, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelBooking(ctx context.Context, req *CancelBookingRequest) (*CancelBookingResponse, error) {
	out := new(CancelBookingResponse)
	if err := c.invoke(ctx, MethodCancelBooking, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	out := new(ListBookingsResponse)
	if err := c.invoke(ctx, MethodListBookings, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListServices(ctx context.Context, req *ListServicesRequest) (*ListServicesResponse, error) {
	out := new(ListServicesResponse)
	if err := c.invoke(ctx, MethodListServices, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveService(ctx context.Context, req *SaveServiceRequest) (*SaveServiceResponse, error) {
	out := new(SaveServiceResponse)
	if err := c.invoke(ctx, MethodSaveService, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteService(ctx context.Context, req *DeleteServiceRequest) (*DeleteServiceResponse, error) {
	out := new(DeleteServiceResponse)
	if err := c.invoke(ctx, MethodDeleteService, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetShopConfig(ctx context.Context, req *GetShopConfigRequest) (*GetShopConfigResponse, error) {
	out := new(GetShopConfigResponse)
	if err := c.invoke(ctx, MethodGetShopConfig, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateShopConfig(ctx context.Context, req *UpdateShopConfigRequest) (*UpdateShopConfigResponse, error) {
	out := new(UpdateShopConfigResponse)
	if err := c.invoke(ctx, MethodUpdateShopConfig, req, out); err != nil {
		return nil, err
	}
	return out, nil
}
