package rpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xlog"
)

// Handler serves one unary method.
type Handler func(ctx context.Context, req cbor.Value) (cbor.Value, error)

// Service is a gRPC service whose methods exchange CBOR values instead of
// generated protobuf messages.
type Service struct {
	name    string
	methods []grpc.MethodDesc
}

func NewService(name string) *Service {
	return &Service{name: name}
}

// Handle adds a unary method. It must be called before Register.
func (s *Service) Handle(method string, h Handler) *Service {
	full := "/" + s.name + "/" + method
	s.methods = append(s.methods, grpc.MethodDesc{
		MethodName: method,
		Handler:    methodHandler(full, h),
	})
	return s
}

func (s *Service) Desc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: s.name,
		HandlerType: (*any)(nil),
		Methods:     s.methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    s.name,
	}
}

func (s *Service) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(s.Desc(), s)
}

func methodHandler(full string, h Handler) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	call := func(ctx context.Context, req any) (any, error) {
		in, _ := req.(cbor.Value)
		out, err := h(ctx, in)
		if err != nil {
			if errors.Is(err, cbor.ErrCodec) {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			return nil, err
		}
		if out == nil {
			out = cbor.Null{}
		}
		return out, nil
	}
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		var in cbor.Value
		if err := dec(&in); err != nil {
			return nil, status.Error(codes.InvalidArgument, status.Convert(err).Message())
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: full,
		}
		return interceptor(ctx, in, info, call)
	}
}

// Invoke calls a unary method with the CBOR codec selected.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, req cbor.Value, opts ...grpc.CallOption) (cbor.Value, error) {
	var out cbor.Value
	opts = append(opts, grpc.CallContentSubtype(Name))
	if err := cc.Invoke(ctx, method, req, &out, opts...); err != nil {
		xlog.Debug("rpc invoke failed", xlog.Codec(Name), xlog.String("method", method), xlog.Err(err))
		return nil, err
	}
	return out, nil
}

// Dial creates a client connection that uses the CBOR codec by default.
// Extra options are applied after the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	defaults := []grpc.DialOption{
		grpc.WithConnectParams(grpc.ConnectParams{
			MinConnectTimeout: 5 * time.Second,
			Backoff: backoff.Config{
				BaseDelay:  1.0 * time.Second,
				MaxDelay:   20 * time.Second,
				Multiplier: 1.2,
				Jitter:     0.2,
			},
		}),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             3 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithNoProxy(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(Name)),
	}
	return grpc.NewClient(addr, append(defaults, opts...)...)
}
