package creditriskv1

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "creditrisk.v1.CreditRisk"

// CreditRiskServer is the server API for the CreditRisk service.
type CreditRiskServer interface {
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	Explain(context.Context, *PredictRequest) (*PredictResponse, error)
	Schema(context.Context, *SchemaRequest) (*SchemaResponse, error)
	mustEmbedUnimplementedCreditRiskServer()
}

// UnimplementedCreditRiskServer provides forward-compatible default implementations.
type UnimplementedCreditRiskServer struct{}

func (UnimplementedCreditRiskServer) Predict(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Predict not implemented")
}
func (UnimplementedCreditRiskServer) Explain(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Explain not implemented")
}
func (UnimplementedCreditRiskServer) Schema(context.Context, *SchemaRequest) (*SchemaResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Schema not implemented")
}
func (UnimplementedCreditRiskServer) mustEmbedUnimplementedCreditRiskServer() {}

// RegisterCreditRiskServer registers srv with the gRPC server.
func RegisterCreditRiskServer(s grpclib.ServiceRegistrar, srv CreditRiskServer) {
	s.RegisterService(&_CreditRisk_serviceDesc, srv)
}

var _CreditRisk_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CreditRiskServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Predict", Handler: _CreditRisk_Predict_Handler},
		{MethodName: "Explain", Handler: _CreditRisk_Explain_Handler},
		{MethodName: "Schema", Handler: _CreditRisk_Schema_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _CreditRisk_Predict_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(PredictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServer).Predict(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/Predict",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServer).Predict(ctx, req.(*PredictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CreditRisk_Explain_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(PredictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServer).Explain(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/Explain",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServer).Explain(ctx, req.(*PredictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CreditRisk_Schema_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(SchemaRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServer).Schema(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/Schema",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServer).Schema(ctx, req.(*SchemaRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// CreditRiskClient is the client API for the CreditRisk service.
type CreditRiskClient interface {
	Predict(ctx context.Context, in *PredictRequest, opts ...grpclib.CallOption) (*PredictResponse, error)
	Explain(ctx context.Context, in *PredictRequest, opts ...grpclib.CallOption) (*PredictResponse, error)
	Schema(ctx context.Context, in *SchemaRequest, opts ...grpclib.CallOption) (*SchemaResponse, error)
}

type creditRiskClient struct {
	cc grpclib.ClientConnInterface
}

// NewCreditRiskClient wraps cc. Every call is sent with the JSON content subtype.
func NewCreditRiskClient(cc grpclib.ClientConnInterface) CreditRiskClient {
	return &creditRiskClient{cc: cc}
}

func (c *creditRiskClient) Predict(ctx context.Context, in *PredictRequest, opts ...grpclib.CallOption) (*PredictResponse, error) {
	out := new(PredictResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Predict", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *creditRiskClient) Explain(ctx context.Context, in *PredictRequest, opts ...grpclib.CallOption) (*PredictResponse, error) {
	out := new(PredictResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Explain", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *creditRiskClient) Schema(ctx context.Context, in *SchemaRequest, opts ...grpclib.CallOption) (*SchemaResponse, error) {
	out := new(SchemaResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Schema", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpclib.CallOption) []grpclib.CallOption {
	return append([]grpclib.CallOption{grpclib.CallContentSubtype(CodecName)}, opts...)
}
