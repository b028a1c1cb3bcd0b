package handler

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/rl1809/till-simulator/internal/core/domain"
	"github.com/rl1809/till-simulator/internal/core/service"
)

// The till service speaks JSON over gRPC; callers select it with
// grpc.CallContentSubtype(CodecName).
const (
	CodecName          = "json"
	tillServiceName    = "tillsim.TillService"
	simulateFullMethod = "/" + tillServiceName + "/Simulate"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                               { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type TillServiceServer interface {
	Simulate(context.Context, *SimulateRequest) (*SimulateResponse, error)
}

var TillServiceDesc = grpc.ServiceDesc{
	ServiceName: tillServiceName,
	HandlerType: (*TillServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Simulate", Handler: simulateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tillsim",
}

func RegisterTillServiceServer(s grpc.ServiceRegistrar, srv TillServiceServer) {
	s.RegisterService(&TillServiceDesc, srv)
}

func simulateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SimulateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TillServiceServer).Simulate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: simulateFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TillServiceServer).Simulate(ctx, req.(*SimulateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type GRPCHandler struct {
	simulator *service.Simulator
	symbol    string
	log       *zap.Logger
}

func NewGRPCHandler(simulator *service.Simulator, symbol string, log *zap.Logger) *GRPCHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GRPCHandler{simulator: simulator, symbol: symbol, log: log}
}

func (h *GRPCHandler) Simulate(ctx context.Context, req *SimulateRequest) (*SimulateResponse, error) {
	if req.Input == "" {
		return nil, status.Error(codes.InvalidArgument, "missing required fields")
	}

	rep, err := h.simulator.Simulate(ctx, service.SimulateRequest{
		RequestID: req.RequestID,
		Input:     req.Input,
		Lenient:   req.Lenient,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMalformedInput) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		if errors.Is(err, service.ErrDuplicateRequest) {
			return nil, status.Error(codes.AlreadyExists, "duplicate request")
		}
		h.log.Error("simulation failed", zap.String("request_id", req.RequestID), zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}

	return newSimulateResponse(rep, h.symbol), nil
}

// TillServiceClient calls a remote till service.
type TillServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTillServiceClient(cc grpc.ClientConnInterface) *TillServiceClient {
	return &TillServiceClient{cc: cc}
}

func (c *TillServiceClient) Simulate(ctx context.Context, req *SimulateRequest, opts ...grpc.CallOption) (*SimulateResponse, error) {
	out := new(SimulateResponse)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	if err := c.cc.Invoke(ctx, simulateFullMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
