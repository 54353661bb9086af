package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/undeconstructed/banker/game"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RoomsServiceName is the admin service. Its messages are all well known
// types, so there is no schema to generate from.
const RoomsServiceName = "banker.v1.Rooms"

// RoomsServer is the admin side of a running server.
type RoomsServer interface {
	ListRooms(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetSnapshot(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	CloseRoom(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

var roomsServiceDesc = grpc.ServiceDesc{
	ServiceName: RoomsServiceName,
	HandlerType: (*RoomsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRooms", Handler: listRoomsHandler},
		{MethodName: "GetSnapshot", Handler: getSnapshotHandler},
		{MethodName: "CloseRoom", Handler: closeRoomHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "banker/v1/rooms.proto",
}

// RegisterRoomsServer adds the admin service to gs.
func RegisterRoomsServer(gs grpc.ServiceRegistrar, srv RoomsServer) {
	gs.RegisterService(&roomsServiceDesc, srv)
}

func listRoomsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomsServer).ListRooms(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + RoomsServiceName + "/ListRooms"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoomsServer).ListRooms(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getSnapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomsServer).GetSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + RoomsServiceName + "/GetSnapshot"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoomsServer).GetSnapshot(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func closeRoomHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomsServer).CloseRoom(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + RoomsServiceName + "/CloseRoom"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoomsServer).CloseRoom(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCServer makes the admin gateway, with health checking alongside.
func (s *Server) GRPCServer() *grpc.Server {
	gs := grpc.NewServer(grpc.UnaryInterceptor(logUnary))
	RegisterRoomsServer(gs, &roomsService{server: s})

	hs := health.NewServer()
	hs.SetServingStatus(RoomsServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	res, err := handler(ctx, req)
	log.Debug().Str("gw", "grpc").Str("method", info.FullMethod).Err(err).Msg("call")
	return res, err
}

type roomsService struct {
	server *Server
}

func (r *roomsService) ListRooms(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	var codes []any
	for _, code := range r.server.ListRooms() {
		codes = append(codes, code)
	}
	return structpb.NewList(codes)
}

func (r *roomsService) GetSnapshot(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	st, err := r.server.Snapshot(ctx, in.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(data), nil
}

func (r *roomsService) CloseRoom(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := r.server.CloseRoom(ctx, in.GetValue()); err != nil {
		return nil, grpcError(err)
	}
	return &emptypb.Empty{}, nil
}

func grpcError(err error) error {
	if errors.Is(err, game.ErrRoomNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// RoomsClient calls the admin service.
type RoomsClient struct {
	cc grpc.ClientConnInterface
}

func NewRoomsClient(cc grpc.ClientConnInterface) *RoomsClient {
	return &RoomsClient{cc: cc}
}

func (c *RoomsClient) ListRooms(ctx context.Context) ([]string, error) {
	out := new(structpb.ListValue)
	err := c.cc.Invoke(ctx, "/"+RoomsServiceName+"/ListRooms", &emptypb.Empty{}, out)
	if err != nil {
		return nil, err
	}
	var codes []string
	for _, v := range out.GetValues() {
		codes = append(codes, v.GetStringValue())
	}
	return codes, nil
}

func (c *RoomsClient) GetSnapshot(ctx context.Context, code string) (game.State, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/"+RoomsServiceName+"/GetSnapshot", wrapperspb.String(code), out)
	if err != nil {
		return game.State{}, err
	}
	var st game.State
	if err := json.Unmarshal(out.GetValue(), &st); err != nil {
		return game.State{}, err
	}
	return st, nil
}

func (c *RoomsClient) CloseRoom(ctx context.Context, code string) error {
	return c.cc.Invoke(ctx, "/"+RoomsServiceName+"/CloseRoom", wrapperspb.String(code), &emptypb.Empty{})
}
