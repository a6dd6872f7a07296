// Package api describes the Emulator gRPC service used to drive and debug a
// running console. Messages are protobuf well-known types, so the service
// is described here by hand instead of being generated.
package api

import (
	"context"
	"fmt"

	"github.com/meadori/nescore/controller"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nescore.Emulator"

// DefaultPort is the port the emulator listens on unless told otherwise.
const DefaultPort = 50051

// InputStream is the server side of StreamInput: clients send input
// messages built with NewInput and get one Empty back when they close.
type InputStream = grpc.BidiStreamingServer[structpb.Struct, emptypb.Empty]

// EmulatorServer is the server API for the Emulator service.
type EmulatorServer interface {
	GetFrame(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	ReadMemory(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error)
	ReadMemoryBlock(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	SaveState(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	LoadState(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	// ResetSystem takes true for a power cycle, false for the reset button.
	ResetSystem(context.Context, *wrapperspb.BoolValue) (*emptypb.Empty, error)
	Pause(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Resume(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Step(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetCPUState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	AddGenieCode(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	StreamInput(InputStream) error
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Res any](name string, call func(EmulatorServer, context.Context, *Req) (*Res, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(EmulatorServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func streamInputHandler(srv any, stream grpc.ServerStream) error {
	return srv.(EmulatorServer).StreamInput(&grpc.GenericServerStream[structpb.Struct, emptypb.Empty]{ServerStream: stream})
}

// ServiceDesc is the grpc.ServiceDesc for the Emulator service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EmulatorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetFrame", EmulatorServer.GetFrame),
		unary("ReadMemory", EmulatorServer.ReadMemory),
		unary("ReadMemoryBlock", EmulatorServer.ReadMemoryBlock),
		unary("SaveState", EmulatorServer.SaveState),
		unary("LoadState", EmulatorServer.LoadState),
		unary("ResetSystem", EmulatorServer.ResetSystem),
		unary("Pause", EmulatorServer.Pause),
		unary("Resume", EmulatorServer.Resume),
		unary("Step", EmulatorServer.Step),
		unary("GetCPUState", EmulatorServer.GetCPUState),
		unary("AddGenieCode", EmulatorServer.AddGenieCode),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamInput",
			Handler:       streamInputHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "nescore/emulator",
}

// RegisterEmulatorServer registers srv with a gRPC server.
func RegisterEmulatorServer(s grpc.ServiceRegistrar, srv EmulatorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// NewInput builds a StreamInput message. Players are numbered from 1.
func NewInput(player int, buttons controller.Button) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"player":  structpb.NewNumberValue(float64(player)),
		"buttons": structpb.NewStringValue(buttons.String()),
	}}
}

// ParseInput decodes a StreamInput message. A missing player means player 1.
func ParseInput(in *structpb.Struct) (player int, buttons controller.Button, err error) {
	fields := in.GetFields()
	player = int(fields["player"].GetNumberValue())
	if player == 0 {
		player = 1
	}
	if player < 1 || player > 4 {
		return 0, 0, fmt.Errorf("player %d out of range", player)
	}
	buttons, err = controller.ParseButtons(fields["buttons"].GetStringValue())
	if err != nil {
		return 0, 0, err
	}
	return player, buttons, nil
}

// NewMemoryBlockRequest builds a ReadMemoryBlock request.
func NewMemoryBlockRequest(addr, size uint16) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"address": structpb.NewNumberValue(float64(addr)),
		"size":    structpb.NewNumberValue(float64(size)),
	}}
}

// ParseMemoryBlockRequest decodes a ReadMemoryBlock request.
func ParseMemoryBlockRequest(in *structpb.Struct) (addr, size uint16, err error) {
	fields := in.GetFields()
	a := fields["address"].GetNumberValue()
	s := fields["size"].GetNumberValue()
	if a < 0 || a > 0xFFFF || s < 0 || s > 0xFFFF {
		return 0, 0, fmt.Errorf("invalid memory block $%X+%v", int(a), s)
	}
	return uint16(a), uint16(s), nil
}

// CPUState is the register dump returned by GetCPUState. Halted describes
// the jam of a halted CPU and is empty otherwise.
type CPUState struct {
	A, X, Y, SP, P byte
	PC             uint16
	Cycles         uint64
	Instruction    string
	Halted         string
}

// Struct encodes the state as a GetCPUState response.
func (s CPUState) Struct() *structpb.Struct {
	num := structpb.NewNumberValue
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"a":           num(float64(s.A)),
		"x":           num(float64(s.X)),
		"y":           num(float64(s.Y)),
		"sp":          num(float64(s.SP)),
		"p":           num(float64(s.P)),
		"pc":          num(float64(s.PC)),
		"cycles":      num(float64(s.Cycles)),
		"instruction": structpb.NewStringValue(s.Instruction),
		"halted":      structpb.NewStringValue(s.Halted),
	}}
}

// ParseCPUState decodes a GetCPUState response.
func ParseCPUState(in *structpb.Struct) CPUState {
	f := in.GetFields()
	num := func(k string) float64 { return f[k].GetNumberValue() }
	return CPUState{
		A:           byte(num("a")),
		X:           byte(num("x")),
		Y:           byte(num("y")),
		SP:          byte(num("sp")),
		P:           byte(num("p")),
		PC:          uint16(num("pc")),
		Cycles:      uint64(num("cycles")),
		Instruction: f["instruction"].GetStringValue(),
		Halted:      f["halted"].GetStringValue(),
	}
}

func (s CPUState) String() string {
	return fmt.Sprintf("A: %02X  X: %02X  Y: %02X  SP: %02X  PC: %04X  Status: %08b  CYC: %d",
		s.A, s.X, s.Y, s.SP, s.PC, s.P, s.Cycles)
}
