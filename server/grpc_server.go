package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/meadori/nescore/api"
	"github.com/meadori/nescore/bus"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/genie"
	"github.com/meadori/nescore/system"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// EmuInterface defines the methods required from the emulator bus.
type EmuInterface interface {
	ReadMemory(addr uint16) byte
	GetMemoryBlock(addr uint16, size uint16) []byte
	GetFramePixels() []byte
	SaveState(filename string) error
	LoadState(filename string) error
	Reset(kind system.ResetKind)
	SetPaused(bool)
	RequestStep()
	GetCPUState() (a, x, y, sp, p byte, pc uint16, cycles uint64)
	Disassemble() string
	AddGenieCode(text string) error
	Err() error
}

var errNotConnected = status.Error(codes.FailedPrecondition, "emulator bus not connected")

// GRPCServer serves the Emulator service and collects network controller
// input.
type GRPCServer struct {
	mu       sync.Mutex
	state    [4]controller.Button
	listener net.Listener
	server   *grpc.Server
	emuBus   EmuInterface
}

// NewGRPCServer initializes the gRPC server.
func NewGRPCServer() *GRPCServer {
	return &GRPCServer{}
}

// SetBus assigns the console the server controls.
func (s *GRPCServer) SetBus(b EmuInterface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emuBus = b
}

func (s *GRPCServer) bus() (EmuInterface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emuBus == nil {
		return nil, errNotConnected
	}
	return s.emuBus, nil
}

// stateError maps save state failures to gRPC codes.
func stateError(op string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return status.Errorf(codes.NotFound, "failed to %s state: %v", op, err)
	case errors.Is(err, bus.ErrNoCartridge):
		return status.Errorf(codes.FailedPrecondition, "failed to %s state: %v", op, err)
	case errors.Is(err, cartridge.ErrStateMismatch):
		return status.Errorf(codes.InvalidArgument, "failed to %s state: %v", op, err)
	}
	return status.Errorf(codes.Internal, "failed to %s state: %v", op, err)
}

// GetFrame returns the raw RGBA pixels of the last frame.
func (s *GRPCServer) GetFrame(ctx context.Context, in *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	b, err := s.bus()
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(b.GetFramePixels()), nil
}

// ReadMemory returns the byte at a CPU address.
func (s *GRPCServer) ReadMemory(ctx context.Context, in *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error) {
	b, err := s.bus()
	if err != nil {
		return nil, err
	}
	if in.GetValue() > 0xFFFF {
		return nil, status.Errorf(codes.InvalidArgument, "address $%X out of range", in.GetValue())
	}
	return wrapperspb.UInt32(uint32(b.ReadMemory(uint16(in.GetValue())))), nil
}

// ReadMemoryBlock returns a block of the CPU address space.
func (s *GRPCServer) ReadMemoryBlock(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	b, err := s.bus()
	if err != nil {
		return nil, err
	}
	addr, size, err := api.ParseMemoryBlockRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.Bytes(b.GetMemoryBlock(addr, size)), nil
}

// SaveState writes a save state file on the emulator's host.
func (s *GRPCServer) SaveState(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	b, err := s.bus()
	if err != nil {
		return nil, err
	}
	if err := b.SaveState(in.GetValue()); err != nil {
		return nil, stateError("save", err)
	}
	return &emptypb.Empty{}, nil
}

// LoadState commands the emulator to load a specific save state file.
func (s *GRPCServer) LoadState(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	b, err := s.bus()
	if err != nil {
		return nil, err
	}
	if err := b.LoadState(in.GetValue()); err != nil {
		return nil, stateError("load", err)
	}
	return &emptypb.Empty{}, nil
}

// ResetSystem presses reset, or power cycles the console when asked to.
func (s *GRPCServer) ResetSystem(ctx context.Context, in *wrapperspb.BoolValue) (*emptypb.Empty, error) {
	b, err := s.bus()
	if err != nil {
		return nil, err
	}
	kind := system.Soft
	if in.GetValue() {
		kind = system.Hard
	}
	b.Reset(kind)
	return &emptypb.Empty{}, nil
}

// Pause suspends the emulator loop.
func (s *GRPCServer) Pause(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	if b, err := s.bus(); err == nil {
		b.SetPaused(true)
	}
	return &emptypb.Empty{}, nil
}

// Resume restarts the emulator loop. A jammed CPU must be reset first.
func (s *GRPCServer) Resume(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	if b, err := s.bus(); err == nil {
		if err := halted(b); err != nil {
			return nil, err
		}
		b.SetPaused(false)
	}
	return &emptypb.Empty{}, nil
}

// Step advances a paused CPU by one instruction.
func (s *GRPCServer) Step(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	if b, err := s.bus(); err == nil {
		if err := halted(b); err != nil {
			return nil, err
		}
		b.RequestStep()
	}
	return &emptypb.Empty{}, nil
}

func halted(b EmuInterface) error {
	if err := b.Err(); err != nil {
		return status.Errorf(codes.FailedPrecondition, "CPU halted: %v", err)
	}
	return nil
}

// GetCPUState returns the CPU register values.
func (s *GRPCServer) GetCPUState(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
	b, err := s.bus()
	if err != nil {
		return nil, err
	}
	a, x, y, sp, p, pc, cycles := b.GetCPUState()
	st := api.CPUState{A: a, X: x, Y: y, SP: sp, P: p, PC: pc, Cycles: cycles, Instruction: b.Disassemble()}
	if err := b.Err(); err != nil {
		st.Halted = err.Error()
	}
	return st.Struct(), nil
}

// AddGenieCode activates a Game Genie code.
func (s *GRPCServer) AddGenieCode(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	b, err := s.bus()
	if err != nil {
		return nil, err
	}
	if err := b.AddGenieCode(in.GetValue()); err != nil {
		if errors.Is(err, genie.ErrInvalidLength) || errors.Is(err, genie.ErrInvalidCharacter) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &emptypb.Empty{}, nil
}

// StreamInput handles incoming controller streams from clients.
func (s *GRPCServer) StreamInput(stream api.InputStream) error {
	for {
		req, err := stream.Recv()
		if err == io.EOF {
			return stream.Send(&emptypb.Empty{})
		}
		if err != nil {
			return err
		}

		player, buttons, err := api.ParseInput(req)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		s.mu.Lock()
		s.state[player-1] = buttons
		s.mu.Unlock()
	}
}

// PlayerState returns the buttons the network holds down for a player,
// numbered from 1.
func (s *GRPCServer) PlayerState(player int) controller.Button {
	s.mu.Lock()
	defer s.mu.Unlock()
	if player < 1 || player > len(s.state) {
		return 0
	}
	return s.state[player-1]
}

// Serve registers the service and serves lis in a background goroutine.
func (s *GRPCServer) Serve(lis net.Listener) {
	s.listener = lis
	s.server = grpc.NewServer()
	api.RegisterEmulatorServer(s.server, s)

	log.Printf("gRPC server listening on %s", lis.Addr())

	go func() {
		if err := s.server.Serve(lis); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()
}

// Start begins listening for gRPC connections on the given port.
func (s *GRPCServer) Start(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.Serve(lis)
	return nil
}

// Stop gracefully shuts down the gRPC server.
func (s *GRPCServer) Stop() {
	if s.server != nil {
		s.server.GracefulStop()
	}
}
