package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// InputClient is the client side of StreamInput.
type InputClient = grpc.BidiStreamingClient[structpb.Struct, emptypb.Empty]

// Client calls the Emulator service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection to an emulator.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

// GetFrame returns the last frame as 256x240 RGBA pixels.
func (c *Client) GetFrame(ctx context.Context) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.call(ctx, "GetFrame", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// ReadMemory peeks one byte of the CPU address space.
func (c *Client) ReadMemory(ctx context.Context, addr uint16) (byte, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.call(ctx, "ReadMemory", wrapperspb.UInt32(uint32(addr)), out); err != nil {
		return 0, err
	}
	return byte(out.GetValue()), nil
}

// ReadMemoryBlock peeks size bytes starting at addr.
func (c *Client) ReadMemoryBlock(ctx context.Context, addr, size uint16) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.call(ctx, "ReadMemoryBlock", NewMemoryBlockRequest(addr, size), out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// SaveState asks the emulator to write a save state to a file on its host.
func (c *Client) SaveState(ctx context.Context, filename string) error {
	return c.call(ctx, "SaveState", wrapperspb.String(filename), new(emptypb.Empty))
}

// LoadState asks the emulator to load a save state from a file on its host.
func (c *Client) LoadState(ctx context.Context, filename string) error {
	return c.call(ctx, "LoadState", wrapperspb.String(filename), new(emptypb.Empty))
}

// Reset presses reset, or power cycles the console when hard is set.
func (c *Client) Reset(ctx context.Context, hard bool) error {
	return c.call(ctx, "ResetSystem", wrapperspb.Bool(hard), new(emptypb.Empty))
}

func (c *Client) Pause(ctx context.Context) error {
	return c.call(ctx, "Pause", &emptypb.Empty{}, new(emptypb.Empty))
}

func (c *Client) Resume(ctx context.Context) error {
	return c.call(ctx, "Resume", &emptypb.Empty{}, new(emptypb.Empty))
}

// Step runs one instruction on a paused console.
func (c *Client) Step(ctx context.Context) error {
	return c.call(ctx, "Step", &emptypb.Empty{}, new(emptypb.Empty))
}

func (c *Client) GetCPUState(ctx context.Context) (CPUState, error) {
	out := new(structpb.Struct)
	if err := c.call(ctx, "GetCPUState", &emptypb.Empty{}, out); err != nil {
		return CPUState{}, err
	}
	return ParseCPUState(out), nil
}

func (c *Client) AddGenieCode(ctx context.Context, code string) error {
	return c.call(ctx, "AddGenieCode", wrapperspb.String(code), new(emptypb.Empty))
}

// StreamInput opens the controller input stream.
func (c *Client) StreamInput(ctx context.Context, opts ...grpc.CallOption) (InputClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("StreamInput"), opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[structpb.Struct, emptypb.Empty]{ClientStream: stream}, nil
}
