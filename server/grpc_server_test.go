package server

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/meadori/nescore/api"
	"github.com/meadori/nescore/bus"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/genie"
	"github.com/meadori/nescore/system"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var _ EmuInterface = (*bus.Bus)(nil)

// mockEmu records the calls made by the server.
type mockEmu struct {
	mem    [0x10000]byte
	paused bool
	steps  int
	reset  []system.ResetKind
	codes  []string
	loaded string
	jam    error
}

func (m *mockEmu) Err() error { return m.jam }

func (m *mockEmu) ReadMemory(addr uint16) byte { return m.mem[addr] }

func (m *mockEmu) GetMemoryBlock(addr uint16, size uint16) []byte {
	block := make([]byte, size)
	for i := range block {
		block[i] = m.mem[addr+uint16(i)]
	}
	return block
}

func (m *mockEmu) GetFramePixels() []byte { return []byte{1, 2, 3, 4} }

func (m *mockEmu) SaveState(filename string) error { return bus.ErrNoCartridge }

func (m *mockEmu) LoadState(filename string) error {
	if _, err := os.Stat(filename); err != nil {
		return err
	}
	m.loaded = filename
	return nil
}

func (m *mockEmu) Reset(kind system.ResetKind) { m.reset = append(m.reset, kind) }
func (m *mockEmu) SetPaused(p bool)            { m.paused = p }
func (m *mockEmu) RequestStep()                { m.steps++ }

func (m *mockEmu) GetCPUState() (a, x, y, sp, p byte, pc uint16, cycles uint64) {
	return 1, 2, 3, 0xFD, 0x24, 0xC000, 7
}

func (m *mockEmu) Disassemble() string { return "C000  4C F5 C5  JMP $C5F5" }

func (m *mockEmu) AddGenieCode(text string) error {
	if _, err := genie.Parse(text); err != nil {
		return err
	}
	m.codes = append(m.codes, text)
	return nil
}

func startServer(t *testing.T, emu EmuInterface) (*GRPCServer, *api.Client) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer()
	if emu != nil {
		srv.SetBus(emu)
	}
	srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, api.NewClient(conn)
}

func TestMemoryAndFrame(t *testing.T) {
	emu := &mockEmu{}
	emu.mem[0x0010] = 0x42
	emu.mem[0x0011] = 0x43
	_, client := startServer(t, emu)
	ctx := context.Background()

	val, err := client.ReadMemory(ctx, 0x0010)
	if err != nil || val != 0x42 {
		t.Errorf("Expected $42, but got $%02X (%v)", val, err)
	}
	block, err := client.ReadMemoryBlock(ctx, 0x0010, 2)
	if err != nil || len(block) != 2 || block[1] != 0x43 {
		t.Errorf("Expected [$42 $43], but got %v (%v)", block, err)
	}
	frame, err := client.GetFrame(ctx)
	if err != nil || len(frame) != 4 {
		t.Errorf("Expected 4 pixel bytes, but got %v (%v)", frame, err)
	}
}

func TestControlPlane(t *testing.T) {
	emu := &mockEmu{}
	_, client := startServer(t, emu)
	ctx := context.Background()

	if err := client.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	if !emu.paused {
		t.Errorf("Expected the emulator to be paused")
	}
	client.Step(ctx)
	client.Step(ctx)
	if emu.steps != 2 {
		t.Errorf("Expected 2 steps, but got %d", emu.steps)
	}
	client.Resume(ctx)
	if emu.paused {
		t.Errorf("Expected the emulator to be resumed")
	}

	client.Reset(ctx, false)
	client.Reset(ctx, true)
	if len(emu.reset) != 2 || emu.reset[0] != system.Soft || emu.reset[1] != system.Hard {
		t.Errorf("Expected a soft then a hard reset, but got %v", emu.reset)
	}

	st, err := client.GetCPUState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	expected := api.CPUState{A: 1, X: 2, Y: 3, SP: 0xFD, P: 0x24, PC: 0xC000, Cycles: 7, Instruction: "C000  4C F5 C5  JMP $C5F5"}
	if st != expected {
		t.Errorf("Expected %+v, but got %+v", expected, st)
	}
}

func TestHaltedCPU(t *testing.T) {
	emu := &mockEmu{paused: true, jam: &cpu.JamError{Opcode: 0x02, PC: 0x8000}}
	_, client := startServer(t, emu)
	ctx := context.Background()

	if err := client.Step(ctx); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("Expected Step on a halted CPU to fail with FailedPrecondition, but got %v", err)
	}
	if emu.steps != 0 {
		t.Errorf("Expected no step to be requested, but got %d", emu.steps)
	}
	if err := client.Resume(ctx); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("Expected Resume on a halted CPU to fail with FailedPrecondition, but got %v", err)
	}
	if !emu.paused {
		t.Errorf("Expected the emulator to stay paused")
	}

	st, err := client.GetCPUState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if expected := "invalid opcode $02 encountered at $8000"; st.Halted != expected {
		t.Errorf("Expected %q, but got %q", expected, st.Halted)
	}

	emu.jam = nil
	if err := client.Step(ctx); err != nil {
		t.Errorf("Expected Step to succeed after the jam clears, but got %v", err)
	}
}

func TestErrorCodes(t *testing.T) {
	emu := &mockEmu{}
	_, client := startServer(t, emu)
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"bad genie code", client.AddGenieCode(ctx, "GOSSIB"), codes.InvalidArgument},
		{"missing state file", client.LoadState(ctx, "/nonexistent/state.sav"), codes.NotFound},
		{"no cartridge", client.SaveState(ctx, "state.sav"), codes.FailedPrecondition},
	}
	for _, tt := range tests {
		if got := status.Code(tt.err); got != tt.code {
			t.Errorf("%s: Expected %v, but got %v (%v)", tt.name, tt.code, got, tt.err)
		}
	}

	if err := client.AddGenieCode(ctx, "GOSSIP"); err != nil {
		t.Errorf("Expected GOSSIP to be accepted, but got %v", err)
	}
	if len(emu.codes) != 1 {
		t.Errorf("Expected 1 active code, but got %d", len(emu.codes))
	}
}

func TestNotConnected(t *testing.T) {
	_, client := startServer(t, nil)
	_, err := client.GetFrame(context.Background())
	if status.Code(err) != codes.FailedPrecondition {
		t.Errorf("Expected FailedPrecondition, but got %v", err)
	}
	if err := client.Pause(context.Background()); err != nil {
		t.Errorf("Expected Pause without a bus to succeed, but got %v", err)
	}
}

func TestStreamInput(t *testing.T) {
	srv, client := startServer(t, &mockEmu{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.StreamInput(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := stream.Send(api.NewInput(0, controller.ButtonA|controller.ButtonRight)); err != nil {
		t.Fatal(err)
	}
	if err := stream.Send(api.NewInput(2, controller.ButtonStart)); err != nil {
		t.Fatal(err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatal(err)
	}
	// The server answers once it has consumed every message.
	if _, err := stream.Recv(); err != nil {
		t.Fatal(err)
	}

	if got := srv.PlayerState(1); got != controller.ButtonA|controller.ButtonRight {
		t.Errorf("Expected player 1 to hold A,RIGHT, but got %v", got)
	}
	if got := srv.PlayerState(2); got != controller.ButtonStart {
		t.Errorf("Expected player 2 to hold START, but got %v", got)
	}
	if got := srv.PlayerState(5); got != 0 {
		t.Errorf("Expected an unknown player to hold nothing, but got %v", got)
	}
}

func TestStreamInputRejectsBadPlayer(t *testing.T) {
	_, client := startServer(t, &mockEmu{})
	stream, err := client.StreamInput(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	stream.Send(api.NewInput(7, 0))
	stream.CloseSend()
	_, err = stream.Recv()
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Expected InvalidArgument, but got %v", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("Expected the stream to fail on its own")
	}
}
