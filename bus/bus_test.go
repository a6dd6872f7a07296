package bus

import (
	"bytes"
	"errors"
	"testing"

	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/system"
)

const (
	nmiHandler = 0x8100
	irqHandler = 0x8200
)

// buildROM assembles a 16KB NROM image with program at $8000, the NMI
// handler at $8100 and the IRQ handler at $8200. Handlers default to RTI.
func buildROM(program, nmi, irq []byte) []byte {
	header := []byte{'N', 'E', 'S', 0x1A, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	prg := make([]byte, 0x4000)
	copy(prg, program)
	prg[nmiHandler-0x8000] = 0x40
	prg[irqHandler-0x8000] = 0x40
	copy(prg[nmiHandler-0x8000:], nmi)
	copy(prg[irqHandler-0x8000:], irq)
	copy(prg[0x3FFA:], []byte{0x00, 0x81, 0x00, 0x80, 0x00, 0x82})
	data := append(header, prg...)
	return append(data, make([]byte, 0x2000)...)
}

func newTestBus(t *testing.T, rom []byte) *Bus {
	t.Helper()
	cart, err := cartridge.Load("test.nes", bytes.NewReader(rom), nil)
	if err != nil {
		t.Fatal(err)
	}
	b := New()
	b.LoadCartridge(cart)
	return b
}

// counterProgram stores $42 to $0200 and then increments $10 forever.
var counterProgram = []byte{
	0xA9, 0x42, // LDA #$42
	0x8D, 0x00, 0x02, // STA $0200
	0xE6, 0x10, // INC $10
	0x4C, 0x05, 0x80, // JMP $8005
}

func TestRAMMirroring(t *testing.T) {
	b := New()
	b.Write(0x0001, 0x42)
	for _, addr := range []uint16{0x0001, 0x0801, 0x1001, 0x1801} {
		if got := b.Read(addr); got != 0x42 {
			t.Errorf("Expected $%04X to be $42, but got $%02X", addr, got)
		}
	}
}

func TestOpenBus(t *testing.T) {
	b := New()
	b.Write(0x0000, 0xAB)
	b.Read(0x0000)
	if got := b.Read(0x4018); got != 0xAB {
		t.Errorf("Expected unmapped read to return $AB, but got $%02X", got)
	}
	if got := b.Read(0x6000); got != 0xAB {
		t.Errorf("Expected cartridge space without a cartridge to return $AB, but got $%02X", got)
	}

	b.Write(0x0000, 0xFF)
	b.Read(0x0000)
	if got := b.Read(0x4016); got != 0xE0 {
		t.Errorf("Expected controller read to keep the top 3 open bus bits, but got $%02X", got)
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	b := New()
	b.Write(0x200B, 0x10) // $2003
	b.Write(0x3FFC, 0x77) // $2004
	if got := b.PPU.OAM()[0x10]; got != 0x77 {
		t.Errorf("Expected OAM[$10] to be $77, but got $%02X", got)
	}
}

func TestControllerPorts(t *testing.T) {
	b := New()
	b.SetButtons(0, controller.ButtonA|controller.ButtonStart)
	b.SetController(1, [8]bool{false, true})
	b.Write(0x4016, 1)
	b.Write(0x4016, 0)

	expected := []byte{1, 0, 0, 1, 0, 0, 0, 0}
	for i, want := range expected {
		if got := b.Read(0x4016) & 1; got != want {
			t.Errorf("Expected port 0 bit %d to be %d, but got %d", i, want, got)
		}
	}
	b.Read(0x4017)
	if got := b.Read(0x4017) & 1; got != 1 {
		t.Errorf("Expected port 1 to report B, but got %d", got)
	}
}

func TestProgramRuns(t *testing.T) {
	b := newTestBus(t, buildROM(counterProgram, nil, nil))
	if b.CPU.PC != 0x8000 {
		t.Fatalf("Expected PC to be $8000 after reset, but got $%04X", b.CPU.PC)
	}
	if samples := b.RunFrame(); len(samples) == 0 {
		t.Errorf("Expected a frame to produce audio samples")
	}
	if got := b.ReadMemory(0x0200); got != 0x42 {
		t.Errorf("Expected $0200 to be $42, but got $%02X", got)
	}
	if b.PPU.FrameNumber() != 1 {
		t.Errorf("Expected frame 1, but got %d", b.PPU.FrameNumber())
	}
}

func TestNMI(t *testing.T) {
	program := []byte{
		0xA9, 0x80, // LDA #$80
		0x8D, 0x00, 0x20, // STA $2000
		0x4C, 0x05, 0x80, // JMP $8005
	}
	nmi := []byte{0xE6, 0x10, 0x40} // INC $10; RTI

	cart, err := cartridge.Load("nmi.nes", bytes.NewReader(buildROM(program, nmi, nil)), nil)
	if err != nil {
		t.Fatal(err)
	}
	b := New()
	b.PPU.EmulateWarmup = false
	b.LoadCartridge(cart)

	for i := 0; i < 3; i++ {
		b.RunFrame()
	}
	if got := b.ReadMemory(0x0010); got < 2 || got > 3 {
		t.Errorf("Expected 2 or 3 NMIs in 3 frames, but got %d", got)
	}
}

func TestFrameCounterIRQ(t *testing.T) {
	program := []byte{
		0x58, // CLI
		0x4C, 0x01, 0x80, // JMP $8001
	}
	irq := []byte{
		0xE6, 0x11, // INC $11
		0xAD, 0x15, 0x40, // LDA $4015
		0x40, // RTI
	}
	b := newTestBus(t, buildROM(program, nil, irq))
	b.RunFrame()
	b.RunFrame()
	if got := b.ReadMemory(0x0011); got == 0 {
		t.Errorf("Expected the frame counter IRQ to reach the CPU")
	}
}

func TestOAMDMA(t *testing.T) {
	program := []byte{
		0xA2, 0x00, // LDX #$00
		0x8A,             // TXA
		0x9D, 0x00, 0x03, // STA $0300,X
		0xE8,       // INX
		0xD0, 0xF9, // BNE $8002
		0xA9, 0x03, // LDA #$03
		0x8D, 0x14, 0x40, // STA $4014
		0x4C, 0x0E, 0x80, // JMP $800E
	}
	b := newTestBus(t, buildROM(program, nil, nil))
	for i := 0; i < 2000 && b.CPU.PC != 0x800E; i++ {
		b.CPU.Clock()
	}
	if b.CPU.PC != 0x800E {
		t.Fatalf("Expected to reach $800E, but PC is $%04X", b.CPU.PC)
	}

	// The DMA stalls the next instruction by 513 or 514 cycles.
	if cycles := b.CPU.Clock(); cycles != 516 && cycles != 517 {
		t.Errorf("Expected JMP after OAM DMA to take 516 or 517 cycles, but got %d", cycles)
	}

	oam := b.PPU.OAM()
	for i, got := range oam {
		want := byte(i)
		if i&3 == 2 {
			want &= 0xE3
		}
		if got != want {
			t.Errorf("Expected OAM[%d] to be $%02X, but got $%02X", i, want, got)
		}
	}
}

func TestGenie(t *testing.T) {
	b := newTestBus(t, buildROM(counterProgram, nil, nil))
	if got := b.ReadMemory(0x8000); got != 0xA9 {
		t.Fatalf("Expected $A9 at $8000, but got $%02X", got)
	}
	if err := b.AddGenieCode("AAAAAA"); err != nil {
		t.Fatal(err)
	}
	if got := b.ReadMemory(0x8000); got != 0x00 {
		t.Errorf("Expected the code to patch $8000 to $00, but got $%02X", got)
	}
	if err := b.AddGenieCode("AAAAA"); err == nil {
		t.Errorf("Expected an error for a short code")
	}
	if !b.RemoveGenieCode("aaaaaa") {
		t.Errorf("Expected the code to be removed")
	}
	if got := b.ReadMemory(0x8000); got != 0xA9 {
		t.Errorf("Expected $A9 after removing the code, but got $%02X", got)
	}
}

func TestReset(t *testing.T) {
	b := newTestBus(t, buildROM(counterProgram, nil, nil))
	b.RunFrame()

	b.Reset(system.Soft)
	if got := b.ReadMemory(0x0200); got != 0x42 {
		t.Errorf("Expected a soft reset to keep RAM, but got $%02X", got)
	}
	if b.CPU.PC != 0x8000 {
		t.Errorf("Expected PC to be $8000, but got $%04X", b.CPU.PC)
	}

	b.Reset(system.Hard)
	if got := b.ReadMemory(0x0200); got != 0x00 {
		t.Errorf("Expected a hard reset to clear RAM, but got $%02X", got)
	}
}

func TestPauseAndStep(t *testing.T) {
	b := newTestBus(t, buildROM(counterProgram, nil, nil))
	b.SetPaused(true)
	if _, ran := b.StepFrame(); ran {
		t.Errorf("Expected a paused console not to run")
	}

	b.RequestStep()
	if _, ran := b.StepFrame(); !ran {
		t.Fatalf("Expected a requested step to run")
	}
	if b.CPU.PC != 0x8002 {
		t.Errorf("Expected one instruction to run, but PC is $%04X", b.CPU.PC)
	}
	if _, ran := b.StepFrame(); ran {
		t.Errorf("Expected a step request to be used once")
	}

	b.SetPaused(false)
	if _, ran := b.StepFrame(); !ran || b.PPU.FrameNumber() != 1 {
		t.Errorf("Expected a resumed console to run a frame")
	}
}

func TestHaltPausesConsole(t *testing.T) {
	// INC $10 then HLT.
	b := newTestBus(t, buildROM([]byte{0xE6, 0x10, 0x02}, nil, nil))

	if _, ran := b.StepFrame(); !ran {
		t.Fatalf("Expected the first frame to run")
	}
	if !b.Paused() {
		t.Errorf("Expected a jammed CPU to pause the console")
	}
	var jam *cpu.JamError
	if err := b.Err(); !errors.As(err, &jam) || jam.Opcode != 0x02 || jam.PC != 0x8002 {
		t.Fatalf("Expected a jam on $02 at $8002, but got %v", err)
	}
	if b.PPU.FrameNumber() != 0 {
		t.Errorf("Expected the frame to end early, but got frame %d", b.PPU.FrameNumber())
	}

	cycles := b.CPU.Cycle
	if _, ran := b.StepFrame(); ran {
		t.Errorf("Expected a halted console not to run")
	}
	if b.CPU.Cycle != cycles {
		t.Errorf("Expected the CPU to stay still, but it ran %d cycles", b.CPU.Cycle-cycles)
	}
	if got := b.ReadMemory(0x0010); got != 0x01 {
		t.Errorf("Expected $10 to be $01, but got $%02X", got)
	}

	b.Reset(system.Soft)
	if b.Paused() || b.Err() != nil {
		t.Errorf("Expected a reset to clear the halt, but paused=%v err=%v", b.Paused(), b.Err())
	}
}

func TestSaveLoadState(t *testing.T) {
	b := newTestBus(t, buildROM(counterProgram, nil, nil))
	b.RunFrame()

	var buf bytes.Buffer
	if err := b.Save(&buf); err != nil {
		t.Fatal(err)
	}
	cpuState := b.CPU.SaveState()
	apuState := b.APU.SaveState()
	counter := b.ReadMemory(0x0010)
	frame := b.PPU.FrameNumber()

	b.RunFrame()
	if b.ReadMemory(0x0010) == counter {
		t.Fatalf("Expected the program to keep running")
	}

	if err := b.Load(&buf); err != nil {
		t.Fatal(err)
	}
	if b.CPU.SaveState() != cpuState {
		t.Errorf("Expected CPU state to be restored")
	}
	if b.APU.SaveState() != apuState {
		t.Errorf("Expected APU state to be restored")
	}
	if got := b.ReadMemory(0x0010); got != counter {
		t.Errorf("Expected $10 to be $%02X, but got $%02X", counter, got)
	}
	if b.PPU.FrameNumber() != frame {
		t.Errorf("Expected frame %d, but got %d", frame, b.PPU.FrameNumber())
	}
}

func TestLoadStateOtherCartridge(t *testing.T) {
	b := newTestBus(t, buildROM(counterProgram, nil, nil))
	b.RunFrame()
	var buf bytes.Buffer
	if err := b.Save(&buf); err != nil {
		t.Fatal(err)
	}

	other := newTestBus(t, buildROM([]byte{0xEA, 0x4C, 0x00, 0x80}, nil, nil))
	other.RunFrame()
	before := other.CPU.SaveState()

	if err := other.Load(&buf); !errors.Is(err, cartridge.ErrStateMismatch) {
		t.Errorf("Expected ErrStateMismatch, but got %v", err)
	}
	if other.CPU.SaveState() != before {
		t.Errorf("Expected a rejected state to leave the CPU untouched")
	}
}

func TestSaveWithoutCartridge(t *testing.T) {
	b := New()
	if err := b.Save(&bytes.Buffer{}); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("Expected ErrNoCartridge, but got %v", err)
	}
}

func TestSaveStateFile(t *testing.T) {
	b := newTestBus(t, buildROM(counterProgram, nil, nil))
	b.RunFrame()
	path := t.TempDir() + "/state.sav"
	if err := b.SaveState(path); err != nil {
		t.Fatal(err)
	}
	pc := b.CPU.PC
	b.Reset(system.Hard)
	if err := b.LoadState(path); err != nil {
		t.Fatal(err)
	}
	if b.CPU.PC != pc {
		t.Errorf("Expected PC $%04X, but got $%04X", pc, b.CPU.PC)
	}
	if err := b.LoadState(path + ".missing"); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
}
