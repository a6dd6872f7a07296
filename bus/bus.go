// Package bus wires the CPU, PPU, APU, cartridge and controllers into a
// console. The CPU drives the master clock; every access it makes catches the
// other components up before the address is decoded.
package bus

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/genie"
	"github.com/meadori/nescore/ppu"
	"github.com/meadori/nescore/system"
)

// ErrNoCartridge is returned by operations that need a loaded cartridge.
var ErrNoCartridge = errors.New("no cartridge loaded")

// Bus represents the system bus.
type Bus struct {
	CPU         *cpu.CPU
	PPU         *ppu.PPU
	APU         *apu.APU
	Controllers *controller.Ports
	Genie       genie.Codes

	cart    *cartridge.Cartridge
	ram     [2048]byte
	openBus byte
	region  system.Region

	// mu guards the bus against the front ends. It is held for a whole
	// frame, never inside one.
	mu            sync.Mutex
	paused        bool
	stepRequested bool
}

// New creates a new Bus instance.
func New() *Bus {
	b := &Bus{
		CPU:         cpu.New(),
		PPU:         ppu.New(),
		APU:         apu.New(),
		Controllers: controller.NewPorts(),
		Genie:       genie.Codes{},
	}
	b.PPU.EmulateWarmup = true
	b.CPU.ConnectBus(b)
	b.setRegion(system.NTSC)
	return b
}

func (b *Bus) setRegion(r system.Region) {
	b.region = r
	b.CPU.SetRegion(r)
	b.PPU.SetRegion(r)
	b.APU.SetRegion(r)
}

// Region returns the timing the console runs with.
func (b *Bus) Region() system.Region {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.region
}

// LoadCartridge inserts a cartridge, switches to its region and powers the
// console on.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cart = cart
	b.PPU.ConnectCartridge(cart)
	b.setRegion(cart.Region)
	b.reset(system.Hard)
}

// Cartridge returns the inserted cartridge, or nil.
func (b *Bus) Cartridge() *cartridge.Cartridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cart
}

// HasCartridge reports whether a cartridge is inserted.
func (b *Bus) HasCartridge() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cart != nil
}

// Reset presses the reset button (Soft) or power cycles the console (Hard).
// A console paused by a CPU jam resumes.
func (b *Bus) Reset(kind system.ResetKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CPU.Corrupted {
		b.paused = false
	}
	b.reset(kind)
}

func (b *Bus) reset(kind system.ResetKind) {
	if kind == system.Hard {
		b.ram = [2048]byte{}
	}
	b.openBus = 0
	if b.cart != nil {
		b.cart.Reset(kind)
	}
	b.PPU.Reset(kind)
	b.APU.Reset(kind)
	b.Controllers.Reset(kind)
	// Last, so the reset vector is read from a settled mapper.
	b.CPU.Reset(kind)
}

// Read reads a byte from the bus.
func (b *Bus) Read(addr uint16) byte {
	var data byte
	switch {
	case addr < 0x2000:
		data = b.ram[addr&0x07FF]
	case addr < 0x4000:
		data = b.PPU.Read(addr)
		// Reading $2002 drops the vblank flag and with it the NMI output.
		b.CPU.SetNMI(b.PPU.NMI())
	case addr == 0x4015:
		// The status register does not drive bit 5, nor does it update the
		// bus latch.
		return b.APU.CPURead(addr) | b.openBus&0x20
	case addr == 0x4016 || addr == 0x4017:
		data = b.Controllers.Read(int(addr&1)) | b.openBus&0xE0
	case addr >= 0x4020:
		data = b.readCartridge(addr, true)
	default:
		data = b.openBus
	}
	b.openBus = data
	return data
}

// Peek returns what Read would without side effects.
func (b *Bus) Peek(addr uint16) byte {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4000:
		return b.PPU.Peek(addr)
	case addr == 0x4015:
		return b.APU.CPUPeek(addr) | b.openBus&0x20
	case addr == 0x4016 || addr == 0x4017:
		return b.Controllers.Peek(int(addr&1)) | b.openBus&0xE0
	case addr >= 0x4020:
		return b.readCartridge(addr, false)
	}
	return b.openBus
}

func (b *Bus) readCartridge(addr uint16, sideEffects bool) byte {
	if b.cart == nil {
		return b.openBus
	}
	var (
		data byte
		ok   bool
	)
	if sideEffects {
		data, ok = b.cart.CPURead(addr)
	} else {
		data, ok = b.cart.CPUPeek(addr)
	}
	if !ok {
		return b.openBus
	}
	if addr >= 0x8000 {
		data = b.Genie.Patch(addr, data)
	}
	return data
}

// Write writes a byte to the bus.
func (b *Bus) Write(addr uint16, data byte) {
	b.openBus = data
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = data
	case addr < 0x4000:
		b.PPU.Write(addr, data)
		// Enabling NMI during vblank raises the line at once.
		b.CPU.SetNMI(b.PPU.NMI())
	case addr == 0x4014:
		b.CPU.StartOAMDMA(data)
	case addr == 0x4016:
		b.Controllers.Write(data)
	case addr <= 0x4017:
		b.APU.CPUWrite(addr, data)
	case addr >= 0x4020:
		if b.cart != nil {
			b.cart.CPUWrite(addr, data)
		}
	}
}

// Clock runs the components that tick once per CPU cycle and forwards their
// interrupt and DMA requests to the CPU.
func (b *Bus) Clock() {
	b.APU.Clock()
	b.Controllers.Clock()

	mapperIRQ := false
	if b.cart != nil {
		b.cart.Clock()
		mapperIRQ = b.cart.IRQPending()
	}
	b.CPU.SetIRQ(cpu.IRQMapper, mapperIRQ)
	b.CPU.SetIRQ(cpu.IRQFrameCounter, b.APU.FrameIRQ())
	b.CPU.SetIRQ(cpu.IRQDMC, b.APU.DMCIRQ())

	if addr, ok := b.APU.DMCRequest(); ok {
		b.CPU.StartDMCDMA(addr)
	}
}

// ClockTo catches the PPU up to the CPU's master clock.
func (b *Bus) ClockTo(clock uint64) {
	b.PPU.ClockTo(clock)
	b.CPU.SetNMI(b.PPU.NMI())
}

// LoadDMC hands a byte fetched by DMC DMA to the APU.
func (b *Bus) LoadDMC(data byte) {
	b.APU.LoadDMC(data)
}

// runFrame runs the CPU until the PPU starts the next frame and returns the
// audio produced along the way. A jammed CPU ends the frame early and
// pauses the console.
func (b *Bus) runFrame() []float32 {
	frame := b.PPU.FrameNumber()
	for b.PPU.FrameNumber() == frame && !b.CPU.Corrupted {
		b.CPU.Clock()
	}
	b.checkJam()
	return b.APU.EndFrame()
}

func (b *Bus) checkJam() {
	if b.CPU.Corrupted {
		b.paused = true
		b.stepRequested = false
	}
}

// Err returns the *cpu.JamError of a jammed CPU, or nil while the CPU is
// healthy. A reset or a state load clears it.
func (b *Bus) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.CPU.Err()
}

// RunFrame emulates one whole frame, ignoring the pause state. It returns
// the audio samples of the frame, or nil without a cartridge.
func (b *Bus) RunFrame() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cart == nil {
		return nil
	}
	return b.runFrame()
}

// StepFrame is called once per host frame. It runs a frame while the
// console is running; while paused it runs a single instruction if one was
// requested with RequestStep. It reports whether anything ran. The console
// pauses itself when the CPU jams; Err describes the jam.
func (b *Bus) StepFrame() ([]float32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.cart == nil:
		return nil, false
	case !b.paused:
		return b.runFrame(), true
	case b.stepRequested:
		b.stepRequested = false
		b.CPU.Clock()
		b.checkJam()
		return nil, true
	}
	return nil, false
}

// SetPaused suspends or resumes StepFrame.
func (b *Bus) SetPaused(paused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = paused
	b.stepRequested = false
}

// Paused reports whether the console is paused.
func (b *Bus) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// RequestStep asks a paused console to run one instruction on the next
// StepFrame.
func (b *Bus) RequestStep() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.paused {
		b.stepRequested = true
	}
}

// SetController updates the eight standard buttons of one controller, in
// the order A, B, Select, Start, Up, Down, Left, Right. Controllers are
// numbered from 0.
func (b *Bus) SetController(player int, buttons [8]bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if player >= 0 && player < len(b.Controllers.Pads) {
		b.Controllers.Pads[player].SetButtons(buttons)
	}
}

// SetButtons replaces the button state of one controller, numbered from 0.
func (b *Bus) SetButtons(player int, buttons controller.Button) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if player >= 0 && player < len(b.Controllers.Pads) {
		b.Controllers.Pads[player].SetState(buttons)
	}
}

// SetFourScore connects or disconnects the Four Score adapter.
func (b *Bus) SetFourScore(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Controllers.FourScore = enabled
}

// AddGenieCode decodes and activates a Game Genie code.
func (b *Bus) AddGenieCode(text string) error {
	code, err := genie.Parse(text)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Genie.Add(code)
	return nil
}

// RemoveGenieCode deactivates a code and reports whether it was active.
func (b *Bus) RemoveGenieCode(text string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Genie.Remove(text)
}

// ReadMemory returns the byte the CPU would read at addr, without side
// effects.
func (b *Bus) ReadMemory(addr uint16) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Peek(addr)
}

// WriteMemory performs a CPU write between frames.
func (b *Bus) WriteMemory(addr uint16, data byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Write(addr, data)
}

// GetMemoryBlock peeks size bytes starting at addr. The block wraps at the
// end of the address space.
func (b *Bus) GetMemoryBlock(addr uint16, size uint16) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	block := make([]byte, size)
	for i := range block {
		block[i] = b.Peek(addr + uint16(i))
	}
	return block
}

// Frame returns a copy of the last rendered frame.
func (b *Bus) Frame() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.PPU.GetFrame()
}

// GetFramePixels returns the last rendered frame as RGBA bytes, row by row.
func (b *Bus) GetFramePixels() []byte {
	return b.Frame().Pix
}

// GetCPUState returns the CPU registers and the cycles run since reset.
func (b *Bus) GetCPUState() (a, x, y, sp, p byte, pc uint16, cycles uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.CPU
	return c.A, c.X, c.Y, c.SP, c.P | cpu.U, c.PC, c.Cycle
}

// Disassemble returns the instruction at the CPU's program counter.
func (b *Bus) Disassemble() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, _ := b.CPU.Disassemble(b.CPU.PC)
	return text
}

func (b *Bus) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cart == nil {
		return fmt.Sprintf("nes (%s, no cartridge)", b.region)
	}
	return fmt.Sprintf("nes (%s, %s)", b.region, b.cart)
}
