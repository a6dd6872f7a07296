// Package cpu implements the Ricoh 2A03 core: a 6502 without decimal mode.
//
// Every bus access advances the master clock, and the bus is asked to catch
// the PPU and APU up before and after the access so that register side
// effects are observed at the right time.
package cpu

import (
	"fmt"
	"log"

	"github.com/meadori/nescore/system"
)

// Bus defines the interface for the CPU to interact with the bus.
type Bus interface {
	Read(addr uint16) byte
	Peek(addr uint16) byte
	Write(addr uint16, data byte)
	// Clock runs components that tick once per CPU cycle.
	Clock()
	// ClockTo catches up components that run off the master clock.
	ClockTo(clock uint64)
	// LoadDMC hands a byte fetched by DMC DMA to the APU.
	LoadDMC(data byte)
}

// Status flags.
const (
	C byte = 1 << iota // Carry
	Z                  // Zero
	I                  // Disable Interrupts
	D                  // Decimal Mode
	B                  // Break
	U                  // Unused
	V                  // Overflow
	N                  // Negative
)

// IRQ identifies a source driving the shared IRQ line.
type IRQ byte

const (
	IRQMapper IRQ = 1 << iota
	IRQFrameCounter
	IRQDMC
)

const (
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
	stackBase   = 0x0100

	powerOnSP     = 0xFD
	powerOnStatus = U | I

	// CPU/PPU alignment, in master clocks.
	ppuOffset = 1
)

// CPU represents the 6502 CPU.
type CPU struct {
	// Program Counter
	PC uint16

	// Stack Pointer
	SP byte

	// Accumulator
	A byte

	// Index Register X
	X byte

	// Index Register Y
	Y byte

	// Processor Status
	P byte

	// Cycle counts CPU cycles since the last reset.
	Cycle uint64

	// MasterClock counts master clock ticks since the last reset.
	MasterClock uint64

	// Corrupted is set when a HLT opcode jams the CPU. It stays set until
	// the next reset.
	Corrupted bool

	bus Bus

	startCycles uint64
	endCycles   uint64

	operand uint16
	mode    AddrMode

	// Interrupt inputs and the edge/level detectors sampling them.
	nmiLine     bool
	irqLines    IRQ
	nmi         bool
	prevNMI     bool
	prevNMILine bool
	runIRQ      bool
	prevRunIRQ  bool

	// DMA requests
	dmcDMA       bool
	oamDMA       bool
	dmaHalt      bool
	dmaDummyRead bool
	dmcAddr      uint16
	oamAddr      uint16
}

// New creates a new CPU instance.
func New() *CPU {
	c := &CPU{P: powerOnStatus}
	c.SetRegion(system.NTSC)
	return c
}

// ConnectBus connects the CPU to the bus.
func (c *CPU) ConnectBus(bus Bus) {
	c.bus = bus
}

// SetRegion selects the master clock split of each bus access.
func (c *CPU) SetRegion(region system.Region) {
	c.startCycles, c.endCycles = region.CPUCycleSplit()
}

// SetNMI drives the NMI line. The CPU reacts to a low to high edge.
func (c *CPU) SetNMI(active bool) {
	c.nmiLine = active
}

// NMILine reports the current level of the NMI line.
func (c *CPU) NMILine() bool {
	return c.nmiLine
}

// SetIRQ drives the IRQ line for one source. The line is level triggered and
// is active while any source holds it.
func (c *CPU) SetIRQ(source IRQ, active bool) {
	if active {
		c.irqLines |= source
	} else {
		c.irqLines &^= source
	}
}

// IRQLines returns the sources currently holding the IRQ line.
func (c *CPU) IRQLines() IRQ {
	return c.irqLines
}

// StartDMCDMA halts the CPU on its next read to fetch a sample byte.
func (c *CPU) StartDMCDMA(addr uint16) {
	c.dmcDMA = true
	c.dmcAddr = addr
	c.dmaHalt = true
	c.dmaDummyRead = true
}

// StartOAMDMA halts the CPU on its next read to copy 256 bytes from
// page*$100 to OAM.
func (c *CPU) StartOAMDMA(page byte) {
	c.oamDMA = true
	c.oamAddr = uint16(page) << 8
	c.dmaHalt = true
}

// Reset resets the CPU. A soft reset only sets I and moves SP as the
// suppressed pushes of the reset sequence would; a hard reset also clears
// the registers. Either way the sequence takes 7 cycles.
func (c *CPU) Reset(kind system.ResetKind) {
	switch kind {
	case system.Soft:
		c.setFlag(I, true)
		c.SP -= 3
	case system.Hard:
		c.A, c.X, c.Y = 0, 0, 0
		c.P = powerOnStatus
		c.SP = powerOnSP
	}

	c.MasterClock = 0
	c.Cycle = 0
	c.Corrupted = false
	c.nmiLine, c.irqLines = false, 0
	c.nmi, c.prevNMI, c.prevNMILine = false, false, false
	c.runIRQ, c.prevRunIRQ = false, false
	c.dmcDMA, c.oamDMA, c.dmaHalt, c.dmaDummyRead = false, false, false, false

	// Read straight from the bus so nothing else is clocked.
	lo := uint16(c.bus.Read(resetVector))
	hi := uint16(c.bus.Read(resetVector + 1))
	c.PC = hi<<8 | lo

	for i := 0; i < 7; i++ {
		c.startCycle(c.startCycles - 1)
		c.endCycle(c.startCycles + 1)
	}
}

// Clock runs one instruction, and any interrupt it unmasks, and returns the
// number of CPU cycles spent.
func (c *CPU) Clock() int {
	start := c.Cycle

	opcode := c.fetchByte()
	c.mode = Instructions[opcode].Mode
	c.operand = c.fetchOperand()
	ops[opcode](c)

	if c.prevRunIRQ || c.prevNMI {
		c.irq()
	}
	return int(c.Cycle - start)
}

// NextInstruction returns the instruction at PC without executing it.
func (c *CPU) NextInstruction() Instruction {
	return Instructions[c.bus.Peek(c.PC)]
}

// irq runs the 7 cycle interrupt sequence shared by NMI and IRQ.
func (c *CPU) irq() {
	c.read(c.PC)
	c.read(c.PC)
	c.pushWord(c.PC)

	// NMI is checked before pushing P so a late NMI can hijack the vector.
	status := (c.P | U) &^ B
	nmi := c.nmi
	c.pushByte(status)
	c.setFlag(I, true)

	if nmi {
		c.nmi = false
		c.PC = c.readWord(nmiVector)
	} else {
		c.PC = c.readWord(irqVector)
	}
}

// pollInterrupts samples the interrupt inputs at the end of a cycle. NMI is
// edge triggered and runs only once the edge is a cycle old; IRQ is a level
// and the level at the end of the second to last cycle decides.
func (c *CPU) pollInterrupts() {
	c.prevNMI = c.nmi
	if !c.prevNMILine && c.nmiLine {
		c.nmi = true
	}
	c.prevNMILine = c.nmiLine

	c.prevRunIRQ = c.runIRQ
	c.runIRQ = c.irqLines != 0 && c.P&I == 0
}

func (c *CPU) startCycle(increment uint64) {
	c.MasterClock += increment
	c.Cycle++
	c.bus.ClockTo(c.MasterClock - ppuOffset)
	c.bus.Clock()
}

func (c *CPU) endCycle(increment uint64) {
	c.MasterClock += increment
	c.bus.ClockTo(c.MasterClock - ppuOffset)
	c.pollInterrupts()
}

func (c *CPU) startDMACycle() {
	// OAM DMA cycles double as the halt and dummy read of a DMC DMA.
	if c.dmaHalt {
		c.dmaHalt = false
	} else {
		c.dmaDummyRead = false
	}
	c.startCycle(c.startCycles - 1)
}

// handleDMA runs pending DMA transfers, stalling the read of addr.
func (c *CPU) handleDMA(addr uint16) {
	c.startCycle(c.startCycles - 1)
	c.bus.Read(addr)
	c.endCycle(c.startCycles + 1)
	c.dmaHalt = false

	// Controller ports see repeated reads as one.
	skipDummyReads := addr == 0x4016 || addr == 0x4017

	var (
		oamOffset uint16
		oamCount  int
		val       byte
	)
	for c.dmcDMA || c.oamDMA {
		switch {
		case c.Cycle&1 == 0:
			switch {
			case c.dmcDMA && !c.dmaHalt && !c.dmaDummyRead:
				c.startDMACycle()
				val = c.bus.Read(c.dmcAddr)
				c.endCycle(c.startCycles + 1)
				c.bus.LoadDMC(val)
				c.dmcDMA = false
			case c.oamDMA:
				c.startDMACycle()
				val = c.bus.Read(c.oamAddr + oamOffset)
				c.endCycle(c.startCycles + 1)
				oamOffset++
				oamCount++
			default:
				// DMC is still halting or dummy reading
				c.startDMACycle()
				if !skipDummyReads {
					c.bus.Read(addr)
				}
				c.endCycle(c.startCycles + 1)
			}
		case c.oamDMA && oamCount&1 == 1:
			c.startDMACycle()
			c.bus.Write(0x2004, val)
			c.endCycle(c.startCycles + 1)
			oamCount++
			if oamCount == 0x200 {
				c.oamDMA = false
			}
		default:
			// Align to a get cycle.
			c.startDMACycle()
			if !skipDummyReads {
				c.bus.Read(addr)
			}
			c.endCycle(c.startCycles + 1)
		}
	}
}

func (c *CPU) read(addr uint16) byte {
	if c.dmaHalt {
		c.handleDMA(addr)
	}
	c.startCycle(c.startCycles - 1)
	data := c.bus.Read(addr)
	c.endCycle(c.endCycles + 1)
	return data
}

func (c *CPU) write(addr uint16, data byte) {
	c.startCycle(c.startCycles + 1)
	c.bus.Write(addr, data)
	c.endCycle(c.endCycles - 1)
}

func (c *CPU) readWord(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hi := uint16(c.read(addr + 1))
	return hi<<8 | lo
}

func (c *CPU) peekWord(addr uint16) uint16 {
	lo := uint16(c.bus.Peek(addr))
	hi := uint16(c.bus.Peek(addr + 1))
	return hi<<8 | lo
}

func (c *CPU) fetchByte() byte {
	data := c.read(c.PC)
	c.PC++
	return data
}

func (c *CPU) fetchWord() uint16 {
	lo := uint16(c.fetchByte())
	hi := uint16(c.fetchByte())
	return hi<<8 | lo
}

// Stack

func (c *CPU) pushByte(data byte) {
	c.write(stackBase|uint16(c.SP), data)
	c.SP--
}

func (c *CPU) popByte() byte {
	c.SP++
	return c.read(stackBase | uint16(c.SP))
}

func (c *CPU) pushWord(data uint16) {
	c.pushByte(byte(data >> 8))
	c.pushByte(byte(data))
}

func (c *CPU) popWord() uint16 {
	lo := uint16(c.popByte())
	hi := uint16(c.popByte())
	return hi<<8 | lo
}

// PeekStack returns the byte on top of the stack.
func (c *CPU) PeekStack() byte {
	return c.bus.Peek(stackBase | uint16(c.SP+1))
}

// Flags

func (c *CPU) getFlag(f byte) byte {
	if c.P&f != 0 {
		return 1
	}
	return 0
}

func (c *CPU) setFlag(f byte, v bool) {
	if v {
		c.P |= f
	} else {
		c.P &^= f
	}
}

// setStatus loads P from the stack; B and U do not exist in the register.
func (c *CPU) setStatus(p byte) {
	c.P = p &^ (U | B)
}

func (c *CPU) setZN(v byte) {
	c.setFlag(Z, v == 0)
	c.setFlag(N, v&0x80 != 0)
}

func (c *CPU) setA(v byte) {
	c.setZN(v)
	c.A = v
}

func (c *CPU) setX(v byte) {
	c.setZN(v)
	c.X = v
}

func (c *CPU) setY(v byte) {
	c.setZN(v)
	c.Y = v
}

func pagesDiffer(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

// JamError describes a CPU halted by a HLT opcode.
type JamError struct {
	Opcode byte
	PC     uint16
}

func (e *JamError) Error() string {
	return fmt.Sprintf("invalid opcode $%02X encountered at $%04X", e.Opcode, e.PC)
}

// Err returns a *JamError while the CPU is jammed and nil otherwise.
func (c *CPU) Err() error {
	if !c.Corrupted {
		return nil
	}
	return &JamError{Opcode: c.bus.Peek(c.PC), PC: c.PC}
}

func (c *CPU) jam() {
	opcode := c.bus.Peek(c.PC - 1)
	c.PC--
	c.prevRunIRQ, c.prevNMI = false, false
	if !c.Corrupted {
		log.Print((&JamError{Opcode: opcode, PC: c.PC}).Error())
	}
	c.Corrupted = true
}
