package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/meadori/nescore/system"
)

type busWrite struct {
	addr uint16
	data byte
}

type mockBus struct {
	ram    [65536]byte
	writes []busWrite
	dmc    []byte
}

func (b *mockBus) Read(addr uint16) byte {
	return b.ram[addr]
}

func (b *mockBus) Peek(addr uint16) byte {
	return b.ram[addr]
}

func (b *mockBus) Write(addr uint16, data byte) {
	b.ram[addr] = data
	b.writes = append(b.writes, busWrite{addr, data})
}

func (b *mockBus) Clock()            {}
func (b *mockBus) ClockTo(uint64)    {}
func (b *mockBus) LoadDMC(data byte) { b.dmc = append(b.dmc, data) }

func setupCPU(t *testing.T) (*CPU, *mockBus) {
	t.Helper()
	c := New()
	bus := &mockBus{}
	bus.ram[0xFFFC] = 0x00
	bus.ram[0xFFFD] = 0x80
	c.ConnectBus(bus)
	c.Reset(system.Hard)
	bus.writes = nil
	return c, bus
}

func TestReset(t *testing.T) {
	c, _ := setupCPU(t)
	if c.PC != 0x8000 {
		t.Errorf("Expected PC 0x8000, but got 0x%04X", c.PC)
	}
	if c.SP != 0xFD {
		t.Errorf("Expected SP 0xFD, but got 0x%02X", c.SP)
	}
	if c.P != U|I {
		t.Errorf("Expected P 0x%02X, but got 0x%02X", U|I, c.P)
	}
	if c.Cycle != 7 {
		t.Errorf("Expected reset to take 7 cycles, but got %d", c.Cycle)
	}

	c.A, c.SP = 0x12, 0x80
	c.Reset(system.Soft)
	if c.A != 0x12 {
		t.Error("Soft reset should keep A")
	}
	if c.SP != 0x7D {
		t.Errorf("Expected soft reset to move SP to 0x7D, but got 0x%02X", c.SP)
	}
}

func TestLoadStore(t *testing.T) {
	c, bus := setupCPU(t)

	// LDA IMM
	bus.ram[0x8000] = 0xA9
	bus.ram[0x8001] = 0x42
	c.Clock()
	if c.A != 0x42 {
		t.Error("LDA IMM failed")
	}
	if c.Cycle != 9 {
		t.Errorf("Expected LDA IMM after reset to end on cycle 9, but got %d", c.Cycle)
	}

	// STA ABS
	bus.ram[0x8002] = 0x8D
	bus.ram[0x8003] = 0x10
	bus.ram[0x8004] = 0x01
	c.Clock()
	if bus.ram[0x0110] != 0x42 {
		t.Error("STA ABS failed")
	}
}

func TestArithmetic(t *testing.T) {
	c, bus := setupCPU(t)

	// ADC
	c.A = 10
	bus.ram[0x8000] = 0x69 // ADC #$05
	bus.ram[0x8001] = 5
	c.Clock()
	if c.A != 15 {
		t.Error("ADC failed")
	}

	// SBC
	c.setFlag(C, true)
	bus.ram[0x8002] = 0xE9 // SBC #$05
	bus.ram[0x8003] = 5
	c.Clock()
	if c.A != 10 {
		t.Error("SBC failed")
	}
}

func TestOverflow(t *testing.T) {
	tests := []struct {
		name    string
		opcode  byte
		a, val  byte
		carry   bool
		want    byte
		v, n, c bool
	}{
		{"ADC 50+50", 0x69, 0x50, 0x50, false, 0xA0, true, true, false},
		{"ADC 50+10", 0x69, 0x50, 0x10, false, 0x60, false, false, false},
		{"ADC FF+01", 0x69, 0xFF, 0x01, false, 0x00, false, false, true},
		{"ADC D0+90", 0x69, 0xD0, 0x90, false, 0x60, true, false, true},
		{"SBC 50-B0", 0xE9, 0x50, 0xB0, true, 0xA0, true, true, false},
		{"SBC 50-F0", 0xE9, 0x50, 0xF0, true, 0x60, false, false, false},
		{"SBC D0-70", 0xE9, 0xD0, 0x70, true, 0x60, true, false, true},
	}

	for _, tt := range tests {
		c, bus := setupCPU(t)
		c.A = tt.a
		c.setFlag(C, tt.carry)
		bus.ram[0x8000] = tt.opcode
		bus.ram[0x8001] = tt.val
		c.Clock()
		if c.A != tt.want {
			t.Errorf("%s: Expected A 0x%02X, but got 0x%02X", tt.name, tt.want, c.A)
		}
		if (c.P&V != 0) != tt.v || (c.P&N != 0) != tt.n || (c.P&C != 0) != tt.c {
			t.Errorf("%s: Expected V=%v N=%v C=%v, but got P=%08b", tt.name, tt.v, tt.n, tt.c, c.P)
		}
	}
}

func TestSetZN(t *testing.T) {
	c := New()
	for v := 0; v < 256; v++ {
		c.P = C | V | D
		c.setZN(byte(v))
		if (c.P&Z != 0) != (v == 0) {
			t.Errorf("Expected Z for %d to be %v", v, v == 0)
		}
		if (c.P&N != 0) != (v&0x80 != 0) {
			t.Errorf("Expected N for %d to be %v", v, v&0x80 != 0)
		}
		if c.P&(C|V|D) != C|V|D {
			t.Errorf("setZN(%d) touched other flags: %08b", v, c.P)
		}
	}
}

func TestIncDec(t *testing.T) {
	c, bus := setupCPU(t)

	// INC
	bus.ram[0x10] = 0x41
	bus.ram[0x8000] = 0xE6 // INC $10
	bus.ram[0x8001] = 0x10
	c.Clock()
	if bus.ram[0x10] != 0x42 {
		t.Error("INC failed")
	}

	// INX
	c.X = 0x10
	bus.ram[0x8002] = 0xE8 // INX
	c.Clock()
	if c.X != 0x11 {
		t.Error("INX failed")
	}

	// DEY wraps
	c.Y = 0
	bus.ram[0x8003] = 0x88
	c.Clock()
	if c.Y != 0xFF || c.P&N == 0 {
		t.Error("DEY failed")
	}
}

func TestReadModifyWriteDummyWrite(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0x10] = 0x41
	bus.ram[0x8000] = 0xE6 // INC $10
	bus.ram[0x8001] = 0x10
	c.Clock()

	want := []busWrite{{0x10, 0x41}, {0x10, 0x42}}
	if len(bus.writes) != len(want) {
		t.Fatalf("Expected %d writes, but got %d", len(want), len(bus.writes))
	}
	for i, w := range want {
		if bus.writes[i] != w {
			t.Errorf("Expected write %d to be %v, but got %v", i, w, bus.writes[i])
		}
	}
}

func TestLogical(t *testing.T) {
	c, bus := setupCPU(t)

	// AND
	c.A = 0b10101010
	bus.ram[0x8000] = 0x29 // AND #$0F
	bus.ram[0x8001] = 0b00001111
	c.Clock()
	if c.A != 0b00001010 {
		t.Error("AND failed")
	}

	// BIT
	c.A = 0x01
	bus.ram[0x20] = 0xC0
	bus.ram[0x8002] = 0x24 // BIT $20
	bus.ram[0x8003] = 0x20
	c.Clock()
	if c.P&Z == 0 || c.P&V == 0 || c.P&N == 0 {
		t.Errorf("BIT failed, P=%08b", c.P)
	}
}

func TestShiftRotate(t *testing.T) {
	c, bus := setupCPU(t)

	// ASL
	c.A = 0b01010101
	bus.ram[0x8000] = 0x0A // ASL
	c.Clock()
	if c.A != 0b10101010 {
		t.Error("ASL failed")
	}
	if c.getFlag(C) != 0 {
		t.Error("ASL carry failed")
	}

	// LSR
	bus.ram[0x8001] = 0x4A // LSR
	c.Clock()
	if c.A != 0b01010101 {
		t.Error("LSR failed")
	}
	if c.getFlag(C) != 0 {
		t.Error("LSR carry failed")
	}

	// ROR through carry
	c.setFlag(C, true)
	bus.ram[0x8002] = 0x6A // ROR
	c.Clock()
	if c.A != 0b10101010 || c.getFlag(C) != 1 {
		t.Error("ROR failed")
	}
}

func TestBranch(t *testing.T) {
	c, bus := setupCPU(t)

	// BEQ (not taken)
	bus.ram[0x8000] = 0xF0 // BEQ $10
	bus.ram[0x8001] = 0x10
	if cycles := c.Clock(); cycles != 2 {
		t.Errorf("Expected untaken branch to take 2 cycles, but got %d", cycles)
	}
	if c.PC != 0x8002 {
		t.Error("BEQ (not taken) failed")
	}

	// BEQ (taken)
	c.setFlag(Z, true)
	bus.ram[0x8002] = 0xF0 // BEQ $10
	bus.ram[0x8003] = 0x10
	if cycles := c.Clock(); cycles != 3 {
		t.Errorf("Expected taken branch to take 3 cycles, but got %d", cycles)
	}
	if c.PC != 0x8014 {
		t.Error("BEQ (taken) failed")
	}

	// BNE backwards across a page
	c.PC = 0x8100
	c.setFlag(Z, false)
	bus.ram[0x8100] = 0xD0
	bus.ram[0x8101] = 0xF0 // -16
	if cycles := c.Clock(); cycles != 4 {
		t.Errorf("Expected page crossing branch to take 4 cycles, but got %d", cycles)
	}
	if c.PC != 0x80F2 {
		t.Errorf("Expected PC 0x80F2, but got 0x%04X", c.PC)
	}
}

func TestPageCrossing(t *testing.T) {
	tests := []struct {
		name   string
		code   []byte
		x      byte
		cycles int
	}{
		{"LDA abs,X same page", []byte{0xBD, 0x00, 0x30}, 0x01, 4},
		{"LDA abs,X crossed", []byte{0xBD, 0xFF, 0x30}, 0x01, 5},
		{"STA abs,X same page", []byte{0x9D, 0x00, 0x30}, 0x01, 5},
		{"STA abs,X crossed", []byte{0x9D, 0xFF, 0x30}, 0x01, 5},
		{"INC abs,X", []byte{0xFE, 0x00, 0x30}, 0x01, 7},
		{"NOP abs,X crossed", []byte{0x1C, 0xFF, 0x30}, 0x01, 5},
	}

	for _, tt := range tests {
		c, bus := setupCPU(t)
		copy(bus.ram[0x8000:], tt.code)
		c.X = tt.x
		if cycles := c.Clock(); cycles != tt.cycles {
			t.Errorf("%s: Expected %d cycles, but got %d", tt.name, tt.cycles, cycles)
		}
	}
}

func TestCycleTiming(t *testing.T) {
	c := New()
	bus := &mockBus{}
	c.ConnectBus(bus)

	for _, in := range Instructions {
		if in.Name == "HLT" {
			continue
		}
		// Flags are clear after reset apart from I, so these branches are taken.
		extra := 0
		switch in.Name {
		case "BCC", "BNE", "BPL", "BVC":
			extra = 1
		}
		c.Reset(system.Hard)
		bus.ram[0x0000] = in.Opcode
		c.Clock()
		if want := uint64(7 + in.Cycles + extra); c.Cycle != want {
			t.Errorf("$%02X %s %s: Expected cycle %d, but got %d", in.Opcode, in.Name, in.Mode, want, c.Cycle)
		}
	}
}

func TestJMPIndirectBug(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0x8000] = 0x6C // JMP ($02FF)
	bus.ram[0x8001] = 0xFF
	bus.ram[0x8002] = 0x02
	bus.ram[0x02FF] = 0x34
	bus.ram[0x0200] = 0x12
	bus.ram[0x0300] = 0x56
	c.Clock()
	if c.PC != 0x1234 {
		t.Errorf("Expected JMP to wrap within the page to 0x1234, but got 0x%04X", c.PC)
	}
}

func TestSubroutine(t *testing.T) {
	c, bus := setupCPU(t)
	copy(bus.ram[0x8000:], []byte{0x20, 0x00, 0x90}) // JSR $9000
	bus.ram[0x9000] = 0x60                           // RTS
	c.Clock()
	if c.PC != 0x9000 {
		t.Errorf("Expected JSR to jump to 0x9000, but got 0x%04X", c.PC)
	}
	if bus.ram[0x01FD] != 0x80 || bus.ram[0x01FC] != 0x02 {
		t.Errorf("Expected return address 0x8002 on the stack, but got 0x%02X%02X", bus.ram[0x01FD], bus.ram[0x01FC])
	}
	c.Clock()
	if c.PC != 0x8003 {
		t.Errorf("Expected RTS to return to 0x8003, but got 0x%04X", c.PC)
	}
}

func TestStack(t *testing.T) {
	c, bus := setupCPU(t)
	copy(bus.ram[0x8000:], []byte{
		0x08,       // PHP
		0xA9, 0x00, // LDA #$00
		0x28,       // PLP
		0x48,       // PHA
		0x68,       // PLA
	})
	c.setFlag(C, true)
	c.Clock()
	if bus.ram[0x01FD] != U|B|I|C {
		t.Errorf("Expected PHP to push B and U, but got %08b", bus.ram[0x01FD])
	}
	c.Clock()
	c.Clock()
	if c.P != I|C {
		t.Errorf("Expected PLP to drop B and U, but got %08b", c.P)
	}
	c.Clock()
	c.A = 0x55
	c.Clock()
	if c.A != 0x00 || c.P&Z == 0 {
		t.Error("PLA failed")
	}
}

func TestBRK(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0xFFFE] = 0x00
	bus.ram[0xFFFF] = 0xA0
	bus.ram[0x8000] = 0x00 // BRK
	c.Clock()
	if c.PC != 0xA000 {
		t.Errorf("Expected BRK to vector to 0xA000, but got 0x%04X", c.PC)
	}
	if bus.ram[0x01FB]&B == 0 {
		t.Error("Expected BRK to push B")
	}
	if bus.ram[0x01FC] != 0x02 {
		t.Errorf("Expected BRK to skip its padding byte, but pushed PCL 0x%02X", bus.ram[0x01FC])
	}
	if c.P&I == 0 {
		t.Error("Expected BRK to set I")
	}
}

func TestNMI(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0xFFFA] = 0x00
	bus.ram[0xFFFB] = 0x90
	bus.ram[0x8000] = 0xEA // NOP
	c.SetNMI(true)
	c.Clock()
	if c.PC != 0x9000 {
		t.Errorf("Expected NMI to vector to 0x9000, but got 0x%04X", c.PC)
	}
	if p := bus.ram[0x01FB]; p&B != 0 || p&U == 0 {
		t.Errorf("Expected pushed status with B clear and U set, but got %08b", p)
	}
	if bus.ram[0x01FC] != 0x01 || bus.ram[0x01FD] != 0x80 {
		t.Error("Expected NMI to push the address of the next instruction")
	}

	// Holding the line high does not trigger again.
	bus.ram[0x9000] = 0xEA
	c.Clock()
	if c.PC != 0x9001 {
		t.Errorf("Expected a single NMI per edge, but PC is 0x%04X", c.PC)
	}
}

func TestIRQ(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0xFFFE] = 0x00
	bus.ram[0xFFFF] = 0xA0
	copy(bus.ram[0x8000:], []byte{0xEA, 0x58, 0xEA, 0xEA}) // NOP, CLI, NOP, NOP

	c.SetIRQ(IRQMapper, true)
	c.Clock()
	if c.PC != 0x8001 {
		t.Error("Expected IRQ to be masked by I")
	}
	c.Clock() // CLI
	if c.PC != 0x8002 {
		t.Error("Expected IRQ to wait one instruction after CLI")
	}
	c.Clock()
	if c.PC != 0xA000 {
		t.Errorf("Expected IRQ to vector to 0xA000, but got 0x%04X", c.PC)
	}
	if bus.ram[0x01FC] != 0x03 {
		t.Errorf("Expected IRQ to return to 0x8003, but pushed PCL 0x%02X", bus.ram[0x01FC])
	}

	c.SetIRQ(IRQMapper, false)
	if c.IRQLines() != 0 {
		t.Error("Expected IRQ line to be released")
	}
}

func TestHLT(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0x8000] = 0x02
	c.Clock()
	if !c.Corrupted {
		t.Error("Expected HLT to corrupt the CPU")
	}
	if c.PC != 0x8000 {
		t.Errorf("Expected PC to stay on the HLT opcode, but got 0x%04X", c.PC)
	}
	var jam *JamError
	if err := c.Err(); !errors.As(err, &jam) || jam.Opcode != 0x02 || jam.PC != 0x8000 {
		t.Errorf("Expected a jam at $8000 on opcode $02, but got %v", err)
	}
	c.Reset(system.Soft)
	if c.Corrupted {
		t.Error("Expected reset to clear corruption")
	}
	if err := c.Err(); err != nil {
		t.Errorf("Expected no error after reset, but got %v", err)
	}
}

func TestUnofficial(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		setup func(c *CPU, bus *mockBus)
		check func(c *CPU, bus *mockBus) bool
	}{
		{
			"LAX", []byte{0xA7, 0x10},
			func(c *CPU, bus *mockBus) { bus.ram[0x10] = 0x5A },
			func(c *CPU, bus *mockBus) bool { return c.A == 0x5A && c.X == 0x5A },
		},
		{
			"SAX", []byte{0x87, 0x10},
			func(c *CPU, bus *mockBus) { c.A, c.X = 0xF0, 0x3C },
			func(c *CPU, bus *mockBus) bool { return bus.ram[0x10] == 0x30 },
		},
		{
			"DCP", []byte{0xC7, 0x10},
			func(c *CPU, bus *mockBus) { c.A = 0x40; bus.ram[0x10] = 0x41 },
			func(c *CPU, bus *mockBus) bool { return bus.ram[0x10] == 0x40 && c.P&Z != 0 && c.P&C != 0 },
		},
		{
			"ISB", []byte{0xE7, 0x10},
			func(c *CPU, bus *mockBus) { c.A = 0x10; c.setFlag(C, true); bus.ram[0x10] = 0x04 },
			func(c *CPU, bus *mockBus) bool { return bus.ram[0x10] == 0x05 && c.A == 0x0B },
		},
		{
			"SLO", []byte{0x07, 0x10},
			func(c *CPU, bus *mockBus) { c.A = 0x01; bus.ram[0x10] = 0x81 },
			func(c *CPU, bus *mockBus) bool { return bus.ram[0x10] == 0x02 && c.A == 0x03 && c.P&C != 0 },
		},
		{
			"SRE", []byte{0x47, 0x10},
			func(c *CPU, bus *mockBus) { c.A = 0xFF; bus.ram[0x10] = 0x03 },
			func(c *CPU, bus *mockBus) bool { return bus.ram[0x10] == 0x01 && c.A == 0xFE && c.P&C != 0 },
		},
		{
			"ANC", []byte{0x0B, 0x80},
			func(c *CPU, bus *mockBus) { c.A = 0xFF },
			func(c *CPU, bus *mockBus) bool { return c.A == 0x80 && c.P&C != 0 && c.P&N != 0 },
		},
		{
			"ALR", []byte{0x4B, 0x03},
			func(c *CPU, bus *mockBus) { c.A = 0xFF },
			func(c *CPU, bus *mockBus) bool { return c.A == 0x01 && c.P&C != 0 },
		},
		{
			"AXS", []byte{0xCB, 0x02},
			func(c *CPU, bus *mockBus) { c.A, c.X = 0x0F, 0x07 },
			func(c *CPU, bus *mockBus) bool { return c.X == 0x05 && c.P&C != 0 },
		},
		{
			"SHX", []byte{0x9E, 0x00, 0x02},
			func(c *CPU, bus *mockBus) { c.X, c.Y = 0xFF, 0x01 },
			func(c *CPU, bus *mockBus) bool { return bus.ram[0x0201] == 0x03 },
		},
	}

	for _, tt := range tests {
		c, bus := setupCPU(t)
		copy(bus.ram[0x8000:], tt.code)
		tt.setup(c, bus)
		c.Clock()
		if !tt.check(c, bus) {
			t.Errorf("%s failed: A=%02X X=%02X P=%08b", tt.name, c.A, c.X, c.P)
		}
	}
}

func TestOAMDMA(t *testing.T) {
	c, bus := setupCPU(t)
	for i := 0; i < 256; i++ {
		bus.ram[0x0200+i] = byte(i)
	}
	bus.ram[0x8000] = 0xEA
	c.StartOAMDMA(0x02)
	cycles := c.Clock()

	var oam []byte
	for _, w := range bus.writes {
		if w.addr == 0x2004 {
			oam = append(oam, w.data)
		}
	}
	if len(oam) != 256 {
		t.Fatalf("Expected 256 OAM writes, but got %d", len(oam))
	}
	for i, v := range oam {
		if v != byte(i) {
			t.Fatalf("Expected OAM byte %d to be %d, but got %d", i, i, v)
		}
	}
	if cycles != 2+513 && cycles != 2+514 {
		t.Errorf("Expected OAM DMA to stall 513 or 514 cycles, but NOP took %d", cycles)
	}
}

func TestDMCDMA(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0xC000] = 0x7E
	bus.ram[0x8000] = 0xEA
	c.StartDMCDMA(0xC000)
	cycles := c.Clock()
	if len(bus.dmc) != 1 || bus.dmc[0] != 0x7E {
		t.Fatalf("Expected DMC to receive 0x7E, but got %v", bus.dmc)
	}
	if cycles < 2+3 || cycles > 2+4 {
		t.Errorf("Expected DMC DMA to stall 3 or 4 cycles, but NOP took %d", cycles)
	}
}

func TestDisassemble(t *testing.T) {
	c, bus := setupCPU(t)
	copy(bus.ram[0x8000:], []byte{
		0xA9, 0x42,       // LDA #$42
		0x8D, 0x10, 0x01, // STA $0110
		0xB1, 0x80,       // LDA ($80),Y
		0x4C, 0xF5, 0xC5, // JMP $C5F5
		0x04, 0xA9,       // *NOP $A9
		0x4A,             // LSR A
	})
	bus.ram[0x80] = 0x00
	bus.ram[0x81] = 0x03
	bus.ram[0x0300] = 0x89
	bus.ram[0xA9] = 0x00

	want := []string{
		"8000  A9 42     LDA #$42",
		"8002  8D 10 01  STA $0110 = 00",
		"8005  B1 80     LDA ($80),Y = 0300 @ 0300 = 89",
		"8007  4C F5 C5  JMP $C5F5",
		"800A  04 A9    *NOP $A9 = 00",
		"800C  4A        LSR A",
	}
	pc := uint16(0x8000)
	for _, w := range want {
		var got string
		got, pc = c.Disassemble(pc)
		if got != w {
			t.Errorf("Expected %q, but got %q", w, got)
		}
	}
}

func TestTrace(t *testing.T) {
	c := New()
	bus := &mockBus{}
	bus.ram[0xFFFC] = 0x00
	bus.ram[0xFFFD] = 0xC0
	copy(bus.ram[0xC000:], []byte{0x4C, 0xF5, 0xC5})
	c.ConnectBus(bus)
	c.Reset(system.Hard)

	got := c.Trace()
	if !strings.HasPrefix(got, "C000  4C F5 C5  JMP $C5F5") {
		t.Errorf("Unexpected disassembly in %q", got)
	}
	if !strings.HasSuffix(got, "A:00 X:00 Y:00 P:24 SP:FD CYC:7") {
		t.Errorf("Unexpected registers in %q", got)
	}
	if strings.Index(got, "A:") != 48 {
		t.Errorf("Expected registers at column 48, but got %d", strings.Index(got, "A:"))
	}
}

func TestSaveLoadState(t *testing.T) {
	c, bus := setupCPU(t)
	copy(bus.ram[0x8000:], []byte{0xA9, 0x42, 0xAA, 0xEA})
	c.Clock()
	c.SetIRQ(IRQFrameCounter, true)
	s := c.SaveState()

	c.Clock()
	c.Clock()
	c.LoadState(s)
	if c.SaveState() != s {
		t.Error("Expected state round trip to be exact")
	}
	if c.PC != 0x8002 || c.A != 0x42 {
		t.Errorf("Expected PC 0x8002 and A 0x42, but got 0x%04X and 0x%02X", c.PC, c.A)
	}
	if c.IRQLines() != IRQFrameCounter {
		t.Error("Expected IRQ lines to be restored")
	}
}
