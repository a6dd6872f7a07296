package cartridge

import (
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/system"
)

const (
	mmc3PRGModeMask      = 0x40
	mmc3CHRInversionMask = 0x80
)

// mmc3 represents Mapper 4 (TxROM/MMC3).
// It features complex PRG and CHR bank switching and a scanline counter
// clocked by rising edges of PPU A12.
type mmc3 struct {
	mirroring  mapper.Mirroring
	fourScreen bool

	bankSelect byte
	registers  [8]byte

	prgRAMEnabled   bool
	prgRAMProtected bool

	// IRQ state
	irqLatch   byte
	irqCounter byte
	irqEnabled bool
	irqReload  bool
	irqPending bool
	lastA12    uint16

	chr    mapper.Banks
	prgRAM mapper.Banks
	prgROM mapper.Banks
}

func newMMC3(cart *Cartridge) *mmc3 {
	cart.addPRGRAM(8 * 1024)
	cart.addCHRRAM(8 * 1024)
	m := &mmc3{
		mirroring:     cart.Header.Mirroring(),
		prgRAMEnabled: true,
		chr:           mapper.NewBanks(0x0000, 0x1FFF, len(cart.chr()), 0x0400),
		prgRAM:        mapper.NewBanks(0x6000, 0x7FFF, len(cart.PRGRAM), 0x2000),
		prgROM:        mapper.NewBanks(0x8000, 0xFFFF, len(cart.PRGROM), 0x2000),
	}
	if m.mirroring == mapper.FourScreen {
		m.fourScreen = true
		cart.addExRAM(4 * 1024)
	}
	last := m.prgROM.Last()
	m.prgROM.Set(2, last-1)
	m.prgROM.Set(3, last)
	return m
}

func (m *mmc3) updatePRGBanks() {
	last := m.prgROM.Last()
	if m.bankSelect&mmc3PRGModeMask != 0 {
		m.prgROM.Set(0, last-1)
		m.prgROM.Set(1, int(m.registers[7]))
		m.prgROM.Set(2, int(m.registers[6]))
	} else {
		m.prgROM.Set(0, int(m.registers[6]))
		m.prgROM.Set(1, int(m.registers[7]))
		m.prgROM.Set(2, last-1)
	}
	m.prgROM.Set(3, last)
}

func (m *mmc3) updateCHRBanks() {
	r := m.registers
	if m.bankSelect&mmc3CHRInversionMask != 0 {
		m.chr.Set(0, int(r[2]))
		m.chr.Set(1, int(r[3]))
		m.chr.Set(2, int(r[4]))
		m.chr.Set(3, int(r[5]))
		m.chr.SetRange(4, 5, int(r[0]&0xFE))
		m.chr.SetRange(6, 7, int(r[1]&0xFE))
	} else {
		m.chr.SetRange(0, 1, int(r[0]&0xFE))
		m.chr.SetRange(2, 3, int(r[1]&0xFE))
		m.chr.Set(4, int(r[2]))
		m.chr.Set(5, int(r[3]))
		m.chr.Set(6, int(r[4]))
		m.chr.Set(7, int(r[5]))
	}
}

func (m *mmc3) updateBanks() {
	m.updatePRGBanks()
	m.updateCHRBanks()
}

// clockIRQ watches A12 of pattern table addresses and clocks the scanline
// counter on each rising edge.
func (m *mmc3) clockIRQ(addr uint16) {
	if addr >= 0x2000 {
		return
	}
	next := (addr >> 12) & 1
	if m.lastA12 == 0 && next == 1 {
		if m.irqCounter == 0 || m.irqReload {
			m.irqCounter = m.irqLatch
		} else {
			m.irqCounter--
		}
		if m.irqCounter == 0 && m.irqEnabled {
			m.irqPending = true
		}
		m.irqReload = false
	}
	m.lastA12 = next
}

func (m *mmc3) MapRead(addr uint16) mapper.Mapped {
	m.clockIRQ(addr)
	return m.MapPeek(addr)
}

func (m *mmc3) MapPeek(addr uint16) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, m.chr.Translate(addr))
	case addr < 0x3F00:
		// 4K of ExRAM backs $2000-$2FFF; $3000-$3EFF mirrors it.
		if m.fourScreen {
			return mapper.To(mapper.ExRAM, int(addr&0x0FFF))
		}
	case addr >= 0x6000 && addr <= 0x7FFF:
		if m.prgRAMEnabled {
			return mapper.To(mapper.PrgRAM, m.prgRAM.Translate(addr))
		}
	case addr >= 0x8000:
		return mapper.To(mapper.PrgROM, m.prgROM.Translate(addr))
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (m *mmc3) MapWrite(addr uint16, data byte) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, m.chr.Translate(addr))
	case addr < 0x3F00:
		if m.fourScreen {
			return mapper.To(mapper.ExRAM, int(addr&0x0FFF))
		}
	case addr >= 0x6000 && addr <= 0x7FFF:
		if m.prgRAMEnabled && !m.prgRAMProtected {
			return mapper.To(mapper.PrgRAM, m.prgRAM.Translate(addr))
		}
		return mapper.Mapped{Kind: mapper.None}
	case addr >= 0x8000:
		m.writeRegister(addr, data)
		return mapper.Mapped{Kind: mapper.None}
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (m *mmc3) writeRegister(addr uint16, data byte) {
	switch addr & 0xE001 {
	case 0x8000:
		m.bankSelect = data
		m.updateBanks()
	case 0x8001:
		m.registers[m.bankSelect&0x07] = data
		m.updateBanks()
	case 0xA000:
		if !m.fourScreen {
			if data&0x01 == 0 {
				m.mirroring = mapper.Vertical
			} else {
				m.mirroring = mapper.Horizontal
			}
		}
	case 0xA001:
		m.prgRAMEnabled = data&0x80 != 0
		m.prgRAMProtected = data&0x40 != 0
	case 0xC000:
		m.irqLatch = data
	case 0xC001:
		m.irqCounter = 0
		m.irqReload = true
	case 0xE000:
		m.irqEnabled = false
		m.irqPending = false
	case 0xE001:
		m.irqEnabled = true
	}
}

func (m *mmc3) Mirroring() mapper.Mirroring        { return m.mirroring }
func (m *mmc3) Clock()                             {}
func (m *mmc3) IRQPending() bool                   { return m.irqPending }
func (m *mmc3) PPUBusRead(addr uint16)             { m.clockIRQ(addr) }
func (m *mmc3) PPUBusWrite(addr uint16, data byte) { m.clockIRQ(addr) }
func (m *mmc3) Board() string                      { return "Mapper 004 - TxROM/MMC3/MMC6" }

func (m *mmc3) Reset(kind system.ResetKind) {
	m.bankSelect = 0
	m.registers = [8]byte{}
	m.irqLatch, m.irqCounter = 0, 0
	m.irqEnabled, m.irqReload, m.irqPending = false, false, false
	m.lastA12 = 0
	m.prgRAMEnabled, m.prgRAMProtected = true, false
	m.updateBanks()
}
