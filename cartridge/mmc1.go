package cartridge

import (
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/system"
)

const (
	mmc1RevisionA = iota
	mmc1RevisionBC
)

const (
	mmc1ShiftReset     = 0x80
	mmc1MirroringMask  = 0x03
	mmc1SlotSelectMask = 0x04
	mmc1PRGModeMask    = 0x08
	mmc1CHRModeMask    = 0x10
	mmc1DefaultPRGMode = 0x0C
	mmc1CHRBankMask    = 0x1F
	mmc1PRGBankMask    = 0x0F
	mmc1PRGRAMDisabled = 0x10
)

// mmc1 represents Mapper 1 (SxROM/MMC1) and Mapper 155 (MMC1A).
// Registers are loaded serially, one bit per write, through a 5-bit shift
// register.
type mmc1 struct {
	revision  byte
	submapper byte
	mirroring mapper.Mirroring
	prgSelect bool // 512K SUROM uses CHR bit 4 as the outer PRG bank

	// Serial port
	writeJustOccurred byte
	shiftRegister     byte
	writeCount        byte

	// Registers
	prgRAMDisabled bool
	chrMode        bool
	prgMode        bool
	prgBankSelect  bool
	lastCHRReg     uint16
	chrBank0       byte
	chrBank1       byte
	prgBank        byte

	chr    mapper.Banks
	prgRAM mapper.Banks
	prgROM mapper.Banks
}

func newMMC1(cart *Cartridge, revision byte) *mmc1 {
	// 32K is safely compatible without a NES 2.0 header.
	cart.addPRGRAM(32 * 1024)
	cart.addCHRRAM(8 * 1024)

	m := &mmc1{
		revision:   revision,
		submapper:  cart.Header.Submapper,
		mirroring:  mapper.SingleScreenA,
		prgSelect:  len(cart.PRGROM) == 0x80000,
		lastCHRReg: 0xA000,
		chr:        mapper.NewBanks(0x0000, 0x1FFF, len(cart.chr()), 0x1000),
		prgRAM:     mapper.NewBanks(0x6000, 0x7FFF, len(cart.PRGRAM), 0x2000),
		prgROM:     mapper.NewBanks(0x8000, 0xFFFF, len(cart.PRGROM), 0x4000),
	}
	m.processRegisterWrite(0x8000, mmc1DefaultPRGMode)
	m.processRegisterWrite(0xA000, 0x00)
	m.processRegisterWrite(0xC000, 0x00)
	if revision == mmc1RevisionBC {
		m.processRegisterWrite(0xE000, 0x00)
	} else {
		m.processRegisterWrite(0xE000, mmc1PRGRAMDisabled)
	}
	m.lastCHRReg = 0xA000
	m.updateState()
	return m
}

func (m *mmc1) resetBuffer() {
	m.shiftRegister = 0
	m.writeCount = 0
}

func (m *mmc1) processRegisterWrite(addr uint16, data byte) {
	switch addr & 0xE000 {
	case 0x8000:
		switch data & mmc1MirroringMask {
		case 0:
			m.mirroring = mapper.SingleScreenA
		case 1:
			m.mirroring = mapper.SingleScreenB
		case 2:
			m.mirroring = mapper.Vertical
		case 3:
			m.mirroring = mapper.Horizontal
		}
		m.prgBankSelect = data&mmc1SlotSelectMask != 0
		m.prgMode = data&mmc1PRGModeMask != 0
		m.chrMode = data&mmc1CHRModeMask != 0
	case 0xA000:
		m.lastCHRReg = addr & 0xE000
		m.chrBank0 = data & mmc1CHRBankMask
	case 0xC000:
		m.lastCHRReg = addr & 0xE000
		m.chrBank1 = data & mmc1CHRBankMask
	case 0xE000:
		m.prgBank = data & mmc1PRGBankMask
		m.prgRAMDisabled = data&mmc1PRGRAMDisabled != 0
	}
}

func (m *mmc1) updateState() {
	extra := m.chrBank0
	if m.lastCHRReg == 0xC000 && m.chrMode {
		extra = m.chrBank1
	}
	var outer byte
	if m.prgSelect {
		outer = extra & mmc1CHRModeMask
	}

	switch {
	case m.submapper == 5:
		// SEROM/SHROM/SH1ROM have a fixed 32K bank.
		m.prgROM.SetRange(0, 1, 0)
	case m.prgMode && m.prgBankSelect:
		m.prgROM.Set(0, int(m.prgBank|outer))
		m.prgROM.Set(1, int(mmc1PRGBankMask|outer))
	case m.prgMode:
		m.prgROM.Set(0, int(outer))
		m.prgROM.Set(1, int(m.prgBank|outer))
	default:
		m.prgROM.SetRange(0, 1, int((m.prgBank&0xFE)|outer))
	}

	if m.chrMode {
		m.chr.Set(0, int(m.chrBank0))
		m.chr.Set(1, int(m.chrBank1))
	} else {
		m.chr.Set(0, int(m.chrBank0&0x1E))
		m.chr.Set(1, int(m.chrBank0&0x1E)+1)
	}
}

func (m *mmc1) prgRAMEnabled() bool {
	return m.revision == mmc1RevisionA || !m.prgRAMDisabled
}

func (m *mmc1) MapRead(addr uint16) mapper.Mapped { return m.MapPeek(addr) }

func (m *mmc1) MapPeek(addr uint16) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, m.chr.Translate(addr))
	case addr >= 0x6000 && addr <= 0x7FFF:
		if m.prgRAMEnabled() {
			return mapper.To(mapper.PrgRAM, m.prgRAM.Translate(addr))
		}
	case addr >= 0x8000:
		return mapper.To(mapper.PrgROM, m.prgROM.Translate(addr))
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (m *mmc1) MapWrite(addr uint16, data byte) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, m.chr.Translate(addr))
	case addr >= 0x6000 && addr <= 0x7FFF:
		if m.prgRAMEnabled() {
			return mapper.To(mapper.PrgRAM, m.prgRAM.Translate(addr))
		}
	case addr >= 0x8000:
		// Writes on consecutive cycles, as done by RMW instructions, only
		// register the first one.
		if m.writeJustOccurred > 0 {
			return mapper.Mapped{Kind: mapper.None}
		}
		m.writeJustOccurred = 2
		if data&mmc1ShiftReset != 0 {
			m.resetBuffer()
			m.prgMode = true
			m.prgBankSelect = true
			m.updateState()
			return mapper.Mapped{Kind: mapper.None}
		}
		m.shiftRegister = (m.shiftRegister >> 1) | ((data << 4) & 0x10)
		m.writeCount++
		if m.writeCount == 5 {
			m.processRegisterWrite(addr, m.shiftRegister)
			m.updateState()
			m.resetBuffer()
		}
		return mapper.Mapped{Kind: mapper.None}
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (m *mmc1) Mirroring() mapper.Mirroring        { return m.mirroring }
func (m *mmc1) IRQPending() bool                   { return false }
func (m *mmc1) PPUBusRead(addr uint16)             {}
func (m *mmc1) PPUBusWrite(addr uint16, data byte) {}

func (m *mmc1) Clock() {
	if m.writeJustOccurred > 0 {
		m.writeJustOccurred--
	}
}

func (m *mmc1) Reset(kind system.ResetKind) {
	m.resetBuffer()
	m.prgMode = true
	m.prgBankSelect = true
	m.updateState()
	if kind == system.Hard {
		m.writeJustOccurred = 0
		m.prgRAMDisabled = false
	}
}

func (m *mmc1) Board() string {
	if m.revision == mmc1RevisionA {
		return "Mapper 155 - SxROM/MMC1A"
	}
	return "Mapper 001 - SxROM/MMC1B/C"
}
