package cartridge

import (
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/system"
)

// NROM (Mapper 0) is the simplest mapper. 16K images are mirrored into both
// halves of $8000-$FFFF.
type nrom struct {
	mirroring mapper.Mirroring
	prgROM    mapper.Banks
	prgRAM    mapper.Banks
}

func newNROM(cart *Cartridge) *nrom {
	cart.addPRGRAM(8 * 1024) // Family Basic
	cart.addCHRRAM(8 * 1024)
	return &nrom{
		mirroring: cart.Header.Mirroring(),
		prgROM:    mapper.NewBanks(0x8000, 0xFFFF, len(cart.PRGROM), 0x8000),
		prgRAM:    mapper.NewBanks(0x6000, 0x7FFF, len(cart.PRGRAM), 0x2000),
	}
}

func (n *nrom) MapRead(addr uint16) mapper.Mapped { return n.MapPeek(addr) }

func (n *nrom) MapPeek(addr uint16) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, int(addr))
	case addr >= 0x6000 && addr <= 0x7FFF:
		return mapper.To(mapper.PrgRAM, n.prgRAM.Translate(addr))
	case addr >= 0x8000:
		return mapper.To(mapper.PrgROM, n.prgROM.Translate(addr))
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (n *nrom) MapWrite(addr uint16, data byte) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, int(addr))
	case addr >= 0x6000 && addr <= 0x7FFF:
		return mapper.To(mapper.PrgRAM, n.prgRAM.Translate(addr))
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (n *nrom) Mirroring() mapper.Mirroring        { return n.mirroring }
func (n *nrom) Clock()                             {}
func (n *nrom) IRQPending() bool                   { return false }
func (n *nrom) PPUBusRead(addr uint16)             {}
func (n *nrom) PPUBusWrite(addr uint16, data byte) {}
func (n *nrom) Reset(kind system.ResetKind)        {}
func (n *nrom) Board() string                      { return "Mapper 000 - NROM" }
