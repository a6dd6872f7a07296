package cartridge

import (
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/system"
)

// gxrom represents Mapper 66 (GxROM/MxROM): one register selects a 32KB PRG
// bank in bits 4-5 and an 8KB CHR bank in bits 0-3.
type gxrom struct {
	mirroring mapper.Mirroring
	chr       mapper.Banks
	prgROM    mapper.Banks
}

func newGxROM(cart *Cartridge) *gxrom {
	cart.addCHRRAM(8 * 1024)
	return &gxrom{
		mirroring: cart.Header.Mirroring(),
		chr:       mapper.NewBanks(0x0000, 0x1FFF, len(cart.chr()), 0x2000),
		prgROM:    mapper.NewBanks(0x8000, 0xFFFF, len(cart.PRGROM), 0x8000),
	}
}

func (g *gxrom) MapRead(addr uint16) mapper.Mapped { return g.MapPeek(addr) }

func (g *gxrom) MapPeek(addr uint16) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, g.chr.Translate(addr))
	case addr >= 0x8000:
		return mapper.To(mapper.PrgROM, g.prgROM.Translate(addr))
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (g *gxrom) MapWrite(addr uint16, data byte) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, g.chr.Translate(addr))
	case addr >= 0x8000:
		g.chr.Set(0, int(data&0x0F))
		g.prgROM.Set(0, int(data&0x30)>>4)
		return mapper.Mapped{Kind: mapper.None}
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (g *gxrom) Mirroring() mapper.Mirroring        { return g.mirroring }
func (g *gxrom) Clock()                             {}
func (g *gxrom) IRQPending() bool                   { return false }
func (g *gxrom) PPUBusRead(addr uint16)             {}
func (g *gxrom) PPUBusWrite(addr uint16, data byte) {}
func (g *gxrom) Board() string                      { return "Mapper 066 - GxROM/MxROM" }

func (g *gxrom) Reset(kind system.ResetKind) {
	if kind == system.Hard {
		g.chr.Set(0, 0)
		g.prgROM.Set(0, 0)
	}
}
