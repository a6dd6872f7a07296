package cartridge

import (
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/system"
)

// cnrom represents Mapper 3 (CNROM).
// PRG ROM is fixed and an 8KB CHR ROM bank is selected by any write to
// $8000-$FFFF.
type cnrom struct {
	mirroring mapper.Mirroring
	chr       mapper.Banks
	prgROM    mapper.Banks
}

func newCNROM(cart *Cartridge) *cnrom {
	cart.addCHRRAM(8 * 1024)
	return &cnrom{
		mirroring: cart.Header.Mirroring(),
		chr:       mapper.NewBanks(0x0000, 0x1FFF, len(cart.chr()), 0x2000),
		prgROM:    mapper.NewBanks(0x8000, 0xFFFF, len(cart.PRGROM), 0x8000),
	}
}

func (c *cnrom) MapRead(addr uint16) mapper.Mapped { return c.MapPeek(addr) }

func (c *cnrom) MapPeek(addr uint16) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, c.chr.Translate(addr))
	case addr >= 0x8000:
		return mapper.To(mapper.PrgROM, c.prgROM.Translate(addr))
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (c *cnrom) MapWrite(addr uint16, data byte) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, c.chr.Translate(addr))
	case addr >= 0x8000:
		c.chr.Set(0, int(data))
		return mapper.Mapped{Kind: mapper.None}
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (c *cnrom) Mirroring() mapper.Mirroring        { return c.mirroring }
func (c *cnrom) Clock()                             {}
func (c *cnrom) IRQPending() bool                   { return false }
func (c *cnrom) PPUBusRead(addr uint16)             {}
func (c *cnrom) PPUBusWrite(addr uint16, data byte) {}
func (c *cnrom) Board() string                      { return "Mapper 003 - CNROM" }

func (c *cnrom) Reset(kind system.ResetKind) {
	if kind == system.Hard {
		c.chr.Set(0, 0)
	}
}
