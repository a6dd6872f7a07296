package cartridge

import (
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/system"
)

// uxrom represents Mapper 2 (UxROM).
// It features a switchable 16KB PRG ROM bank at $8000-$BFFF
// and a fixed 16KB PRG ROM bank at $C000-$FFFF (the last bank).
type uxrom struct {
	mirroring mapper.Mirroring
	prgROM    mapper.Banks
}

func newUxROM(cart *Cartridge) *uxrom {
	cart.addCHRRAM(8 * 1024)
	u := &uxrom{
		mirroring: cart.Header.Mirroring(),
		prgROM:    mapper.NewBanks(0x8000, 0xFFFF, len(cart.PRGROM), 0x4000),
	}
	u.prgROM.Set(1, u.prgROM.Last())
	return u
}

func (u *uxrom) MapRead(addr uint16) mapper.Mapped { return u.MapPeek(addr) }

func (u *uxrom) MapPeek(addr uint16) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, int(addr))
	case addr >= 0x8000:
		return mapper.To(mapper.PrgROM, u.prgROM.Translate(addr))
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (u *uxrom) MapWrite(addr uint16, data byte) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, int(addr))
	case addr >= 0x8000:
		u.prgROM.Set(0, int(data))
		return mapper.Mapped{Kind: mapper.None}
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (u *uxrom) Mirroring() mapper.Mirroring        { return u.mirroring }
func (u *uxrom) Clock()                             {}
func (u *uxrom) IRQPending() bool                   { return false }
func (u *uxrom) PPUBusRead(addr uint16)             {}
func (u *uxrom) PPUBusWrite(addr uint16, data byte) {}
func (u *uxrom) Board() string                      { return "Mapper 002 - UxROM" }

func (u *uxrom) Reset(kind system.ResetKind) {
	if kind == system.Hard {
		u.prgROM.Set(0, 0)
	}
}
