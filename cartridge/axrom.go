package cartridge

import (
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/system"
)

// axrom represents Mapper 7 (AxROM): a 32KB PRG ROM bank and a single-screen
// nametable selected together.
type axrom struct {
	mirroring mapper.Mirroring
	prgROM    mapper.Banks
}

func newAxROM(cart *Cartridge) *axrom {
	cart.addCHRRAM(8 * 1024)
	return &axrom{
		mirroring: mapper.SingleScreenA,
		prgROM:    mapper.NewBanks(0x8000, 0xFFFF, len(cart.PRGROM), 0x8000),
	}
}

func (a *axrom) MapRead(addr uint16) mapper.Mapped { return a.MapPeek(addr) }

func (a *axrom) MapPeek(addr uint16) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, int(addr))
	case addr >= 0x8000:
		return mapper.To(mapper.PrgROM, a.prgROM.Translate(addr))
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (a *axrom) MapWrite(addr uint16, data byte) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, int(addr))
	case addr >= 0x8000:
		a.prgROM.Set(0, int(data&0x0F))
		if data&0x10 == 0x10 {
			a.mirroring = mapper.SingleScreenB
		} else {
			a.mirroring = mapper.SingleScreenA
		}
		return mapper.Mapped{Kind: mapper.None}
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (a *axrom) Mirroring() mapper.Mirroring        { return a.mirroring }
func (a *axrom) Clock()                             {}
func (a *axrom) IRQPending() bool                   { return false }
func (a *axrom) PPUBusRead(addr uint16)             {}
func (a *axrom) PPUBusWrite(addr uint16, data byte) {}
func (a *axrom) Board() string                      { return "Mapper 007 - AxROM" }

func (a *axrom) Reset(kind system.ResetKind) {
	if kind == system.Hard {
		a.prgROM.Set(0, 0)
		a.mirroring = mapper.SingleScreenA
	}
}
