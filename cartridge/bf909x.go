package cartridge

import (
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/system"
)

const (
	bf909xRevisionBF909x = iota
	bf909xRevisionBF9097
)

// bf909x represents Mapper 71 (Camerica/Codemasters). It banks like UxROM;
// the BF9097 revision also selects a single-screen nametable through
// $8000-$BFFF.
type bf909x struct {
	revision  byte
	mirroring mapper.Mirroring
	prgROM    mapper.Banks
}

func newBF909x(cart *Cartridge) *bf909x {
	cart.addCHRRAM(8 * 1024)
	b := &bf909x{
		revision:  bf909xRevisionBF909x,
		mirroring: cart.Header.Mirroring(),
		prgROM:    mapper.NewBanks(0x8000, 0xFFFF, len(cart.PRGROM), 0x4000),
	}
	if cart.Header.Submapper == 1 {
		b.revision = bf909xRevisionBF9097
	}
	b.prgROM.Set(1, b.prgROM.Last())
	return b
}

func (b *bf909x) MapRead(addr uint16) mapper.Mapped { return b.MapPeek(addr) }

func (b *bf909x) MapPeek(addr uint16) mapper.Mapped {
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, int(addr))
	case addr >= 0x8000:
		return mapper.To(mapper.PrgROM, b.prgROM.Translate(addr))
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (b *bf909x) MapWrite(addr uint16, data byte) mapper.Mapped {
	// Fire Hawk writes $9000 to change mirroring.
	if addr == 0x9000 {
		b.revision = bf909xRevisionBF9097
	}
	switch {
	case addr < 0x2000:
		return mapper.To(mapper.Chr, int(addr))
	case addr >= 0x8000:
		if addr >= 0xC000 || b.revision != bf909xRevisionBF9097 {
			b.prgROM.Set(0, int(data))
		} else if data&0x10 == 0x10 {
			b.mirroring = mapper.SingleScreenA
		} else {
			b.mirroring = mapper.SingleScreenB
		}
		return mapper.Mapped{Kind: mapper.None}
	}
	return mapper.Mapped{Kind: mapper.Bus}
}

func (b *bf909x) Mirroring() mapper.Mirroring        { return b.mirroring }
func (b *bf909x) Clock()                             {}
func (b *bf909x) IRQPending() bool                   { return false }
func (b *bf909x) PPUBusRead(addr uint16)             {}
func (b *bf909x) PPUBusWrite(addr uint16, data byte) {}
func (b *bf909x) Board() string                      { return "Mapper 071 - Camerica/Codemasters/BF909x" }

func (b *bf909x) Reset(kind system.ResetKind) {
	if kind == system.Hard {
		b.prgROM.Set(0, 0)
	}
}
