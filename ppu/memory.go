package ppu

import "github.com/meadori/nescore/mapper"

// Cartridge is the part of a cartridge wired to the PPU address bus.
type Cartridge interface {
	// PPURead returns false when the console nametable RAM answers.
	PPURead(addr uint16) (byte, bool)
	PPUPeek(addr uint16) (byte, bool)
	// PPUWrite returns false when the console nametable RAM takes the write.
	PPUWrite(addr uint16, data byte) bool
	PPUBusRead(addr uint16)
	PPUBusWrite(addr uint16, data byte)
	Mirroring() mapper.Mirroring
}

const (
	ntStart      = 0x2000
	ntSize       = 0x0400
	paletteStart = 0x3F00
)

// ciramIndex folds a nametable address into the 2 KiB of console RAM.
func ciramIndex(addr uint16, m mapper.Mirroring) uint16 {
	var page uint16
	switch m {
	case mapper.Horizontal:
		page = (addr >> 1) & ntSize
	case mapper.SingleScreenA:
		page = 0
	case mapper.SingleScreenB:
		page = ntSize
	default:
		page = addr & ntSize
	}
	return page | addr&(ntSize-1)
}

// paletteIndex applies the $3F10/$3F14/$3F18/$3F1C mirrors.
func paletteIndex(addr uint16) uint16 {
	addr &= 0x1F
	if addr >= 16 && addr&0x03 == 0 {
		addr -= 16
	}
	return addr
}

func (p *PPU) mirroring() mapper.Mirroring {
	if p.cart == nil {
		return mapper.Horizontal
	}
	return p.cart.Mirroring()
}

func (p *PPU) readCHR(addr uint16) byte {
	if p.cart != nil {
		if v, ok := p.cart.PPURead(addr); ok {
			return v
		}
	}
	return 0
}

func (p *PPU) peekCHR(addr uint16) byte {
	if p.cart != nil {
		if v, ok := p.cart.PPUPeek(addr); ok {
			return v
		}
	}
	return 0
}

func (p *PPU) readNametable(addr uint16) byte {
	if p.cart != nil {
		if v, ok := p.cart.PPURead(addr); ok {
			return v
		}
	}
	return p.ciram[ciramIndex(addr, p.mirroring())]
}

func (p *PPU) peekNametable(addr uint16) byte {
	if p.cart != nil {
		if v, ok := p.cart.PPUPeek(addr); ok {
			return v
		}
	}
	return p.ciram[ciramIndex(addr, p.mirroring())]
}

func (p *PPU) peekPalette(addr uint16) byte {
	return p.palette[paletteIndex(addr)]
}

// ppuRead reads the PPU address space.
func (p *PPU) ppuRead(addr uint16) byte {
	addr &= 0x3FFF
	switch {
	case addr < ntStart:
		return p.readCHR(addr)
	case addr < paletteStart:
		return p.readNametable(addr)
	}
	return p.peekPalette(addr)
}

// PPUPeek reads the PPU address space without side effects.
func (p *PPU) PPUPeek(addr uint16) byte {
	addr &= 0x3FFF
	switch {
	case addr < ntStart:
		return p.peekCHR(addr)
	case addr < paletteStart:
		return p.peekNametable(addr)
	}
	return p.peekPalette(addr)
}

// ppuWrite writes the PPU address space.
func (p *PPU) ppuWrite(addr uint16, data byte) {
	addr &= 0x3FFF
	switch {
	case addr < ntStart:
		if p.cart != nil {
			p.cart.PPUWrite(addr, data)
		}
	case addr < paletteStart:
		if p.cart == nil || !p.cart.PPUWrite(addr, data) {
			p.ciram[ciramIndex(addr, p.mirroring())] = data
		}
	default:
		p.palette[paletteIndex(addr)] = data & 0x3F
	}
}
