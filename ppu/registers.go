package ppu

import "github.com/meadori/nescore/system"

// Ctrl is $2000 PPUCTRL.
type Ctrl struct {
	Nametable  byte
	Increment  uint16
	SprSelect  uint16
	BgSelect   uint16
	SprHeight  uint16
	Master     bool
	NMIEnabled bool
}

func (c *Ctrl) write(val byte) {
	c.Nametable = val & 0x03
	c.Increment = 1
	if val&0x04 != 0 {
		c.Increment = 32
	}
	c.SprSelect = uint16(val&0x08) << 9
	c.BgSelect = uint16(val&0x10) << 8
	c.SprHeight = 8
	if val&0x20 != 0 {
		c.SprHeight = 16
	}
	c.Master = val&0x40 != 0
	c.NMIEnabled = val&0x80 != 0
}

// Mask is $2001 PPUMASK. Changes to the rendering switches reach the
// rendering logic one dot after the write.
type Mask struct {
	Bits             byte
	RenderingEnabled bool
	pendingUpdate    bool
}

const (
	maskGrayscale   = 0x01
	maskShowLeftBg  = 0x02
	maskShowLeftSpr = 0x04
	maskShowBg      = 0x08
	maskShowSpr     = 0x10
	maskEmphasis    = 0xE0
	maskEmphasizeR  = 0x20
	maskEmphasizeG  = 0x40
)

func (m *Mask) write(val byte) {
	m.Bits = val
	m.pendingUpdate = m.RenderingEnabled != m.renderingRaw()
}

// clock applies a pending change to the rendering switches.
func (m *Mask) clock() {
	if m.pendingUpdate {
		m.RenderingEnabled = m.renderingRaw()
		m.pendingUpdate = false
	}
}

func (m *Mask) renderingRaw() bool { return m.Bits&(maskShowBg|maskShowSpr) != 0 }
func (m *Mask) showBg() bool       { return m.Bits&maskShowBg != 0 }
func (m *Mask) showSpr() bool      { return m.Bits&maskShowSpr != 0 }
func (m *Mask) showLeftBg() bool   { return m.Bits&maskShowLeftBg != 0 }
func (m *Mask) showLeftSpr() bool  { return m.Bits&maskShowLeftSpr != 0 }

// grayscale returns the mask applied to palette entries.
func (m *Mask) grayscale() byte {
	if m.Bits&maskGrayscale != 0 {
		return 0x30
	}
	return 0x3F
}

// emphasis returns the emphasis bits positioned at bits 6-8 of a frame
// buffer entry. PAL and Dendy swap the red and green lines.
func (m *Mask) emphasis(swapRG bool) uint16 {
	bits := m.Bits & maskEmphasis
	if swapRG {
		r, g := bits&maskEmphasizeR, bits&maskEmphasizeG
		bits = bits&^(maskEmphasizeR|maskEmphasizeG) | r<<1 | g>>1
	}
	return uint16(bits) << 1
}

// Status is $2002 PPUSTATUS.
type Status struct {
	SprOverflow bool
	SprZeroHit  bool
	VBlank      bool
}

func (s *Status) read() byte {
	var val byte
	if s.SprOverflow {
		val |= 0x20
	}
	if s.SprZeroHit {
		val |= 0x40
	}
	if s.VBlank {
		val |= 0x80
	}
	return val
}

func (p *PPU) warmingUp() bool {
	return p.resetSignal
}

func (p *PPU) renderingLine() bool {
	return p.Scanline <= visibleScanlineEnd || p.Scanline == p.prerenderScanline
}

// Read reads from a PPU register. Only the low three bits of addr are
// decoded. Write-only registers return the PPU's open bus latch.
func (p *PPU) Read(addr uint16) byte {
	switch addr & 0x07 {
	case 2:
		return p.readStatus()
	case 4:
		val := p.peekOAMData()
		p.openBus = val
		return val
	case 7:
		return p.readData()
	}
	return p.openBus
}

// Peek reads a PPU register without side effects.
func (p *PPU) Peek(addr uint16) byte {
	switch addr & 0x07 {
	case 2:
		return p.peekStatus()
	case 4:
		return p.peekOAMData()
	case 7:
		return p.peekData()
	}
	return p.openBus
}

// Write writes to a PPU register.
func (p *PPU) Write(addr uint16, data byte) {
	p.openBus = data

	switch addr & 0x07 {
	case 0:
		if p.warmingUp() {
			return
		}
		p.Ctrl.write(data)
		p.Scroll.writeNametable(data)
	case 1:
		if p.warmingUp() {
			return
		}
		p.Mask.write(data)
	case 3:
		p.oamAddr = data
	case 4:
		p.writeOAMData(data)
	case 5:
		if p.warmingUp() {
			return
		}
		p.Scroll.write(data)
	case 6:
		if p.warmingUp() {
			return
		}
		p.Scroll.writeAddr(data)
		if p.cart != nil {
			p.cart.PPUBusWrite(p.Scroll.Addr(), data)
		}
	case 7:
		p.writeData(data)
	}
}

func (p *PPU) peekStatus() byte {
	return p.Status.read()&0xE0 | p.openBus&0x1F
}

// readStatus returns $2002 and clears the vblank flag and the write toggle.
// A read on the dot before vblank starts suppresses the flag, and with it
// the NMI, for the whole frame.
func (p *PPU) readStatus() byte {
	status := p.peekStatus()
	p.Status.VBlank = false
	p.Scroll.W = false
	if p.Scanline == p.vblankScanline && p.Cycle == vblankDot-1 {
		p.preventVBL = true
	}
	p.openBus = p.openBus&0x1F | status&0xE0
	return status
}

func (p *PPU) peekOAMData() byte {
	if p.Scanline <= visibleScanlineEnd && p.Mask.RenderingEnabled {
		switch {
		case p.Cycle >= visibleStart && p.Cycle <= oamClearEnd:
			// Secondary OAM clear drives $FF onto the OAM bus.
			return 0xFF
		case p.Cycle >= sprFetchStart && p.Cycle <= sprFetchEnd:
			return p.secondaryOAM[p.secondaryOAMAddr&0x1F]
		}
	}
	return p.oam[p.oamAddr]
}

func (p *PPU) writeOAMData(val byte) {
	rendering := p.renderingLine() || (p.region == system.PAL && p.Scanline >= p.palSprEvalLine)
	if p.Mask.RenderingEnabled && rendering {
		// Writes during rendering only bump the high six bits of OAMADDR.
		p.oamAddr += 4
		return
	}
	if p.oamAddr&0x03 == 0x02 {
		// Bits 2-4 of the attribute byte do not exist.
		val &= 0xE3
	}
	p.oam[p.oamAddr] = val
	p.oamAddr++
}

// incrementVRAMAddr advances v after a $2007 access. While rendering the
// access instead bumps coarse X and fine Y at once.
func (p *PPU) incrementVRAMAddr() {
	if p.Mask.RenderingEnabled && p.renderingLine() {
		p.Scroll.incrementX()
		p.Scroll.incrementY()
		return
	}
	p.Scroll.increment(p.Ctrl.Increment)
}

func (p *PPU) readData() byte {
	addr := p.Scroll.Addr()
	p.incrementVRAMAddr()

	val := p.ppuRead(addr)
	if addr < paletteStart {
		val, p.vramBuffer = p.vramBuffer, val
	} else {
		// Palette reads are not buffered; the buffer gets the nametable
		// byte underneath instead.
		p.vramBuffer = p.ppuRead(addr - 0x1000)
		val |= p.openBus & 0xC0
	}
	p.openBus = val

	if p.cart != nil {
		p.cart.PPUBusRead(p.Scroll.Addr())
	}
	return val
}

func (p *PPU) peekData() byte {
	addr := p.Scroll.Addr()
	if addr < paletteStart {
		return p.vramBuffer
	}
	return p.PPUPeek(addr) | p.openBus&0xC0
}

func (p *PPU) writeData(val byte) {
	addr := p.Scroll.Addr()
	p.incrementVRAMAddr()
	p.ppuWrite(addr, val)

	if p.cart != nil {
		p.cart.PPUBusWrite(p.Scroll.Addr(), val)
	}
}
