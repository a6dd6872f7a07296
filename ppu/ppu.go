// Package ppu implements the picture processing unit as a per-dot state
// machine. Each dot fetches background and sprite data exactly when the
// hardware does and composites one pixel of a 256x240 frame of palette
// indices.
package ppu

import (
	"image"

	"github.com/meadori/nescore/system"
)

const (
	Width  = 256
	Height = 240

	oamSize          = 256
	secondaryOAMSize = 32
)

// Dots within a scanline.
const (
	vblankDot       = 1
	visibleStart    = 1
	oamClearEnd     = 64
	sprEvalStart    = 65
	sprEvalEnd      = 256
	incY            = 256
	visibleEnd      = 256
	sprFetchStart   = 257
	copyYStart      = 280
	copyYEnd        = 304
	sprFetchEnd     = 320
	bgPrefetchStart = 321
	bgPrefetchEnd   = 336
	bgDummyStart    = 337
	oddSkip         = 339
	cycleEnd        = 340
)

const visibleScanlineEnd = 239

// Sprite is one of the eight sprites resolved for the current scanline.
type Sprite struct {
	X          int
	TileLo     byte
	TileHi     byte
	Palette    byte
	BgPriority bool
	FlipH      bool
	FlipV      bool
}

// pixel returns the 2-bit color of the sprite at screen column x.
func (s *Sprite) pixel(x int) byte {
	shift := x - s.X
	if shift < 0 || shift > 7 {
		return 0
	}
	if !s.FlipH {
		shift = 7 - shift
	}
	return (s.TileHi>>shift)&0x01<<1 | (s.TileLo>>shift)&0x01
}

// PPU represents the Picture Processing Unit.
type PPU struct {
	Scanline    int
	Cycle       int
	MasterClock uint64

	Ctrl   Ctrl
	Mask   Mask
	Status Status
	Scroll Scroll

	// EmulateWarmup makes the PPU ignore $2000, $2001, $2005 and $2006
	// writes until the end of the first frame after a reset.
	EmulateWarmup bool
	// SkipRendering only tracks sprite zero hits instead of drawing.
	SkipRendering bool

	region            system.Region
	divider           uint64
	vblankScanline    int
	prerenderScanline int
	palSprEvalLine    int

	cart    Cartridge
	ciram   [2048]byte
	palette [32]byte

	oam          [oamSize]byte
	secondaryOAM [secondaryOAMSize]byte
	sprites      [8]Sprite
	sprPresent   [Width]bool

	prevPalette byte
	currPalette byte
	nextPalette byte
	tileShiftLo uint16
	tileShiftHi uint16
	tileLo      byte
	tileHi      byte
	tileAddr    uint16

	oamAddr          byte
	oamAddrLo        byte
	oamAddrHi        byte
	oamFetch         byte
	oamEvalDone      bool
	secondaryOAMAddr byte
	overflowCount    byte
	sprInRange       bool
	sprZeroInRange   bool
	sprZeroVisible   bool
	sprCount         int

	vramBuffer  byte
	openBus     byte
	preventVBL  bool
	resetSignal bool

	frameCount uint32
	frame      [Width * Height]uint16
}

// New creates a new PPU instance in its power-on state.
func New() *PPU {
	p := &PPU{}
	p.SetRegion(system.NTSC)
	p.Reset(system.Hard)
	return p
}

// ConnectCartridge attaches the cartridge that serves pattern tables and
// selects nametable mirroring.
func (p *PPU) ConnectCartridge(c Cartridge) {
	p.cart = c
}

// SetRegion selects the timing of the PPU.
func (p *PPU) SetRegion(r system.Region) {
	p.region = r
	switch r {
	case system.PAL:
		p.divider, p.vblankScanline, p.prerenderScanline = 5, 241, 311
	case system.Dendy:
		p.divider, p.vblankScanline, p.prerenderScanline = 5, 291, 311
	default:
		p.divider, p.vblankScanline, p.prerenderScanline = 4, 241, 261
	}
	// PAL refreshes OAM during its long vertical blank.
	p.palSprEvalLine = p.vblankScanline + 24
}

// Region returns the timing the PPU runs with.
func (p *PPU) Region() system.Region {
	return p.region
}

// Reset puts the PPU back into its reset state. OAM survives both kinds of
// reset.
func (p *PPU) Reset(kind system.ResetKind) {
	p.Ctrl.write(0)
	p.Mask.write(0)
	p.Mask.RenderingEnabled = false
	p.Mask.pendingUpdate = false
	if kind == system.Hard {
		p.Status = Status{}
	} else {
		p.Status.SprZeroHit = false
		p.Status.SprOverflow = false
	}
	p.Scroll.reset()
	p.resetSignal = p.EmulateWarmup

	p.Scanline, p.Cycle, p.MasterClock = 0, 0, 0
	p.secondaryOAMAddr = 0
	p.vramBuffer = 0
	p.preventVBL = false
	p.oamFetch = 0
	p.oamEvalDone = false
	p.overflowCount = 0
	p.sprInRange, p.sprZeroInRange, p.sprZeroVisible = false, false, false
	p.sprCount = 0
	p.sprites = [8]Sprite{}
	p.sprPresent = [Width]bool{}
	p.openBus = 0
	p.frameCount = 0
	p.frame = [Width * Height]uint16{}
}

// NMI reports the level of the PPU's NMI output: high while in vertical
// blank with NMI generation enabled.
func (p *PPU) NMI() bool {
	return p.Status.VBlank && p.Ctrl.NMIEnabled
}

// FrameNumber returns the number of frames started since reset. It
// increments at the start of the post-render scanline.
func (p *PPU) FrameNumber() uint32 {
	return p.frameCount
}

// OddFrame reports whether the current frame number is odd.
func (p *PPU) OddFrame() bool {
	return p.frameCount&0x01 == 1
}

// FrameBuffer returns the current frame: one entry per pixel holding the
// palette index in bits 0-5 and the emphasis bits in bits 6-8.
func (p *PPU) FrameBuffer() []uint16 {
	return p.frame[:]
}

// GetFrame returns a copy of the current frame as an RGBA image.
func (p *PPU) GetFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	for i, px := range p.frame {
		c := Color(px)
		j := i * 4
		img.Pix[j] = c.R
		img.Pix[j+1] = c.G
		img.Pix[j+2] = c.B
		img.Pix[j+3] = 0xFF
	}
	return img
}

// ClockTo runs the PPU until it has caught up with the given master clock.
func (p *PPU) ClockTo(clock uint64) int {
	dots := 0
	for p.MasterClock+p.divider <= clock {
		p.Clock()
		p.MasterClock += p.divider
		dots++
	}
	return dots
}

// Clock advances the PPU by one dot.
func (p *PPU) Clock() {
	p.Mask.clock()

	if p.Cycle < cycleEnd {
		p.Cycle++
		p.tick()

		if p.Cycle == vblankDot {
			if p.Scanline == p.vblankScanline {
				p.startVBlank()
			} else if p.Scanline == p.prerenderScanline {
				p.stopVBlank()
			}
		}
		return
	}

	p.Cycle = 0
	p.Scanline++
	if p.Scanline == p.vblankScanline-1 {
		p.frameCount++
	} else if p.Scanline > p.prerenderScanline {
		p.Scanline = 0
		// The prerender line fetches dummy sprites only.
		p.sprCount = 0
	}
}

func (p *PPU) startVBlank() {
	if !p.preventVBL {
		p.Status.VBlank = true
	}
	p.preventVBL = false
}

func (p *PPU) stopVBlank() {
	p.Status.SprZeroHit = false
	p.Status.SprOverflow = false
	p.Status.VBlank = false
	p.resetSignal = false
	// Open bus decays once per frame.
	p.openBus = 0
}

func (p *PPU) tick() {
	cycle := p.Cycle
	scanline := p.Scanline
	visibleCycle := cycle >= visibleStart && cycle <= visibleEnd
	prefetchCycle := cycle >= bgPrefetchStart && cycle <= bgPrefetchEnd
	visibleScanline := scanline <= visibleScanlineEnd

	if p.Mask.RenderingEnabled {
		prerender := scanline == p.prerenderScanline
		if prerender || visibleScanline {
			switch {
			case visibleCycle:
				if visibleScanline {
					p.evaluateSprites()
				}
				p.fetchBackground()
				if prerender && cycle <= 8 && p.oamAddr >= 0x08 {
					// A non-zero OAMADDR at the start of rendering copies
					// the eight bytes at OAMADDR & $F8 over the first eight.
					i := cycle - 1
					p.oam[i] = p.oam[int(p.oamAddr&0xF8)+i]
				}
			case cycle <= sprFetchEnd:
				if cycle == sprFetchStart {
					p.Scroll.copyX()
					p.sprPresent = [Width]bool{}
				}
				if prerender && cycle >= copyYStart && cycle <= copyYEnd {
					p.Scroll.copyY()
				}
				p.fetchSprites()
			default:
				if prefetchCycle {
					p.fetchBackground()
				} else if cycle >= bgDummyStart {
					p.fetchNametableByte()
				}
				p.oamFetch = p.secondaryOAM[0]

				if prerender && cycle == oddSkip && p.region == system.NTSC && p.OddFrame() {
					// Odd NTSC frames skip the last dot of the prerender line.
					p.Cycle = cycleEnd
				}
			}
		} else if p.region == system.PAL && scanline >= p.palSprEvalLine {
			p.evaluateSprites()
			if cycle >= sprFetchStart && cycle <= sprFetchEnd {
				p.oamAddr = 0
			}
		}
	}

	if p.Scroll.delayedUpdate() && p.cart != nil {
		p.cart.PPUBusRead(p.Scroll.Addr())
	}

	if visibleScanline && visibleCycle {
		if p.SkipRendering {
			p.headlessSpriteZeroHit()
		} else {
			p.renderPixel()
		}
	}
	if visibleCycle || prefetchCycle {
		p.tileShiftLo <<= 1
		p.tileShiftHi <<= 1
	}
}

func (p *PPU) fetchNametableByte() {
	p.prevPalette = p.currPalette
	p.currPalette = p.nextPalette
	p.tileShiftLo |= uint16(p.tileLo)
	p.tileShiftHi |= uint16(p.tileHi)

	tile := uint16(p.readNametable(ntStart | p.Scroll.Addr()&0x0FFF))
	p.tileAddr = p.Ctrl.BgSelect | tile<<4 | p.Scroll.fineY()
}

func (p *PPU) fetchAttributeByte() {
	shift := p.Scroll.attrShift()
	p.nextPalette = (p.readNametable(p.Scroll.attrAddr()) >> shift) & 0x03 << 2
}

// fetchBackground fetches one tile every 8 dots, two dots per byte.
func (p *PPU) fetchBackground() {
	switch p.Cycle & 0x07 {
	case 0:
		p.Scroll.incrementX()
		if p.Cycle == incY {
			p.Scroll.incrementY()
		}
	case 1:
		p.fetchNametableByte()
	case 3:
		p.fetchAttributeByte()
	case 5:
		p.tileLo = p.readCHR(p.tileAddr)
	case 7:
		p.tileHi = p.readCHR(p.tileAddr + 8)
	}
}

func (p *PPU) evaluateSprites() {
	switch {
	case p.Cycle <= oamClearEnd:
		p.oamFetch = 0xFF
		p.secondaryOAM[(p.Cycle-1)>>1] = 0xFF
	case p.Cycle <= sprEvalEnd:
		if p.Cycle == sprEvalStart {
			p.sprInRange = false
			p.sprZeroInRange = false
			p.secondaryOAMAddr = 0
			p.oamEvalDone = false
			p.oamAddrHi = (p.oamAddr >> 2) & 0x3F
			p.oamAddrLo = p.oamAddr & 0x03
		} else if p.Cycle == sprEvalEnd {
			p.sprZeroVisible = p.sprZeroInRange
			p.sprCount = int(p.secondaryOAMAddr >> 2)
		}

		if p.Cycle&0x01 == 1 {
			p.oamFetch = p.oam[p.oamAddr]
		} else {
			p.evaluateEven()
		}
	}
}

func (p *PPU) nextSprite() {
	p.oamAddrHi = (p.oamAddrHi + 1) & 0x3F
	if p.oamAddrHi == 0 {
		p.oamEvalDone = true
	}
}

// evaluateEven runs the write half of sprite evaluation. Once eight sprites
// are found the hardware keeps scanning with a broken address increment,
// which is what makes the overflow flag unreliable.
func (p *PPU) evaluateEven() {
	idx := p.secondaryOAMAddr & 0x1F

	if p.oamEvalDone {
		p.oamAddrHi = (p.oamAddrHi + 1) & 0x3F
		if p.secondaryOAMAddr >= 0x20 {
			p.oamFetch = p.secondaryOAM[idx]
		}
		p.oamAddr = p.oamAddrHi<<2 | p.oamAddrLo&0x03
		return
	}

	y := int(p.oamFetch)
	if !p.sprInRange && p.Scanline >= y && p.Scanline < y+int(p.Ctrl.SprHeight) {
		p.sprInRange = true
	}

	if p.secondaryOAMAddr < 0x20 {
		p.secondaryOAM[idx] = p.oamFetch
		if p.sprInRange {
			p.oamAddrLo++
			p.secondaryOAMAddr++
			if p.oamAddrHi == 0 {
				p.sprZeroInRange = true
			}
			if p.oamAddrLo == 4 {
				p.sprInRange = false
				p.oamAddrLo = 0
				p.nextSprite()
			}
		} else {
			p.nextSprite()
		}
	} else {
		p.oamFetch = p.secondaryOAM[idx]
		if p.sprInRange {
			p.Status.SprOverflow = true
			p.oamAddrLo++
			if p.oamAddrLo == 4 {
				p.oamAddrLo = 0
				p.oamAddrHi = (p.oamAddrHi + 1) & 0x3F
			}
			if p.overflowCount == 0 {
				p.overflowCount = 3
			} else {
				p.overflowCount--
				if p.overflowCount == 0 {
					p.oamEvalDone = true
					p.oamAddrLo = 0
				}
			}
		} else {
			// n and m both advance.
			p.oamAddrHi = (p.oamAddrHi + 1) & 0x3F
			p.oamAddrLo = (p.oamAddrLo + 1) & 0x03
			if p.oamAddrHi == 0 {
				p.oamEvalDone = true
			}
		}
	}

	p.oamAddr = p.oamAddrHi<<2 | p.oamAddrLo&0x03
}

// fetchSprites runs the sprite fetch window, dots 257-320.
func (p *PPU) fetchSprites() {
	p.oamAddr = 0

	switch p.Cycle & 0x07 {
	case 1:
		p.fetchNametableByte() // garbage
	case 3:
		p.fetchAttributeByte() // garbage
	case 4:
		p.loadSprite()
	}
}

// loadSprite fetches the pattern of one secondary OAM slot. Empty slots
// still fetch tile $FF so mappers watching A12 see every access.
func (p *PPU) loadSprite() {
	idx := (p.Cycle - sprFetchStart) / 8
	o := idx << 2
	y := uint16(p.secondaryOAM[o])
	tile := uint16(p.secondaryOAM[o+1])
	attr := p.secondaryOAM[o+2]
	x := int(p.secondaryOAM[o+3])

	height := p.Ctrl.SprHeight
	scanline := uint16(p.Scanline)
	var line uint16
	if scanline >= y && scanline < y+height {
		line = scanline - y
	}
	flipV := attr&0x80 != 0
	if flipV {
		line = height - 1 - line
	}
	if idx >= p.sprCount {
		line = 0
		tile = 0xFF
	}

	var addr uint16
	if height == 16 {
		if line >= 8 {
			line += 8
		}
		addr = (tile&0x01)*0x1000 | (tile&0xFE)<<4 | line
	} else {
		addr = p.Ctrl.SprSelect | tile<<4 | line
	}

	if idx >= p.sprCount {
		p.readCHR(addr)
		p.readCHR(addr + 8)
		return
	}

	p.sprites[idx] = Sprite{
		X:          x,
		TileLo:     p.readCHR(addr),
		TileHi:     p.readCHR(addr + 8),
		Palette:    (attr&0x03)<<2 | 0x10,
		BgPriority: attr&0x20 != 0,
		FlipH:      attr&0x40 != 0,
		FlipV:      flipV,
	}
	for i := x; i < x+8 && i < Width; i++ {
		p.sprPresent[i] = true
	}
}

// pixelPalette composites the background and sprites at the current dot
// and returns the palette RAM index of the winner.
func (p *PPU) pixelPalette() byte {
	x := p.Cycle - 1

	var bg byte
	if p.Mask.showBg() && (p.Mask.showLeftBg() || x >= 8) {
		shift := 15 - p.Scroll.FineX
		bg = byte(p.tileShiftHi>>shift)&0x01<<1 | byte(p.tileShiftLo>>shift)&0x01
	}

	if p.Mask.showSpr() && (p.Mask.showLeftSpr() || x >= 8) && p.sprPresent[x] {
		for i := 0; i < p.sprCount; i++ {
			s := &p.sprites[i]
			c := s.pixel(x)
			if c == 0 {
				continue
			}
			if i == 0 && bg != 0 && x != 255 && p.sprZeroVisible && p.Mask.RenderingEnabled && !p.Status.SprZeroHit {
				p.Status.SprZeroHit = true
			}
			if bg == 0 || !s.BgPriority {
				return s.Palette + c
			}
			break
		}
	}

	if int(p.Scroll.FineX)+(x&0x07) < 8 {
		return p.prevPalette + bg
	}
	return p.currPalette + bg
}

func (p *PPU) headlessSpriteZeroHit() {
	if !p.Mask.RenderingEnabled || !p.sprZeroVisible || p.Status.SprZeroHit {
		return
	}
	x := p.Cycle - 1
	if x == 255 || (x < 8 && (!p.Mask.showLeftBg() || !p.Mask.showLeftSpr())) || !p.sprPresent[x] {
		return
	}
	shift := 15 - p.Scroll.FineX
	bg := byte(p.tileShiftHi>>shift)&0x01<<1 | byte(p.tileShiftLo>>shift)&0x01
	if bg != 0 && p.sprites[0].pixel(x) != 0 {
		p.Status.SprZeroHit = true
	}
}

func (p *PPU) renderPixel() {
	addr := p.Scroll.Addr()
	var c byte
	if p.Mask.RenderingEnabled || addr&paletteStart != paletteStart {
		pal := uint16(p.pixelPalette())
		// Transparent pixels use the backdrop color.
		if pal&0x03 == 0 {
			pal = 0
		}
		c = p.peekPalette(paletteStart | pal)
	} else {
		// With rendering off and v pointing into palette RAM, the
		// backdrop is replaced by the addressed color.
		c = p.peekPalette(addr)
	}
	p.frame[p.Scanline*Width+p.Cycle-1] = uint16(c&p.Mask.grayscale()) | p.Mask.emphasis(p.region != system.NTSC)
}
