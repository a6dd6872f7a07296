package ppu

// State is a snapshot of everything the PPU needs to resume mid-frame.
type State struct {
	Scanline, Cycle, SprCount                                              int
	MasterClock                                                            uint64
	Ctrl                                                                   Ctrl
	Mask                                                                   Mask
	MaskPending                                                            bool
	Status                                                                 Status
	Scroll                                                                 Scroll
	Ciram                                                                  [2048]byte
	Palette                                                                [32]byte
	OAM                                                                    [oamSize]byte
	SecondaryOAM                                                           [secondaryOAMSize]byte
	Sprites                                                                [8]Sprite
	SprPresent                                                             [Width]bool
	PrevPalette, CurrPalette, NextPalette, TileLo, TileHi                  byte
	TileShiftLo, TileShiftHi, TileAddr                                     uint16
	OAMAddr, OAMAddrLo, OAMAddrHi, OAMFetch, SecondaryOAMAddr, OverflowCnt byte
	OAMEvalDone, SprInRange, SprZeroInRange, SprZeroVisible                bool
	VRAMBuffer, OpenBus                                                    byte
	PreventVBL, ResetSignal                                                bool
	FrameCount                                                             uint32
	FrameBuffer                                                            []uint16
}

func (p *PPU) SaveState() State {
	fb := make([]uint16, len(p.frame))
	copy(fb, p.frame[:])

	return State{
		p.Scanline, p.Cycle, p.sprCount,
		p.MasterClock,
		p.Ctrl,
		p.Mask,
		p.Mask.pendingUpdate,
		p.Status,
		p.Scroll,
		p.ciram,
		p.palette,
		p.oam,
		p.secondaryOAM,
		p.sprites,
		p.sprPresent,
		p.prevPalette, p.currPalette, p.nextPalette, p.tileLo, p.tileHi,
		p.tileShiftLo, p.tileShiftHi, p.tileAddr,
		p.oamAddr, p.oamAddrLo, p.oamAddrHi, p.oamFetch, p.secondaryOAMAddr, p.overflowCount,
		p.oamEvalDone, p.sprInRange, p.sprZeroInRange, p.sprZeroVisible,
		p.vramBuffer, p.openBus,
		p.preventVBL, p.resetSignal,
		p.frameCount,
		fb,
	}
}

func (p *PPU) LoadState(s State) {
	p.Scanline, p.Cycle, p.sprCount = s.Scanline, s.Cycle, s.SprCount
	p.MasterClock = s.MasterClock
	p.Ctrl, p.Mask, p.Status, p.Scroll = s.Ctrl, s.Mask, s.Status, s.Scroll
	p.Mask.pendingUpdate = s.MaskPending
	p.ciram, p.palette, p.oam, p.secondaryOAM = s.Ciram, s.Palette, s.OAM, s.SecondaryOAM
	p.sprites, p.sprPresent = s.Sprites, s.SprPresent
	p.prevPalette, p.currPalette, p.nextPalette, p.tileLo, p.tileHi = s.PrevPalette, s.CurrPalette, s.NextPalette, s.TileLo, s.TileHi
	p.tileShiftLo, p.tileShiftHi, p.tileAddr = s.TileShiftLo, s.TileShiftHi, s.TileAddr
	p.oamAddr, p.oamAddrLo, p.oamAddrHi, p.oamFetch, p.secondaryOAMAddr, p.overflowCount = s.OAMAddr, s.OAMAddrLo, s.OAMAddrHi, s.OAMFetch, s.SecondaryOAMAddr, s.OverflowCnt
	p.oamEvalDone, p.sprInRange, p.sprZeroInRange, p.sprZeroVisible = s.OAMEvalDone, s.SprInRange, s.SprZeroInRange, s.SprZeroVisible
	p.vramBuffer, p.openBus = s.VRAMBuffer, s.OpenBus
	p.preventVBL, p.resetSignal = s.PreventVBL, s.ResetSignal
	p.frameCount = s.FrameCount

	if len(s.FrameBuffer) == len(p.frame) {
		copy(p.frame[:], s.FrameBuffer)
	}
}
