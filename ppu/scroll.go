package ppu

// Scroll holds the loopy registers shared by $2005 and $2006.
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X
//	||| || +++++-------- coarse Y
//	||| ++-------------- nametable select
//	+++----------------- fine Y
type Scroll struct {
	V, T  uint16
	FineX byte
	W     bool
	// Dots left before a completed $2006 write is copied into v.
	Delay byte
}

const (
	coarseXMask = 0x001F
	coarseYMask = 0x03E0
	ntXMask     = 0x0400
	ntYMask     = 0x0800
	fineYMask   = 0x7000
	addrUpdate  = 2
)

// Addr returns the 14-bit VRAM address held in v.
func (s *Scroll) Addr() uint16 { return s.V & 0x3FFF }

func (s *Scroll) fineY() uint16 { return (s.V & fineYMask) >> 12 }

// attrAddr returns the attribute byte address for the tile at v.
func (s *Scroll) attrAddr() uint16 {
	return 0x23C0 | s.V&(ntXMask|ntYMask) | (s.V>>4)&0x38 | (s.V>>2)&0x07
}

// attrShift returns the shift selecting the tile's quadrant of an
// attribute byte.
func (s *Scroll) attrShift() uint16 {
	return (s.V>>4)&0x04 | s.V&0x02
}

func (s *Scroll) writeNametable(val byte) {
	s.T = s.T&^(ntXMask|ntYMask) | uint16(val&0x03)<<10
}

// write handles $2005.
func (s *Scroll) write(val byte) {
	if !s.W {
		s.T = s.T&^coarseXMask | uint16(val>>3)
		s.FineX = val & 0x07
	} else {
		s.T = s.T&^(fineYMask|coarseYMask) | uint16(val&0x07)<<12 | uint16(val&0xF8)<<2
	}
	s.W = !s.W
}

// writeAddr handles $2006. The second write reaches v after a short delay.
func (s *Scroll) writeAddr(val byte) {
	if !s.W {
		s.T = s.T&0x00FF | uint16(val&0x3F)<<8
	} else {
		s.T = s.T&0xFF00 | uint16(val)
		s.Delay = addrUpdate
	}
	s.W = !s.W
}

// delayedUpdate counts down a pending $2006 write and reports when v was
// reloaded from t.
func (s *Scroll) delayedUpdate() bool {
	if s.Delay == 0 {
		return false
	}
	s.Delay--
	if s.Delay == 0 {
		s.V = s.T
		return true
	}
	return false
}

func (s *Scroll) increment(step uint16) {
	s.V = (s.V + step) & 0x7FFF
}

func (s *Scroll) incrementX() {
	if s.V&coarseXMask == coarseXMask {
		s.V &^= coarseXMask
		s.V ^= ntXMask
	} else {
		s.V++
	}
}

func (s *Scroll) incrementY() {
	if s.V&fineYMask != fineYMask {
		s.V += 0x1000
		return
	}
	s.V &^= fineYMask
	y := (s.V & coarseYMask) >> 5
	switch y {
	case 29:
		y = 0
		s.V ^= ntYMask
	case 31:
		y = 0
	default:
		y++
	}
	s.V = s.V&^coarseYMask | y<<5
}

func (s *Scroll) copyX() {
	mask := uint16(ntXMask | coarseXMask)
	s.V = s.V&^mask | s.T&mask
}

func (s *Scroll) copyY() {
	mask := uint16(fineYMask | ntYMask | coarseYMask)
	s.V = s.V&^mask | s.T&mask
}

func (s *Scroll) reset() {
	*s = Scroll{}
}
