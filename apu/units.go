package apu

import "github.com/meadori/nescore/system"

var lengthCounterTable = [32]byte{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// Timer is a down counter that reloads from Period after reaching zero.
type Timer struct {
	Period  uint16
	Counter uint16
}

// tick reports whether the timer expired on this clock.
func (t *Timer) tick() bool {
	if t.Counter == 0 {
		t.Counter = t.Period
		return true
	}
	t.Counter--
	return false
}

// Envelope produces either a constant volume or a decaying 15..0 ramp.
type Envelope struct {
	Start    bool
	Constant bool
	Loop     bool
	Volume   byte
	Divider  byte
	Counter  byte
}

func (e *Envelope) write(val byte) {
	e.Loop = val&0x20 != 0
	e.Constant = val&0x10 != 0
	e.Volume = val & 0x0F
}

func (e *Envelope) clock() {
	switch {
	case e.Start:
		e.Start = false
		e.Counter = 15
		e.Divider = e.Volume
	case e.Divider > 0:
		e.Divider--
	default:
		e.Divider = e.Volume
		if e.Counter > 0 {
			e.Counter--
		} else if e.Loop {
			e.Counter = 15
		}
	}
}

func (e *Envelope) output() byte {
	if e.Constant {
		return e.Volume
	}
	return e.Counter
}

func (e *Envelope) reset() {
	*e = Envelope{}
}

// LengthCounter silences a channel once it counts down to zero. Reloads and
// halt changes written by the CPU take effect after the frame counter has
// had its chance to clock the counter on the same cycle.
type LengthCounter struct {
	Enabled  bool
	Halt     bool
	NewHalt  bool
	Counter  byte
	Previous byte
	Reload   byte
}

func (l *LengthCounter) load(idx byte) {
	if l.Enabled {
		l.Reload = lengthCounterTable[idx&0x1F]
		l.Previous = l.Counter
	}
}

func (l *LengthCounter) setEnabled(enabled bool) {
	if !enabled {
		l.Counter = 0
	}
	l.Enabled = enabled
}

// apply commits a pending reload unless a half frame clock changed the
// counter since the write.
func (l *LengthCounter) apply() {
	if l.Reload > 0 {
		if l.Counter == l.Previous {
			l.Counter = l.Reload
		}
		l.Reload = 0
	}
	l.Halt = l.NewHalt
}

func (l *LengthCounter) clock() {
	if l.Counter > 0 && !l.Halt {
		l.Counter--
	}
}

// reset clears the counter. The triangle's counter survives a soft reset.
func (l *LengthCounter) reset(kind system.ResetKind, keepOnSoft bool) {
	l.Enabled = false
	if kind == system.Soft && keepOnSoft {
		return
	}
	*l = LengthCounter{}
}
