package apu

import "github.com/meadori/nescore/system"

var triangleWaveform = [32]byte{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// LinearCounter is the triangle's second, finer grained length gate.
type LinearCounter struct {
	Reload  bool
	Control bool
	Load    byte
	Counter byte
}

func (l *LinearCounter) clock() {
	if l.Reload {
		l.Counter = l.Load
	} else if l.Counter > 0 {
		l.Counter--
	}
	if !l.Control {
		l.Reload = false
	}
}

// Triangle is the 32-step triangle wave channel.
type Triangle struct {
	Timer  Timer
	Step   byte
	Length LengthCounter
	Linear LinearCounter
}

func (t *Triangle) clockQuarter() {
	t.Linear.clock()
}

func (t *Triangle) clockHalf() {
	t.Linear.clock()
	t.Length.clock()
}

func (t *Triangle) writeLinear(val byte) {
	t.Linear.Control = val&0x80 != 0
	t.Linear.Load = val & 0x7F
	t.Length.NewHalt = t.Linear.Control
}

func (t *Triangle) writeTimerLo(val byte) {
	t.Timer.Period = t.Timer.Period&0xFF00 | uint16(val)
}

func (t *Triangle) writeTimerHi(val byte) {
	t.Length.load(val >> 3)
	t.Timer.Period = t.Timer.Period&0x00FF | uint16(val&0x07)<<8
	t.Linear.Reload = true
}

// clock advances the sequencer, which only moves while both counters are
// non-zero.
func (t *Triangle) clock() {
	if t.Timer.tick() && t.Length.Counter > 0 && t.Linear.Counter > 0 {
		t.Step = (t.Step + 1) & 0x1F
	}
}

func (t *Triangle) output() float32 {
	// Ultrasonic periods settle at the midpoint instead of popping.
	if t.Timer.Period < 2 {
		return 7.5
	}
	return float32(triangleWaveform[t.Step])
}

func (t *Triangle) reset(kind system.ResetKind) {
	t.Length.reset(kind, true)
	t.Linear = LinearCounter{}
	t.Step = 0
}
