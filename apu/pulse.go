package apu

import "github.com/meadori/nescore/system"

// The sequencer steps backwards through each row.
var dutyCycles = [4][8]byte{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{0, 0, 0, 0, 0, 0, 1, 1}, // 25%
	{0, 0, 0, 0, 1, 1, 1, 1}, // 50%
	{1, 1, 1, 1, 1, 1, 0, 0}, // 25% negated
}

// Sweep periodically retunes a pulse channel.
type Sweep struct {
	Enabled bool
	Negate  bool
	Reload  bool
	Shift   byte
	Divider byte
	Period  byte
	Target  int
}

// Pulse is one of the two square wave channels.
type Pulse struct {
	// OnesComplement is set for pulse 1, whose sweep negation subtracts
	// one more than pulse 2's.
	OnesComplement bool

	Period   int
	Timer    Timer
	Duty     byte
	Step     byte
	Length   LengthCounter
	Envelope Envelope
	Sweep    Sweep
}

func (p *Pulse) updateTarget() {
	delta := p.Period >> p.Sweep.Shift
	if p.Sweep.Negate {
		p.Sweep.Target = p.Period - delta
		if p.OnesComplement {
			p.Sweep.Target--
		}
	} else {
		p.Sweep.Target = p.Period + delta
	}
}

func (p *Pulse) setPeriod(period int) {
	p.Period = period
	p.Timer.Period = uint16(period*2 + 1)
	p.updateTarget()
}

func (p *Pulse) muted() bool {
	return p.Period < 8 || (!p.Sweep.Negate && p.Sweep.Target > 0x7FF)
}

func (p *Pulse) clockSweep() {
	p.Sweep.Divider--
	if p.Sweep.Divider == 0 {
		if p.Sweep.Shift > 0 && p.Sweep.Enabled && p.Period >= 8 && p.Sweep.Target <= 0x7FF {
			p.setPeriod(p.Sweep.Target)
		}
		p.Sweep.Divider = p.Sweep.Period
	}
	if p.Sweep.Reload {
		p.Sweep.Divider = p.Sweep.Period
		p.Sweep.Reload = false
	}
}

func (p *Pulse) clockQuarter() {
	p.Envelope.clock()
}

func (p *Pulse) clockHalf() {
	p.Envelope.clock()
	p.Length.clock()
	p.clockSweep()
}

func (p *Pulse) writeCtrl(val byte) {
	p.Length.NewHalt = val&0x20 != 0
	p.Envelope.write(val)
	p.Duty = val >> 6
}

func (p *Pulse) writeSweep(val byte) {
	p.Sweep.Enabled = val&0x80 != 0
	p.Sweep.Negate = val&0x08 != 0
	p.Sweep.Period = (val>>4)&0x07 + 1
	p.Sweep.Shift = val & 0x07
	p.updateTarget()
	p.Sweep.Reload = true
}

func (p *Pulse) writeTimerLo(val byte) {
	p.setPeriod(p.Period&0x0700 | int(val))
}

func (p *Pulse) writeTimerHi(val byte) {
	p.Length.load(val >> 3)
	p.setPeriod(p.Period&0xFF | int(val&0x07)<<8)
	p.Step = 0
	p.Envelope.Start = true
}

func (p *Pulse) clock() {
	if p.Timer.tick() {
		p.Step = (p.Step - 1) & 0x07
	}
}

func (p *Pulse) output() float32 {
	if p.muted() || p.Length.Counter == 0 {
		return 0
	}
	return float32(dutyCycles[p.Duty][p.Step] * p.Envelope.output())
}

func (p *Pulse) reset(kind system.ResetKind) {
	p.Timer = Timer{}
	p.Length.reset(kind, false)
	p.Envelope.reset()
	p.Sweep = Sweep{}
	p.Period = 0
	p.updateTarget()
	p.Duty, p.Step = 0, 0
}
