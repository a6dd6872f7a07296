package apu

import "github.com/meadori/nescore/system"

var (
	noisePeriodsNTSC = [16]uint16{4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068}
	noisePeriodsPAL  = [16]uint16{4, 8, 14, 30, 60, 88, 118, 148, 188, 236, 354, 472, 708, 944, 1890, 3778}
)

func noisePeriod(r system.Region, val byte) uint16 {
	if r == system.PAL {
		return noisePeriodsPAL[val&0x0F] - 1
	}
	return noisePeriodsNTSC[val&0x0F] - 1
}

// Noise is the pseudo-random channel driven by a 15-bit LFSR.
type Noise struct {
	Timer    Timer
	Shift    uint16
	Mode     bool
	Length   LengthCounter
	Envelope Envelope
}

func (n *Noise) clockQuarter() {
	n.Envelope.clock()
}

func (n *Noise) clockHalf() {
	n.Envelope.clock()
	n.Length.clock()
}

func (n *Noise) writeCtrl(val byte) {
	n.Length.NewHalt = val&0x20 != 0
	n.Envelope.write(val)
}

func (n *Noise) writePeriod(val byte, r system.Region) {
	n.Timer.Period = noisePeriod(r, val)
	n.Mode = val&0x80 != 0
}

func (n *Noise) writeLength(val byte) {
	n.Length.load(val >> 3)
	n.Envelope.Start = true
}

func (n *Noise) clock() {
	if !n.Timer.tick() {
		return
	}
	tap := uint16(1)
	if n.Mode {
		tap = 6
	}
	feedback := (n.Shift ^ n.Shift>>tap) & 0x01
	n.Shift = n.Shift>>1 | feedback<<14
}

func (n *Noise) output() float32 {
	if n.Shift&0x01 == 1 || n.Length.Counter == 0 {
		return 0
	}
	return float32(n.Envelope.output())
}

func (n *Noise) reset(kind system.ResetKind, r system.Region) {
	n.Timer = Timer{Period: noisePeriod(r, 0)}
	n.Length.reset(kind, false)
	n.Envelope.reset()
	n.Shift = 1
	n.Mode = false
}
