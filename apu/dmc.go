package apu

import "github.com/meadori/nescore/system"

var (
	dmcRatesNTSC = [16]uint16{428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54}
	dmcRatesPAL  = [16]uint16{398, 354, 316, 298, 276, 236, 210, 198, 176, 148, 132, 118, 98, 78, 66, 50}
)

func dmcRate(r system.Region, val byte) uint16 {
	if r == system.PAL {
		return dmcRatesPAL[val&0x0F] - 1
	}
	return dmcRatesNTSC[val&0x0F] - 1
}

// DMC plays 1-bit delta encoded samples fetched from CPU memory by DMA.
type DMC struct {
	Timer          Timer
	IRQEnabled     bool
	Loop           bool
	Addr           uint16
	SampleAddr     uint16
	BytesRemaining uint16
	SampleLength   uint16
	Buffer         byte
	BufferEmpty    bool
	// InitDelay counts down the cycles between enabling the channel and
	// the first sample fetch.
	InitDelay      byte
	Output         byte
	BitsRemaining  byte
	Shift          byte
	Silence        bool
	DMAPending     bool
	IRQ            bool
}

func (d *DMC) startSample() {
	d.Addr = d.SampleAddr
	d.BytesRemaining = d.SampleLength
}

// loadBuffer receives the byte fetched by a DMC DMA.
func (d *DMC) loadBuffer(val byte) {
	if d.BytesRemaining == 0 {
		return
	}
	d.Buffer = val
	d.BufferEmpty = false
	if d.Addr == 0xFFFF {
		d.Addr = 0x8000
	} else {
		d.Addr++
	}
	d.BytesRemaining--
	if d.BytesRemaining == 0 {
		if d.Loop {
			d.startSample()
		} else if d.IRQEnabled {
			d.IRQ = true
		}
	}
}

func (d *DMC) writeRate(val byte, r system.Region) {
	d.IRQEnabled = val&0x80 != 0
	d.Loop = val&0x40 != 0
	d.Timer.Period = dmcRate(r, val)
	if !d.IRQEnabled {
		d.IRQ = false
	}
}

func (d *DMC) writeAddr(val byte) {
	d.SampleAddr = 0xC000 | uint16(val)<<6
}

func (d *DMC) writeLength(val byte) {
	d.SampleLength = uint16(val)<<4 | 1
}

// setEnabled handles the DMC bit of $4015. Enabling an exhausted channel
// restarts its sample after a short parity dependent delay.
func (d *DMC) setEnabled(enabled bool, cycle uint64) {
	if !enabled {
		d.BytesRemaining = 0
		return
	}
	if d.BytesRemaining == 0 {
		d.startSample()
		if cycle&0x01 == 0 {
			d.InitDelay = 2
		} else {
			d.InitDelay = 3
		}
	}
}

func (d *DMC) clockInit() {
	if d.InitDelay == 0 {
		return
	}
	d.InitDelay--
	if d.InitDelay == 0 && d.BufferEmpty && d.BytesRemaining > 0 {
		d.DMAPending = true
	}
}

func (d *DMC) clock() {
	if !d.Timer.tick() {
		return
	}
	if !d.Silence {
		if d.Shift&0x01 == 1 {
			if d.Output <= 125 {
				d.Output += 2
			}
		} else if d.Output >= 2 {
			d.Output -= 2
		}
		d.Shift >>= 1
	}
	if d.BitsRemaining > 0 {
		d.BitsRemaining--
	}
	if d.BitsRemaining == 0 {
		d.BitsRemaining = 8
		d.Silence = d.BufferEmpty
		if !d.BufferEmpty {
			d.Shift = d.Buffer
			d.BufferEmpty = true
			if d.BytesRemaining > 0 {
				d.DMAPending = true
			}
		}
	}
}

func (d *DMC) output() float32 {
	return float32(d.Output)
}

func (d *DMC) reset(kind system.ResetKind, r system.Region) {
	d.Timer.Period = dmcRate(r, 0)
	d.Timer.Counter = d.Timer.Period
	if kind == system.Hard {
		d.SampleAddr = 0xC000
		d.SampleLength = 1
	}
	d.IRQEnabled, d.Loop = false, false
	d.Addr, d.BytesRemaining = 0, 0
	d.Buffer, d.BufferEmpty = 0, true
	d.InitDelay = 0
	d.Output = 0
	d.BitsRemaining = 8
	d.Shift = 0
	d.Silence = true
	d.DMAPending = false
	d.IRQ = false
}
