package apu

import "github.com/meadori/nescore/system"

type frameEvent byte

const (
	frameNone frameEvent = iota
	frameQuarter
	frameHalf
)

var frameEvents = [6]frameEvent{frameQuarter, frameHalf, frameQuarter, frameNone, frameHalf, frameNone}

// CPU cycles at which each step of the sequence fires.
var (
	step4NTSC = [6]uint64{7457, 14913, 22371, 29828, 29829, 29830}
	step5NTSC = [6]uint64{7457, 14913, 22371, 29829, 37281, 37282}
	step4PAL  = [6]uint64{8313, 16627, 24939, 33252, 33253, 33254}
	step5PAL  = [6]uint64{8313, 16627, 24939, 33253, 41565, 41566}
)

func stepCycles(mode byte, r system.Region) [6]uint64 {
	switch {
	case mode == 0 && r == system.PAL:
		return step4PAL
	case mode == 0:
		return step4NTSC
	case r == system.PAL:
		return step5PAL
	default:
		return step5NTSC
	}
}

// FrameCounter sequences the quarter and half frame clocks and raises the
// frame IRQ in 4-step mode.
type FrameCounter struct {
	Steps [6]uint64
	Step  int
	Mode  byte
	Cycle uint64

	// A $4017 write is applied 3 or 4 cycles after it happens.
	Pending      bool
	PendingValue byte
	WriteDelay   byte

	// BlockCount suppresses a second clock in the two cycles after one
	// has fired.
	BlockCount byte
	InhibitIRQ bool
	IRQ        bool
}

func (f *FrameCounter) write(val byte, cycle uint64) {
	f.Pending = true
	f.PendingValue = val
	if cycle&0x01 == 1 {
		f.WriteDelay = 4
	} else {
		f.WriteDelay = 3
	}
	f.InhibitIRQ = val&0x40 != 0
	if f.InhibitIRQ {
		f.IRQ = false
	}
}

// clock advances the sequence by one CPU cycle, calling fire for every
// quarter or half frame event.
func (f *FrameCounter) clock(r system.Region, fire func(frameEvent)) {
	f.Cycle++
	if f.Cycle >= f.Steps[f.Step] {
		if !f.InhibitIRQ && f.Mode == 0 && f.Step >= 3 {
			f.IRQ = true
		}
		if ev := frameEvents[f.Step]; ev != frameNone && f.BlockCount == 0 {
			fire(ev)
			f.BlockCount = 2
		}
		f.Step++
		if f.Step == len(f.Steps) {
			f.Step = 0
			f.Cycle = 0
		}
	}

	if f.Pending {
		f.WriteDelay--
		if f.WriteDelay == 0 {
			f.Mode = f.PendingValue >> 7
			f.Steps = stepCycles(f.Mode, r)
			f.Step, f.Cycle = 0, 0
			f.Pending = false
			// 5-step mode clocks a half frame as soon as it takes effect.
			if f.Mode == 1 && f.BlockCount == 0 {
				fire(frameHalf)
				f.BlockCount = 2
			}
		}
	}

	if f.BlockCount > 0 {
		f.BlockCount--
	}
}

func (f *FrameCounter) reset(kind system.ResetKind, r system.Region) {
	f.Cycle = 0
	if kind == system.Hard {
		f.Mode = 0
		f.Steps = stepCycles(0, r)
		f.write(0x00, 0)
		f.WriteDelay--
	}
	f.Step = 0
	f.BlockCount = 0
	f.IRQ = false
}
