// Package system holds the console-wide constants shared by every chip: the
// video region and the kind of reset being performed.
package system

import (
	"fmt"
	"strings"
)

// Region selects the timing of the console.
type Region byte

const (
	NTSC Region = iota
	PAL
	Dendy
)

// Master clock rates and the CPU divider for each region.
const (
	masterClockNTSC = 21477272.0
	masterClockPAL  = 26601712.0
	cpuDividerNTSC  = 12.0
	cpuDividerPAL   = 16.0
	cpuDividerDendy = 15.0
	frameRateNTSC   = 60.0988
	frameRatePAL    = 50.0070
	frameRateDendy  = 50.0070
)

func (r Region) String() string {
	switch r {
	case PAL:
		return "PAL"
	case Dendy:
		return "Dendy"
	default:
		return "NTSC"
	}
}

// ParseRegion converts a region name into a Region.
func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(s) {
	case "ntsc", "":
		return NTSC, nil
	case "pal":
		return PAL, nil
	case "dendy":
		return Dendy, nil
	}
	return NTSC, fmt.Errorf("unknown region %q", s)
}

// ClockRate returns the CPU clock rate in Hz.
func (r Region) ClockRate() float64 {
	switch r {
	case PAL:
		return masterClockPAL / cpuDividerPAL
	case Dendy:
		return masterClockPAL / cpuDividerDendy
	default:
		return masterClockNTSC / cpuDividerNTSC
	}
}

// FrameRate returns the nominal video frame rate in Hz.
func (r Region) FrameRate() float64 {
	switch r {
	case PAL:
		return frameRatePAL
	case Dendy:
		return frameRateDendy
	default:
		return frameRateNTSC
	}
}

// CPUCycleSplit returns the master clock increments spent before and after
// each CPU bus access.
func (r Region) CPUCycleSplit() (start, end uint64) {
	switch r {
	case PAL:
		return 8, 8
	case Dendy:
		return 7, 8
	default:
		return 6, 6
	}
}

// ResetKind tells components whether the reset button was pressed or the
// console was power cycled.
type ResetKind byte

const (
	Soft ResetKind = iota
	Hard
)

func (k ResetKind) String() string {
	if k == Hard {
		return "hard"
	}
	return "soft"
}
