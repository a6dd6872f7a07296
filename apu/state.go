package apu

// State is a snapshot of the APU's channels and sequencer. The filter
// history and queued output are not part of it.
type State struct {
	Pulse1, Pulse2 Pulse
	Triangle       Triangle
	Noise          Noise
	DMC            DMC
	FrameCounter   FrameCounter
	Cycle          uint64
	SampleCounter  float64
}

func (a *APU) SaveState() State {
	return State{a.pulse1, a.pulse2, a.triangle, a.noise, a.dmc, a.frameCounter, a.cycle, a.sampleCounter}
}

func (a *APU) LoadState(s State) {
	a.pulse1, a.pulse2, a.triangle, a.noise, a.dmc = s.Pulse1, s.Pulse2, s.Triangle, s.Noise, s.DMC
	a.frameCounter, a.cycle, a.sampleCounter = s.FrameCounter, s.Cycle, s.SampleCounter
	a.frameSamples = a.frameSamples[:0]
}
