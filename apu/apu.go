// Package apu emulates the 2A03 audio processing unit: two pulse channels,
// a triangle, a noise generator, the delta modulation channel and the frame
// counter that sequences their envelopes, sweeps and length counters.
package apu

import (
	"sync"

	"github.com/meadori/nescore/system"
)

// DefaultSampleRate is the output rate used unless SetSampleRate is called.
const DefaultSampleRate = 44100.0

// Non-linear mixer lookup tables indexed by summed channel levels.
var (
	pulseTable [31]float32
	tndTable   [203]float32
)

func init() {
	for i := 1; i < len(pulseTable); i++ {
		pulseTable[i] = float32(95.52 / (8128.0/float64(i) + 100))
	}
	for i := 1; i < len(tndTable); i++ {
		tndTable[i] = float32(163.67 / (24329.0/float64(i) + 100))
	}
}

// APU represents the Audio Processing Unit.
type APU struct {
	region system.Region

	pulse1       Pulse
	pulse2       Pulse
	triangle     Triangle
	noise        Noise
	dmc          DMC
	frameCounter FrameCounter
	cycle        uint64

	filters       *filterChain
	sampleRate    float64
	samplePeriod  float64
	sampleCounter float64
	frameSamples  []float32

	// The queue is drained by the audio device on its own goroutine.
	mu        sync.Mutex
	queue     []float32
	maxQueued int
}

// New creates an NTSC APU at the default sample rate, in its power-on state.
func New() *APU {
	a := &APU{
		sampleRate: DefaultSampleRate,
	}
	a.pulse1.OnesComplement = true
	a.SetRegion(system.NTSC)
	a.Reset(system.Hard)
	return a
}

// SetRegion switches the timing tables and clock rate.
func (a *APU) SetRegion(r system.Region) {
	a.region = r
	a.frameCounter.Steps = stepCycles(a.frameCounter.Mode, r)
	a.dmc.Timer.Period = dmcRate(r, 0)
	a.configureOutput()
}

// Region returns the timing the APU runs with.
func (a *APU) Region() system.Region {
	return a.region
}

// SetSampleRate changes the output sample rate.
func (a *APU) SetSampleRate(rate float64) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	a.sampleRate = rate
	a.configureOutput()
}

// SampleRate returns the output sample rate.
func (a *APU) SampleRate() float64 {
	return a.sampleRate
}

func (a *APU) configureOutput() {
	clockRate := a.region.ClockRate()
	a.filters = newFilterChain(clockRate, a.sampleRate)
	a.samplePeriod = clockRate / a.sampleRate
	a.sampleCounter = a.samplePeriod
	// Half a second of queued audio is plenty for any sink.
	a.maxQueued = int(a.sampleRate / 2)
}

// Reset puts every channel back into its reset state.
func (a *APU) Reset(kind system.ResetKind) {
	a.cycle = 0
	a.frameCounter.reset(kind, a.region)
	a.pulse1.reset(kind)
	a.pulse2.reset(kind)
	a.triangle.reset(kind)
	a.noise.reset(kind, a.region)
	a.dmc.reset(kind, a.region)
	a.frameSamples = a.frameSamples[:0]
}

// Clock performs one APU clock cycle. It is called once per CPU cycle.
func (a *APU) Clock() {
	a.cycle++
	a.frameCounter.clock(a.region, a.frameEvent)

	a.pulse1.Length.apply()
	a.pulse2.Length.apply()
	a.triangle.Length.apply()
	a.noise.Length.apply()

	a.dmc.clockInit()
	a.pulse1.clock()
	a.pulse2.clock()
	a.triangle.clock()
	a.noise.clock()
	a.dmc.clock()

	a.mix()
}

func (a *APU) frameEvent(ev frameEvent) {
	switch ev {
	case frameQuarter:
		a.pulse1.clockQuarter()
		a.pulse2.clockQuarter()
		a.triangle.clockQuarter()
		a.noise.clockQuarter()
	case frameHalf:
		a.pulse1.clockHalf()
		a.pulse2.clockHalf()
		a.triangle.clockHalf()
		a.noise.clockHalf()
	}
}

// output returns the current mixed, unfiltered level.
func (a *APU) output() float32 {
	pulse := int(a.pulse1.output() + a.pulse2.output())
	tnd := int(3*a.triangle.output() + 2*a.noise.output() + a.dmc.output())
	return pulseTable[pulse] + tndTable[tnd]
}

func (a *APU) mix() {
	a.filters.consume(a.output())
	a.sampleCounter--
	if a.sampleCounter <= 1 {
		a.frameSamples = append(a.frameSamples, a.filters.output())
		a.sampleCounter += a.samplePeriod
	}
}

// FrameIRQ reports whether the frame counter is holding the IRQ line.
func (a *APU) FrameIRQ() bool {
	return a.frameCounter.IRQ
}

// DMCIRQ reports whether the DMC is holding the IRQ line.
func (a *APU) DMCIRQ() bool {
	return a.dmc.IRQ
}

// DMCRequest returns the address of a pending DMC sample fetch and clears
// the request. The fetched byte is handed back with LoadDMC.
func (a *APU) DMCRequest() (uint16, bool) {
	if !a.dmc.DMAPending {
		return 0, false
	}
	a.dmc.DMAPending = false
	return a.dmc.Addr, true
}

// LoadDMC fills the DMC sample buffer with a byte fetched by DMA.
func (a *APU) LoadDMC(val byte) {
	a.dmc.loadBuffer(val)
}

// CPUPeek returns $4015 without clearing the frame interrupt.
func (a *APU) CPUPeek(addr uint16) byte {
	if addr != 0x4015 {
		return 0
	}
	var data byte
	if a.pulse1.Length.Counter > 0 {
		data |= 0x01
	}
	if a.pulse2.Length.Counter > 0 {
		data |= 0x02
	}
	if a.triangle.Length.Counter > 0 {
		data |= 0x04
	}
	if a.noise.Length.Counter > 0 {
		data |= 0x08
	}
	if a.dmc.BytesRemaining > 0 {
		data |= 0x10
	}
	if a.frameCounter.IRQ {
		data |= 0x40
	}
	if a.dmc.IRQ {
		data |= 0x80
	}
	return data
}

// CPURead handles CPU reads from the APU's registers. Only $4015 is
// readable; reading it acknowledges the frame interrupt.
func (a *APU) CPURead(addr uint16) byte {
	data := a.CPUPeek(addr)
	if addr == 0x4015 {
		a.frameCounter.IRQ = false
	}
	return data
}

// CPUWrite handles CPU writes to the APU's registers.
func (a *APU) CPUWrite(addr uint16, data byte) {
	switch addr {
	case 0x4000:
		a.pulse1.writeCtrl(data)
	case 0x4001:
		a.pulse1.writeSweep(data)
	case 0x4002:
		a.pulse1.writeTimerLo(data)
	case 0x4003:
		a.pulse1.writeTimerHi(data)
	case 0x4004:
		a.pulse2.writeCtrl(data)
	case 0x4005:
		a.pulse2.writeSweep(data)
	case 0x4006:
		a.pulse2.writeTimerLo(data)
	case 0x4007:
		a.pulse2.writeTimerHi(data)
	case 0x4008:
		a.triangle.writeLinear(data)
	case 0x400A:
		a.triangle.writeTimerLo(data)
	case 0x400B:
		a.triangle.writeTimerHi(data)
	case 0x400C:
		a.noise.writeCtrl(data)
	case 0x400E:
		a.noise.writePeriod(data, a.region)
	case 0x400F:
		a.noise.writeLength(data)
	case 0x4010:
		a.dmc.writeRate(data, a.region)
	case 0x4011:
		a.dmc.Output = data & 0x7F
	case 0x4012:
		a.dmc.writeAddr(data)
	case 0x4013:
		a.dmc.writeLength(data)
	case 0x4015:
		a.dmc.IRQ = false
		a.pulse1.Length.setEnabled(data&0x01 != 0)
		a.pulse2.Length.setEnabled(data&0x02 != 0)
		a.triangle.Length.setEnabled(data&0x04 != 0)
		a.noise.Length.setEnabled(data&0x08 != 0)
		a.dmc.setEnabled(data&0x10 != 0, a.cycle)
	case 0x4017:
		a.frameCounter.write(data, a.cycle)
	}
}

// Samples returns the samples produced since the last EndFrame.
func (a *APU) Samples() []float32 {
	return a.frameSamples
}

// EndFrame moves the samples produced during the frame onto the output
// queue and returns a copy of them. When the queue has no reader it is
// capped by dropping the oldest samples.
func (a *APU) EndFrame() []float32 {
	batch := make([]float32, len(a.frameSamples))
	copy(batch, a.frameSamples)
	a.frameSamples = a.frameSamples[:0]

	a.mu.Lock()
	a.queue = append(a.queue, batch...)
	if over := len(a.queue) - a.maxQueued; over > 0 {
		a.queue = append(a.queue[:0], a.queue[over:]...)
	}
	a.mu.Unlock()
	return batch
}

// Queued returns the number of samples waiting to be read.
func (a *APU) Queued() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// ReadSamples drains queued samples into p as 16-bit little-endian stereo
// frames. It returns the number of bytes written.
func (a *APU) ReadSamples(p []byte) (n int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	numSamples := len(p) / 4 // 2 channels, 2 bytes each
	if numSamples > len(a.queue) {
		numSamples = len(a.queue)
	}

	written := 0
	for i := 0; i < numSamples; i++ {
		sample16 := toInt16(a.queue[i])
		p[written] = byte(sample16)
		p[written+1] = byte(sample16 >> 8)
		p[written+2] = byte(sample16)
		p[written+3] = byte(sample16 >> 8)
		written += 4
	}

	a.queue = append(a.queue[:0], a.queue[numSamples:]...)
	return written, nil
}

func toInt16(s float32) int16 {
	switch {
	case s > 1:
		s = 1
	case s < -1:
		s = -1
	}
	return int16(s * 32767)
}

// Stream adapts the sample queue to io.Reader for audio devices.
type Stream struct {
	APU *APU
}

func (s Stream) Read(p []byte) (int, error) {
	return s.APU.ReadSamples(p)
}
