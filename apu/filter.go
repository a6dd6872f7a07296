package apu

import "math"

type filter interface {
	consume(sample float32)
	output() float32
}

type iirKind byte

const (
	iirIdentity iirKind = iota
	iirHighPass
	iirLowPass
)

// iir is a first order RC filter.
type iir struct {
	kind       iirKind
	alpha      float32
	prevOutput float32
	prevInput  float32
	delta      float32
}

func highPass(sampleRate, cutoff float64) *iir {
	period := 1 / sampleRate
	rc := 1 / cutoff
	return &iir{kind: iirHighPass, alpha: float32(rc / (rc + period))}
}

func lowPass(sampleRate, cutoff float64) *iir {
	period := 1 / sampleRate
	rc := 1 / (2 * math.Pi * cutoff)
	return &iir{kind: iirLowPass, alpha: float32(rc / (rc + period))}
}

func (f *iir) consume(sample float32) {
	f.prevOutput = f.output()
	f.delta = sample - f.prevInput
	f.prevInput = sample
}

func (f *iir) output() float32 {
	switch f.kind {
	case iirHighPass:
		return f.alpha*f.prevOutput + f.alpha*f.delta
	case iirLowPass:
		return f.prevOutput + f.alpha*f.delta
	default:
		return f.prevInput
	}
}

// fir is a windowed-sinc low pass used ahead of decimation.
type fir struct {
	kernel []float32
	inputs []float32
	index  int
}

func firLowPass(sampleRate, cutoff float64, window int) *fir {
	return &fir{
		kernel: windowedSinc(sampleRate, cutoff, window),
		inputs: make([]float32, window+1),
	}
}

func (f *fir) consume(sample float32) {
	f.inputs[f.index] = sample
	f.index++
	if f.index >= len(f.inputs) {
		f.index = 0
	}
}

func (f *fir) output() float32 {
	var sum float32
	n := len(f.inputs)
	for i, k := range f.kernel {
		sum += k * f.inputs[(f.index+i)%n]
	}
	return sum
}

// windowedSinc builds a normalized Blackman windowed sinc kernel of
// window+1 taps.
func windowedSinc(sampleRate, cutoff float64, window int) []float32 {
	fc := cutoff / sampleRate
	m := float64(window)
	kernel := make([]float64, window+1)
	var sum float64
	for i := range kernel {
		x := float64(i) - m/2
		var v float64
		if i == window/2 {
			v = 2 * math.Pi * fc
		} else {
			v = math.Sin(2*math.Pi*fc*x) / x
		}
		v *= 0.42 - 0.5*math.Cos(2*math.Pi*float64(i)/m) + 0.08*math.Cos(4*math.Pi*float64(i)/m)
		kernel[i] = v
		sum += v
	}
	out := make([]float32, len(kernel))
	for i, v := range kernel {
		out[i] = float32(v / sum)
	}
	return out
}

type stage struct {
	f       filter
	period  float64
	counter float64
}

// filterChain runs the mixer output, produced once per CPU cycle, through
// the console's analog filters at an intermediate rate of roughly twice the
// output rate.
type filterChain struct {
	dt     float64
	stages []stage
}

func newFilterChain(clockRate, outputRate float64) *filterChain {
	rate := outputRate*2 + math.Pi/32
	period := 1 / rate
	return &filterChain{
		dt: 1 / clockRate,
		stages: []stage{
			{f: &iir{kind: iirIdentity}, period: 1},
			{f: highPass(rate, 90), period: period},
			{f: highPass(rate, 440), period: period},
			{f: lowPass(rate, 14000), period: period},
			{f: firLowPass(rate, outputRate*0.45, 60), period: period},
		},
	}
}

func (c *filterChain) consume(sample float32) {
	c.stages[0].f.consume(sample)
	for i := 1; i < len(c.stages); i++ {
		s := &c.stages[i]
		for s.counter >= s.period {
			s.counter -= s.period
			s.f.consume(c.stages[i-1].f.output())
		}
		s.counter += c.dt
	}
}

func (c *filterChain) output() float32 {
	return c.stages[len(c.stages)-1].f.output()
}
