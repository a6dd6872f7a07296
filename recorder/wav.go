// Package recorder captures what a session produces: the APU's audio as a
// WAV file and the controller input as a script that can be replayed.
package recorder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth  = 16
	pcmFormat = 1
)

// WAV streams mono 16-bit PCM to a file. Samples are written as they
// arrive, so a long session does not grow in memory.
type WAV struct {
	file *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
}

// NewWAV creates path and prepares it for samples at sampleRate.
func NewWAV(path string, sampleRate int) (*WAV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return &WAV{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, bitDepth, 1, pcmFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write appends samples in the range [-1, 1]. Out of range values are
// clipped.
func (w *WAV) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	w.buf.Data = w.buf.Data[:0]
	for _, s := range samples {
		w.buf.Data = append(w.buf.Data, int(toPCM(s)))
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}

// Close finishes the WAV header and closes the file.
func (w *WAV) Close() error {
	err := w.enc.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}

func toPCM(s float32) int16 {
	switch {
	case s >= 1:
		return 1<<15 - 1
	case s <= -1:
		return -1 << 15
	}
	return int16(s * (1<<15 - 1))
}

// ErrInvalidWAV is returned by DecodeWAV for data that is not a WAV file.
var ErrInvalidWAV = errors.New("not a valid wav file")

// DecodeWAV reads a 16-bit WAV file and returns the first channel as
// samples in [-1, 1] along with the sample rate.
func DecodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wav: %w", err)
	}

	channels := int(dec.NumChans)
	samples := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, float32(buf.Data[i])/(1<<15-1))
	}
	return samples, int(dec.SampleRate), nil
}
