package recorder

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meadori/nescore/controller"
)

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWAV(path, 44100)
	if err != nil {
		t.Fatal(err)
	}
	in := []float32{0, 0.5, -0.5, 1.5, -1.5}
	if err := w.Write(in[:2]); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(in[2:]); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	out, rate, err := DecodeWAV(f)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 44100 {
		t.Errorf("Expected rate 44100, but got %d", rate)
	}

	expected := []float32{0, 0.5, -0.5, 1, -1}
	if len(out) != len(expected) {
		t.Fatalf("Expected %d samples, but got %d", len(expected), len(out))
	}
	for i := range expected {
		if math.Abs(float64(out[i]-expected[i])) > 0.001 {
			t.Errorf("Expected sample %d to be %v, but got %v", i, expected[i], out[i])
		}
	}
}

func TestDecodeInvalidWAV(t *testing.T) {
	if _, _, err := DecodeWAV(bytes.NewReader([]byte("not a wav file"))); err != ErrInvalidWAV {
		t.Errorf("Expected ErrInvalidWAV, but got %v", err)
	}
}

func TestInputLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewInputLog(&buf)
	frames := []controller.Button{
		0, 0, 0,
		controller.ButtonStart,
		controller.ButtonA | controller.ButtonRight, controller.ButtonA | controller.ButtonRight,
	}
	for _, b := range frames {
		if err := l.Frame(b); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.Flush(); err != nil {
		t.Fatal(err)
	}

	expected := "3 NONE\n1 START\n2 A+RIGHT\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, but got %q", expected, buf.String())
	}

	steps, err := ReadInputScript(strings.NewReader("# recorded\n\n" + buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 3 || steps[2].Frames != 2 || steps[2].Buttons != controller.ButtonA|controller.ButtonRight {
		t.Errorf("Expected the log to read back, but got %v", steps)
	}
}

func TestParseInputLine(t *testing.T) {
	tests := []struct {
		line string
		step InputStep
		err  bool
	}{
		{"10 NONE", InputStep{10, 0}, false},
		{"5 A+B", InputStep{5, controller.ButtonA | controller.ButtonB}, false},
		{"1 select", InputStep{1, controller.ButtonSelect}, false},
		{"x A", InputStep{}, true},
		{"-1 A", InputStep{}, true},
		{"3", InputStep{}, true},
		{"3 JUMP", InputStep{}, true},
	}

	for _, tt := range tests {
		step, err := ParseInputLine(tt.line)
		if (err != nil) != tt.err {
			t.Errorf("%q: Expected error to be %v, but got %v", tt.line, tt.err, err)
		}
		if step != tt.step {
			t.Errorf("%q: Expected %v, but got %v", tt.line, tt.step, step)
		}
	}
}

func TestReadInputScriptError(t *testing.T) {
	_, err := ReadInputScript(strings.NewReader("1 A\nbogus\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected an error naming line 2, but got %v", err)
	}
}
