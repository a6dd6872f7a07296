package controller

import (
	"testing"

	"github.com/meadori/nescore/system"
)

func readBits(read func() byte, n int) []byte {
	bits := make([]byte, n)
	for i := range bits {
		bits[i] = read()
	}
	return bits
}

func TestShiftRegister(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{true, false, false, true, false, false, false, true}) // A, Start, Right
	c.Write(1)
	c.Write(0)

	expected := []byte{1, 0, 0, 1, 0, 0, 0, 1, 1, 1}
	got := readBits(c.Read, len(expected))
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Expected bit %d to be %d, but got %d", i, expected[i], got[i])
		}
	}
}

func TestStrobeHeldReturnsA(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(1)
	for i := 0; i < 4; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("Expected A while strobe is held, but got %d", got)
		}
	}
	if c.Index() != 0 {
		t.Errorf("Expected index to stay 0, but got %d", c.Index())
	}
}

func TestOppositeDirections(t *testing.T) {
	tests := []struct {
		first, second Button
		concurrent    bool
		expected      Button
	}{
		{ButtonLeft, ButtonRight, false, ButtonRight},
		{ButtonUp, ButtonDown, false, ButtonDown},
		{ButtonDown, ButtonUp, false, ButtonUp},
		{ButtonLeft, ButtonRight, true, ButtonLeft | ButtonRight},
		{ButtonLeft, ButtonUp, false, ButtonLeft | ButtonUp},
	}

	for _, tt := range tests {
		c := New()
		c.ConcurrentDPad = tt.concurrent
		c.SetButton(tt.first, true)
		c.SetButton(tt.second, true)
		if c.Buttons() != tt.expected {
			t.Errorf("%v then %v: Expected %v, but got %v", tt.first, tt.second, tt.expected, c.Buttons())
		}
	}
}

func TestParseButtons(t *testing.T) {
	tests := []struct {
		in       string
		expected Button
		err      bool
	}{
		{"", 0, false},
		{"NONE", 0, false},
		{"a,right", ButtonA | ButtonRight, false},
		{"START+SELECT", ButtonStart | ButtonSelect, false},
		{"turboa", ButtonTurboA, false},
		{"X", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseButtons(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("%q: Expected error to be %v, but got %v", tt.in, tt.err, err)
		}
		if got != tt.expected {
			t.Errorf("%q: Expected %v, but got %v", tt.in, tt.expected, got)
		}
	}

	if s := (ButtonA | ButtonRight).String(); s != "A,RIGHT" {
		t.Errorf("Expected A,RIGHT, but got %s", s)
	}
}

func TestTurbo(t *testing.T) {
	p := NewPorts()
	p.Pads[0].SetButton(ButtonTurboA, true)

	for i := 0; i < 30; i++ {
		p.Clock()
	}
	if !p.Pads[0].Pressed(ButtonA) {
		t.Fatalf("Expected turbo to press A on the first toggle")
	}
	for i := 0; i < turboPeriod; i++ {
		p.Clock()
	}
	if p.Pads[0].Pressed(ButtonA) {
		t.Errorf("Expected turbo to release A on the next toggle")
	}

	p.Pads[0].SetButton(ButtonTurboA, false)
	if p.Pads[0].Buttons() != 0 {
		t.Errorf("Expected releasing turbo to release A, but got %v", p.Pads[0].Buttons())
	}
}

func TestFourScore(t *testing.T) {
	p := NewPorts()
	p.FourScore = true
	p.Pads[0].SetState(ButtonA)
	p.Pads[2].SetState(ButtonB)
	p.Pads[1].SetState(ButtonStart)
	p.Pads[3].SetState(ButtonSelect)
	p.Write(1)
	p.Write(0)

	port0 := readBits(func() byte { return p.Read(0) }, 25)
	port1 := readBits(func() byte { return p.Read(1) }, 25)

	expected0 := []byte{
		1, 0, 0, 0, 0, 0, 0, 0, // player 1
		0, 1, 0, 0, 0, 0, 0, 0, // player 3
		0, 0, 0, 1, 0, 0, 0, 0, // signature $10
		1,
	}
	expected1 := []byte{
		0, 0, 0, 1, 0, 0, 0, 0, // player 2
		0, 0, 1, 0, 0, 0, 0, 0, // player 4
		0, 0, 1, 0, 0, 0, 0, 0, // signature $20
		1,
	}
	for i := range expected0 {
		if port0[i] != expected0[i] {
			t.Errorf("Expected port 0 bit %d to be %d, but got %d", i, expected0[i], port0[i])
		}
		if port1[i] != expected1[i] {
			t.Errorf("Expected port 1 bit %d to be %d, but got %d", i, expected1[i], port1[i])
		}
	}
}

func TestPortsWithoutFourScore(t *testing.T) {
	p := NewPorts()
	p.Pads[1].SetState(ButtonB)
	p.Write(1)
	p.Write(0)

	if p.Peek(1) != 0 {
		t.Errorf("Expected peek of bit 0 to be 0")
	}
	bits := readBits(func() byte { return p.Read(1) }, 9)
	if bits[1] != 1 || bits[8] != 1 {
		t.Errorf("Expected B then the trailing 1, but got %v", bits)
	}
}

func TestPortsReset(t *testing.T) {
	p := NewPorts()
	p.Pads[0].SetState(ButtonA)
	p.Reset(system.Soft)
	if !p.Pads[0].Pressed(ButtonA) {
		t.Errorf("Expected a soft reset to keep held buttons")
	}
	p.Reset(system.Hard)
	if p.Pads[0].Buttons() != 0 {
		t.Errorf("Expected a hard reset to release buttons")
	}
}

func TestSaveLoadState(t *testing.T) {
	p := NewPorts()
	p.FourScore = true
	p.Pads[3].SetState(ButtonUp | ButtonA)
	p.Write(1)
	p.Write(0)
	p.Read(0)
	p.Read(0)

	s := p.SaveState()
	q := NewPorts()
	q.LoadState(s)
	if q.SaveState() != s {
		t.Errorf("Expected restored ports to match the snapshot")
	}
	if q.Pads[0].Index() != 2 {
		t.Errorf("Expected index 2, but got %d", q.Pads[0].Index())
	}
}
