// Package controller emulates the standard joypad's shift register and the
// adapters that sit between the joypads and $4016/$4017.
package controller

import (
	"fmt"
	"strings"

	"github.com/meadori/nescore/system"
)

// Button is a bit in a controller's button state.
type Button uint16

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	// Turbo buttons toggle A or B while held.
	ButtonTurboA
	ButtonTurboB
)

var buttonNames = []struct {
	button Button
	name   string
}{
	{ButtonA, "A"},
	{ButtonB, "B"},
	{ButtonSelect, "SELECT"},
	{ButtonStart, "START"},
	{ButtonUp, "UP"},
	{ButtonDown, "DOWN"},
	{ButtonLeft, "LEFT"},
	{ButtonRight, "RIGHT"},
	{ButtonTurboA, "TURBOA"},
	{ButtonTurboB, "TURBOB"},
}

// ParseButtons converts a list such as "A,RIGHT" or "a+start" into a
// button mask. An empty string or "NONE" means no buttons.
func ParseButtons(s string) (Button, error) {
	var mask Button
	fields := strings.FieldsFunc(strings.ToUpper(s), func(r rune) bool {
		return r == ',' || r == '+' || r == ' '
	})
	for _, f := range fields {
		if f == "NONE" {
			continue
		}
		found := false
		for _, bn := range buttonNames {
			if bn.name == f {
				mask |= bn.button
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown button %q", f)
		}
	}
	return mask, nil
}

func (b Button) String() string {
	var names []string
	for _, bn := range buttonNames {
		if b&bn.button != 0 {
			names = append(names, bn.name)
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, ",")
}

// Controller represents a standard NES controller.
type Controller struct {
	buttons Button
	index   byte // The current bit being read from the shift register
	strobe  bool // The strobe latch

	// ConcurrentDPad allows opposite directions to be held together.
	ConcurrentDPad bool
}

// New creates a new Controller instance.
func New() *Controller {
	return &Controller{}
}

// SetButtons updates the state of the eight standard buttons, in the order
// A, B, Select, Start, Up, Down, Left, Right. Turbo state is kept.
func (c *Controller) SetButtons(buttons [8]bool) {
	var mask Button
	for i, pressed := range buttons {
		if pressed {
			mask |= 1 << i
		}
	}
	c.buttons = c.buttons&(ButtonTurboA|ButtonTurboB) | mask
}

// SetButton presses or releases one button. Pressing a direction releases
// its opposite unless ConcurrentDPad is set, and releasing a turbo button
// releases the button it was toggling.
func (c *Controller) SetButton(b Button, pressed bool) {
	filter := pressed && !c.ConcurrentDPad
	switch {
	case b == ButtonLeft && filter:
		c.buttons &^= ButtonRight
	case b == ButtonRight && filter:
		c.buttons &^= ButtonLeft
	case b == ButtonUp && filter:
		c.buttons &^= ButtonDown
	case b == ButtonDown && filter:
		c.buttons &^= ButtonUp
	case b == ButtonTurboA && !pressed:
		c.buttons &^= ButtonA
	case b == ButtonTurboB && !pressed:
		c.buttons &^= ButtonB
	}
	if pressed {
		c.buttons |= b
	} else {
		c.buttons &^= b
	}
}

// SetState replaces the whole button state.
func (c *Controller) SetState(b Button) {
	c.buttons = b
}

// Buttons returns the current button state.
func (c *Controller) Buttons() Button {
	return c.buttons
}

// Pressed reports whether every button in b is held.
func (c *Controller) Pressed(b Button) bool {
	return c.buttons&b == b
}

// Write handles CPU writes to the controller register ($4016).
func (c *Controller) Write(data byte) {
	c.strobe = data&1 == 1
	if c.strobe {
		c.index = 0 // Strobe high, reset the read index
	}
}

// Peek returns the bit Read would return without shifting.
func (c *Controller) Peek() byte {
	if c.index >= 8 {
		return 1 // After the 8 main buttons, standard controllers return 1.
	}
	return byte(c.buttons>>c.index) & 1
}

// Read handles CPU reads from the controller register.
func (c *Controller) Read() byte {
	value := c.Peek()
	// If strobe is low, the shift register is advanced on each read.
	if !c.strobe && c.index < 8 {
		c.index++
	}
	return value
}

// Index returns how many bits have been shifted out.
func (c *Controller) Index() byte {
	return c.index
}

// Reset releases every button and clears the shift register.
func (c *Controller) Reset() {
	c.buttons = 0
	c.index = 0
	c.strobe = false
}

// turboPeriod is the number of CPU cycles between turbo toggles.
const turboPeriod = 89500

// Ports connects up to four controllers to the two controller ports. With
// the Four Score attached, each port reports 8 bits from its first
// controller, 8 from its second and then an 8 bit signature.
type Ports struct {
	Pads       [4]*Controller
	FourScore  bool
	signatures [2]*Controller
	turbo      uint32
}

// NewPorts creates the ports with four disconnected-but-present
// controllers.
func NewPorts() *Ports {
	p := &Ports{}
	for i := range p.Pads {
		p.Pads[i] = New()
	}
	p.signatures = [2]*Controller{New(), New()}
	p.Reset(system.Hard)
	return p
}

// Write strobes every controller, including the signature registers.
func (p *Ports) Write(data byte) {
	for _, pad := range p.Pads {
		pad.Write(data)
	}
	for _, sig := range p.signatures {
		sig.Write(data)
	}
}

func (p *Ports) source(port int) *Controller {
	if !p.FourScore {
		return p.Pads[port]
	}
	switch {
	case p.Pads[port].Index() < 8:
		return p.Pads[port]
	case p.Pads[port+2].Index() < 8:
		return p.Pads[port+2]
	case p.signatures[port].Index() < 8:
		return p.signatures[port]
	}
	return nil
}

// Read returns the data bit for port 0 ($4016) or 1 ($4017).
func (p *Ports) Read(port int) byte {
	if c := p.source(port & 1); c != nil {
		return c.Read()
	}
	return 1
}

// Peek returns what Read would without shifting.
func (p *Ports) Peek(port int) byte {
	if c := p.source(port & 1); c != nil {
		return c.Peek()
	}
	return 1
}

// Clock advances the turbo timer by one CPU cycle.
func (p *Ports) Clock() {
	if p.turbo > 0 {
		p.turbo--
	}
	if p.turbo != 0 {
		return
	}
	p.turbo = turboPeriod
	for _, pad := range p.Pads {
		if pad.Pressed(ButtonTurboA) {
			pad.buttons ^= ButtonA
		}
		if pad.Pressed(ButtonTurboB) {
			pad.buttons ^= ButtonB
		}
	}
}

// Reset clears the shift registers. A hard reset also releases every
// button.
func (p *Ports) Reset(kind system.ResetKind) {
	for _, pad := range p.Pads {
		if kind == system.Hard {
			pad.Reset()
		} else {
			pad.index, pad.strobe = 0, false
		}
	}
	// The Four Score identifies itself with $10 on port 0 and $20 on port 1,
	// read after the 16 controller bits.
	p.signatures[0].Reset()
	p.signatures[0].buttons = 0x08
	p.signatures[1].Reset()
	p.signatures[1].buttons = 0x04
	p.turbo = 30
}

// State is a snapshot of the controller ports.
type State struct {
	Buttons   [4]Button
	Index     [4]byte
	Strobe    [4]bool
	SigIndex  [2]byte
	FourScore bool
	Turbo     uint32
}

func (p *Ports) SaveState() State {
	var s State
	for i, pad := range p.Pads {
		s.Buttons[i], s.Index[i], s.Strobe[i] = pad.buttons, pad.index, pad.strobe
	}
	for i, sig := range p.signatures {
		s.SigIndex[i] = sig.index
	}
	s.FourScore, s.Turbo = p.FourScore, p.turbo
	return s
}

func (p *Ports) LoadState(s State) {
	for i, pad := range p.Pads {
		pad.buttons, pad.index, pad.strobe = s.Buttons[i], s.Index[i], s.Strobe[i]
	}
	for i, sig := range p.signatures {
		sig.index = s.SigIndex[i]
		sig.strobe = s.Strobe[0]
	}
	p.FourScore, p.turbo = s.FourScore, s.Turbo
}
