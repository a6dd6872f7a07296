// Package genie decodes Game Genie codes and patches cartridge reads with
// them.
package genie

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidLength    = errors.New("genie code must be 6 or 8 letters")
	ErrInvalidCharacter = errors.New("invalid genie letter")
)

const alphabet = "APZLGITYEOXUKSVN"

// Code is a decoded Game Genie code. Six letter codes always replace the
// byte at Addr; eight letter codes only replace it when it equals Compare.
type Code struct {
	Text       string
	Addr       uint16
	Data       byte
	Compare    byte
	HasCompare bool
}

// Parse decodes a 6 or 8 letter code. Letters are case insensitive.
func Parse(text string) (Code, error) {
	text = strings.ToUpper(strings.TrimSpace(text))
	if len(text) != 6 && len(text) != 8 {
		return Code{}, fmt.Errorf("%q: %w", text, ErrInvalidLength)
	}

	hex := make([]uint16, len(text))
	for i, ch := range text {
		idx := strings.IndexRune(alphabet, ch)
		if idx < 0 {
			return Code{}, fmt.Errorf("%q: %w %q", text, ErrInvalidCharacter, ch)
		}
		hex[i] = uint16(idx)
	}

	c := Code{Text: text}
	c.Addr = 0x8000 +
		(hex[3]&7<<12 | hex[5]&7<<8 | hex[4]&8<<8 | hex[2]&7<<4 | hex[1]&8<<4 | hex[4]&7 | hex[3]&8)

	data := hex[1]&7<<4 | hex[0]&8<<4 | hex[0]&7
	if len(hex) == 6 {
		c.Data = byte(data | hex[5]&8)
	} else {
		c.Data = byte(data | hex[7]&8)
		c.Compare = byte(hex[7]&7<<4 | hex[6]&8<<4 | hex[6]&7 | hex[5]&8)
		c.HasCompare = true
	}
	return c, nil
}

// Apply returns the byte the CPU sees in place of val.
func (c Code) Apply(val byte) byte {
	if c.HasCompare && val != c.Compare {
		return val
	}
	return c.Data
}

func (c Code) String() string {
	return c.Text
}

// Codes holds the active codes keyed by the address they patch.
type Codes map[uint16]Code

// Add activates a code, replacing any other code for the same address.
func (cs Codes) Add(c Code) {
	cs[c.Addr] = c
}

// Remove deactivates the code with the given text and reports whether it
// was active.
func (cs Codes) Remove(text string) bool {
	text = strings.ToUpper(strings.TrimSpace(text))
	for addr, c := range cs {
		if c.Text == text {
			delete(cs, addr)
			return true
		}
	}
	return false
}

// Patch applies the code for addr, if any, to a byte read from the
// cartridge.
func (cs Codes) Patch(addr uint16, val byte) byte {
	if c, ok := cs[addr]; ok {
		return c.Apply(val)
	}
	return val
}

// List returns the active codes ordered by address.
func (cs Codes) List() []Code {
	list := make([]Code, 0, len(cs))
	for _, c := range cs {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Addr < list[j].Addr })
	return list
}
