package genie

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		code       string
		addr       uint16
		data       byte
		compare    byte
		hasCompare bool
	}{
		{"GOSSIP", 0xD1DD, 0x14, 0x00, false},
		{"gossip", 0xD1DD, 0x14, 0x00, false},
		{"SXIOPO", 0x91D9, 0xAD, 0x00, false},
		{"ZEXPYGLA", 0x94A7, 0x02, 0x03, true},
		{"AAAAAA", 0x8000, 0x00, 0x00, false},
	}

	for _, tt := range tests {
		c, err := Parse(tt.code)
		if err != nil {
			t.Errorf("%s: Expected no error, but got %v", tt.code, err)
			continue
		}
		if c.Addr != tt.addr {
			t.Errorf("%s: Expected address $%04X, but got $%04X", tt.code, tt.addr, c.Addr)
		}
		if c.Data != tt.data {
			t.Errorf("%s: Expected data $%02X, but got $%02X", tt.code, tt.data, c.Data)
		}
		if c.HasCompare != tt.hasCompare || c.Compare != tt.compare {
			t.Errorf("%s: Expected compare $%02X (%v), but got $%02X (%v)", tt.code, tt.compare, tt.hasCompare, c.Compare, c.HasCompare)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		code string
		err  error
	}{
		{"GOSS", ErrInvalidLength},
		{"GOSSIPGOS", ErrInvalidLength},
		{"GOSSIB", ErrInvalidCharacter},
		{"12345678", ErrInvalidCharacter},
	}

	for _, tt := range tests {
		if _, err := Parse(tt.code); !errors.Is(err, tt.err) {
			t.Errorf("%s: Expected %v, but got %v", tt.code, tt.err, err)
		}
	}
}

func TestApply(t *testing.T) {
	six, _ := Parse("GOSSIP")
	if got := six.Apply(0x99); got != 0x14 {
		t.Errorf("Expected a six letter code to always patch, but got $%02X", got)
	}

	eight, _ := Parse("ZEXPYGLA")
	if got := eight.Apply(0x03); got != 0x02 {
		t.Errorf("Expected a matching compare to patch, but got $%02X", got)
	}
	if got := eight.Apply(0x04); got != 0x04 {
		t.Errorf("Expected a mismatched compare to pass through, but got $%02X", got)
	}
}

func TestCodes(t *testing.T) {
	codes := Codes{}
	c1, _ := Parse("GOSSIP")
	c2, _ := Parse("ZEXPYGLA")
	codes.Add(c1)
	codes.Add(c2)

	if got := codes.Patch(0xD1DD, 0x00); got != 0x14 {
		t.Errorf("Expected $14, but got $%02X", got)
	}
	if got := codes.Patch(0xD1DE, 0x77); got != 0x77 {
		t.Errorf("Expected unpatched addresses to pass through, but got $%02X", got)
	}

	list := codes.List()
	if len(list) != 2 || list[0].Addr != 0x94A7 {
		t.Errorf("Expected codes ordered by address, but got %v", list)
	}

	if !codes.Remove("gossip") {
		t.Errorf("Expected to remove GOSSIP")
	}
	if codes.Remove("GOSSIP") {
		t.Errorf("Expected a second remove to report false")
	}
	if got := codes.Patch(0xD1DD, 0x00); got != 0x00 {
		t.Errorf("Expected a removed code to stop patching, but got $%02X", got)
	}
}
