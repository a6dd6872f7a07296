package mapper

import "testing"

func TestGetBank(t *testing.T) {
	size := 128 * 1024
	banks := NewBanks(0x8000, 0xFFFF, size, 0x4000)

	tests := []struct {
		addr uint16
		want int
	}{
		{0x8000, 0},
		{0x9FFF, 0},
		{0xBFFF, 0},
		{0xC000, 1},
		{0xDFFF, 1},
		{0xFFFF, 1},
	}
	for _, tt := range tests {
		if got := banks.Get(tt.addr); got != tt.want {
			t.Errorf("Expected bank of $%04X to be %d, but got %d", tt.addr, tt.want, got)
		}
	}
}

func TestBankTranslate(t *testing.T) {
	size := 128 * 1024
	banks := NewBanks(0x8000, 0xFFFF, size, 0x2000)

	last := banks.Last()
	if last != 15 {
		t.Errorf("Expected last page to be 15, but got %d", last)
	}

	if got := banks.Translate(0x8000); got != 0x0000 {
		t.Errorf("Expected $8000 to translate to $0000, but got $%05X", got)
	}
	banks.Set(0, 1)
	if got := banks.Translate(0x8000); got != 0x2000 {
		t.Errorf("Expected $8000 to translate to $2000, but got $%05X", got)
	}
	banks.Set(0, 2)
	if got := banks.Translate(0x8000); got != 0x4000 {
		t.Errorf("Expected $8000 to translate to $4000, but got $%05X", got)
	}
	banks.Set(0, 0)
	if got := banks.Translate(0x8000); got != 0x0000 {
		t.Errorf("Expected $8000 to translate to $0000, but got $%05X", got)
	}
	banks.Set(0, last)
	if got := banks.Translate(0x8000); got != 0x1E000 {
		t.Errorf("Expected $8000 to translate to $1E000, but got $%05X", got)
	}
}

func TestBanksMirrorSmallCapacity(t *testing.T) {
	banks := NewBanks(0x8000, 0xFFFF, 0x4000, 0x4000)
	if banks.Len() != 1 {
		t.Fatalf("Expected 1 slot, but got %d", banks.Len())
	}
	if a, b := banks.Translate(0x8123), banks.Translate(0xC123); a != b || a != 0x0123 {
		t.Errorf("Expected $8123 and $C123 to mirror at $0123, but got $%04X and $%04X", a, b)
	}
}

func TestBanksWrapOutOfRange(t *testing.T) {
	banks := NewBanks(0x0000, 0x1FFF, 0x8000, 0x1000)
	banks.Set(3, 0x1F)
	if got := banks.Page(1); got != 7 {
		t.Errorf("Expected slot 3 to wrap to slot 1 with page 7, but got page %d", got)
	}
}

func TestBankAccess(t *testing.T) {
	banks := NewBanks(0x6000, 0x7FFF, 0x2000, 0x2000)
	if !banks.Writable(0x6000) {
		t.Error("Expected new banks to be writable")
	}
	banks.SetAccess(0, AccessRead)
	if banks.Writable(0x6000) || !banks.Readable(0x6000) {
		t.Error("Expected read-only access")
	}
	banks.SetAccess(0, AccessNone)
	if banks.Readable(0x6000) {
		t.Error("Expected no access")
	}
}
