package cartridge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/meadori/nescore/system"
)

func formatGame(crc uint32, region string, mapperNum, sub int) string {
	return fmt.Sprintf("%08X,%s,%d,%d\n", crc, region, mapperNum, sub)
}

func TestParseGameDB(t *testing.T) {
	input := "# crc32,region,mapper,submapper\n" +
		formatGame(0xDEADBEEF, "pal", 1, 0) +
		formatGame(0x00000001, "ntsc", 4, 0) +
		formatGame(0x80000000, "dendy", 66, 0)

	db, err := ParseGameDB(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if db.Len() != 3 {
		t.Fatalf("Expected 3 records, but got %d", db.Len())
	}

	tests := []struct {
		crc    uint32
		found  bool
		region system.Region
		mapper uint16
	}{
		{0xDEADBEEF, true, system.PAL, 1},
		{0x00000001, true, system.NTSC, 4},
		{0x80000000, true, system.Dendy, 66},
		{0x12345678, false, system.NTSC, 0},
	}
	for _, tt := range tests {
		game, ok := db.Lookup(tt.crc)
		if ok != tt.found {
			t.Errorf("Expected lookup of %08X to be %v, but got %v", tt.crc, tt.found, ok)
			continue
		}
		if ok && (game.Region != tt.region || game.Mapper != tt.mapper) {
			t.Errorf("Expected %08X to be %s mapper %d, but got %s mapper %d", tt.crc, tt.region, tt.mapper, game.Region, game.Mapper)
		}
	}
}

func TestParseGameDBErrors(t *testing.T) {
	tests := []string{
		"zzzz,ntsc,0,0\n",
		"00000001,secam,0,0\n",
		"00000001,ntsc,x,0\n",
		"00000001,ntsc,0,16\n",
		"00000001,ntsc,0\n",
	}
	for _, input := range tests {
		if _, err := ParseGameDB(strings.NewReader(input)); err == nil {
			t.Errorf("Expected an error parsing %q", input)
		}
	}
}

func TestGameDBMerge(t *testing.T) {
	db, _ := ParseGameDB(strings.NewReader(formatGame(2, "ntsc", 0, 0)))
	other, _ := ParseGameDB(strings.NewReader(formatGame(2, "pal", 0, 0) + formatGame(1, "dendy", 3, 0)))
	db.Merge(other)

	if db.Len() != 2 {
		t.Fatalf("Expected 2 records, but got %d", db.Len())
	}
	if g, _ := db.Lookup(2); g.Region != system.PAL {
		t.Errorf("Expected merged record to replace the old one, but got %s", g.Region)
	}
	if _, ok := db.Lookup(1); !ok {
		t.Error("Expected merged record to be found")
	}
}

func TestEmbeddedGameDB(t *testing.T) {
	if DefaultGameDB == nil {
		t.Fatal("Expected the embedded game database to parse")
	}
	var db *GameDB
	if _, ok := db.Lookup(0); ok {
		t.Error("Expected a nil database to find nothing")
	}
}
