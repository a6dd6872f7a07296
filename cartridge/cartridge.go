package cartridge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/system"
)

// Cartridge represents an NES cartridge. It owns every ROM and RAM buffer;
// the mapper only holds offsets into them.
type Cartridge struct {
	Name   string
	Header Header
	Region system.Region
	CRC32  uint32
	Mapper mapper.Mapper

	PRGROM []byte
	CHRROM []byte
	CHRRAM []byte
	PRGRAM []byte
	ExRAM  []byte

	busConflicts bool
}

// New creates a new Cartridge instance from a .nes file.
func New(path string) (*Cartridge, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rom %q: %w", path, err)
	}
	defer file.Close()

	return Load(filepath.Base(path), bufio.NewReader(file), DefaultGameDB)
}

// Load reads an iNES or NES 2.0 image from r. The game database may be nil.
func Load(name string, r io.Reader, db *GameDB) (*Cartridge, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	c := &Cartridge{Name: name, Header: h}
	c.PRGROM = make([]byte, int(h.PrgROMBanks)*prgROMBankSize)
	if err := readSection(r, c.PRGROM, 4, h.PrgROMBanks, "prg-rom"); err != nil {
		return nil, err
	}
	if h.ChrROMBanks > 0 {
		c.CHRROM = make([]byte, int(h.ChrROMBanks)*chrROMBankSize)
		if err := readSection(r, c.CHRROM, 5, h.ChrROMBanks, "chr-rom"); err != nil {
			return nil, err
		}
	} else if size := h.ChrRAMSize(); size > 0 {
		c.CHRRAM = make([]byte, size)
	}
	if size := h.PrgRAMSize(); size > 0 {
		c.PRGRAM = make([]byte, size)
	}

	c.CRC32 = Checksum(c.PRGROM, c.CHRROM)
	game, found := db.Lookup(c.CRC32)
	if found && h.Variant != NES2 && (game.Mapper != h.Mapper || game.Submapper != h.Submapper) {
		log.Printf("game database overrides mapper %d.%d with %d.%d for crc $%08X",
			h.Mapper, h.Submapper, game.Mapper, game.Submapper, c.CRC32)
		c.Header.Mapper, c.Header.Submapper = game.Mapper, game.Submapper
	}

	switch {
	case h.TVMode == 1:
		c.Region = system.PAL
	case h.TVMode == 3:
		c.Region = system.Dendy
	case found:
		c.Region = game.Region
	default:
		c.Region = system.NTSC
	}

	c.Mapper = newMapper(c)
	switch c.Header.Mapper {
	case 2, 3, 7, 66:
		c.busConflicts = c.Header.Variant == NES2 && c.Header.Submapper == 2
	}
	return c, nil
}

func readSection(r io.Reader, buf []byte, headerByte int, banks uint16, what string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return &HeaderError{
				Byte:    headerByte,
				Value:   banks,
				Message: fmt.Sprintf("expected `%d` %s banks (%d total bytes)", banks, what, len(buf)),
			}
		}
		return fmt.Errorf("failed to read %s: %w", what, err)
	}
	return nil
}

// newMapper creates a Mapper instance based on the cartridge's mapper ID.
func newMapper(c *Cartridge) mapper.Mapper {
	switch c.Header.Mapper {
	case 0:
		return newNROM(c)
	case 1:
		return newMMC1(c, mmc1RevisionBC)
	case 2:
		return newUxROM(c)
	case 3:
		return newCNROM(c)
	case 4:
		return newMMC3(c)
	case 7:
		return newAxROM(c)
	case 66:
		return newGxROM(c)
	case 71:
		return newBF909x(c)
	case 155:
		return newMMC1(c, mmc1RevisionA)
	default:
		log.Printf("unsupported mapper: %d, loading without banking", c.Header.Mapper)
		return mapper.NewNull(c.Header.Mirroring())
	}
}

func (c *Cartridge) addPRGRAM(size int) {
	if len(c.PRGRAM) == 0 {
		c.PRGRAM = make([]byte, size)
	}
}

func (c *Cartridge) addCHRRAM(size int) {
	if len(c.CHRROM) == 0 && len(c.CHRRAM) == 0 {
		c.CHRRAM = make([]byte, size)
	}
}

func (c *Cartridge) addExRAM(size int) {
	c.ExRAM = make([]byte, size)
}

// chr returns the pattern memory, ROM or RAM.
func (c *Cartridge) chr() []byte {
	if len(c.CHRROM) > 0 {
		return c.CHRROM
	}
	return c.CHRRAM
}

// HasCHRRAM reports whether pattern memory is writable.
func (c *Cartridge) HasCHRRAM() bool {
	return len(c.CHRROM) == 0 && len(c.CHRRAM) > 0
}

// Battery reports whether PRG RAM should persist across sessions.
func (c *Cartridge) Battery() bool {
	return c.Header.Battery()
}

func index(buf []byte, addr int) (int, bool) {
	if len(buf) == 0 {
		return 0, false
	}
	return addr % len(buf), true
}

func (c *Cartridge) read(m mapper.Mapped) (byte, bool) {
	var buf []byte
	switch m.Kind {
	case mapper.Data:
		return m.Val, true
	case mapper.PrgROM:
		buf = c.PRGROM
	case mapper.PrgRAM:
		buf = c.PRGRAM
	case mapper.Chr:
		buf = c.chr()
	case mapper.ExRAM:
		buf = c.ExRAM
	default:
		return 0, false
	}
	i, ok := index(buf, m.Addr)
	if !ok {
		return 0, false
	}
	return buf[i], true
}

func (c *Cartridge) write(m mapper.Mapped, data byte) bool {
	var buf []byte
	switch m.Kind {
	case mapper.None:
		return true
	case mapper.PrgRAM:
		buf = c.PRGRAM
	case mapper.Chr:
		if !c.HasCHRRAM() {
			return true
		}
		buf = c.CHRRAM
	case mapper.ExRAM:
		buf = c.ExRAM
	default:
		return false
	}
	i, ok := index(buf, m.Addr)
	if !ok {
		return false
	}
	buf[i] = data
	return true
}

// CPURead reads cartridge space ($4020-$FFFF). The second result is false
// when nothing on the cartridge drives the bus.
func (c *Cartridge) CPURead(addr uint16) (byte, bool) {
	return c.read(c.Mapper.MapRead(addr))
}

// CPUPeek reads cartridge space without side effects.
func (c *Cartridge) CPUPeek(addr uint16) (byte, bool) {
	return c.read(c.Mapper.MapPeek(addr))
}

// CPUWrite writes cartridge space.
func (c *Cartridge) CPUWrite(addr uint16, data byte) {
	if c.busConflicts && addr >= 0x8000 {
		if rom, ok := c.read(c.Mapper.MapPeek(addr)); ok {
			data &= rom
		}
	}
	c.write(c.Mapper.MapWrite(addr, data), data)
}

// PPURead reads pattern tables or cartridge-provided nametables. The second
// result is false when the console's own nametable RAM should answer.
func (c *Cartridge) PPURead(addr uint16) (byte, bool) {
	return c.read(c.Mapper.MapRead(addr))
}

// PPUPeek reads PPU space without side effects.
func (c *Cartridge) PPUPeek(addr uint16) (byte, bool) {
	return c.read(c.Mapper.MapPeek(addr))
}

// PPUWrite writes PPU space. It returns false when the console's nametable
// RAM should take the write.
func (c *Cartridge) PPUWrite(addr uint16, data byte) bool {
	m := c.Mapper.MapWrite(addr, data)
	if m.Kind == mapper.Bus {
		return addr < 0x2000
	}
	return c.write(m, data)
}

// PPUBusRead lets the mapper observe an address driven by the PPU.
func (c *Cartridge) PPUBusRead(addr uint16) {
	c.Mapper.PPUBusRead(addr)
}

// PPUBusWrite lets the mapper observe a value driven by the PPU.
func (c *Cartridge) PPUBusWrite(addr uint16, data byte) {
	c.Mapper.PPUBusWrite(addr, data)
}

// Mirroring returns the current nametable layout.
func (c *Cartridge) Mirroring() mapper.Mirroring {
	return c.Mapper.Mirroring()
}

// Clock advances the mapper by one CPU cycle.
func (c *Cartridge) Clock() {
	c.Mapper.Clock()
}

// IRQPending reports whether the mapper asserts the IRQ line.
func (c *Cartridge) IRQPending() bool {
	return c.Mapper.IRQPending()
}

// Reset resets the mapper. A hard reset also clears volatile RAM.
func (c *Cartridge) Reset(kind system.ResetKind) {
	if kind == system.Hard {
		clear(c.CHRRAM)
		clear(c.ExRAM)
		if !c.Battery() {
			clear(c.PRGRAM)
		}
	}
	c.Mapper.Reset(kind)
}

func (c *Cartridge) String() string {
	return fmt.Sprintf("%s (%s, %s)", c.Name, c.Header, c.Region)
}
