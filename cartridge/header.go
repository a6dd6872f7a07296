package cartridge

import (
	"errors"
	"fmt"
	"io"

	"github.com/meadori/nescore/mapper"
)

const (
	headerSize     = 16
	prgROMBankSize = 16 * 1024
	chrROMBankSize = 8 * 1024
)

// Variant is the header format a ROM image was dumped with.
type Variant byte

const (
	INes Variant = iota
	NES2
)

func (v Variant) String() string {
	if v == NES2 {
		return "NES 2.0"
	}
	return "iNES"
}

// ErrBadMagic is returned when the data does not start with "NES\x1A".
var ErrBadMagic = errors.New("nes header signature not found")

// HeaderError describes a defect in a specific header byte.
type HeaderError struct {
	Byte    int
	Value   uint16
	Message string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("invalid nes header (byte: %d, value: $%02X): %s", e.Byte, e.Value, e.Message)
}

// Header is a parsed iNES or NES 2.0 header.
type Header struct {
	Variant     Variant
	Mapper      uint16
	Submapper   byte
	Flags       byte // mirroring, battery, trainer and four-screen in D0..D3, flags 7 high nibble in D4..D7
	PrgROMBanks uint16
	ChrROMBanks uint16
	PrgRAMShift byte
	ChrRAMShift byte
	TVMode      byte
	VSData      byte
}

// ReadHeader reads and validates a 16 byte header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var data [headerSize]byte
	if _, err := io.ReadFull(r, data[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, &HeaderError{Byte: 0, Value: 0, Message: "expected 16-byte header"}
		}
		return Header{}, fmt.Errorf("failed to read nes header: %w", err)
	}
	return ParseHeader(data[:])
}

// ParseHeader validates the first 16 bytes of data as an NES header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, &HeaderError{Byte: 0, Value: 0, Message: "expected 16-byte header"}
	}
	if data[0] != 'N' || data[1] != 'E' || data[2] != 'S' || data[3] != 0x1A {
		return Header{}, fmt.Errorf("%w: %w", ErrBadMagic, &HeaderError{Byte: 0, Value: uint16(data[0]), Message: "nes header signature not found"})
	}
	switch data[7] & 0x0C {
	case 0x04:
		return Header{}, &HeaderError{Byte: 7, Value: uint16(data[7]), Message: "header is corrupted by `DiskDude!`. repair and try again"}
	case 0x0C:
		return Header{}, &HeaderError{Byte: 7, Value: uint16(data[7]), Message: "unrecognized header format. repair and try again"}
	}

	h := Header{
		PrgROMBanks: uint16(data[4]),
		ChrROMBanks: uint16(data[5]),
		Mapper:      uint16((data[6] >> 4) | (data[7] & 0xF0)),
		Flags:       (data[6] & 0x0F) | ((data[7] & 0x0F) << 4),
	}

	if data[7]&0x0C == 0x08 {
		h.Variant = NES2
		h.Mapper |= uint16(data[8]&0x0F) << 8
		h.Submapper = data[8] >> 4
		h.PrgROMBanks |= uint16(data[9]&0x0F) << 8
		h.ChrROMBanks |= uint16(data[9]&0xF0) << 4
		h.PrgRAMShift = data[10]
		h.ChrRAMShift = data[11]
		h.TVMode = data[12]
		h.VSData = data[13]

		if h.PrgRAMShift&0x0F == 0x0F || h.PrgRAMShift&0xF0 == 0xF0 {
			return Header{}, &HeaderError{Byte: 10, Value: uint16(h.PrgRAMShift), Message: "invalid prg-ram size in header"}
		}
		if h.ChrRAMShift&0x0F == 0x0F || h.ChrRAMShift&0xF0 == 0xF0 {
			return Header{}, &HeaderError{Byte: 11, Value: uint16(h.ChrRAMShift), Message: "invalid chr-ram size in header"}
		}
		if data[14] > 0 || data[15] > 0 {
			return Header{}, &HeaderError{Byte: 14, Value: uint16(data[14]), Message: "unrecognized data found at header offsets 14-15"}
		}
	} else {
		// iNES 1.0 leaves bytes 8-15 zero. Anything else is a ripper's
		// signature that has likely clobbered flags 7 as well.
		for i := 8; i < headerSize; i++ {
			if data[i] != 0 {
				return Header{}, &HeaderError{
					Byte:    i,
					Value:   uint16(data[i]),
					Message: fmt.Sprintf("unrecognized data found at header offset %d. repair and try again", i),
				}
			}
		}
	}

	if h.Flags&0x04 == 0x04 {
		return Header{}, &HeaderError{Byte: 6, Value: uint16(data[6]), Message: "trained roms are currently not supported."}
	}
	return h, nil
}

// Mirroring returns the hardwired nametable layout.
func (h Header) Mirroring() mapper.Mirroring {
	if h.Flags&0x08 == 0x08 {
		return mapper.FourScreen
	}
	if h.Flags&0x01 == 0x01 {
		return mapper.Vertical
	}
	return mapper.Horizontal
}

// Battery reports whether the cartridge has battery-backed RAM.
func (h Header) Battery() bool {
	return h.Flags&0x02 == 0x02
}

// PrgRAMSize returns the volatile PRG RAM size declared by a NES 2.0 header.
func (h Header) PrgRAMSize() int {
	return ramSize(h.PrgRAMShift & 0x0F)
}

// ChrRAMSize returns the volatile CHR RAM size declared by a NES 2.0 header.
func (h Header) ChrRAMSize() int {
	return ramSize(h.ChrRAMShift & 0x0F)
}

func ramSize(shift byte) int {
	if shift == 0 {
		return 0
	}
	return 64 << shift
}

// Board returns the mapper number and board name.
func (h Header) Board() string {
	switch h.Mapper {
	case 0:
		return "Mapper 000 - NROM"
	case 1:
		return "Mapper 001 - SxROM/MMC1B/C"
	case 2:
		return "Mapper 002 - UxROM"
	case 3:
		return "Mapper 003 - CNROM"
	case 4:
		return "Mapper 004 - TxROM/MMC3/MMC6"
	case 7:
		return "Mapper 007 - AxROM"
	case 66:
		return "Mapper 066 - GxROM/MxROM"
	case 71:
		return "Mapper 071 - Camerica/Codemasters/BF909x"
	case 155:
		return "Mapper 155 - SxROM/MMC1A"
	}
	return "Unimplemented Mapper"
}

func (h Header) String() string {
	return fmt.Sprintf("%s, %s, sub %d, prg %d x 16K, chr %d x 8K, %s mirroring",
		h.Variant, h.Board(), h.Submapper, h.PrgROMBanks, h.ChrROMBanks, h.Mirroring())
}
