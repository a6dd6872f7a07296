package cartridge

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/meadori/nescore/mapper"
)

// ErrStateMismatch is returned when a save state was taken with another ROM.
var ErrStateMismatch = errors.New("save state belongs to a different cartridge")

// State holds the mutable parts of a cartridge. ROM contents are never
// included.
type State struct {
	CRC32                 uint32
	CHRRAM, PRGRAM, ExRAM []byte
	MapperState           []byte
}

// SaveState captures the cartridge RAM and mapper registers.
func (c *Cartridge) SaveState() (State, error) {
	ms, err := c.Mapper.Save()
	if err != nil {
		return State{}, fmt.Errorf("failed to save mapper state: %w", err)
	}
	return State{
		CRC32:       c.CRC32,
		CHRRAM:      bytes.Clone(c.CHRRAM),
		PRGRAM:      bytes.Clone(c.PRGRAM),
		ExRAM:       bytes.Clone(c.ExRAM),
		MapperState: ms,
	}, nil
}

// LoadState restores a state taken with SaveState. Nothing is modified if
// an error is returned.
func (c *Cartridge) LoadState(s State) error {
	if s.CRC32 != c.CRC32 {
		return fmt.Errorf("%w (crc $%08X, want $%08X)", ErrStateMismatch, s.CRC32, c.CRC32)
	}
	if len(s.CHRRAM) != len(c.CHRRAM) || len(s.PRGRAM) != len(c.PRGRAM) || len(s.ExRAM) != len(c.ExRAM) {
		return fmt.Errorf("%w: ram sizes differ", ErrStateMismatch)
	}
	if err := c.Mapper.Load(s.MapperState); err != nil {
		return fmt.Errorf("failed to load mapper state: %w", err)
	}
	copy(c.CHRRAM, s.CHRRAM)
	copy(c.PRGRAM, s.PRGRAM)
	copy(c.ExRAM, s.ExRAM)
	return nil
}

func encodeState(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeState(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}

// NROM
type NROMState struct {
	PRGROM, PRGRAM mapper.Banks
}

func (n *nrom) Save() ([]byte, error) { return encodeState(NROMState{n.prgROM, n.prgRAM}) }

func (n *nrom) Load(b []byte) error {
	var s NROMState
	if err := decodeState(b, &s); err != nil {
		return err
	}
	n.prgROM, n.prgRAM = s.PRGROM, s.PRGRAM
	return nil
}

// UXROM
func (u *uxrom) Save() ([]byte, error) { return encodeState(u.prgROM) }

func (u *uxrom) Load(b []byte) error {
	var s mapper.Banks
	if err := decodeState(b, &s); err != nil {
		return err
	}
	u.prgROM = s
	return nil
}

// CNROM
func (c *cnrom) Save() ([]byte, error) { return encodeState(c.chr) }

func (c *cnrom) Load(b []byte) error {
	var s mapper.Banks
	if err := decodeState(b, &s); err != nil {
		return err
	}
	c.chr = s
	return nil
}

// AXROM
type AxROMState struct {
	Mirroring mapper.Mirroring
	PRGROM    mapper.Banks
}

func (a *axrom) Save() ([]byte, error) { return encodeState(AxROMState{a.mirroring, a.prgROM}) }

func (a *axrom) Load(b []byte) error {
	var s AxROMState
	if err := decodeState(b, &s); err != nil {
		return err
	}
	a.mirroring, a.prgROM = s.Mirroring, s.PRGROM
	return nil
}

// GXROM
type GxROMState struct {
	CHR, PRGROM mapper.Banks
}

func (g *gxrom) Save() ([]byte, error) { return encodeState(GxROMState{g.chr, g.prgROM}) }

func (g *gxrom) Load(b []byte) error {
	var s GxROMState
	if err := decodeState(b, &s); err != nil {
		return err
	}
	g.chr, g.prgROM = s.CHR, s.PRGROM
	return nil
}

// BF909X
type BF909xState struct {
	Revision  byte
	Mirroring mapper.Mirroring
	PRGROM    mapper.Banks
}

func (b *bf909x) Save() ([]byte, error) {
	return encodeState(BF909xState{b.revision, b.mirroring, b.prgROM})
}

func (b *bf909x) Load(data []byte) error {
	var s BF909xState
	if err := decodeState(data, &s); err != nil {
		return err
	}
	b.revision, b.mirroring, b.prgROM = s.Revision, s.Mirroring, s.PRGROM
	return nil
}

// MMC1
type MMC1State struct {
	Mirroring                                       mapper.Mirroring
	WriteJustOccurred, ShiftRegister, WriteCount    byte
	PRGRAMDisabled, CHRMode, PRGMode, PRGBankSelect bool
	LastCHRReg                                      uint16
	ChrBank0, ChrBank1, PrgBank                     byte
	CHR, PRGRAM, PRGROM                             mapper.Banks
}

func (m *mmc1) Save() ([]byte, error) {
	return encodeState(MMC1State{m.mirroring, m.writeJustOccurred, m.shiftRegister, m.writeCount, m.prgRAMDisabled, m.chrMode, m.prgMode, m.prgBankSelect, m.lastCHRReg, m.chrBank0, m.chrBank1, m.prgBank, m.chr, m.prgRAM, m.prgROM})
}

func (m *mmc1) Load(b []byte) error {
	var s MMC1State
	if err := decodeState(b, &s); err != nil {
		return err
	}
	m.mirroring, m.writeJustOccurred, m.shiftRegister, m.writeCount, m.prgRAMDisabled, m.chrMode, m.prgMode, m.prgBankSelect, m.lastCHRReg, m.chrBank0, m.chrBank1, m.prgBank, m.chr, m.prgRAM, m.prgROM = s.Mirroring, s.WriteJustOccurred, s.ShiftRegister, s.WriteCount, s.PRGRAMDisabled, s.CHRMode, s.PRGMode, s.PRGBankSelect, s.LastCHRReg, s.ChrBank0, s.ChrBank1, s.PrgBank, s.CHR, s.PRGRAM, s.PRGROM
	return nil
}

// MMC3
type MMC3State struct {
	Mirroring                         mapper.Mirroring
	BankSelect                        byte
	Registers                         [8]byte
	PRGRAMEnabled, PRGRAMProtected    bool
	IrqLatch, IrqCounter              byte
	IrqEnabled, IrqReload, IrqPending bool
	LastA12                           uint16
	CHR, PRGRAM, PRGROM               mapper.Banks
}

func (m *mmc3) Save() ([]byte, error) {
	return encodeState(MMC3State{m.mirroring, m.bankSelect, m.registers, m.prgRAMEnabled, m.prgRAMProtected, m.irqLatch, m.irqCounter, m.irqEnabled, m.irqReload, m.irqPending, m.lastA12, m.chr, m.prgRAM, m.prgROM})
}

func (m *mmc3) Load(b []byte) error {
	var s MMC3State
	if err := decodeState(b, &s); err != nil {
		return err
	}
	m.mirroring, m.bankSelect, m.registers, m.prgRAMEnabled, m.prgRAMProtected, m.irqLatch, m.irqCounter, m.irqEnabled, m.irqReload, m.irqPending, m.lastA12, m.chr, m.prgRAM, m.prgROM = s.Mirroring, s.BankSelect, s.Registers, s.PRGRAMEnabled, s.PRGRAMProtected, s.IrqLatch, s.IrqCounter, s.IrqEnabled, s.IrqReload, s.IrqPending, s.LastA12, s.CHR, s.PRGRAM, s.PRGROM
	return nil
}
