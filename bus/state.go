package bus

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/ppu"
	"github.com/meadori/nescore/system"
)

// State is a snapshot of the whole console. ROM contents are left out; a
// state can only be loaded with the cartridge it was taken with.
type State struct {
	Ram         [2048]byte
	OpenBus     byte
	Region      system.Region
	CPU         cpu.State
	PPU         ppu.State
	APU         apu.State
	Controllers controller.State
	Cartridge   cartridge.State
}

func (b *Bus) snapshot() (State, error) {
	if b.cart == nil {
		return State{}, ErrNoCartridge
	}
	cs, err := b.cart.SaveState()
	if err != nil {
		return State{}, err
	}
	return State{
		Ram:         b.ram,
		OpenBus:     b.openBus,
		Region:      b.region,
		CPU:         b.CPU.SaveState(),
		PPU:         b.PPU.SaveState(),
		APU:         b.APU.SaveState(),
		Controllers: b.Controllers.SaveState(),
		Cartridge:   cs,
	}, nil
}

func (b *Bus) restore(s State) error {
	if b.cart == nil {
		return ErrNoCartridge
	}
	// The cartridge validates the state before touching anything, so it
	// goes first.
	if err := b.cart.LoadState(s.Cartridge); err != nil {
		return err
	}
	b.setRegion(s.Region)
	b.ram = s.Ram
	b.openBus = s.OpenBus
	b.CPU.LoadState(s.CPU)
	b.PPU.LoadState(s.PPU)
	b.APU.LoadState(s.APU)
	b.Controllers.LoadState(s.Controllers)
	return nil
}

// Save writes the console state to w.
func (b *Bus) Save(w io.Writer) error {
	b.mu.Lock()
	s, err := b.snapshot()
	b.mu.Unlock()
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return nil
}

// Load reads a state written by Save. The running console is left
// untouched if the state cannot be decoded or belongs to another cartridge.
func (b *Bus) Load(r io.Reader) error {
	var s State
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.restore(s)
}

// SaveState saves the entire emulator state to a file.
func (b *Bus) SaveState(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := b.Save(w); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadState loads the emulator state from a file.
func (b *Bus) LoadState(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return b.Load(bufio.NewReader(file))
}
