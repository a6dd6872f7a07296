// Package mapper defines the contract between the console bus and the
// banking hardware found on a cartridge.
package mapper

import "github.com/meadori/nescore/system"

// Mirroring is the nametable layout selected by the cartridge.
type Mirroring byte

const (
	Vertical Mirroring = iota
	Horizontal
	SingleScreenA
	SingleScreenB
	FourScreen
)

func (m Mirroring) String() string {
	switch m {
	case Vertical:
		return "Vertical"
	case Horizontal:
		return "Horizontal"
	case SingleScreenA:
		return "Single Screen A"
	case SingleScreenB:
		return "Single Screen B"
	case FourScreen:
		return "Four Screen"
	}
	return "Unknown"
}

// Kind tells the cartridge which memory a mapped access resolved to.
type Kind byte

const (
	// Bus means the mapper does not decode the address.
	Bus Kind = iota
	Chr
	ExRAM
	PrgROM
	PrgRAM
	// Data carries a value produced by the mapper itself.
	Data
	// None means the access was consumed by a mapper register.
	None
)

// Mapped is the result of translating a CPU or PPU address.
type Mapped struct {
	Kind Kind
	Addr int
	Val  byte
}

// To is a shorthand for a mapped offset into one of the cartridge buffers.
func To(kind Kind, addr int) Mapped {
	return Mapped{Kind: kind, Addr: addr}
}

// Mapper defines the interface for different NES mappers.
//
// CPU addresses $4020-$FFFF and PPU addresses $0000-$3EFF are passed through
// MapRead and MapWrite. MapPeek must not change mapper state.
type Mapper interface {
	MapRead(addr uint16) Mapped
	MapPeek(addr uint16) Mapped
	MapWrite(addr uint16, data byte) Mapped
	Mirroring() Mirroring

	// Clock is called once per CPU cycle.
	Clock()
	IRQPending() bool

	// PPUBusRead and PPUBusWrite observe every address the PPU drives.
	PPUBusRead(addr uint16)
	PPUBusWrite(addr uint16, data byte)

	Reset(kind system.ResetKind)
	Board() string

	Save() ([]byte, error)
	Load(data []byte) error
}

// Null is used for cartridges whose board is not supported. It maps nothing
// so the rest of the console stays inspectable.
type Null struct {
	mirroring Mirroring
}

// NewNull creates a new Null mapper.
func NewNull(m Mirroring) *Null {
	return &Null{mirroring: m}
}

func (n *Null) MapRead(addr uint16) Mapped             { return Mapped{Kind: Bus} }
func (n *Null) MapPeek(addr uint16) Mapped             { return Mapped{Kind: Bus} }
func (n *Null) MapWrite(addr uint16, data byte) Mapped { return Mapped{Kind: Bus} }
func (n *Null) Mirroring() Mirroring                   { return n.mirroring }
func (n *Null) Clock()                                 {}
func (n *Null) IRQPending() bool                       { return false }
func (n *Null) PPUBusRead(addr uint16)                 {}
func (n *Null) PPUBusWrite(addr uint16, data byte)     {}
func (n *Null) Reset(kind system.ResetKind)            {}
func (n *Null) Board() string                          { return "Unsupported" }
func (n *Null) Save() ([]byte, error)                  { return nil, nil }
func (n *Null) Load(data []byte) error                 { return nil }
