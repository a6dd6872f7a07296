package cpu

import (
	"fmt"
	"strings"
)

// operandMode returns how the operand of an instruction is written out.
// Instructions that decode their own operand use the mode they behave like.
func operandMode(in Instruction) AddrMode {
	if in.Mode != OTH {
		return in.Mode
	}
	switch in.Opcode {
	case 0x93:
		return IDY
	case 0x9C:
		return ABX
	case 0x9B, 0x9E, 0x9F:
		return ABY
	}
	return ABS
}

func operandSize(mode AddrMode) uint16 {
	switch mode {
	case ACC, IMP:
		return 0
	case ABS, ABX, ABXW, ABY, ABYW, IND:
		return 2
	}
	return 1
}

// Disassemble decodes the instruction at addr without side effects and
// returns it in nestest log form along with the address of the next
// instruction.
func (c *CPU) Disassemble(addr uint16) (string, uint16) {
	in := Instructions[c.bus.Peek(addr)]
	mode := operandMode(in)
	size := operandSize(mode)

	raw := make([]string, 0, 3)
	for i := uint16(0); i <= size; i++ {
		raw = append(raw, fmt.Sprintf("%02X", c.bus.Peek(addr+i)))
	}
	b1 := c.bus.Peek(addr + 1)
	w := c.peekWord(addr + 1)
	next := addr + 1 + size

	var arg string
	switch mode {
	case ACC:
		arg = "A"
	case IMM:
		arg = fmt.Sprintf("#$%02X", b1)
	case REL:
		arg = fmt.Sprintf("$%04X", next+uint16(int8(b1)))
	case ZP0:
		arg = fmt.Sprintf("$%02X = %02X", b1, c.bus.Peek(uint16(b1)))
	case ZPX, ZPY:
		reg, name := c.X, "X"
		if mode == ZPY {
			reg, name = c.Y, "Y"
		}
		eff := b1 + reg
		arg = fmt.Sprintf("$%02X,%s @ %02X = %02X", b1, name, eff, c.bus.Peek(uint16(eff)))
	case ABS:
		if in.Name == "JMP" || in.Name == "JSR" {
			arg = fmt.Sprintf("$%04X", w)
		} else {
			arg = fmt.Sprintf("$%04X = %02X", w, c.bus.Peek(w))
		}
	case ABX, ABXW, ABY, ABYW:
		reg, name := c.X, "X"
		if mode == ABY || mode == ABYW {
			reg, name = c.Y, "Y"
		}
		eff := w + uint16(reg)
		arg = fmt.Sprintf("$%04X,%s @ %04X = %02X", w, name, eff, c.bus.Peek(eff))
	case IND:
		target := c.peekWord(w)
		if w&0x00FF == 0x00FF {
			target = uint16(c.bus.Peek(w&0xFF00))<<8 | uint16(c.bus.Peek(w))
		}
		arg = fmt.Sprintf("($%04X) = %04X", w, target)
	case IDX:
		ptr := b1 + c.X
		eff := uint16(c.bus.Peek(uint16(ptr+1)))<<8 | uint16(c.bus.Peek(uint16(ptr)))
		arg = fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", b1, ptr, eff, c.bus.Peek(eff))
	case IDY, IDYW:
		base := uint16(c.bus.Peek(uint16(b1+1)))<<8 | uint16(c.bus.Peek(uint16(b1)))
		eff := base + uint16(c.Y)
		arg = fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", b1, base, eff, c.bus.Peek(eff))
	}

	text := fmt.Sprintf("%04X  %-9s%s %s", addr, strings.Join(raw, " "), in, arg)
	return strings.TrimRight(text, " "), next
}

// Trace returns the nestest log line for the instruction about to run.
func (c *CPU) Trace() string {
	text, _ := c.Disassemble(c.PC)
	return fmt.Sprintf("%-47s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		text, c.A, c.X, c.Y, c.P|U, c.SP, c.Cycle)
}
