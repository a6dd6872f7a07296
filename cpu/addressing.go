package cpu

// fetchOperand decodes the operand of the current addressing mode. Immediate
// and relative operands are the value itself; every other mode yields the
// effective address.
func (c *CPU) fetchOperand() uint16 {
	switch c.mode {
	case ACC, IMP:
		return c.accImp()
	case IMM, REL, ZP0:
		return uint16(c.fetchByte())
	case ZPX:
		return c.zpIndexed(c.X)
	case ZPY:
		return c.zpIndexed(c.Y)
	case ABS, IND:
		return c.fetchWord()
	case ABX:
		return c.absIndexed(c.X, false)
	case ABXW:
		return c.absIndexed(c.X, true)
	case ABY:
		return c.absIndexed(c.Y, false)
	case ABYW:
		return c.absIndexed(c.Y, true)
	case IDX:
		return c.idx()
	case IDY:
		return c.idy(false)
	case IDYW:
		return c.idy(true)
	}
	return 0
}

// readOperand returns the value the current instruction operates on.
func (c *CPU) readOperand() byte {
	switch c.mode {
	case ACC, IMP, IMM, REL:
		return byte(c.operand)
	}
	return c.read(c.operand)
}

func (c *CPU) accImp() uint16 {
	c.read(c.PC) // dummy read
	return 0
}

func (c *CPU) zpIndexed(index byte) uint16 {
	addr := uint16(c.fetchByte())
	c.read(addr) // dummy read
	return (addr + uint16(index)) & 0x00FF
}

// absIndexed reads from the address with an unfixed high byte when a page is
// crossed, or always for writes.
func (c *CPU) absIndexed(index byte, write bool) uint16 {
	base := c.fetchWord()
	addr := base + uint16(index)
	if pagesDiffer(base, addr) || write {
		c.read(base&0xFF00 | addr&0x00FF)
	}
	return addr
}

func (c *CPU) idx() uint16 {
	ptr := c.fetchByte()
	c.read(uint16(ptr)) // dummy read
	ptr += c.X
	lo := uint16(c.read(uint16(ptr)))
	hi := uint16(c.read(uint16(ptr + 1)))
	return hi<<8 | lo
}

func (c *CPU) idy(write bool) uint16 {
	ptr := c.fetchByte()
	lo := uint16(c.read(uint16(ptr)))
	hi := uint16(c.read(uint16(ptr + 1)))
	base := hi<<8 | lo
	addr := base + uint16(c.Y)
	if pagesDiffer(base, addr) || write {
		c.read(base&0xFF00 | addr&0x00FF)
	}
	return addr
}
