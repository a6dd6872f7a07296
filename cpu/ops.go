package cpu

// Load and store

func (c *CPU) lda() { c.setA(c.readOperand()) }
func (c *CPU) ldx() { c.setX(c.readOperand()) }
func (c *CPU) ldy() { c.setY(c.readOperand()) }
func (c *CPU) sta() { c.write(c.operand, c.A) }
func (c *CPU) stx() { c.write(c.operand, c.X) }
func (c *CPU) sty() { c.write(c.operand, c.Y) }

// Transfers

func (c *CPU) tax() { c.setX(c.A) }
func (c *CPU) tay() { c.setY(c.A) }
func (c *CPU) tsx() { c.setX(c.SP) }
func (c *CPU) txa() { c.setA(c.X) }
func (c *CPU) txs() { c.SP = c.X }
func (c *CPU) tya() { c.setA(c.Y) }

// Arithmetic

func (c *CPU) adc() { c.add(c.readOperand()) }
func (c *CPU) sbc() { c.add(c.readOperand() ^ 0xFF) }

func (c *CPU) add(val byte) {
	a := uint16(c.A)
	v := uint16(val)
	res := a + v + uint16(c.getFlag(C))
	c.setFlag(V, (a^v)&0x80 == 0 && (a^res)&0x80 != 0)
	c.setFlag(C, res > 0xFF)
	c.setA(byte(res))
}

// rmw runs a read-modify-write on the operand address, including the dummy
// write of the unmodified value.
func (c *CPU) rmw(f func(byte) byte) byte {
	addr := c.operand
	val := c.read(addr)
	c.write(addr, val)
	res := f(val)
	c.write(addr, res)
	return res
}

func (c *CPU) inc() { c.setZN(c.rmw(func(v byte) byte { return v + 1 })) }
func (c *CPU) dec() { c.setZN(c.rmw(func(v byte) byte { return v - 1 })) }
func (c *CPU) inx() { c.setX(c.X + 1) }
func (c *CPU) iny() { c.setY(c.Y + 1) }
func (c *CPU) dex() { c.setX(c.X - 1) }
func (c *CPU) dey() { c.setY(c.Y - 1) }

// Bitwise

func (c *CPU) and() { c.setA(c.A & c.readOperand()) }
func (c *CPU) eor() { c.setA(c.A ^ c.readOperand()) }
func (c *CPU) ora() { c.setA(c.A | c.readOperand()) }

func (c *CPU) bit() {
	val := c.readOperand()
	c.setFlag(Z, c.A&val == 0)
	c.setFlag(N, val&0x80 != 0)
	c.setFlag(V, val&0x40 != 0)
}

// Shifts and rotates

func (c *CPU) asl(v byte) byte {
	c.setFlag(C, v&0x80 != 0)
	res := v << 1
	c.setZN(res)
	return res
}

func (c *CPU) lsr(v byte) byte {
	c.setFlag(C, v&0x01 != 0)
	res := v >> 1
	c.setZN(res)
	return res
}

func (c *CPU) rol(v byte) byte {
	carry := c.getFlag(C)
	c.setFlag(C, v&0x80 != 0)
	res := v<<1 | carry
	c.setZN(res)
	return res
}

func (c *CPU) ror(v byte) byte {
	carry := c.getFlag(C)
	c.setFlag(C, v&0x01 != 0)
	res := v>>1 | carry<<7
	c.setZN(res)
	return res
}

func (c *CPU) aslAcc() { c.setA(c.asl(c.A)) }
func (c *CPU) lsrAcc() { c.setA(c.lsr(c.A)) }
func (c *CPU) rolAcc() { c.setA(c.rol(c.A)) }
func (c *CPU) rorAcc() { c.setA(c.ror(c.A)) }
func (c *CPU) aslMem() { c.rmw(c.asl) }
func (c *CPU) lsrMem() { c.rmw(c.lsr) }
func (c *CPU) rolMem() { c.rmw(c.rol) }
func (c *CPU) rorMem() { c.rmw(c.ror) }

// Branches

func (c *CPU) bcc() { c.branch(c.P&C == 0) }
func (c *CPU) bcs() { c.branch(c.P&C != 0) }
func (c *CPU) beq() { c.branch(c.P&Z != 0) }
func (c *CPU) bmi() { c.branch(c.P&N != 0) }
func (c *CPU) bne() { c.branch(c.P&Z == 0) }
func (c *CPU) bpl() { c.branch(c.P&N == 0) }
func (c *CPU) bvc() { c.branch(c.P&V == 0) }
func (c *CPU) bvs() { c.branch(c.P&V != 0) }

func (c *CPU) branch(taken bool) {
	if !taken {
		return
	}
	// An IRQ that shows up during the last cycle of a taken branch that
	// stays on the page waits for the next instruction.
	if c.runIRQ && !c.prevRunIRQ {
		c.runIRQ = false
	}
	c.read(c.PC) // dummy read

	target := c.PC + uint16(int8(byte(c.operand)))
	if pagesDiffer(c.PC, target) {
		c.read(c.PC) // dummy read
	}
	c.PC = target
}

// Jumps

func (c *CPU) jmpAbs() { c.PC = c.operand }

// jmpInd reproduces the indirect jump bug: a pointer at $xxFF takes its high
// byte from $xx00.
func (c *CPU) jmpInd() {
	addr := c.operand
	if addr&0x00FF == 0x00FF {
		lo := uint16(c.read(addr))
		hi := uint16(c.read(addr & 0xFF00))
		c.PC = hi<<8 | lo
	} else {
		c.PC = c.readWord(addr)
	}
}

func (c *CPU) jsr() {
	lo := uint16(c.fetchByte())
	c.read(stackBase | uint16(c.SP)) // dummy read
	c.pushWord(c.PC)
	hi := uint16(c.fetchByte())
	c.PC = hi<<8 | lo
}

func (c *CPU) rti() {
	c.read(c.PC) // dummy read
	c.setStatus(c.popByte())
	c.PC = c.popWord()
}

func (c *CPU) rts() {
	c.read(c.PC) // dummy read
	addr := c.popWord()
	c.read(c.PC) // dummy read
	c.PC = addr + 1
}

// Flags

func (c *CPU) clc() { c.setFlag(C, false) }
func (c *CPU) sec() { c.setFlag(C, true) }
func (c *CPU) cld() { c.setFlag(D, false) }
func (c *CPU) sed() { c.setFlag(D, true) }
func (c *CPU) cli() { c.setFlag(I, false) }
func (c *CPU) sei() { c.setFlag(I, true) }
func (c *CPU) clv() { c.setFlag(V, false) }

// Compares

func (c *CPU) cmp() { c.compare(c.A, c.readOperand()) }
func (c *CPU) cpx() { c.compare(c.X, c.readOperand()) }
func (c *CPU) cpy() { c.compare(c.Y, c.readOperand()) }

func (c *CPU) compare(reg, val byte) {
	c.setFlag(C, reg >= val)
	c.setZN(reg - val)
}

// Stack

func (c *CPU) php() { c.pushByte(c.P | U | B) }
func (c *CPU) pha() { c.pushByte(c.A) }

func (c *CPU) plp() {
	c.read(c.PC) // dummy read
	c.setStatus(c.popByte())
}

func (c *CPU) pla() {
	c.read(stackBase | uint16(c.SP)) // dummy read
	c.setA(c.popByte())
}

// System

func (c *CPU) brk() {
	c.pushWord(c.PC)

	// An NMI that arrives before P is pushed hijacks the vector.
	status := c.P | U | B
	nmi := c.nmi
	c.pushByte(status)
	c.setFlag(I, true)

	if nmi {
		c.nmi = false
		c.PC = c.readWord(nmiVector)
	} else {
		c.PC = c.readWord(irqVector)
	}
	// No NMI straight after BRK.
	c.prevNMI = false
}

func (c *CPU) nop() { c.readOperand() }
func (c *CPU) hlt() { c.jam() }

// Unofficial

func (c *CPU) slo() {
	val := c.rmw(c.asl)
	c.setA(c.A | val)
}

func (c *CPU) rla() {
	val := c.rmw(c.rol)
	c.setA(c.A & val)
}

func (c *CPU) sre() {
	val := c.rmw(c.lsr)
	c.setA(c.A ^ val)
}

func (c *CPU) rra() {
	val := c.rmw(c.ror)
	c.add(val)
}

func (c *CPU) dcp() {
	val := c.rmw(func(v byte) byte { return v - 1 })
	c.compare(c.A, val)
}

func (c *CPU) isb() {
	val := c.rmw(func(v byte) byte { return v + 1 })
	c.add(val ^ 0xFF)
}

func (c *CPU) lax() {
	val := c.readOperand()
	c.setX(val)
	c.setA(val)
}

func (c *CPU) sax() { c.write(c.operand, c.A&c.X) }

func (c *CPU) anc() {
	c.setA(c.A & c.readOperand())
	c.setFlag(C, c.P&N != 0)
}

func (c *CPU) alr() {
	c.setA(c.A & c.readOperand())
	c.setFlag(C, c.A&0x01 != 0)
	c.setA(c.A >> 1)
}

func (c *CPU) arr() {
	val := c.readOperand()
	c.setA((c.A&val)>>1 | c.getFlag(C)<<7)
	c.setFlag(C, c.A&0x40 != 0)
	c.setFlag(V, (c.getFlag(C)^(c.A>>5))&0x01 != 0)
}

func (c *CPU) axs() {
	val := c.readOperand()
	ax := c.A & c.X
	c.setFlag(C, ax >= val)
	c.setX(ax - val)
}

func (c *CPU) xaa() {
	val := c.readOperand()
	c.setA((c.A | 0xEE) & c.X & val)
}

func (c *CPU) lxa() {
	c.setA(c.readOperand())
	c.setX(c.A)
}

func (c *CPU) las() {
	val := c.readOperand() & c.SP
	c.setA(val)
	c.setX(val)
	c.SP = val
}

func (c *CPU) shx() { c.storeHighAnd(c.fetchWord(), c.Y, c.X) }
func (c *CPU) shy() { c.storeHighAnd(c.fetchWord(), c.X, c.Y) }

func (c *CPU) ahxAbsY() { c.storeHighAnd(c.fetchWord(), c.Y, c.X&c.A) }

func (c *CPU) ahxIndY() {
	ptr := c.fetchByte()
	lo := uint16(c.read(uint16(ptr)))
	hi := uint16(c.read(uint16(ptr + 1)))
	c.storeHighAnd(hi<<8|lo, c.Y, c.X&c.A)
}

func (c *CPU) tas() {
	c.ahxAbsY()
	c.SP = c.X & c.A
}

// storeHighAnd implements the SHX/SHY/AHX family, which store a register
// ANDed with the high byte of the base address plus one. On a page crossing
// the high byte of the target is corrupted the same way. A DMA landing on the
// fix-up read drops the AND.
func (c *CPU) storeHighAnd(base uint16, index, val byte) {
	addr := base + uint16(index)
	crossed := pagesDiffer(base, addr)

	start := c.Cycle
	c.read(base&0xFF00 | addr&0x00FF)
	hadDMA := c.Cycle-start > 1

	hi := byte(addr >> 8)
	if crossed {
		hi &= val
	}
	if !hadDMA {
		val &= byte(base>>8) + 1
	}
	c.write(uint16(hi)<<8|addr&0x00FF, val)
}
