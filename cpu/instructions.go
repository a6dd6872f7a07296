package cpu

// AddrMode is an addressing mode. The W variants are the indexed modes used
// by stores and read-modify-write instructions, which always spend the
// fix-up read whether or not a page is crossed.
type AddrMode byte

const (
	IMM AddrMode = iota // Immediate
	ACC                 // Accumulator
	IMP                 // Implied
	REL                 // Relative
	ZP0                 // Zero Page
	ZPX                 // Zero Page,X
	ZPY                 // Zero Page,Y
	ABS                 // Absolute
	ABX                 // Absolute,X
	ABXW
	ABY // Absolute,Y
	ABYW
	IND // Indirect
	IDX // (Indirect,X)
	IDY // (Indirect),Y
	IDYW
	OTH // Decoded by the operation itself
)

var addrModeNames = [...]string{
	IMM: "IMM", ACC: "ACC", IMP: "IMP", REL: "REL", ZP0: "ZP0", ZPX: "ZPX",
	ZPY: "ZPY", ABS: "ABS", ABX: "ABX", ABXW: "ABXW", ABY: "ABY", ABYW: "ABYW",
	IND: "IND", IDX: "IDX", IDY: "IDY", IDYW: "IDYW", OTH: "OTH",
}

func (m AddrMode) String() string {
	if int(m) < len(addrModeNames) {
		return addrModeNames[m]
	}
	return "???"
}

// Instruction represents a 6502 instruction.
type Instruction struct {
	Opcode byte
	Name   string
	Mode   AddrMode
	Cycles int
}

// Unofficial reports whether the opcode is outside the documented set.
func (i Instruction) Unofficial() bool {
	switch i.Name {
	case "NOP":
		return i.Opcode != 0xEA
	case "SBC":
		return i.Opcode == 0xEB
	case "HLT", "ISB", "DCP", "AXS", "LAS", "LAX", "AHX", "SAX", "XAA", "SHX",
		"RRA", "TAS", "SHY", "ARR", "SRE", "ALR", "RLA", "ANC", "SLO", "LXA":
		return true
	}
	return false
}

// String returns the mnemonic, starred when unofficial.
func (i Instruction) String() string {
	if i.Unofficial() {
		return "*" + i.Name
	}
	return " " + i.Name
}

// Instructions is the decode table, indexed by opcode. Cycles is the base
// cost, before page crossing and branch penalties.
var Instructions = [256]Instruction{
	{0x00, "BRK", IMM, 7}, {0x01, "ORA", IDX, 6}, {0x02, "HLT", IMP, 2}, {0x03, "SLO", IDX, 8},
	{0x04, "NOP", ZP0, 3}, {0x05, "ORA", ZP0, 3}, {0x06, "ASL", ZP0, 5}, {0x07, "SLO", ZP0, 5},
	{0x08, "PHP", IMP, 3}, {0x09, "ORA", IMM, 2}, {0x0A, "ASL", ACC, 2}, {0x0B, "ANC", IMM, 2},
	{0x0C, "NOP", ABS, 4}, {0x0D, "ORA", ABS, 4}, {0x0E, "ASL", ABS, 6}, {0x0F, "SLO", ABS, 6},
	{0x10, "BPL", REL, 2}, {0x11, "ORA", IDY, 5}, {0x12, "HLT", IMP, 2}, {0x13, "SLO", IDYW, 8},
	{0x14, "NOP", ZPX, 4}, {0x15, "ORA", ZPX, 4}, {0x16, "ASL", ZPX, 6}, {0x17, "SLO", ZPX, 6},
	{0x18, "CLC", IMP, 2}, {0x19, "ORA", ABY, 4}, {0x1A, "NOP", IMP, 2}, {0x1B, "SLO", ABYW, 7},
	{0x1C, "NOP", ABX, 4}, {0x1D, "ORA", ABX, 4}, {0x1E, "ASL", ABXW, 7}, {0x1F, "SLO", ABXW, 7},
	{0x20, "JSR", OTH, 6}, {0x21, "AND", IDX, 6}, {0x22, "HLT", IMP, 2}, {0x23, "RLA", IDX, 8},
	{0x24, "BIT", ZP0, 3}, {0x25, "AND", ZP0, 3}, {0x26, "ROL", ZP0, 5}, {0x27, "RLA", ZP0, 5},
	{0x28, "PLP", IMP, 4}, {0x29, "AND", IMM, 2}, {0x2A, "ROL", ACC, 2}, {0x2B, "ANC", IMM, 2},
	{0x2C, "BIT", ABS, 4}, {0x2D, "AND", ABS, 4}, {0x2E, "ROL", ABS, 6}, {0x2F, "RLA", ABS, 6},
	{0x30, "BMI", REL, 2}, {0x31, "AND", IDY, 5}, {0x32, "HLT", IMP, 2}, {0x33, "RLA", IDYW, 8},
	{0x34, "NOP", ZPX, 4}, {0x35, "AND", ZPX, 4}, {0x36, "ROL", ZPX, 6}, {0x37, "RLA", ZPX, 6},
	{0x38, "SEC", IMP, 2}, {0x39, "AND", ABY, 4}, {0x3A, "NOP", IMP, 2}, {0x3B, "RLA", ABYW, 7},
	{0x3C, "NOP", ABX, 4}, {0x3D, "AND", ABX, 4}, {0x3E, "ROL", ABXW, 7}, {0x3F, "RLA", ABXW, 7},
	{0x40, "RTI", IMP, 6}, {0x41, "EOR", IDX, 6}, {0x42, "HLT", IMP, 2}, {0x43, "SRE", IDX, 8},
	{0x44, "NOP", ZP0, 3}, {0x45, "EOR", ZP0, 3}, {0x46, "LSR", ZP0, 5}, {0x47, "SRE", ZP0, 5},
	{0x48, "PHA", IMP, 3}, {0x49, "EOR", IMM, 2}, {0x4A, "LSR", ACC, 2}, {0x4B, "ALR", IMM, 2},
	{0x4C, "JMP", ABS, 3}, {0x4D, "EOR", ABS, 4}, {0x4E, "LSR", ABS, 6}, {0x4F, "SRE", ABS, 6},
	{0x50, "BVC", REL, 2}, {0x51, "EOR", IDY, 5}, {0x52, "HLT", IMP, 2}, {0x53, "SRE", IDYW, 8},
	{0x54, "NOP", ZPX, 4}, {0x55, "EOR", ZPX, 4}, {0x56, "LSR", ZPX, 6}, {0x57, "SRE", ZPX, 6},
	{0x58, "CLI", IMP, 2}, {0x59, "EOR", ABY, 4}, {0x5A, "NOP", IMP, 2}, {0x5B, "SRE", ABYW, 7},
	{0x5C, "NOP", ABX, 4}, {0x5D, "EOR", ABX, 4}, {0x5E, "LSR", ABXW, 7}, {0x5F, "SRE", ABXW, 7},
	{0x60, "RTS", IMP, 6}, {0x61, "ADC", IDX, 6}, {0x62, "HLT", IMP, 2}, {0x63, "RRA", IDX, 8},
	{0x64, "NOP", ZP0, 3}, {0x65, "ADC", ZP0, 3}, {0x66, "ROR", ZP0, 5}, {0x67, "RRA", ZP0, 5},
	{0x68, "PLA", IMP, 4}, {0x69, "ADC", IMM, 2}, {0x6A, "ROR", ACC, 2}, {0x6B, "ARR", IMM, 2},
	{0x6C, "JMP", IND, 5}, {0x6D, "ADC", ABS, 4}, {0x6E, "ROR", ABS, 6}, {0x6F, "RRA", ABS, 6},
	{0x70, "BVS", REL, 2}, {0x71, "ADC", IDY, 5}, {0x72, "HLT", IMP, 2}, {0x73, "RRA", IDYW, 8},
	{0x74, "NOP", ZPX, 4}, {0x75, "ADC", ZPX, 4}, {0x76, "ROR", ZPX, 6}, {0x77, "RRA", ZPX, 6},
	{0x78, "SEI", IMP, 2}, {0x79, "ADC", ABY, 4}, {0x7A, "NOP", IMP, 2}, {0x7B, "RRA", ABYW, 7},
	{0x7C, "NOP", ABX, 4}, {0x7D, "ADC", ABX, 4}, {0x7E, "ROR", ABXW, 7}, {0x7F, "RRA", ABXW, 7},
	{0x80, "NOP", IMM, 2}, {0x81, "STA", IDX, 6}, {0x82, "NOP", IMM, 2}, {0x83, "SAX", IDX, 6},
	{0x84, "STY", ZP0, 3}, {0x85, "STA", ZP0, 3}, {0x86, "STX", ZP0, 3}, {0x87, "SAX", ZP0, 3},
	{0x88, "DEY", IMP, 2}, {0x89, "NOP", IMM, 2}, {0x8A, "TXA", IMP, 2}, {0x8B, "XAA", IMM, 2},
	{0x8C, "STY", ABS, 4}, {0x8D, "STA", ABS, 4}, {0x8E, "STX", ABS, 4}, {0x8F, "SAX", ABS, 4},
	{0x90, "BCC", REL, 2}, {0x91, "STA", IDYW, 6}, {0x92, "HLT", IMP, 2}, {0x93, "AHX", OTH, 6},
	{0x94, "STY", ZPX, 4}, {0x95, "STA", ZPX, 4}, {0x96, "STX", ZPY, 4}, {0x97, "SAX", ZPY, 4},
	{0x98, "TYA", IMP, 2}, {0x99, "STA", ABYW, 5}, {0x9A, "TXS", IMP, 2}, {0x9B, "TAS", OTH, 5},
	{0x9C, "SHY", OTH, 5}, {0x9D, "STA", ABXW, 5}, {0x9E, "SHX", OTH, 5}, {0x9F, "AHX", OTH, 5},
	{0xA0, "LDY", IMM, 2}, {0xA1, "LDA", IDX, 6}, {0xA2, "LDX", IMM, 2}, {0xA3, "LAX", IDX, 6},
	{0xA4, "LDY", ZP0, 3}, {0xA5, "LDA", ZP0, 3}, {0xA6, "LDX", ZP0, 3}, {0xA7, "LAX", ZP0, 3},
	{0xA8, "TAY", IMP, 2}, {0xA9, "LDA", IMM, 2}, {0xAA, "TAX", IMP, 2}, {0xAB, "LXA", IMM, 2},
	{0xAC, "LDY", ABS, 4}, {0xAD, "LDA", ABS, 4}, {0xAE, "LDX", ABS, 4}, {0xAF, "LAX", ABS, 4},
	{0xB0, "BCS", REL, 2}, {0xB1, "LDA", IDY, 5}, {0xB2, "HLT", IMP, 2}, {0xB3, "LAX", IDY, 5},
	{0xB4, "LDY", ZPX, 4}, {0xB5, "LDA", ZPX, 4}, {0xB6, "LDX", ZPY, 4}, {0xB7, "LAX", ZPY, 4},
	{0xB8, "CLV", IMP, 2}, {0xB9, "LDA", ABY, 4}, {0xBA, "TSX", IMP, 2}, {0xBB, "LAS", ABY, 4},
	{0xBC, "LDY", ABX, 4}, {0xBD, "LDA", ABX, 4}, {0xBE, "LDX", ABY, 4}, {0xBF, "LAX", ABY, 4},
	{0xC0, "CPY", IMM, 2}, {0xC1, "CMP", IDX, 6}, {0xC2, "NOP", IMM, 2}, {0xC3, "DCP", IDX, 8},
	{0xC4, "CPY", ZP0, 3}, {0xC5, "CMP", ZP0, 3}, {0xC6, "DEC", ZP0, 5}, {0xC7, "DCP", ZP0, 5},
	{0xC8, "INY", IMP, 2}, {0xC9, "CMP", IMM, 2}, {0xCA, "DEX", IMP, 2}, {0xCB, "AXS", IMM, 2},
	{0xCC, "CPY", ABS, 4}, {0xCD, "CMP", ABS, 4}, {0xCE, "DEC", ABS, 6}, {0xCF, "DCP", ABS, 6},
	{0xD0, "BNE", REL, 2}, {0xD1, "CMP", IDY, 5}, {0xD2, "HLT", IMP, 2}, {0xD3, "DCP", IDYW, 8},
	{0xD4, "NOP", ZPX, 4}, {0xD5, "CMP", ZPX, 4}, {0xD6, "DEC", ZPX, 6}, {0xD7, "DCP", ZPX, 6},
	{0xD8, "CLD", IMP, 2}, {0xD9, "CMP", ABY, 4}, {0xDA, "NOP", IMP, 2}, {0xDB, "DCP", ABYW, 7},
	{0xDC, "NOP", ABX, 4}, {0xDD, "CMP", ABX, 4}, {0xDE, "DEC", ABXW, 7}, {0xDF, "DCP", ABXW, 7},
	{0xE0, "CPX", IMM, 2}, {0xE1, "SBC", IDX, 6}, {0xE2, "NOP", IMM, 2}, {0xE3, "ISB", IDX, 8},
	{0xE4, "CPX", ZP0, 3}, {0xE5, "SBC", ZP0, 3}, {0xE6, "INC", ZP0, 5}, {0xE7, "ISB", ZP0, 5},
	{0xE8, "INX", IMP, 2}, {0xE9, "SBC", IMM, 2}, {0xEA, "NOP", IMP, 2}, {0xEB, "SBC", IMM, 2},
	{0xEC, "CPX", ABS, 4}, {0xED, "SBC", ABS, 4}, {0xEE, "INC", ABS, 6}, {0xEF, "ISB", ABS, 6},
	{0xF0, "BEQ", REL, 2}, {0xF1, "SBC", IDY, 5}, {0xF2, "HLT", IMP, 2}, {0xF3, "ISB", IDYW, 8},
	{0xF4, "NOP", ZPX, 4}, {0xF5, "SBC", ZPX, 4}, {0xF6, "INC", ZPX, 6}, {0xF7, "ISB", ZPX, 6},
	{0xF8, "SED", IMP, 2}, {0xF9, "SBC", ABY, 4}, {0xFA, "NOP", IMP, 2}, {0xFB, "ISB", ABYW, 7},
	{0xFC, "NOP", ABX, 4}, {0xFD, "SBC", ABX, 4}, {0xFE, "INC", ABXW, 7}, {0xFF, "ISB", ABXW, 7},
}

// ops holds the operation run for each opcode.
var ops = [256]func(*CPU){
	// 00
	(*CPU).brk, (*CPU).ora, (*CPU).hlt, (*CPU).slo, (*CPU).nop, (*CPU).ora, (*CPU).aslMem, (*CPU).slo,
	(*CPU).php, (*CPU).ora, (*CPU).aslAcc, (*CPU).anc, (*CPU).nop, (*CPU).ora, (*CPU).aslMem, (*CPU).slo,
	// 10
	(*CPU).bpl, (*CPU).ora, (*CPU).hlt, (*CPU).slo, (*CPU).nop, (*CPU).ora, (*CPU).aslMem, (*CPU).slo,
	(*CPU).clc, (*CPU).ora, (*CPU).nop, (*CPU).slo, (*CPU).nop, (*CPU).ora, (*CPU).aslMem, (*CPU).slo,
	// 20
	(*CPU).jsr, (*CPU).and, (*CPU).hlt, (*CPU).rla, (*CPU).bit, (*CPU).and, (*CPU).rolMem, (*CPU).rla,
	(*CPU).plp, (*CPU).and, (*CPU).rolAcc, (*CPU).anc, (*CPU).bit, (*CPU).and, (*CPU).rolMem, (*CPU).rla,
	// 30
	(*CPU).bmi, (*CPU).and, (*CPU).hlt, (*CPU).rla, (*CPU).nop, (*CPU).and, (*CPU).rolMem, (*CPU).rla,
	(*CPU).sec, (*CPU).and, (*CPU).nop, (*CPU).rla, (*CPU).nop, (*CPU).and, (*CPU).rolMem, (*CPU).rla,
	// 40
	(*CPU).rti, (*CPU).eor, (*CPU).hlt, (*CPU).sre, (*CPU).nop, (*CPU).eor, (*CPU).lsrMem, (*CPU).sre,
	(*CPU).pha, (*CPU).eor, (*CPU).lsrAcc, (*CPU).alr, (*CPU).jmpAbs, (*CPU).eor, (*CPU).lsrMem, (*CPU).sre,
	// 50
	(*CPU).bvc, (*CPU).eor, (*CPU).hlt, (*CPU).sre, (*CPU).nop, (*CPU).eor, (*CPU).lsrMem, (*CPU).sre,
	(*CPU).cli, (*CPU).eor, (*CPU).nop, (*CPU).sre, (*CPU).nop, (*CPU).eor, (*CPU).lsrMem, (*CPU).sre,
	// 60
	(*CPU).rts, (*CPU).adc, (*CPU).hlt, (*CPU).rra, (*CPU).nop, (*CPU).adc, (*CPU).rorMem, (*CPU).rra,
	(*CPU).pla, (*CPU).adc, (*CPU).rorAcc, (*CPU).arr, (*CPU).jmpInd, (*CPU).adc, (*CPU).rorMem, (*CPU).rra,
	// 70
	(*CPU).bvs, (*CPU).adc, (*CPU).hlt, (*CPU).rra, (*CPU).nop, (*CPU).adc, (*CPU).rorMem, (*CPU).rra,
	(*CPU).sei, (*CPU).adc, (*CPU).nop, (*CPU).rra, (*CPU).nop, (*CPU).adc, (*CPU).rorMem, (*CPU).rra,
	// 80
	(*CPU).nop, (*CPU).sta, (*CPU).nop, (*CPU).sax, (*CPU).sty, (*CPU).sta, (*CPU).stx, (*CPU).sax,
	(*CPU).dey, (*CPU).nop, (*CPU).txa, (*CPU).xaa, (*CPU).sty, (*CPU).sta, (*CPU).stx, (*CPU).sax,
	// 90
	(*CPU).bcc, (*CPU).sta, (*CPU).hlt, (*CPU).ahxIndY, (*CPU).sty, (*CPU).sta, (*CPU).stx, (*CPU).sax,
	(*CPU).tya, (*CPU).sta, (*CPU).txs, (*CPU).tas, (*CPU).shy, (*CPU).sta, (*CPU).shx, (*CPU).ahxAbsY,
	// A0
	(*CPU).ldy, (*CPU).lda, (*CPU).ldx, (*CPU).lax, (*CPU).ldy, (*CPU).lda, (*CPU).ldx, (*CPU).lax,
	(*CPU).tay, (*CPU).lda, (*CPU).tax, (*CPU).lxa, (*CPU).ldy, (*CPU).lda, (*CPU).ldx, (*CPU).lax,
	// B0
	(*CPU).bcs, (*CPU).lda, (*CPU).hlt, (*CPU).lax, (*CPU).ldy, (*CPU).lda, (*CPU).ldx, (*CPU).lax,
	(*CPU).clv, (*CPU).lda, (*CPU).tsx, (*CPU).las, (*CPU).ldy, (*CPU).lda, (*CPU).ldx, (*CPU).lax,
	// C0
	(*CPU).cpy, (*CPU).cmp, (*CPU).nop, (*CPU).dcp, (*CPU).cpy, (*CPU).cmp, (*CPU).dec, (*CPU).dcp,
	(*CPU).iny, (*CPU).cmp, (*CPU).dex, (*CPU).axs, (*CPU).cpy, (*CPU).cmp, (*CPU).dec, (*CPU).dcp,
	// D0
	(*CPU).bne, (*CPU).cmp, (*CPU).hlt, (*CPU).dcp, (*CPU).nop, (*CPU).cmp, (*CPU).dec, (*CPU).dcp,
	(*CPU).cld, (*CPU).cmp, (*CPU).nop, (*CPU).dcp, (*CPU).nop, (*CPU).cmp, (*CPU).dec, (*CPU).dcp,
	// E0
	(*CPU).cpx, (*CPU).sbc, (*CPU).nop, (*CPU).isb, (*CPU).cpx, (*CPU).sbc, (*CPU).inc, (*CPU).isb,
	(*CPU).inx, (*CPU).sbc, (*CPU).nop, (*CPU).sbc, (*CPU).cpx, (*CPU).sbc, (*CPU).inc, (*CPU).isb,
	// F0
	(*CPU).beq, (*CPU).sbc, (*CPU).hlt, (*CPU).isb, (*CPU).nop, (*CPU).sbc, (*CPU).inc, (*CPU).isb,
	(*CPU).sed, (*CPU).sbc, (*CPU).nop, (*CPU).isb, (*CPU).nop, (*CPU).sbc, (*CPU).inc, (*CPU).isb,
}
