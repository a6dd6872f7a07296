package cpu

// State is a snapshot of the CPU registers, interrupt detectors and any DMA
// in flight.
type State struct {
	PC, Operand, DMCAddr, OAMAddr                          uint16
	SP, A, X, Y, P                                         byte
	Mode                                                   AddrMode
	Cycle, MasterClock                                     uint64
	IRQLines                                               IRQ
	NMILine, NMI, PrevNMI, PrevNMILine, RunIRQ, PrevRunIRQ bool
	DMCDMA, OAMDMA, DMAHalt, DMADummyRead, Corrupted       bool
}

func (c *CPU) SaveState() State {
	return State{
		c.PC, c.operand, c.dmcAddr, c.oamAddr,
		c.SP, c.A, c.X, c.Y, c.P,
		c.mode,
		c.Cycle, c.MasterClock,
		c.irqLines,
		c.nmiLine, c.nmi, c.prevNMI, c.prevNMILine, c.runIRQ, c.prevRunIRQ,
		c.dmcDMA, c.oamDMA, c.dmaHalt, c.dmaDummyRead, c.Corrupted,
	}
}

func (c *CPU) LoadState(s State) {
	c.PC, c.operand, c.dmcAddr, c.oamAddr = s.PC, s.Operand, s.DMCAddr, s.OAMAddr
	c.SP, c.A, c.X, c.Y, c.P = s.SP, s.A, s.X, s.Y, s.P
	c.mode = s.Mode
	c.Cycle, c.MasterClock = s.Cycle, s.MasterClock
	c.irqLines = s.IRQLines
	c.nmiLine, c.nmi, c.prevNMI, c.prevNMILine, c.runIRQ, c.prevRunIRQ = s.NMILine, s.NMI, s.PrevNMI, s.PrevNMILine, s.RunIRQ, s.PrevRunIRQ
	c.dmcDMA, c.oamDMA, c.dmaHalt, c.dmaDummyRead, c.Corrupted = s.DMCDMA, s.OAMDMA, s.DMAHalt, s.DMADummyRead, s.Corrupted
}
