package vm

// ForwardSource names where an operand ultimately came from, useful to the
// pipeline trace and the TUI's forwarding panel.
type ForwardSource int

const (
	ForwardFromRegFile ForwardSource = iota
	ForwardFromExMem
	ForwardFromMemWB
)

// String names a ForwardSource for trace/debug display.
func (f ForwardSource) String() string {
	switch f {
	case ForwardFromExMem:
		return "ex-mem"
	case ForwardFromMemWB:
		return "mem-wb"
	default:
		return "reg"
	}
}

// Forward selects the value for source register reg, preferring EX/MEM
// over MEM/WB over the register file's already-read value, per spec.md
// §4.10. regValue is the operand's register-file value, returned when
// neither latch supplies a match.
func Forward(reg int, regValue uint32, exMem *ExMemLatch, memWB *MemWBLatch) (uint32, ForwardSource) {
	if exMem.Valid && exMem.RegWrite && exMem.Rd != ZeroRegister && exMem.Rd == reg {
		return exMem.ALUResult, ForwardFromExMem
	}
	if memWB.Valid && memWB.RegWrite && memWB.Rd != ZeroRegister && memWB.Rd == reg {
		return memWB.WriteValue(), ForwardFromMemWB
	}
	return regValue, ForwardFromRegFile
}
