package vm

// DetectLoadUseHazard reports whether the instruction decoding this tick
// (described by the freshly-computed rs1/rs2) depends on a load currently
// sitting in ID/EX, requiring a one-cycle bubble (spec.md §4.10).
func DetectLoadUseHazard(idEx *IDEXLatch, rs1, rs2 int) bool {
	if !idEx.Valid || !idEx.Ctrl.MemRead {
		return false
	}
	if idEx.Rd == ZeroRegister {
		return false
	}
	return idEx.Rd == rs1 || idEx.Rd == rs2
}

// DetectControlHazard reports whether EX/MEM is about to redirect the PC
// this tick, requiring IF/ID and ID/EX to be flushed (spec.md §4.10).
func DetectControlHazard(exMem *ExMemLatch) bool {
	return exMem.Valid && (exMem.BranchTaken || exMem.Jump)
}
