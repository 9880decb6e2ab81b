package vm

import (
	"fmt"
	"strings"
)

// DumpRegisters formats the full register file four per row as
// "x<dd>=0x<8-hex>", matching the teacher's DumpState row-wrapping style
// (spec.md §6).
func DumpRegisters(regs *RegisterFile) string {
	var b strings.Builder
	snap := regs.Snapshot()
	for i := 0; i < RegisterCount; i++ {
		fmt.Fprintf(&b, "x%02d=0x%08x", i, snap[i])
		if (i+1)%4 == 0 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.TrimRight(b.String(), " \n")
}

// DumpMemoryWindow formats count words starting at addr as
// "0x<addr>: 0x<word>" lines (spec.md §6).
func DumpMemoryWindow(mem *Memory, addr uint32, count int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		a := addr + uint32(i*4)
		fmt.Fprintf(&b, "0x%08x: 0x%08x\n", a, mem.ReadWord(a))
	}
	return strings.TrimRight(b.String(), "\n")
}

// SingleCycleSummary formats a single-cycle core's terminal state for the
// CLI's post-run dump.
func SingleCycleSummary(c *SingleCycleCore) string {
	return fmt.Sprintf("state=%s pc=0x%08x cycles=%d instructions=%d",
		c.State, c.PC, c.Cycles, c.Instrs)
}

// PipelinedSummary formats a pipelined core's terminal state, including the
// CPI and hazard tallies spec.md §6 requires.
func PipelinedSummary(c *PipelinedCore) string {
	return fmt.Sprintf("state=%s pc=0x%08x cycles=%d instructions=%d cpi=%.3f stalls=%d flushes=%d",
		c.State, c.PC, c.Stats.Cycles, c.Stats.CommittedInstrs, c.Stats.CPI(),
		c.Stats.LoadUseStalls, c.Stats.ControlFlushes)
}
