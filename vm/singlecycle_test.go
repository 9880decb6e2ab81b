package vm

import "testing"

func loadSingleCycle(t *testing.T, words []uint32) *SingleCycleCore {
	t.Helper()
	mem := NewMemory(DefaultMemorySize)
	mem.LoadWords(0, words)
	return NewSingleCycleCore(nil, mem)
}

func TestSingleCycleAddiChain(t *testing.T) {
	words := []uint32{
		0x00500093, // addi x1, x0, 5
		0x00a00113, // addi x2, x0, 10
		0x002081b3, // add x3, x1, x2
		HaltInstruction,
	}
	c := loadSingleCycle(t, words)
	c.Run(0)

	if got := c.Regs.Get(1); got != 5 {
		t.Errorf("x1 = %d, want 5", got)
	}
	if got := c.Regs.Get(2); got != 10 {
		t.Errorf("x2 = %d, want 10", got)
	}
	if got := c.Regs.Get(3); got != 15 {
		t.Errorf("x3 = %d, want 15", got)
	}
	if c.PC != 0x0000000C {
		t.Errorf("PC = 0x%x, want 0x0000000C", c.PC)
	}
	if c.State != StateHalted {
		t.Errorf("state = %s, want halted", c.State)
	}
}

func TestSingleCycleStoreLoadRoundTrip(t *testing.T) {
	words := []uint32{
		0x000102b7, // lui x5, 0x10
		0x00f00093, // addi x1, x0, 15
		0x0012a023, // sw x1, 0(x5)
		0x0002a203, // lw x4, 0(x5)
		HaltInstruction,
	}
	c := loadSingleCycle(t, words)
	c.Run(0)

	if got := c.Regs.Get(4); got != 15 {
		t.Errorf("x4 = %d, want 15", got)
	}
	if got := c.Mem.ReadWord(0x00010000); got != 0x0000000F {
		t.Errorf("memory[0x10000] = 0x%x, want 0x0000000F", got)
	}
}

func TestSingleCycleTakenBranch(t *testing.T) {
	words := []uint32{
		0x00100093, // addi x1, x0, 1
		0x00100113, // addi x2, x0, 1
		0x00208463, // beq x1, x2, +8
		0x06300193, // addi x3, x0, 99 (skipped)
		0x00700213, // addi x4, x0, 7
		HaltInstruction,
	}
	c := loadSingleCycle(t, words)
	c.Run(0)

	if got := c.Regs.Get(3); got != 0 {
		t.Errorf("x3 = %d, want 0 (instruction skipped)", got)
	}
	if got := c.Regs.Get(4); got != 7 {
		t.Errorf("x4 = %d, want 7", got)
	}
}

func TestSingleCycleJALRClearsLowBit(t *testing.T) {
	words := []uint32{
		0x00700093, // addi x1, x0, 7
		0x00008067, // jalr x0, x1, 0
	}
	c := loadSingleCycle(t, words)
	c.Tick()
	c.Tick()

	if c.PC != 6 {
		t.Errorf("PC after jalr = %d, want 6 (bit 0 cleared)", c.PC)
	}
}

func TestSingleCycleSignedVsUnsignedCompare(t *testing.T) {
	words := []uint32{
		0xfff00093, // addi x1, x0, -1
		0x00100113, // addi x2, x0, 1
		0x0020a1b3, // slt x3, x1, x2
		0x0020b233, // sltu x4, x1, x2
	}
	c := loadSingleCycle(t, words)
	for i := 0; i < 4; i++ {
		c.Tick()
	}

	if got := c.Regs.Get(3); got != 1 {
		t.Errorf("x3 (slt) = %d, want 1", got)
	}
	if got := c.Regs.Get(4); got != 0 {
		t.Errorf("x4 (sltu) = %d, want 0", got)
	}
}

func TestSingleCycleRegisterZeroNeverWritten(t *testing.T) {
	words := []uint32{
		0x00100037, // lui x0, 1 (attempt to write x0)
		HaltInstruction,
	}
	c := loadSingleCycle(t, words)
	c.Run(0)

	if got := c.Regs.Get(0); got != 0 {
		t.Errorf("x0 = %d, want 0 always", got)
	}
}
