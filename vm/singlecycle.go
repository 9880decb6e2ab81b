package vm

// ExecutionState describes why a core's run loop stopped, mirroring the
// teacher's small state-enum idiom (vm/state.go) applied to the new
// domain's halt/cap conditions instead of ARM's swi/breakpoint conditions.
type ExecutionState int

const (
	StateRunning ExecutionState = iota
	StateHalted
	StateCycleLimit
	StateInstructionLimit
)

// String names an ExecutionState for state dumps and API responses.
func (s ExecutionState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateCycleLimit:
		return "cycle-limit"
	case StateInstructionLimit:
		return "instruction-limit"
	default:
		return "unknown"
	}
}

// SingleCycleCore fetches, decodes, executes, accesses memory, and writes
// back in one step per tick (spec.md §4.8).
type SingleCycleCore struct {
	Regs   *RegisterFile
	Mem    *Memory
	ALU    *ALU
	PC     uint32
	Cycles uint64
	Instrs uint64
	State  ExecutionState
	Trace  *Trace
}

// NewSingleCycleCore builds a core over the given register file and memory.
// Passing nil for either allocates fresh defaults.
func NewSingleCycleCore(regs *RegisterFile, mem *Memory) *SingleCycleCore {
	if regs == nil {
		regs = NewRegisterFile()
	}
	if mem == nil {
		mem = NewMemory(DefaultMemorySize)
	}
	return &SingleCycleCore{
		Regs:  regs,
		Mem:   mem,
		ALU:   NewALU(),
		State: StateRunning,
	}
}

// Reset returns the core to its initial architectural state (PC=0,
// counters zeroed) without touching memory contents.
func (c *SingleCycleCore) Reset() {
	c.Regs.Reset()
	c.PC = 0
	c.Cycles = 0
	c.Instrs = 0
	c.State = StateRunning
}

// Tick executes exactly one instruction and reports whether the core
// halted as a result.
func (c *SingleCycleCore) Tick() bool {
	raw := c.Mem.ReadWord(c.PC)
	if IsHalt(raw) {
		c.State = StateHalted
		c.Cycles++
		if c.Trace != nil {
			c.Trace.Record(TraceEntry{Cycle: c.Cycles, PC: c.PC, Raw: raw, Halted: true})
		}
		return true
	}

	inst := Decode(raw)
	ctrl := DecodeControl(inst.Opcode)

	rs1Data := c.Regs.Get(inst.Rs1)
	rs2Data := c.Regs.Get(inst.Rs2)
	nextPC := c.PC + 4
	var writeData uint32
	var memAddr uint32
	var memWritten bool

	funct7 := inst.Funct7
	if inst.Opcode == OpImm && inst.Funct3 != Funct3SLL && inst.Funct3 != Funct3SRLSRA {
		funct7 = 0
	}

	switch inst.Opcode {
	case OpReg:
		op := SelectOp(inst.Funct3, funct7, true)
		writeData = c.ALU.Execute(op, rs1Data, rs2Data)
	case OpImm:
		op := SelectOp(inst.Funct3, funct7, false)
		writeData = c.ALU.Execute(op, rs1Data, uint32(inst.Imm))
	case OpLoad:
		memAddr = rs1Data + uint32(inst.Imm)
		writeData = c.Mem.ReadWord(memAddr)
	case OpStore:
		memAddr = rs1Data + uint32(inst.Imm)
		c.Mem.WriteWord(memAddr, rs2Data)
		memWritten = true
	case OpBranch:
		if EvaluateBranch(inst.Funct3, rs1Data, rs2Data) {
			nextPC = c.PC + uint32(inst.Imm)
		}
	case OpJAL:
		writeData = c.PC + 4
		nextPC = c.PC + uint32(inst.Imm)
	case OpJALR:
		writeData = c.PC + 4
		nextPC = (rs1Data + uint32(inst.Imm)) & 0xFFFFFFFE
	case OpLUI:
		writeData = uint32(inst.Imm)
	case OpAUIPC:
		writeData = c.PC + uint32(inst.Imm)
	}

	if ctrl.RegWrite {
		c.Regs.Set(inst.Rd, writeData)
	}

	if c.Trace != nil {
		c.Trace.Record(TraceEntry{
			Cycle:      c.Cycles,
			PC:         c.PC,
			Raw:        raw,
			Rd:         inst.Rd,
			RegWrite:   ctrl.RegWrite,
			WriteData:  writeData,
			MemAddr:    memAddr,
			MemWritten: memWritten,
		})
	}

	c.PC = nextPC & Mask32
	c.Cycles++
	c.Instrs++
	return false
}

// Run ticks the core until it halts or maxCycles is reached (0 selects
// DefaultSingleCycleMaxCycles), returning the terminal ExecutionState.
func (c *SingleCycleCore) Run(maxCycles uint64) ExecutionState {
	if maxCycles == 0 {
		maxCycles = DefaultSingleCycleMaxCycles
	}
	for c.Cycles < maxCycles {
		if c.Tick() {
			return c.State
		}
	}
	c.State = StateCycleLimit
	return c.State
}
