package vm

// PipelinedCore orchestrates the five in-order stages (IF, ID, EX, MEM, WB)
// against shared architectural state, applying stalls, flushes, and target
// redirects per tick (spec.md §4.9, §4.10).
type PipelinedCore struct {
	Regs *RegisterFile
	Mem  *Memory
	ALU  *ALU
	PC   uint32

	IFID  IFIDLatch
	IDEX  IDEXLatch
	ExMem ExMemLatch
	MemWB MemWBLatch

	Stats Statistics
	State ExecutionState
	Trace *Trace
}

// NewPipelinedCore builds a pipelined core over the given register file and
// memory. Passing nil for either allocates fresh defaults.
func NewPipelinedCore(regs *RegisterFile, mem *Memory) *PipelinedCore {
	if regs == nil {
		regs = NewRegisterFile()
	}
	if mem == nil {
		mem = NewMemory(DefaultMemorySize)
	}
	return &PipelinedCore{
		Regs:  regs,
		Mem:   mem,
		ALU:   NewALU(),
		State: StateRunning,
	}
}

// Reset returns the core to its initial architectural state: PC and all
// four latches cleared, counters zeroed. Memory contents are untouched.
func (c *PipelinedCore) Reset() {
	c.Regs.Reset()
	c.PC = 0
	c.IFID = IFIDLatch{}
	c.IDEX = IDEXLatch{}
	c.ExMem = ExMemLatch{}
	c.MemWB = MemWBLatch{}
	c.Stats.Reset()
	c.State = StateRunning
}

// Tick advances every stage by one cycle in reverse stage order (WB, MEM,
// EX, ID, IF), per spec.md §4.9 and the ordering invariant of §5, and
// reports whether the core halted as a result of this tick.
func (c *PipelinedCore) Tick() bool {
	c.writeback()
	c.memory()
	c.execute()
	c.decode()
	halted := c.fetch()

	c.Stats.Cycles++
	if halted {
		c.State = StateHalted
	}
	return halted
}

// writeback implements the WB stage.
func (c *PipelinedCore) writeback() {
	if !c.MemWB.Valid {
		return
	}
	if c.MemWB.RegWrite {
		writeData := c.MemWB.WriteValue()
		c.Regs.Set(c.MemWB.Rd, writeData)
		c.Stats.CommittedInstrs++
		if c.Trace != nil {
			c.Trace.Record(TraceEntry{Cycle: c.Stats.Cycles, Stage: "WB", Rd: c.MemWB.Rd, RegWrite: true, WriteData: writeData})
		}
	}
}

// memory implements the MEM stage.
func (c *PipelinedCore) memory() {
	if !c.ExMem.Valid {
		c.MemWB.Flush()
		return
	}

	var memData uint32
	if c.ExMem.MemRead {
		memData = c.Mem.ReadWord(c.ExMem.ALUResult)
	}
	if c.ExMem.MemWrite {
		c.Mem.WriteWord(c.ExMem.ALUResult, c.ExMem.Rs2Data)
	}

	flushed := false
	if c.ExMem.BranchTaken || c.ExMem.Jump {
		c.PC = c.ExMem.BranchTarget
		c.IFID.Flush()
		c.IDEX.Flush()
		c.Stats.ControlFlushes++
		flushed = true
	}

	if c.Trace != nil {
		var memAddr uint32
		if c.ExMem.MemRead || c.ExMem.MemWrite {
			memAddr = c.ExMem.ALUResult
		}
		c.Trace.Record(TraceEntry{
			Cycle:      c.Stats.Cycles,
			PC:         c.ExMem.PC,
			Rd:         c.ExMem.Rd,
			Stage:      "MEM",
			MemAddr:    memAddr,
			MemWritten: c.ExMem.MemWrite,
			Flushed:    flushed,
		})
	}

	c.MemWB = MemWBLatch{
		Valid:     true,
		ALUResult: c.ExMem.ALUResult,
		MemData:   memData,
		Rd:        c.ExMem.Rd,
		RegWrite:  c.ExMem.RegWrite,
		MemToReg:  c.ExMem.MemToReg,
	}
}

// execute implements the EX stage, including operand forwarding.
func (c *PipelinedCore) execute() {
	if !c.IDEX.Valid {
		c.ExMem.Flush()
		return
	}

	// WB has already committed this tick and MEM has already copied EX/MEM
	// into MEM/WB, so results older than EX/MEM are read from the register
	// file now rather than from the value ID read a tick earlier.
	forwardedA, srcA := Forward(c.IDEX.Rs1, c.Regs.Get(c.IDEX.Rs1), &c.ExMem, &c.MemWB)
	forwardedB, srcB := Forward(c.IDEX.Rs2, c.Regs.Get(c.IDEX.Rs2), &c.ExMem, &c.MemWB)

	var aluInputB uint32
	if c.IDEX.Ctrl.ALUSrc {
		aluInputB = uint32(c.IDEX.Imm)
	} else {
		aluInputB = forwardedB
	}

	var aluResult uint32
	var branchTaken bool

	switch c.IDEX.Opcode {
	case OpReg:
		op := SelectOp(c.IDEX.Funct3, c.IDEX.Funct7, true)
		aluResult = c.ALU.Execute(op, forwardedA, aluInputB)
	case OpImm:
		funct7 := c.IDEX.Funct7
		if c.IDEX.Funct3 != Funct3SLL && c.IDEX.Funct3 != Funct3SRLSRA {
			funct7 = 0
		}
		op := SelectOp(c.IDEX.Funct3, funct7, false)
		aluResult = c.ALU.Execute(op, forwardedA, aluInputB)
	case OpLoad, OpStore:
		aluResult = c.ALU.Execute(ALUAdd, forwardedA, aluInputB)
	case OpBranch:
		branchTaken = EvaluateBranch(c.IDEX.Funct3, forwardedA, forwardedB)
		aluResult = c.IDEX.PC + uint32(c.IDEX.Imm)
	case OpJAL, OpJALR:
		aluResult = c.IDEX.PC + 4
	case OpLUI:
		aluResult = uint32(c.IDEX.Imm)
	case OpAUIPC:
		aluResult = c.IDEX.PC + uint32(c.IDEX.Imm)
	}

	var branchTarget uint32
	switch {
	case c.IDEX.Ctrl.Branch:
		branchTarget = c.IDEX.PC + uint32(c.IDEX.Imm)
	case c.IDEX.Opcode == OpJALR:
		branchTarget = (forwardedA + uint32(c.IDEX.Imm)) & 0xFFFFFFFE
	case c.IDEX.Ctrl.Jump:
		branchTarget = c.IDEX.PC + uint32(c.IDEX.Imm)
	}

	if c.Trace != nil {
		c.Trace.Record(TraceEntry{
			Cycle:     c.Stats.Cycles,
			PC:        c.IDEX.PC,
			Rd:        c.IDEX.Rd,
			Stage:     "EX",
			ForwardA:  srcA.String(),
			ForwardB:  srcB.String(),
			WriteData: aluResult,
		})
	}

	c.ExMem = ExMemLatch{
		Valid:        true,
		PC:           c.IDEX.PC,
		ALUResult:    aluResult,
		Rs2Data:      forwardedB,
		Rd:           c.IDEX.Rd,
		BranchTarget: branchTarget,
		BranchTaken:  branchTaken && c.IDEX.Ctrl.Branch,
		RegWrite:     c.IDEX.Ctrl.RegWrite,
		MemRead:      c.IDEX.Ctrl.MemRead,
		MemWrite:     c.IDEX.Ctrl.MemWrite,
		MemToReg:     c.IDEX.Ctrl.MemToReg,
		Jump:         c.IDEX.Ctrl.Jump,
	}
}

// decode implements the ID stage, including load-use hazard detection.
func (c *PipelinedCore) decode() {
	if !c.IFID.Valid {
		c.IDEX.Flush()
		return
	}

	inst := Decode(c.IFID.Raw)
	ctrl := DecodeControl(inst.Opcode)

	if DetectLoadUseHazard(&c.IDEX, inst.Rs1, inst.Rs2) {
		c.IDEX.Flush()
		c.IFID.Stall = true
		c.PC -= 4
		c.Stats.LoadUseStalls++
		if c.Trace != nil {
			c.Trace.Record(TraceEntry{Cycle: c.Stats.Cycles, PC: c.IFID.PC, Raw: c.IFID.Raw, Stage: "ID", Stalled: true})
		}
		return
	}
	c.IFID.Stall = false

	c.IDEX = IDEXLatch{
		Valid:   true,
		PC:      c.IFID.PC,
		Rs1Data: c.Regs.Get(inst.Rs1),
		Rs2Data: c.Regs.Get(inst.Rs2),
		Rs1:     inst.Rs1,
		Rs2:     inst.Rs2,
		Rd:      inst.Rd,
		Imm:     inst.Imm,
		Funct3:  inst.Funct3,
		Funct7:  inst.Funct7,
		Opcode:  inst.Opcode,
		Ctrl:    ctrl,
	}
}

// fetch implements the IF stage, including control-hazard flush, stall
// handling, and the sentinel-drain halt check. It returns true once halt is
// declared.
func (c *PipelinedCore) fetch() bool {
	if DetectControlHazard(&c.ExMem) {
		c.IFID.Flush()
		if c.Trace != nil {
			c.Trace.Record(TraceEntry{Cycle: c.Stats.Cycles, Stage: "IF", Flushed: true})
		}
		return false
	}

	if c.IFID.Stall {
		if c.Trace != nil {
			c.Trace.Record(TraceEntry{Cycle: c.Stats.Cycles, PC: c.PC, Stage: "IF", Stalled: true})
		}
		return false
	}

	raw := c.Mem.ReadWord(c.PC)

	if IsHalt(raw) {
		if !c.IDEX.Valid && !c.ExMem.Valid && !c.MemWB.Valid && c.IFID.Raw == HaltInstruction {
			return true
		}
		// Until the older instructions drain, the sentinel is held in IF/ID
		// as a bubble and the PC stays on it.
		c.IFID = IFIDLatch{Valid: false, PC: c.PC, Raw: raw}
		return false
	}

	if c.Trace != nil {
		c.Trace.Record(TraceEntry{Cycle: c.Stats.Cycles, PC: c.PC, Raw: raw, Stage: "IF"})
	}

	c.IFID = IFIDLatch{Valid: true, PC: c.PC, Raw: raw}
	c.PC += 4
	return false
}

// Run ticks the core until it halts or either cap is reached. A zero cap
// selects its package default.
func (c *PipelinedCore) Run(maxCycles, maxInstructions uint64) ExecutionState {
	if maxCycles == 0 {
		maxCycles = DefaultPipelinedMaxCycles
	}
	if maxInstructions == 0 {
		maxInstructions = DefaultPipelinedMaxInstructions
	}
	for c.Stats.Cycles < maxCycles && c.Stats.CommittedInstrs < maxInstructions {
		if c.Tick() {
			return c.State
		}
	}
	if c.Stats.Cycles >= maxCycles {
		c.State = StateCycleLimit
	} else {
		c.State = StateInstructionLimit
	}
	return c.State
}
