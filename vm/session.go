package vm

// Mode selects which execution strategy a VM runs its loaded program
// against.
type Mode int

const (
	ModeSingleCycle Mode = iota
	ModePipelined
)

// String names a Mode for CLI flags and API payloads.
func (m Mode) String() string {
	if m == ModePipelined {
		return "pipelined"
	}
	return "single-cycle"
}

// VM is the facade the debugger, API, and service layers drive: it owns
// exactly one active core (selected by Mode) over a shared register file
// and memory, and exposes the operations common to both strategies without
// callers needing to type-switch. This mirrors the teacher's VM-as-facade
// shape (vm/executor.go), narrowed to this package's two interchangeable
// cores instead of one ARM interpreter.
type VM struct {
	Mode   Mode
	Single *SingleCycleCore
	Piped  *PipelinedCore
}

// NewVM builds a VM in single-cycle mode with a fresh register file and
// memory of the given size (0 selects DefaultMemorySize).
func NewVM(size int) *VM {
	mem := NewMemory(size)
	regs := NewRegisterFile()
	return &VM{
		Mode:   ModeSingleCycle,
		Single: NewSingleCycleCore(regs, mem),
		Piped:  NewPipelinedCore(NewRegisterFile(), NewMemory(mem.Size())),
	}
}

// SetMode switches which core is active. Both cores always exist side by
// side so debug sessions can flip strategy without reloading the program;
// LoadWords keeps them in sync.
func (v *VM) SetMode(m Mode) {
	v.Mode = m
}

// LoadWords writes words into both cores' memories starting at base and
// resets both to PC 0, so either can be selected afterward with an
// identical starting image (spec.md's equivalence invariant depends on
// this).
func (v *VM) LoadWords(base uint32, words []uint32) {
	v.Single.Reset()
	v.Piped.Reset()
	v.Single.Mem.LoadWords(base, words)
	v.Piped.Mem.LoadWords(base, words)
}

// Reset clears registers, PC, and counters on both cores without touching
// loaded memory contents.
func (v *VM) Reset() {
	v.Single.Reset()
	v.Piped.Reset()
}

// Regs returns the active core's register file.
func (v *VM) Regs() *RegisterFile {
	if v.Mode == ModePipelined {
		return v.Piped.Regs
	}
	return v.Single.Regs
}

// Mem returns the active core's memory.
func (v *VM) Mem() *Memory {
	if v.Mode == ModePipelined {
		return v.Piped.Mem
	}
	return v.Single.Mem
}

// PC returns the active core's program counter.
func (v *VM) PC() uint32 {
	if v.Mode == ModePipelined {
		return v.Piped.PC
	}
	return v.Single.PC
}

// State returns the active core's execution state.
func (v *VM) State() ExecutionState {
	if v.Mode == ModePipelined {
		return v.Piped.State
	}
	return v.Single.State
}

// Cycles returns the active core's cycle counter.
func (v *VM) Cycles() uint64 {
	if v.Mode == ModePipelined {
		return v.Piped.Stats.Cycles
	}
	return v.Single.Cycles
}

// CommittedInstructions returns the active core's committed-instruction
// counter (the pipelined core's WB-stage count, or the single-cycle
// core's per-tick count).
func (v *VM) CommittedInstructions() uint64 {
	if v.Mode == ModePipelined {
		return v.Piped.Stats.CommittedInstrs
	}
	return v.Single.Instrs
}

// Step advances the active core by one tick and reports whether it
// halted.
func (v *VM) Step() bool {
	if v.Mode == ModePipelined {
		return v.Piped.Tick()
	}
	return v.Single.Tick()
}

// Run runs the active core to completion or a cap.
func (v *VM) Run(maxCycles, maxInstructions uint64) ExecutionState {
	if v.Mode == ModePipelined {
		return v.Piped.Run(maxCycles, maxInstructions)
	}
	return v.Single.Run(maxCycles)
}

// EnableTrace attaches a ring-buffer trace of the given capacity to both
// cores.
func (v *VM) EnableTrace(capacity int) {
	t := NewTrace(capacity)
	v.Single.Trace = t
	v.Piped.Trace = t
}
