package service

import "github.com/lookbusy1344/riscv-pipeline-sim/vm"

// RegisterState is a snapshot of the 32 general-purpose registers plus PC,
// serialized for API responses.
type RegisterState struct {
	Registers [32]uint32
	PC        uint32
	Cycles    uint64
}

// BreakpointInfo represents a breakpoint for UI display
type BreakpointInfo struct {
	Address   uint32 `json:"address"`
	Enabled   bool   `json:"enabled"`
	Condition string `json:"condition"` // Expression that must evaluate to true
}

// WatchpointInfo represents a watchpoint for UI display
type WatchpointInfo struct {
	ID      int    `json:"id"`
	Address uint32 `json:"address"`
	Type    string `json:"type"` // "read", "write", "readwrite"
	Enabled bool   `json:"enabled"`
}

// MemoryRegion represents a contiguous memory region
type MemoryRegion struct {
	Address uint32
	Data    []byte
	Size    uint32
}

// ExecutionState represents the current state of execution, serialized for
// API responses.
type ExecutionState string

const (
	StateRunning         ExecutionState = "running"
	StateHalted          ExecutionState = "halted"
	StateCycleLimit      ExecutionState = "cycle_limit"
	StateInstructionLimit ExecutionState = "instruction_limit"
)

// VMStateToExecution converts vm.ExecutionState to service.ExecutionState
func VMStateToExecution(state vm.ExecutionState) ExecutionState {
	switch state {
	case vm.StateRunning:
		return StateRunning
	case vm.StateHalted:
		return StateHalted
	case vm.StateCycleLimit:
		return StateCycleLimit
	case vm.StateInstructionLimit:
		return StateInstructionLimit
	default:
		return StateHalted
	}
}

// PipelineLatchState is a serializable snapshot of one inter-stage latch,
// shared across the four latch kinds for API/WebSocket payloads.
type PipelineLatchState struct {
	Valid       bool   `json:"valid"`
	PC          uint32 `json:"pc,omitempty"`
	Raw         uint32 `json:"raw,omitempty"`
	Rd          int    `json:"rd,omitempty"`
	ALUResult   uint32 `json:"aluResult,omitempty"`
	WriteValue  uint32 `json:"writeValue,omitempty"`
	BranchTaken bool   `json:"branchTaken,omitempty"`
	Jump        bool   `json:"jump,omitempty"`
}

// PipelineState is a snapshot of all four inter-stage latches.
type PipelineState struct {
	IFID   PipelineLatchState `json:"ifId"`
	IDEX   PipelineLatchState `json:"idEx"`
	ExMem  PipelineLatchState `json:"exMem"`
	MemWB  PipelineLatchState `json:"memWb"`
}

// StatsSnapshot reports CPI and hazard tallies for the /stats endpoint
// (spec.md §4.12).
type StatsSnapshot struct {
	Cycles          uint64  `json:"cycles"`
	CommittedInstrs uint64  `json:"committedInstructions"`
	LoadUseStalls   uint64  `json:"loadUseStalls"`
	ControlFlushes  uint64  `json:"controlFlushes"`
	CPI             float64 `json:"cpi"`
}

// CompareResult reports the outcome of running both cores to completion
// and checking the single-cycle/pipelined equivalence invariant (spec.md
// §8).
type CompareResult struct {
	SingleCycleState ExecutionState `json:"singleCycleState"`
	PipelinedState   ExecutionState `json:"pipelinedState"`
	SingleCycleCycles uint64        `json:"singleCycleCycles"`
	PipelinedCycles   uint64        `json:"pipelinedCycles"`
	Equivalent        bool          `json:"equivalent"`
	MismatchRegister  int           `json:"mismatchRegister,omitempty"`
}
