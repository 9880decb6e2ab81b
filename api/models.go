package api

import (
	"time"

	"github.com/lookbusy1344/riscv-pipeline-sim/service"
)

// SessionCreateRequest represents a request to create a new session.
type SessionCreateRequest struct {
	MemorySize uint32 `json:"memorySize,omitempty"` // Memory size in bytes (default: vm.DefaultMemorySize)
	Mode       string `json:"mode,omitempty"`        // "single-cycle" (default) or "pipelined"
}

// SessionCreateResponse represents the response from creating a session.
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStatusResponse represents the current status of a session.
type SessionStatusResponse struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
	Mode      string `json:"mode"`
	PC        uint32 `json:"pc"`
	Cycles    uint64 `json:"cycles"`
}

// LoadProgramRequest represents a request to load a program image.
type LoadProgramRequest struct {
	HexWords []string `json:"hexWords"` // hex text program format, one word per entry (spec.md §6.1)
	Base     uint32   `json:"base,omitempty"`
}

// LoadProgramResponse represents the response from loading a program.
type LoadProgramResponse struct {
	Success   bool   `json:"success"`
	WordCount int    `json:"wordCount"`
	Error     string `json:"error,omitempty"`
}

// RegistersResponse represents the current register state.
type RegistersResponse struct {
	Registers [32]uint32 `json:"registers"`
	PC        uint32     `json:"pc"`
	Cycles    uint64     `json:"cycles"`
}

// MemoryRequest represents a request for memory data.
type MemoryRequest struct {
	Address uint32 `json:"address"`
	Length  uint32 `json:"length"`
}

// MemoryResponse represents memory data.
type MemoryResponse struct {
	Address uint32 `json:"address"`
	Data    []byte `json:"data"`
	Length  uint32 `json:"length"`
}

// PipelineResponse represents the four inter-stage latches of the
// pipelined core, serialized for the `/session/{id}/pipeline` endpoint.
type PipelineResponse struct {
	IFID  service.PipelineLatchState `json:"ifId"`
	IDEX  service.PipelineLatchState `json:"idEx"`
	ExMem service.PipelineLatchState `json:"exMem"`
	MemWB service.PipelineLatchState `json:"memWb"`
}

// StatsResponse reports CPI and hazard tallies for the `/session/{id}/stats`
// endpoint.
type StatsResponse struct {
	Cycles          uint64  `json:"cycles"`
	CommittedInstrs uint64  `json:"committedInstructions"`
	LoadUseStalls   uint64  `json:"loadUseStalls"`
	ControlFlushes  uint64  `json:"controlFlushes"`
	CPI             float64 `json:"cpi"`
}

// CompareResponse reports the single-cycle/pipelined equivalence check run
// by the `/session/{id}/compare` endpoint.
type CompareResponse struct {
	SingleCycleState  string `json:"singleCycleState"`
	PipelinedState    string `json:"pipelinedState"`
	SingleCycleCycles uint64 `json:"singleCycleCycles"`
	PipelinedCycles   uint64 `json:"pipelinedCycles"`
	Equivalent        bool   `json:"equivalent"`
	MismatchRegister  int    `json:"mismatchRegister,omitempty"`
}

// BreakpointRequest represents a request to add/remove a breakpoint.
type BreakpointRequest struct {
	Address uint32 `json:"address"`
}

// BreakpointsResponse represents a list of breakpoints.
type BreakpointsResponse struct {
	Breakpoints []uint32 `json:"breakpoints"`
}

// WatchpointRequest represents a request to add a watchpoint.
type WatchpointRequest struct {
	Address uint32 `json:"address"`
	Type    string `json:"type"` // "read", "write", "readwrite"
}

// WatchpointsResponse represents a list of watchpoints.
type WatchpointsResponse struct {
	Watchpoints []service.WatchpointInfo `json:"watchpoints"`
}

// ModeRequest represents a request to switch the active core.
type ModeRequest struct {
	Mode string `json:"mode"` // "single-cycle" or "pipelined"
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse represents a simple success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Event represents a WebSocket event.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// StateEvent represents a state change event, broadcast over the WebSocket
// after a session handles a step request.
type StateEvent struct {
	State     string     `json:"state"`
	Mode      string     `json:"mode"`
	PC        uint32     `json:"pc"`
	Registers [32]uint32 `json:"registers"`
	Cycles    uint64     `json:"cycles"`
}

// ExecutionEvent represents control-flow events like breakpoints and halts.
type ExecutionEvent struct {
	Event   string `json:"event"` // "breakpoint_hit", "watchpoint_hit", "halted"
	Address uint32 `json:"address,omitempty"`
	Message string `json:"message,omitempty"`
}

// ToRegisterResponse converts service.RegisterState to an API response.
func ToRegisterResponse(regs *service.RegisterState) *RegistersResponse {
	return &RegistersResponse{
		Registers: regs.Registers,
		PC:        regs.PC,
		Cycles:    regs.Cycles,
	}
}

// ToPipelineResponse converts service.PipelineState to an API response.
func ToPipelineResponse(state *service.PipelineState) *PipelineResponse {
	return &PipelineResponse{
		IFID:  state.IFID,
		IDEX:  state.IDEX,
		ExMem: state.ExMem,
		MemWB: state.MemWB,
	}
}

// ToStatsResponse converts service.StatsSnapshot to an API response.
func ToStatsResponse(snap *service.StatsSnapshot) *StatsResponse {
	return &StatsResponse{
		Cycles:          snap.Cycles,
		CommittedInstrs: snap.CommittedInstrs,
		LoadUseStalls:   snap.LoadUseStalls,
		ControlFlushes:  snap.ControlFlushes,
		CPI:             snap.CPI,
	}
}

// ToCompareResponse converts service.CompareResult to an API response.
func ToCompareResponse(result *service.CompareResult) *CompareResponse {
	return &CompareResponse{
		SingleCycleState:  string(result.SingleCycleState),
		PipelinedState:    string(result.PipelinedState),
		SingleCycleCycles: result.SingleCycleCycles,
		PipelinedCycles:   result.PipelinedCycles,
		Equivalent:        result.Equivalent,
		MismatchRegister:  result.MismatchRegister,
	}
}
