package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/lookbusy1344/riscv-pipeline-sim/debugger"
	"github.com/lookbusy1344/riscv-pipeline-sim/loader"
	"github.com/lookbusy1344/riscv-pipeline-sim/vm"
)

// stepsBeforeYield bounds how many ticks RunUntilHalt executes before
// briefly yielding the scheduler, so a long-running session stays
// responsive to concurrent Pause()/state queries from the API layer.
const stepsBeforeYield = 10000

// DebuggerService provides a thread-safe interface to debugger
// functionality, shared by the CLI, TUI, and HTTP/WebSocket API server.
//
// Lock ordering: the service holds its own sync.RWMutex (s.mu) around all
// field access, including calls into the debugger. The debugger's own
// methods (ShouldBreak, ExecuteCommand) are not reentrant with respect to
// s.mu, so callers must never call back into the service from inside a
// debugger callback.
type DebuggerService struct {
	mu       sync.RWMutex
	vm       *vm.VM
	debugger *debugger.Debugger
}

// NewDebuggerService wraps machine in a debugger and exposes it through a
// thread-safe API surface.
func NewDebuggerService(machine *vm.VM) *DebuggerService {
	return &DebuggerService{
		vm:       machine,
		debugger: debugger.NewDebugger(machine),
	}
}

// GetVM returns the underlying VM (for testing and direct inspection).
func (s *DebuggerService) GetVM() *vm.VM {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vm
}

// LoadWords writes a decoded program image into both cores' memory
// starting at base, resetting both cores and clearing breakpoints from
// any previous session.
func (s *DebuggerService) LoadWords(base uint32, words []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vm.LoadWords(base, words)
	s.debugger.Breakpoints.Clear()
	s.debugger.Watchpoints.Clear()
	s.debugger.Running = false
}

// LoadHexFile parses the hex text program format from path and loads it
// at address 0.
func (s *DebuggerService) LoadHexFile(path string) error {
	words, err := loader.ReadHexFileWords(path)
	if err != nil {
		return err
	}
	s.LoadWords(0, words)
	return nil
}

// SetMode switches which core (single-cycle or pipelined) drives
// Step/Continue/Run.
func (s *DebuggerService) SetMode(mode vm.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vm.SetMode(mode)
}

// GetMode returns the currently active core selection.
func (s *DebuggerService) GetMode() vm.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vm.Mode
}

// GetRegisterState returns a snapshot of the active core's registers, PC,
// and cycle count.
func (s *DebuggerService) GetRegisterState() RegisterState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return RegisterState{
		Registers: s.vm.Regs().Snapshot(),
		PC:        s.vm.PC(),
		Cycles:    s.vm.Cycles(),
	}
}

// GetPipelineState snapshots the four inter-stage latches of the
// pipelined core. The latches exist whether or not the pipelined core is
// currently the active mode, since both cores are always resident.
func (s *DebuggerService) GetPipelineState() PipelineState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.vm.Piped
	return PipelineState{
		IFID: PipelineLatchState{
			Valid: p.IFID.Valid,
			PC:    p.IFID.PC,
			Raw:   p.IFID.Raw,
		},
		IDEX: PipelineLatchState{
			Valid: p.IDEX.Valid,
			PC:    p.IDEX.PC,
			Rd:    p.IDEX.Rd,
		},
		ExMem: PipelineLatchState{
			Valid:       p.ExMem.Valid,
			PC:          p.ExMem.PC,
			Rd:          p.ExMem.Rd,
			ALUResult:   p.ExMem.ALUResult,
			BranchTaken: p.ExMem.BranchTaken,
			Jump:        p.ExMem.Jump,
		},
		MemWB: PipelineLatchState{
			Valid:      p.MemWB.Valid,
			Rd:         p.MemWB.Rd,
			WriteValue: p.MemWB.WriteValue(),
		},
	}
}

// GetStatistics reports CPI and hazard tallies for the active core. In
// single-cycle mode there are no hazards to tally; CPI is cycles over
// committed instructions, so the tick that declares halt (a cycle with no
// commit) lifts it above 1.
func (s *DebuggerService) GetStatistics() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StatsSnapshot{
		Cycles:          s.vm.Cycles(),
		CommittedInstrs: s.vm.CommittedInstructions(),
	}
	if s.vm.Mode == vm.ModePipelined {
		snap.LoadUseStalls = s.vm.Piped.Stats.LoadUseStalls
		snap.ControlFlushes = s.vm.Piped.Stats.ControlFlushes
		snap.CPI = s.vm.Piped.Stats.CPI()
	} else if snap.CommittedInstrs > 0 {
		snap.CPI = float64(snap.Cycles) / float64(snap.CommittedInstrs)
	}
	return snap
}

// Step executes a single tick of the active core and reports whether it
// halted.
func (s *DebuggerService) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vm.Step()
}

// GetExecutionState returns the active core's current execution state.
func (s *DebuggerService) GetExecutionState() ExecutionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return VMStateToExecution(s.vm.State())
}

// Continue marks the session as running; RunUntilHalt drives the actual
// ticks.
func (s *DebuggerService) Continue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debugger.Running = true
	s.debugger.StepMode = debugger.StepNone
}

// Pause stops a RunUntilHalt loop started by Continue.
func (s *DebuggerService) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debugger.Running = false
}

// IsRunning reports whether a RunUntilHalt loop is in progress.
func (s *DebuggerService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debugger.Running
}

// RunUntilHalt ticks the active core until it halts, hits a breakpoint or
// watchpoint, or Pause() clears the running flag. If Running is already
// false when called (a race with a Pause() issued before this goroutine
// started), it returns immediately.
func (s *DebuggerService) RunUntilHalt() {
	s.mu.Lock()
	if !s.debugger.Running {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	stepCount := 0
	for {
		s.mu.Lock()
		if !s.debugger.Running || s.vm.State() != vm.StateRunning {
			s.mu.Unlock()
			break
		}

		if shouldBreak, _ := s.debugger.ShouldBreak(); shouldBreak {
			s.debugger.Running = false
			s.mu.Unlock()
			break
		}

		halted := s.vm.Step()
		if halted {
			s.debugger.Running = false
			s.mu.Unlock()
			break
		}
		s.mu.Unlock()

		stepCount++
		if stepCount >= stepsBeforeYield {
			stepCount = 0
			time.Sleep(time.Millisecond)
		}
	}
}

// Run runs the active core to completion or until maxCycles/maxInstructions
// is reached (0 means unbounded), bypassing the breakpoint-aware step loop.
func (s *DebuggerService) Run(maxCycles, maxInstructions uint64) ExecutionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return VMStateToExecution(s.vm.Run(maxCycles, maxInstructions))
}

// Reset clears both cores' registers and program counters, leaving loaded
// memory contents intact, and clears breakpoints/watchpoints.
func (s *DebuggerService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vm.Reset()
	s.debugger.Breakpoints.Clear()
	s.debugger.Watchpoints.Clear()
	s.debugger.Running = false
}

// GetMemory returns size bytes of memory starting at address, reading
// through the active core. Out-of-range bytes read as 0 per the
// architecture's silent-error rule; the call never fails.
func (s *DebuggerService) GetMemory(address uint32, size uint32) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mem := s.vm.Mem()
	data := make([]byte, size)
	for i := uint32(0); i < size; i++ {
		data[i] = mem.ReadByte(address + i)
	}
	return data
}

// AddBreakpoint adds a breakpoint at address.
func (s *DebuggerService) AddBreakpoint(address uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debugger.Breakpoints.AddBreakpoint(address, false, "")
}

// RemoveBreakpoint removes the breakpoint at address.
func (s *DebuggerService) RemoveBreakpoint(address uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debugger.Breakpoints.DeleteBreakpointAt(address)
}

// GetBreakpoints returns all breakpoints.
func (s *DebuggerService) GetBreakpoints() []BreakpointInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bps := s.debugger.Breakpoints.GetAllBreakpoints()
	result := make([]BreakpointInfo, len(bps))
	for i, bp := range bps {
		result[i] = BreakpointInfo{
			Address:   bp.Address,
			Enabled:   bp.Enabled,
			Condition: bp.Condition,
		}
	}
	return result
}

// ClearAllBreakpoints removes every breakpoint.
func (s *DebuggerService) ClearAllBreakpoints() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debugger.Breakpoints.Clear()
}

// AddWatchpoint adds a memory watchpoint at address.
func (s *DebuggerService) AddWatchpoint(address uint32, watchType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var wpType debugger.WatchType
	switch watchType {
	case "read":
		wpType = debugger.WatchRead
	case "write":
		wpType = debugger.WatchWrite
	case "readwrite":
		wpType = debugger.WatchReadWrite
	default:
		return fmt.Errorf("invalid watchpoint type: %s", watchType)
	}

	expression := fmt.Sprintf("[0x%08X]", address)
	s.debugger.Watchpoints.AddWatchpoint(wpType, expression, address, false, 0)
	return nil
}

// RemoveWatchpoint removes a watchpoint by ID.
func (s *DebuggerService) RemoveWatchpoint(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debugger.Watchpoints.DeleteWatchpoint(id)
}

// GetWatchpoints returns all watchpoints.
func (s *DebuggerService) GetWatchpoints() []WatchpointInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wps := s.debugger.Watchpoints.GetAllWatchpoints()
	result := make([]WatchpointInfo, len(wps))
	for i, wp := range wps {
		var wpType string
		switch wp.Type {
		case debugger.WatchRead:
			wpType = "read"
		case debugger.WatchWrite:
			wpType = "write"
		case debugger.WatchReadWrite:
			wpType = "readwrite"
		}
		result[i] = WatchpointInfo{
			ID:      wp.ID,
			Address: wp.Address,
			Type:    wpType,
			Enabled: wp.Enabled,
		}
	}
	return result
}

// ExecuteCommand runs a debugger command line and returns its captured
// output.
func (s *DebuggerService) ExecuteCommand(command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.debugger.ExecuteCommand(command)
	return s.debugger.GetOutput(), err
}

// EvaluateExpression evaluates a debugger expression against current VM
// state.
func (s *DebuggerService) EvaluateExpression(expr string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debugger.Evaluator.EvaluateExpression(expr, s.vm, nil)
}

// EnableTrace attaches a ring-buffer cycle trace of the given capacity to
// both cores.
func (s *DebuggerService) EnableTrace(capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vm.EnableTrace(capacity)
}

// GetTrace returns the active core's recorded trace entries.
func (s *DebuggerService) GetTrace() []vm.TraceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t *vm.Trace
	if s.vm.Mode == vm.ModePipelined {
		t = s.vm.Piped.Trace
	} else {
		t = s.vm.Single.Trace
	}
	if t == nil {
		return nil
	}
	return t.All()
}

// Compare runs both cores to completion from their current state and
// reports whether their final register files agree, implementing the
// single-cycle/pipelined equivalence invariant as a callable operation
// (mirrors the debugger's "diff" command).
func (s *DebuggerService) Compare() CompareResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	singleState := s.vm.Single.Run(0)
	pipedState := s.vm.Piped.Run(0, 0)

	result := CompareResult{
		SingleCycleState:  VMStateToExecution(singleState),
		PipelinedState:    VMStateToExecution(pipedState),
		SingleCycleCycles: s.vm.Single.Cycles,
		PipelinedCycles:   s.vm.Piped.Stats.Cycles,
		MismatchRegister:  -1,
	}

	for i := 0; i < vm.RegisterCount; i++ {
		if s.vm.Single.Regs.Get(i) != s.vm.Piped.Regs.Get(i) {
			result.MismatchRegister = i
			break
		}
	}
	result.Equivalent = result.MismatchRegister < 0

	return result
}
