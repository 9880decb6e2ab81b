package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/lookbusy1344/riscv-pipeline-sim/service"
	"github.com/lookbusy1344/riscv-pipeline-sim/vm"
)

// handleCreateSession handles POST /api/v1/session
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.sessions.CreateSession(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create session: %v", err))
		return
	}

	response := SessionCreateResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
	}

	writeJSON(w, http.StatusCreated, response)
}

// handleListSessions handles GET /api/v1/session
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.ListSessions()

	response := map[string]interface{}{
		"sessions": ids,
		"count":    len(ids),
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetSessionStatus handles GET /api/v1/session/{id}
func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	regs := session.Service.GetRegisterState()
	state := session.Service.GetExecutionState()
	mode := modeString(session.Service.GetMode())

	response := SessionStatusResponse{
		SessionID: sessionID,
		State:     string(state),
		Mode:      mode,
		PC:        regs.PC,
		Cycles:    regs.Cycles,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleDestroySession handles DELETE /api/v1/session/{id}
func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Session destroyed",
	})
}

// handleLoadProgram handles POST /api/v1/session/{id}/load
func (s *Server) handleLoadProgram(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req LoadProgramRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	words := make([]uint32, len(req.HexWords))
	for i, hw := range req.HexWords {
		v, parseErr := strconv.ParseUint(hw, 16, 32)
		if parseErr != nil {
			writeJSON(w, http.StatusBadRequest, LoadProgramResponse{
				Success: false,
				Error:   fmt.Sprintf("invalid hex word %q at index %d: %v", hw, i, parseErr),
			})
			return
		}
		words[i] = uint32(v) // #nosec G115 -- ParseUint bitSize=32 bounds the value
	}

	session.Service.LoadWords(req.Base, words)

	writeJSON(w, http.StatusOK, LoadProgramResponse{
		Success:   true,
		WordCount: len(words),
	})
}

// handleRun handles POST /api/v1/session/{id}/run
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	// Set running state synchronously before launching the goroutine, so a
	// concurrent GET on session status observes "running" immediately.
	session.Service.Continue()

	go session.Service.RunUntilHalt()

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "run started",
	})
}

// handleStep handles POST /api/v1/session/{id}/step
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	session.Service.Step()

	regs := session.Service.GetRegisterState()
	state := session.Service.GetExecutionState()
	s.broadcastStateChange(sessionID, session.Service, &regs, state)
	s.broadcastLatestTrace(sessionID, session.Service)

	writeJSON(w, http.StatusOK, ToRegisterResponse(&regs))
}

// handleReset handles POST /api/v1/session/{id}/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	session.Service.Reset()

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "reset complete",
	})
}

// handleGetRegisters handles GET /api/v1/session/{id}/registers
func (s *Server) handleGetRegisters(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	regs := session.Service.GetRegisterState()
	writeJSON(w, http.StatusOK, ToRegisterResponse(&regs))
}

// handleGetMemory handles GET /api/v1/session/{id}/memory
func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	query := r.URL.Query()
	address, err := parseHexOrDec(query.Get("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid address parameter")
		return
	}

	length, err := strconv.ParseUint(query.Get("length"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid length parameter")
		return
	}

	const maxMemoryRead = 1 << 20
	if length > maxMemoryRead {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("length too large (max %d bytes)", maxMemoryRead))
		return
	}

	data := session.Service.GetMemory(uint32(address), uint32(length)) // #nosec G115 -- parseHexOrDec/ParseUint bound to 32 bits

	writeJSON(w, http.StatusOK, MemoryResponse{
		Address: uint32(address), // #nosec G115 -- bounded above
		Data:    data,
		Length:  uint32(length), // #nosec G115 -- bounded above
	})
}

// handleGetPipeline handles GET /api/v1/session/{id}/pipeline
func (s *Server) handleGetPipeline(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	state := session.Service.GetPipelineState()
	writeJSON(w, http.StatusOK, ToPipelineResponse(&state))
}

// handleCompare handles POST /api/v1/session/{id}/compare
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	result := session.Service.Compare()
	writeJSON(w, http.StatusOK, ToCompareResponse(&result))
}

// handleStats handles GET /api/v1/session/{id}/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	snap := session.Service.GetStatistics()
	writeJSON(w, http.StatusOK, ToStatsResponse(&snap))
}

// handleAddBreakpoint handles POST /api/v1/session/{id}/breakpoint
func (s *Server) handleAddBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req BreakpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session.Service.AddBreakpoint(req.Address)

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "breakpoint added",
	})
}

// handleDeleteBreakpoint handles DELETE /api/v1/session/{id}/breakpoint/{addr}
func (s *Server) handleDeleteBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string, address uint32) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	if err := session.Service.RemoveBreakpoint(address); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("failed to remove breakpoint: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "breakpoint removed",
	})
}

// handleListBreakpoints handles GET /api/v1/session/{id}/breakpoints
func (s *Server) handleListBreakpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	breakpoints := session.Service.GetBreakpoints()
	addresses := make([]uint32, len(breakpoints))
	for i, bp := range breakpoints {
		addresses[i] = bp.Address
	}

	writeJSON(w, http.StatusOK, BreakpointsResponse{Breakpoints: addresses})
}

// handleAddWatchpoint handles POST /api/v1/session/{id}/watchpoint
func (s *Server) handleAddWatchpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req WatchpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	watchType := req.Type
	if watchType == "" {
		watchType = "readwrite"
	}

	if err := session.Service.AddWatchpoint(req.Address, watchType); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "watchpoint added",
	})
}

// handleDeleteWatchpoint handles DELETE /api/v1/session/{id}/watchpoint/{id}
func (s *Server) handleDeleteWatchpoint(w http.ResponseWriter, r *http.Request, sessionID string, watchpointID int) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	if err := session.Service.RemoveWatchpoint(watchpointID); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("failed to remove watchpoint: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "watchpoint removed",
	})
}

// handleListWatchpoints handles GET /api/v1/session/{id}/watchpoints
func (s *Server) handleListWatchpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	watchpoints := session.Service.GetWatchpoints()
	writeJSON(w, http.StatusOK, WatchpointsResponse{Watchpoints: watchpoints})
}

// parseHexOrDec parses a string as either hexadecimal (0x prefix) or decimal.
func parseHexOrDec(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	if len(s) > 2 && s[:2] == "0x" {
		return strconv.ParseUint(s[2:], 16, 32)
	}
	return strconv.ParseUint(s, 10, 32)
}

// modeString renders a vm.Mode for JSON responses.
func modeString(mode vm.Mode) string {
	if mode == vm.ModePipelined {
		return "pipelined"
	}
	return "single-cycle"
}

// broadcastStateChange broadcasts register/state updates to WebSocket
// clients subscribed to sessionID.
func (s *Server) broadcastStateChange(sessionID string, svc *service.DebuggerService, regs *service.RegisterState, state service.ExecutionState) {
	if s.broadcaster == nil {
		return
	}

	data := map[string]interface{}{
		"state":     string(state),
		"mode":      modeString(svc.GetMode()),
		"pc":        regs.PC,
		"registers": regs.Registers,
		"cycles":    regs.Cycles,
	}

	s.broadcaster.BroadcastState(sessionID, data)
}

// maxTraceEntriesPerBroadcast bounds how many trailing trace records
// accompany a single step broadcast — a pipelined tick produces at most one
// entry per stage (IF, ID, EX, MEM, WB).
const maxTraceEntriesPerBroadcast = 5

// broadcastLatestTrace sends the trace entries produced by the most recent
// Step() to clients subscribed to EventTypeTrace.
func (s *Server) broadcastLatestTrace(sessionID string, svc *service.DebuggerService) {
	if s.broadcaster == nil {
		return
	}

	all := svc.GetTrace()
	if len(all) == 0 {
		return
	}

	start := len(all) - maxTraceEntriesPerBroadcast
	if start < 0 {
		start = 0
	}
	s.broadcaster.BroadcastTrace(sessionID, all[start:])
}
