package vm

// Statistics aggregates the pipelined core's per-run counters, grounded on
// the teacher's counter-aggregation style (vm/statistics.go) but scoped to
// CPI and the two hazard classes this pipeline detects (spec.md §4.12).
type Statistics struct {
	Cycles             uint64
	CommittedInstrs    uint64
	LoadUseStalls      uint64
	ControlFlushes     uint64
}

// CPI returns cycles per committed instruction, or 0 if nothing has
// committed yet (avoids a division by zero on an empty run).
func (s *Statistics) CPI() float64 {
	if s.CommittedInstrs == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.CommittedInstrs)
}

// Reset zeroes every counter.
func (s *Statistics) Reset() {
	*s = Statistics{}
}
