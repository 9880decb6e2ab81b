package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLoadUseHazard(t *testing.T) {
	idex := &IDEXLatch{Valid: true, Rd: 7, Ctrl: ControlSignals{MemRead: true}}
	assert.True(t, DetectLoadUseHazard(idex, 7, 0), "expected hazard when rs1 matches a pending load's rd")
	assert.True(t, DetectLoadUseHazard(idex, 0, 7), "expected hazard when rs2 matches a pending load's rd")
	assert.False(t, DetectLoadUseHazard(idex, 1, 2), "no hazard expected when neither source matches rd")
}

func TestDetectLoadUseHazardIgnoresZeroRd(t *testing.T) {
	idex := &IDEXLatch{Valid: true, Rd: 0, Ctrl: ControlSignals{MemRead: true}}
	assert.False(t, DetectLoadUseHazard(idex, 0, 0), "rd=x0 can never create a real hazard")
}

func TestDetectLoadUseHazardRequiresMemRead(t *testing.T) {
	idex := &IDEXLatch{Valid: true, Rd: 7, Ctrl: ControlSignals{MemRead: false}}
	assert.False(t, DetectLoadUseHazard(idex, 7, 0), "non-load instructions in ID/EX cannot trigger a load-use hazard")
}

func TestDetectControlHazard(t *testing.T) {
	tests := []struct {
		name  string
		latch *ExMemLatch
		want  bool
	}{
		{"invalid latch never hazards", &ExMemLatch{Valid: false, BranchTaken: true}, false},
		{"valid jump hazards", &ExMemLatch{Valid: true, Jump: true}, true},
		{"valid taken branch hazards", &ExMemLatch{Valid: true, BranchTaken: true}, true},
		{"valid untaken branch does not hazard", &ExMemLatch{Valid: true, BranchTaken: false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectControlHazard(tt.latch))
		})
	}
}
