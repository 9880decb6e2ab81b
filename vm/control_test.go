package vm

import "testing"

func TestDecodeControlTable(t *testing.T) {
	tests := []struct {
		opcode               uint32
		regWrite, memRead    bool
		memWrite, memToReg   bool
		aluSrc, branch, jump bool
	}{
		{OpReg, true, false, false, false, false, false, false},
		{OpImm, true, false, false, false, true, false, false},
		{OpLoad, true, true, false, true, true, false, false},
		{OpStore, false, false, true, false, true, false, false},
		{OpBranch, false, false, false, false, false, true, false},
		{OpJAL, true, false, false, false, false, false, true},
		{OpJALR, true, false, false, false, true, false, true},
		{OpLUI, true, false, false, false, false, false, false},
		{OpAUIPC, true, false, false, false, false, false, false},
	}
	for _, tt := range tests {
		c := DecodeControl(tt.opcode)
		if c.RegWrite != tt.regWrite || c.MemRead != tt.memRead || c.MemWrite != tt.memWrite ||
			c.MemToReg != tt.memToReg || c.ALUSrc != tt.aluSrc || c.Branch != tt.branch || c.Jump != tt.jump {
			t.Errorf("DecodeControl(0x%x) = %+v, want regWrite=%v memRead=%v memWrite=%v memToReg=%v aluSrc=%v branch=%v jump=%v",
				tt.opcode, c, tt.regWrite, tt.memRead, tt.memWrite, tt.memToReg, tt.aluSrc, tt.branch, tt.jump)
		}
	}
}

func TestDecodeControlUnknownOpcodeIsInert(t *testing.T) {
	c := DecodeControl(0x7F)
	if c.RegWrite || c.MemRead || c.MemWrite {
		t.Errorf("unknown opcode should decode to all-false control signals, got %+v", c)
	}
}
