package vm

import "testing"

func TestALUExecute(t *testing.T) {
	a := NewALU()

	tests := []struct {
		op       ALUOp
		lhs, rhs uint32
		expected uint32
	}{
		{ALUAdd, 5, 10, 15},
		{ALUSub, 10, 3, 7},
		{ALUSub, 0, 1, 0xFFFFFFFF},
		{ALUSLL, 1, 4, 16},
		{ALUSLL, 1, 33, 2}, // shift amount masked to 5 bits: 33&0x1F == 1
		{ALUSLT, 0xFFFFFFFF, 1, 1}, // -1 < 1 signed
		{ALUSLTU, 0xFFFFFFFF, 1, 0}, // huge unsigned >= 1
		{ALUXor, 0xFF, 0x0F, 0xF0},
		{ALUSRL, 0xFFFFFFFF, 4, 0x0FFFFFFF},
		{ALUSRA, 0xFFFFFFFF, 4, 0xFFFFFFFF}, // sign-preserving
		{ALUOr, 0xF0, 0x0F, 0xFF},
		{ALUAnd, 0xFF, 0x0F, 0x0F},
	}

	for _, tt := range tests {
		got := a.Execute(tt.op, tt.lhs, tt.rhs)
		if got != tt.expected {
			t.Errorf("Execute(%s, 0x%x, 0x%x) = 0x%x, want 0x%x", tt.op, tt.lhs, tt.rhs, got, tt.expected)
		}
	}
}

func TestSelectOp(t *testing.T) {
	if op := SelectOp(Funct3AddSub, Funct7SubOrSRA, true); op != ALUSub {
		t.Errorf("R-type funct3=0 funct7=0x20 should select SUB, got %s", op)
	}
	if op := SelectOp(Funct3AddSub, Funct7SubOrSRA, false); op != ALUAdd {
		t.Errorf("I-arith funct3=0 should always select ADD regardless of funct7, got %s", op)
	}
	if op := SelectOp(Funct3SRLSRA, Funct7SubOrSRA, false); op != ALUSRA {
		t.Errorf("I-arith shift funct7=0x20 should select SRA, got %s", op)
	}
	if op := SelectOp(Funct3SRLSRA, 0, false); op != ALUSRL {
		t.Errorf("I-arith shift funct7=0 should select SRL, got %s", op)
	}
}
