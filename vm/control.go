package vm

// ControlSignals is the decoded set of datapath control lines for one
// opcode, matching the reference interpreter's ControlUnit.decode table
// (spec.md §4.5).
type ControlSignals struct {
	RegWrite   bool // writes Rd at writeback
	MemRead    bool // reads memory in the MEM stage
	MemWrite   bool // writes memory in the MEM stage
	Branch     bool // is a conditional branch
	Jump       bool // is an unconditional jump (JAL/JALR)
	ALUSrc     bool // second ALU operand is the immediate, not Rs2
	MemToReg   bool // writeback value comes from memory, not the ALU
	UseImmAsOp bool // LUI/AUIPC: result comes straight from the immediate path
	IsAUIPC    bool // AUIPC adds the immediate to PC rather than using it bare
}

// DecodeControl returns the control signals for opcode, per spec.md §4.5's
// nine-opcode table. Unrecognized opcodes decode to the zero value, which
// behaves as a no-op (no register write, no memory access).
func DecodeControl(opcode uint32) ControlSignals {
	switch opcode {
	case OpReg:
		return ControlSignals{RegWrite: true}
	case OpImm:
		return ControlSignals{RegWrite: true, ALUSrc: true}
	case OpLoad:
		return ControlSignals{RegWrite: true, MemRead: true, ALUSrc: true, MemToReg: true}
	case OpStore:
		return ControlSignals{MemWrite: true, ALUSrc: true}
	case OpBranch:
		return ControlSignals{Branch: true}
	case OpJAL:
		return ControlSignals{RegWrite: true, Jump: true}
	case OpJALR:
		return ControlSignals{RegWrite: true, Jump: true, ALUSrc: true}
	case OpLUI:
		return ControlSignals{RegWrite: true, UseImmAsOp: true}
	case OpAUIPC:
		return ControlSignals{RegWrite: true, UseImmAsOp: true, IsAUIPC: true}
	default:
		return ControlSignals{}
	}
}
