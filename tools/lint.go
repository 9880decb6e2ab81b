package tools

import (
	"fmt"
	"sort"

	"github.com/lookbusy1344/riscv-pipeline-sim/vm"
)

// LintLevel represents the severity of a lint finding.
type LintLevel int

const (
	LintError   LintLevel = iota // unknown opcode/funct combination
	LintWarning                  // missing halt sentinel
	LintInfo                     // stylistic observation
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintFinding is a single issue found in a decoded hex image.
type LintFinding struct {
	Level   LintLevel
	Address uint32
	Message string
	Code    string // "UNKNOWN_OPCODE", "UNKNOWN_FUNCT", "NO_HALT"
}

func (f *LintFinding) String() string {
	return fmt.Sprintf("0x%08X: %s: %s [%s]", f.Address, f.Level, f.Message, f.Code)
}

// knownOpcodes is the nine-opcode decode table of spec.md §4.5, plus the
// halt sentinel's own opcode (OpJAL, since the sentinel is JAL x0,0).
var knownOpcodes = map[uint32]bool{
	vm.OpLoad:   true,
	vm.OpStore:  true,
	vm.OpBranch: true,
	vm.OpJALR:   true,
	vm.OpJAL:    true,
	vm.OpImm:    true,
	vm.OpReg:    true,
	vm.OpAUIPC:  true,
	vm.OpLUI:    true,
}

// Lint decodes every word in words and flags opcodes outside the supported
// subset, funct3/funct7 combinations outside this core's decode table, and
// the absence of a halt sentinel anywhere in the image (spec.md §6.7).
func Lint(words []uint32) []LintFinding {
	var findings []LintFinding
	haltSeen := false

	for i, raw := range words {
		addr := uint32(i * 4) // #nosec G115 -- program images are bounded by memory size

		if vm.IsHalt(raw) {
			haltSeen = true
			continue
		}

		inst := vm.Decode(raw)

		if !knownOpcodes[inst.Opcode] {
			findings = append(findings, LintFinding{
				Level:   LintError,
				Address: addr,
				Message: fmt.Sprintf("opcode 0b%07b is not one of the nine supported opcodes", inst.Opcode),
				Code:    "UNKNOWN_OPCODE",
			})
			continue
		}

		if msg, bad := checkFunct(inst); bad {
			findings = append(findings, LintFinding{
				Level:   LintError,
				Address: addr,
				Message: msg,
				Code:    "UNKNOWN_FUNCT",
			})
		}
	}

	if !haltSeen {
		findings = append(findings, LintFinding{
			Level:   LintWarning,
			Address: uint32(len(words) * 4), // #nosec G115 -- program images are bounded by memory size
			Message: "no halt sentinel (0x0000006F) found in image; program will run to its cycle/instruction cap",
			Code:    "NO_HALT",
		})
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].Address < findings[j].Address })
	return findings
}

// checkFunct validates the funct3/funct7 combination for opcodes whose
// decode table (vm/alu.go, vm/branch.go) only recognizes specific values.
func checkFunct(inst vm.Instruction) (string, bool) {
	switch inst.Opcode {
	case vm.OpReg:
		if inst.Funct7 != 0 && inst.Funct7 != vm.Funct7SubOrSRA {
			return fmt.Sprintf("funct7 0x%02X is not 0x00 or 0x%02X for an R-type instruction", inst.Funct7, vm.Funct7SubOrSRA), true
		}
		if inst.Funct7 == vm.Funct7SubOrSRA && inst.Funct3 != vm.Funct3AddSub && inst.Funct3 != vm.Funct3SRLSRA {
			return fmt.Sprintf("funct7 0x%02X (SUB/SRA select) paired with funct3 0x%X, which has no SUB/SRA variant", inst.Funct7, inst.Funct3), true
		}
	case vm.OpImm:
		if (inst.Funct3 == vm.Funct3SLL || inst.Funct3 == vm.Funct3SRLSRA) &&
			inst.Funct7 != 0 && inst.Funct7 != vm.Funct7SubOrSRA {
			return fmt.Sprintf("shift-immediate funct7 0x%02X is not 0x00 or 0x%02X", inst.Funct7, vm.Funct7SubOrSRA), true
		}
	case vm.OpBranch:
		switch inst.Funct3 {
		case vm.Funct3BEQ, vm.Funct3BNE, vm.Funct3BLT, vm.Funct3BGE, vm.Funct3BLTU, vm.Funct3BGEU:
		default:
			return fmt.Sprintf("funct3 0x%X is not a recognized branch predicate", inst.Funct3), true
		}
	}
	return "", false
}
