package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lookbusy1344/riscv-pipeline-sim/vm"
)

// ReferenceType indicates how an address is reached.
type ReferenceType int

const (
	RefSequential ReferenceType = iota // fallthrough from the previous word
	RefBranch                          // conditional branch target
	RefJump                            // JAL/JALR target
)

func (r ReferenceType) String() string {
	switch r {
	case RefSequential:
		return "sequential"
	case RefBranch:
		return "branch"
	case RefJump:
		return "jump"
	default:
		return "unknown"
	}
}

// Reference records one way a given address is reached.
type Reference struct {
	Type     ReferenceType
	FromAddr uint32
}

// AddressInfo collects every way a decoded address is reached, keyed by
// word address in the image passed to CrossReference.
type AddressInfo struct {
	Address    uint32
	Raw        uint32
	Inst       vm.Instruction
	References []Reference
}

// XrefReport is the result of decoding and cross-referencing a hex image.
type XrefReport struct {
	Addresses   []*AddressInfo // in address order
	HaltAddr    uint32
	HasHalt     bool
	Unreachable []uint32 // addresses no branch/jump targets and not fallthrough from start
}

// CrossReference decodes every word in words (loaded starting at address 0,
// four bytes per word) as an instruction, builds a control-flow graph from
// branch/JAL/JALR targets, and reports the halt sentinel's location plus
// addresses that are neither a branch/jump target nor instruction-sequential
// from the start of the image. This is a static heuristic for program
// review, not a soundness proof: a computed JALR target (register-relative)
// cannot be resolved without running the program, so it contributes no
// incoming reference.
func CrossReference(words []uint32) *XrefReport {
	infos := make(map[uint32]*AddressInfo, len(words))
	order := make([]uint32, 0, len(words))

	for i, raw := range words {
		addr := uint32(i * 4) // #nosec G115 -- program images are bounded by memory size
		inst := vm.Decode(raw)
		infos[addr] = &AddressInfo{Address: addr, Raw: raw, Inst: inst}
		order = append(order, addr)
	}

	report := &XrefReport{}

	addRef := func(target uint32, refType ReferenceType, from uint32) {
		if info, ok := infos[target]; ok {
			info.References = append(info.References, Reference{Type: refType, FromAddr: from})
		}
	}

	// First pass: record the halt sentinel and every statically-known
	// branch/jump edge, independent of reachability.
	for _, addr := range order {
		info := infos[addr]

		if vm.IsHalt(info.Raw) {
			report.HaltAddr = addr
			report.HasHalt = true
			continue
		}

		switch info.Inst.Opcode {
		case vm.OpBranch:
			target := uint32(int64(addr) + int64(info.Inst.Imm)) // #nosec G115 -- branch targets stay within addressable range
			addRef(target, RefBranch, addr)
			addRef(addr+4, RefSequential, addr)
		case vm.OpJAL:
			target := uint32(int64(addr) + int64(info.Inst.Imm)) // #nosec G115 -- jump targets stay within addressable range
			addRef(target, RefJump, addr)
		case vm.OpJALR:
			// Register-relative target, unresolvable statically.
		default:
			addRef(addr+4, RefSequential, addr)
		}
	}

	// Second pass: a worklist walk from address 0 following the same edges,
	// to determine which addresses are reachable by actually executing from
	// the start of the image (as opposed to merely having an incoming edge
	// from some other unreachable address).
	reachableFromStart := map[uint32]bool{}
	if len(order) > 0 {
		worklist := []uint32{0}
		for len(worklist) > 0 {
			addr := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			if reachableFromStart[addr] {
				continue
			}
			info, ok := infos[addr]
			if !ok {
				continue
			}
			reachableFromStart[addr] = true

			if vm.IsHalt(info.Raw) {
				continue
			}
			switch info.Inst.Opcode {
			case vm.OpBranch:
				target := uint32(int64(addr) + int64(info.Inst.Imm)) // #nosec G115 -- branch targets stay within addressable range
				worklist = append(worklist, target, addr+4)
			case vm.OpJAL:
				target := uint32(int64(addr) + int64(info.Inst.Imm)) // #nosec G115 -- jump targets stay within addressable range
				worklist = append(worklist, target)
			case vm.OpJALR:
				// Nothing statically reachable from here.
			default:
				worklist = append(worklist, addr+4)
			}
		}
	}

	for _, addr := range order {
		info := infos[addr]
		report.Addresses = append(report.Addresses, info)
		if reachableFromStart[addr] {
			continue
		}
		if len(info.References) > 0 {
			continue
		}
		report.Unreachable = append(report.Unreachable, addr)
	}

	sort.Slice(report.Unreachable, func(i, j int) bool { return report.Unreachable[i] < report.Unreachable[j] })

	return report
}

// String renders a text cross-reference report in the teacher's
// symbol-table-dump style, adapted to addresses instead of labels.
func (r *XrefReport) String() string {
	var sb strings.Builder

	sb.WriteString("Address Cross-Reference\n")
	sb.WriteString("========================\n\n")

	for _, info := range r.Addresses {
		sb.WriteString(fmt.Sprintf("0x%08X: 0x%08X", info.Address, info.Raw))
		if vm.IsHalt(info.Raw) {
			sb.WriteString(" [halt]")
		}
		sb.WriteString("\n")

		if len(info.References) == 0 {
			continue
		}
		byType := map[ReferenceType][]Reference{}
		for _, ref := range info.References {
			byType[ref.Type] = append(byType[ref.Type], ref)
		}
		for _, t := range []ReferenceType{RefJump, RefBranch, RefSequential} {
			refs := byType[t]
			if len(refs) == 0 {
				continue
			}
			froms := make([]string, len(refs))
			for i, ref := range refs {
				froms[i] = fmt.Sprintf("0x%08X", ref.FromAddr)
			}
			sb.WriteString(fmt.Sprintf("    %-10s: from %s\n", t.String(), strings.Join(froms, ", ")))
		}
	}

	sb.WriteString("\nSummary\n")
	sb.WriteString("=======\n")
	sb.WriteString(fmt.Sprintf("Words decoded:     %d\n", len(r.Addresses)))
	if r.HasHalt {
		sb.WriteString(fmt.Sprintf("Halt sentinel:     0x%08X\n", r.HaltAddr))
	} else {
		sb.WriteString("Halt sentinel:     (not present)\n")
	}
	sb.WriteString(fmt.Sprintf("Unreachable words: %d\n", len(r.Unreachable)))

	return sb.String()
}
