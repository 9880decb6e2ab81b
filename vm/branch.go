package vm

// EvaluateBranch tests a branch's condition given its funct3 and the two
// compared register values, mirroring the reference interpreter's
// _evaluate_branch (spec.md §4.7).
func EvaluateBranch(funct3 uint32, lhs, rhs uint32) bool {
	switch funct3 {
	case Funct3BEQ:
		return lhs == rhs
	case Funct3BNE:
		return lhs != rhs
	case Funct3BLT:
		return int32(lhs) < int32(rhs)
	case Funct3BGE:
		return int32(lhs) >= int32(rhs)
	case Funct3BLTU:
		return lhs < rhs
	case Funct3BGEU:
		return lhs >= rhs
	default:
		return false
	}
}
