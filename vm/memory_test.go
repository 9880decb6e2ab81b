package vm

import "testing"

func TestMemoryWordRoundTrip(t *testing.T) {
	m := NewMemory(1024)
	m.WriteWord(0x10, 0xDEADBEEF)
	if got := m.ReadWord(0x10); got != 0xDEADBEEF {
		t.Errorf("ReadWord = 0x%x, want 0xDEADBEEF", got)
	}
}

func TestMemoryLittleEndian(t *testing.T) {
	m := NewMemory(16)
	m.WriteWord(0, 0x01020304)
	if b := m.ReadByte(0); b != 0x04 {
		t.Errorf("byte 0 = 0x%x, want 0x04 (low byte first)", b)
	}
	if b := m.ReadByte(3); b != 0x01 {
		t.Errorf("byte 3 = 0x%x, want 0x01 (high byte last)", b)
	}
}

func TestMemoryOutOfRangeIsSilent(t *testing.T) {
	m := NewMemory(16)
	if got := m.ReadWord(1000); got != 0 {
		t.Errorf("out-of-range read = 0x%x, want 0", got)
	}
	m.WriteWord(1000, 0xFFFFFFFF) // must not panic
}

func TestMemoryPartialOverrunWordIsAllOrNothing(t *testing.T) {
	m := NewMemory(16)
	m.WriteWord(12, 0x01020304) // bytes 12,13,14,15 — fully in range, sets up bytes near the edge
	if got := m.ReadWord(14); got != 0 {
		t.Errorf("ReadWord(14) with addr+3 out of range = 0x%x, want 0 (all-or-nothing, not a partial value)", got)
	}
	m.WriteWord(14, 0xAAAAAAAA) // must be a complete no-op, not a partial write
	if got := m.ReadByte(15); got != 0x01 {
		t.Errorf("byte 15 after out-of-range WriteWord(14) = 0x%x, want unchanged 0x01", got)
	}
}

func TestMemoryReset(t *testing.T) {
	m := NewMemory(16)
	m.WriteWord(0, 0xFFFFFFFF)
	m.Reset()
	if got := m.ReadWord(0); got != 0 {
		t.Errorf("after Reset, ReadWord = 0x%x, want 0", got)
	}
}
