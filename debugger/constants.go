package debugger

// TUI Display Update Constants
const (
	// DisplayUpdateFrequency controls how often the TUI display updates during continuous execution
	// (every N cycles to keep display responsive without overwhelming the terminal)
	DisplayUpdateFrequency = 100
)

// Memory Display Constants
const (
	// MemoryDisplayRows is the number of rows to show in the memory hex dump view
	MemoryDisplayRows = 16

	// MemoryDisplayColumns is the number of bytes per row in the memory hex dump view
	MemoryDisplayColumns = 16

	// MemoryDisplayBytesPerRow is the number of bytes displayed per row (same as columns)
	MemoryDisplayBytesPerRow = 16
)

// Register Display Constants
const (
	// RegisterViewRows is the fixed height of the register view panel
	// (32 registers at 4 per row + top and bottom borders)
	RegisterViewRows = 10

	// RegisterGroupSize is the number of registers displayed per row
	RegisterGroupSize = 4
)

// Hazard Log Constants
const (
	// HazardLogMaxLines caps the scrolling stall/flush/forward event log
	// shown in the pipeline TUI's Hazards/Forwarding panel.
	HazardLogMaxLines = 200
)
