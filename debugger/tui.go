package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/riscv-pipeline-sim/vm"
)

// NewTUIWithScreen is like NewTUI but drives the application off a
// caller-supplied tcell.Screen instead of the real terminal, for
// simulation-screen tests.
func NewTUIWithScreen(debugger *Debugger, screen tcell.Screen) *TUI {
	tui := NewTUI(debugger)
	tui.App.SetScreen(screen)
	return tui
}

// TUI represents the text user interface for the debugger
type TUI struct {
	// Core components
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	// Layout containers
	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	// View panels
	PipelineView    *tview.TextView
	RegisterView    *tview.TextView
	MemoryView      *tview.TextView
	HazardsView     *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	// State
	MemoryAddress uint32
	Running       bool

	// Hazard log tracking (derived from Statistics deltas between refreshes,
	// since the pipeline core itself only counts totals)
	hazardLog   []string
	lastStalls  uint64
	lastFlushes uint64
}

// NewTUI creates a new text user interface
func NewTUI(debugger *Debugger) *TUI {
	tui := &TUI{
		Debugger:      debugger,
		App:           tview.NewApplication(),
		MemoryAddress: 0,
		Running:       false,
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()

	return tui
}

// initializeViews creates all the view panels
func (t *TUI) initializeViews() {
	// Pipeline View (IF/ID/EX/MEM/WB latches)
	t.PipelineView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.PipelineView.SetBorder(true).SetTitle(" Pipeline (IF/ID/EX/MEM/WB) ")

	// Register View
	t.RegisterView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	// Memory View
	t.MemoryView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	// Hazards/Forwarding View
	t.HazardsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.HazardsView.SetBorder(true).SetTitle(" Hazards/Forwarding ")

	// Breakpoints View
	t.BreakpointsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	// Output View
	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	// Command Input
	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

// buildLayout constructs the TUI layout
func (t *TUI) buildLayout() {
	// Left panel: Pipeline and Hazards/Forwarding log
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.PipelineView, 0, 3, false).
		AddItem(t.HazardsView, 0, 2, false)

	// Right panel top: Registers, Memory
	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 10, 0, false).
		AddItem(t.MemoryView, 0, 1, false)

	// Right panel: Top + Breakpoints
	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	// Main content: Left and Right panels
	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	// Main layout: Content + Output + Command
	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	// Create pages for potential dialogs/modals
	t.Pages = tview.NewPages().
		AddPage("main", t.MainLayout, true, true)
}

// setupKeyBindings sets up keyboard shortcuts
func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF9:
			t.executeCommand("break")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

// handleCommand processes command input
func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

// executeCommand executes a debugger command
func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()

	err := t.Debugger.ExecuteCommand(cmd)

	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	t.RefreshAll()
}

// WriteOutput writes to the output view
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text)) // Ignore write errors in TUI
	t.OutputView.ScrollToEnd()
}

// RefreshAll refreshes all view panels
func (t *TUI) RefreshAll() {
	t.UpdatePipelineView()
	t.UpdateRegisterView()
	t.UpdateMemoryView()
	t.UpdateHazardsView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

// UpdatePipelineView updates the IF/ID/EX/MEM/WB latch panel
func (t *TUI) UpdatePipelineView() {
	t.PipelineView.Clear()

	if t.Debugger.VM.Mode != vm.ModePipelined {
		t.PipelineView.SetText(fmt.Sprintf("[yellow]single-cycle mode[white]\npc=0x%08X state=%s cycles=%d",
			t.Debugger.VM.PC(), t.Debugger.VM.State(), t.Debugger.VM.Cycles()))
		return
	}

	c := t.Debugger.VM.Piped
	var lines []string

	lines = append(lines, fmt.Sprintf("[yellow]IF/ID[white]   valid=%-5v stall=%-5v pc=0x%08X raw=0x%08X",
		c.IFID.Valid, c.IFID.Stall, c.IFID.PC, c.IFID.Raw))
	lines = append(lines, fmt.Sprintf("[yellow]ID/EX[white]   valid=%-5v pc=0x%08X rd=x%-2d rs1=x%-2d rs2=x%-2d opcode=0x%02X",
		c.IDEX.Valid, c.IDEX.PC, c.IDEX.Rd, c.IDEX.Rs1, c.IDEX.Rs2, c.IDEX.Opcode))
	lines = append(lines, fmt.Sprintf("[yellow]EX/MEM[white]  valid=%-5v alu=0x%08X rd=x%-2d branchTaken=%-5v jump=%-5v",
		c.ExMem.Valid, c.ExMem.ALUResult, c.ExMem.Rd, c.ExMem.BranchTaken, c.ExMem.Jump))
	lines = append(lines, fmt.Sprintf("[yellow]MEM/WB[white]  valid=%-5v rd=x%-2d writeValue=0x%08X regWrite=%-5v",
		c.MemWB.Valid, c.MemWB.Rd, c.MemWB.WriteValue(), c.MemWB.RegWrite))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("cycles=%d committed=%d cpi=%.3f state=%s",
		c.Stats.Cycles, c.Stats.CommittedInstrs, c.Stats.CPI(), c.State))

	t.PipelineView.SetText(strings.Join(lines, "\n"))
}

// UpdateRegisterView updates the register view
func (t *TUI) UpdateRegisterView() {
	t.RegisterView.Clear()

	regs := t.Debugger.VM.Regs()
	var lines []string

	for row := 0; row < vm.RegisterCount/4; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			reg := row*4 + col
			cols = append(cols, fmt.Sprintf("x%-2d: 0x%08X", reg, regs.Get(reg)))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("pc: 0x%08X", t.Debugger.VM.PC()))
	lines = append(lines, fmt.Sprintf("cycles: %d  mode: %s", t.Debugger.VM.Cycles(), t.Debugger.VM.Mode))

	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

// UpdateMemoryView updates the memory view
func (t *TUI) UpdateMemoryView() {
	t.MemoryView.Clear()

	addr := t.MemoryAddress
	if addr == 0 {
		addr = t.Debugger.VM.PC()
	}

	mem := t.Debugger.VM.Mem()
	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Address: 0x%08X[white]", addr))

	for row := 0; row < MemoryDisplayRows; row++ {
		rowAddr := addr + uint32(row*MemoryDisplayBytesPerRow)

		line := fmt.Sprintf("0x%08X: ", rowAddr)

		var hexBytes []string
		var asciiBytes []byte

		for col := 0; col < MemoryDisplayColumns; col++ {
			byteAddr := rowAddr + uint32(col)
			b := mem.ReadByte(byteAddr)
			hexBytes = append(hexBytes, fmt.Sprintf("%02X", b))
			if b >= 32 && b < 127 {
				asciiBytes = append(asciiBytes, b)
			} else {
				asciiBytes = append(asciiBytes, '.')
			}
		}

		line += strings.Join(hexBytes, " ") + "  " + string(asciiBytes)
		lines = append(lines, line)
	}

	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

// UpdateHazardsView updates the scrolling stall/flush/forward event log,
// appending new entries whenever the pipelined core's hazard counters
// have advanced since the last refresh (spec.md §4.10/§4.12).
func (t *TUI) UpdateHazardsView() {
	if t.Debugger.VM.Mode == vm.ModePipelined {
		stats := t.Debugger.VM.Piped.Stats

		if stats.LoadUseStalls > t.lastStalls {
			delta := stats.LoadUseStalls - t.lastStalls
			t.hazardLog = append(t.hazardLog, fmt.Sprintf("cycle %d: load-use stall (+%d)", stats.Cycles, delta))
			t.lastStalls = stats.LoadUseStalls
		}
		if stats.ControlFlushes > t.lastFlushes {
			delta := stats.ControlFlushes - t.lastFlushes
			t.hazardLog = append(t.hazardLog, fmt.Sprintf("cycle %d: control hazard flush (+%d)", stats.Cycles, delta))
			t.lastFlushes = stats.ControlFlushes
		}
	}

	if len(t.hazardLog) > HazardLogMaxLines {
		t.hazardLog = t.hazardLog[len(t.hazardLog)-HazardLogMaxLines:]
	}

	t.HazardsView.SetText(strings.Join(t.hazardLog, "\n"))
	t.HazardsView.ScrollToEnd()
}

// UpdateBreakpointsView updates the breakpoints and watchpoints view
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	var lines []string

	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) > 0 {
		lines = append(lines, "[yellow]Breakpoints:[white]")
		for _, bp := range bps {
			status := "enabled"
			color := "green"
			if !bp.Enabled {
				status = "disabled"
				color = "red"
			}

			line := fmt.Sprintf("  %d: [%s]%s[white] 0x%08X", bp.ID, color, status, bp.Address)

			if bp.Condition != "" {
				line += fmt.Sprintf(" if %s", bp.Condition)
			}

			line += fmt.Sprintf(" (hits: %d)", bp.HitCount)

			lines = append(lines, line)
		}
	} else {
		lines = append(lines, "[yellow]No breakpoints set[white]")
	}

	lines = append(lines, "")

	wps := t.Debugger.Watchpoints.GetAllWatchpoints()
	if len(wps) > 0 {
		lines = append(lines, "[yellow]Watchpoints:[white]")
		for _, wp := range wps {
			typeStr := "watch"
			if wp.Type == WatchRead {
				typeStr = "rwatch"
			} else if wp.Type == WatchReadWrite {
				typeStr = "awatch"
			}

			line := fmt.Sprintf("  %d: %s %s = 0x%08X", wp.ID, typeStr, wp.Expression, wp.LastValue)
			lines = append(lines, line)
		}
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI application
func (t *TUI) Run() error {
	t.RefreshAll()

	t.WriteOutput("[green]RISC-V Pipeline Simulator Debugger TUI[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F9 to break, F11 to step\n")
	t.WriteOutput("Type 'help' for command list\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop stops the TUI application
func (t *TUI) Stop() {
	t.App.Stop()
}
