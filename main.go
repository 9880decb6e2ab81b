package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/lookbusy1344/riscv-pipeline-sim/api"
	"github.com/lookbusy1344/riscv-pipeline-sim/config"
	"github.com/lookbusy1344/riscv-pipeline-sim/debugger"
	"github.com/lookbusy1344/riscv-pipeline-sim/loader"
	"github.com/lookbusy1344/riscv-pipeline-sim/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion     = flag.Bool("version", false, "Show version information")
		showHelp        = flag.Bool("help", false, "Show help information")
		debugMode       = flag.Bool("debug", false, "Start in debugger mode")
		tuiMode         = flag.Bool("tui", false, "Use TUI (Text User Interface) debugger")
		pipelined       = flag.Bool("pipelined", false, "Run the pipelined core instead of the single-cycle core")
		compareMode     = flag.Bool("compare", false, "Run both cores and report the first point of divergence")
		apiServer       = flag.Bool("api-server", false, "Start HTTP API server mode")
		apiPort         = flag.Int("port", 8080, "API server port (used with -api-server)")
		configPath      = flag.String("config", "", "Path to a TOML config file (default: platform config dir)")
		maxCycles       = flag.Uint64("max-cycles", 0, "Maximum cycles before halt (0: use config default)")
		maxInstructions = flag.Uint64("max-instructions", 0, "Maximum committed instructions before halt (0: use config default, pipelined mode only)")
		memSize         = flag.Uint("mem-size", 0, "Memory size in bytes (0: use config default)")
		dumpMem         = flag.String("dump-mem", "", "Print a memory window after run/compare: addr,len (e.g. 0x1000,16)")
		verboseMode     = flag.Bool("verbose", false, "Verbose output")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("riscvsim %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if *apiServer {
		runAPIServer(*apiPort)
		return
	}

	cfg := loadConfig(*configPath)

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: hex file required")
		fmt.Fprintln(os.Stderr, "Usage: riscvsim <hex-file> [flags]")
		os.Exit(1)
	}
	hexFile := args[0]

	size := int(cfg.Execution.MemorySize)
	if *memSize > 0 {
		size = int(*memSize)
	}
	cycles := cfg.Execution.MaxCycles
	if *maxCycles > 0 {
		cycles = *maxCycles
	}
	instrs := cfg.Execution.MaxInstructions
	if *maxInstructions > 0 {
		instrs = *maxInstructions
	}

	words, err := loader.ReadHexFileWords(hexFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", hexFile, err)
		os.Exit(1)
	}

	machine := vm.NewVM(size)
	machine.LoadWords(0, words)
	if cfg.Execution.Pipelined || *pipelined {
		machine.SetMode(vm.ModePipelined)
	}
	if *debugMode {
		machine.EnableTrace(cfg.Trace.MaxEntries)
	}

	switch {
	case *compareMode:
		runCompare(machine, cycles, instrs, *dumpMem)
	case *tuiMode:
		dbg := debugger.NewDebuggerWithHistorySize(machine, cfg.Debugger.HistorySize)
		if err := debugger.RunTUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}
	case *debugMode:
		dbg := debugger.NewDebuggerWithHistorySize(machine, cfg.Debugger.HistorySize)
		if err := debugger.RunCLI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
			os.Exit(1)
		}
	default:
		runDirect(machine, cycles, instrs, *verboseMode, *dumpMem)
	}
}

// runDirect runs the loaded program on the VM's active core to completion
// or a cap, printing a one-line summary and an optional memory dump
// (spec.md §6, §7: hitting the halt sentinel or a run cap is plain
// completion, not a failure, so both exit 0).
func runDirect(machine *vm.VM, maxCycles, maxInstructions uint64, verbose bool, dumpMem string) {
	machine.Run(maxCycles, maxInstructions)

	if machine.Mode == vm.ModePipelined {
		fmt.Println(vm.PipelinedSummary(machine.Piped))
	} else {
		fmt.Println(vm.SingleCycleSummary(machine.Single))
	}

	if verbose {
		fmt.Println(vm.DumpRegisters(machine.Regs()))
	}

	printMemDump(machine.Mem(), dumpMem)
}

// runCompare runs both cores against the same loaded image and reports the
// first point of register divergence, or confirms the equivalence invariant
// of spec.md §8 holds.
func runCompare(machine *vm.VM, maxCycles, maxInstructions uint64, dumpMem string) {
	singleState := machine.Single.Run(maxCycles)
	pipedState := machine.Piped.Run(maxCycles, maxInstructions)

	singleRegs := machine.Single.Regs.Snapshot()
	pipedRegs := machine.Piped.Regs.Snapshot()

	mismatch := -1
	for i := 0; i < vm.RegisterCount; i++ {
		if singleRegs[i] != pipedRegs[i] {
			mismatch = i
			break
		}
	}

	fmt.Printf("single-cycle: %s\n", vm.SingleCycleSummary(machine.Single))
	fmt.Printf("pipelined:    %s\n", vm.PipelinedSummary(machine.Piped))

	switch {
	case singleState != pipedState:
		fmt.Printf("DIVERGED: terminal states differ (single=%s pipelined=%s)\n", singleState, pipedState)
	case mismatch >= 0:
		fmt.Printf("DIVERGED: x%d differs (single=0x%08x pipelined=0x%08x)\n",
			mismatch, singleRegs[mismatch], pipedRegs[mismatch])
	default:
		fmt.Println("EQUIVALENT: both cores agree on terminal register state")
	}

	if dumpMem != "" {
		fmt.Println("-- single-cycle memory --")
		printMemDump(machine.Single.Mem, dumpMem)
		fmt.Println("-- pipelined memory --")
		printMemDump(machine.Piped.Mem, dumpMem)
	}
}

// printMemDump parses "addr,len" (each hex or decimal) and prints the
// window per spec.md §6's state-dump format. A blank spec is a no-op.
func printMemDump(mem *vm.Memory, spec string) {
	if spec == "" {
		return
	}
	parts := strings.SplitN(spec, ",", 2)
	if len(parts) != 2 {
		fmt.Fprintf(os.Stderr, "invalid -dump-mem %q: expected addr,len\n", spec)
		return
	}
	addr, err := parseNumber(parts[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -dump-mem address %q: %v\n", parts[0], err)
		return
	}
	length, err := parseNumber(parts[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -dump-mem length %q: %v\n", parts[1], err)
		return
	}
	fmt.Println(vm.DumpMemoryWindow(mem, uint32(addr), int(length)))
}

func parseNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 32)
	}
	return strconv.ParseUint(s, 10, 32)
}

func loadConfig(path string) *config.Config {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// runAPIServer starts the HTTP+WebSocket API server and blocks until an
// interrupt, or until its parent process dies (api.ProcessMonitor), then
// shuts down gracefully.
func runAPIServer(port int) {
	server := api.NewServer(port)

	monitor := api.NewProcessMonitor(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		os.Exit(0)
	})
	monitor.Start()
	defer monitor.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	fmt.Printf("API server listening on port %d\n", port)

	select {
	case err := <-errChan:
		if err != nil {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	case <-sigChan:
		fmt.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
			os.Exit(1)
		}
	}
}

func printHelp() {
	fmt.Println(`riscvsim - RV32I dual-strategy cycle-level simulator

Usage:
  riscvsim <hex-file> [flags]
  riscvsim -api-server [-port N]

Flags:`)
	flag.PrintDefaults()
}
