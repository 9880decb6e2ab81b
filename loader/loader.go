// Package loader parses the simulator's hex program format and loads the
// decoded words into a VM's memory.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lookbusy1344/riscv-pipeline-sim/vm"
)

// LoadHexFile reads the hex text format from path and writes it into
// memory starting at address 0 (spec.md §6.1).
func LoadHexFile(mem *vm.Memory, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return LoadHexStream(mem, f)
}

// LoadHexStream consumes textual lines from r, strips blanks and
// `#`-prefixed comments, parses each remaining line as a 32-bit hex word,
// and writes words at consecutive addresses starting at 0 with stride 4
// (spec.md §4.3, §6.1).
func LoadHexStream(mem *vm.Memory, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	addr := uint32(0)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, err := strconv.ParseUint(strings.TrimPrefix(line, "0x"), 16, 32)
		if err != nil {
			return fmt.Errorf("line %d: invalid hex word %q: %w", lineNo, line, err)
		}

		mem.WriteWord(addr, uint32(word))
		addr += 4
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading hex program: %w", err)
	}
	return nil
}

// ReadHexFileWords parses the hex text format from path into a slice of
// words, without writing them into any memory. Callers that need to load
// the same image into more than one core (vm.VM.LoadWords) use this
// instead of LoadHexFile.
func ReadHexFileWords(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var words []uint32
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, err := strconv.ParseUint(strings.TrimPrefix(line, "0x"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid hex word %q: %w", lineNo, line, err)
		}
		words = append(words, uint32(word))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading hex program: %w", err)
	}
	return words, nil
}

// WordCount reports how many instruction words LoadHexStream would write
// for r, without touching memory.
func WordCount(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	count := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		count++
	}
	return count, scanner.Err()
}
