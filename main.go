//go:build !js

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/asm"
	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/keypad"
)

func main() {
	inPath := flag.String("in", "", "input assembly file path")
	outPath := flag.String("out", "", "output binary file path (default: input with .ch8 extension)")
	runProgram := flag.Bool("run", false, "run the generated binary file headless")
	runBinPath := flag.String("run-bin", "", "run an existing binary file headless")
	cycles := flag.Int("cycles", 1000, "maximum number of cycles to run")
	hold := flag.String("hold", "", "host key (1234/QWER/ASDF/ZXCV) held down for the whole run")
	showScreen := flag.Bool("screen", false, "print the display after the run")
	debug := flag.Bool("debug", false, "enable debug logging with an instruction trace")
	quiet := flag.Bool("q", false, "only log errors")
	flag.Parse()

	logger := config.CreateLogger(*debug, *quiet)

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	assembledOutput := ""
	if *inPath != "" {
		source, err := os.ReadFile(*inPath)
		if err != nil {
			logger.Fatal("Failed to read input file", log.String("path", *inPath), log.Err(err))
		}

		code, _, err := asm.Assemble(string(source))
		if err != nil {
			logger.Fatal("Assembly failed", log.Err(err))
		}

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

		if err := writeBinary(output, code); err != nil {
			logger.Fatal("Failed to write binary file", log.String("path", output), log.Err(err))
		}

		fmt.Printf("assembled %d bytes -> %s\n", len(code), output)
		assembledOutput = output
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run to run assembled output, or -run-bin <file> to run an existing binary")
		flag.Usage()
		os.Exit(2)
	}

	runTarget := ""
	switch {
	case *runBinPath != "":
		runTarget = *runBinPath
	case *runProgram:
		if assembledOutput == "" {
			fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-bin <file>")
			os.Exit(2)
		}
		runTarget = assembledOutput
	default:
		return
	}

	var keys keypad.State
	if *hold != "" {
		code, err := keypad.Parse([]rune(*hold)[0])
		if err != nil {
			logger.Fatal("Invalid -hold key", log.Err(err))
		}
		_ = keys.Press(code)
	}

	if err := runBinary(os.Stdout, runTarget, *cycles, &keys, *showScreen, logger); err != nil {
		logger.Error("Run failed", log.String("path", runTarget), log.Err(err))
		os.Exit(1)
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".ch8"
	}
	return strings.TrimSuffix(inPath, ext) + ".ch8"
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func readBinary(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// errBlocked reports that the program is waiting for a key nobody presses.
var errBlocked = errors.New("blocked waiting for a key")

// runCycles steps vm up to limit times. It stops early once the machine
// awaits a key that keys does not provide.
func runCycles(vm *cpu.CPU, limit int, keys cpu.Keypad) (int, error) {
	for i := range limit {
		if vm.State == cpu.StateAwaitingKey && !keyHeld(keys) {
			return i, errBlocked
		}
		if _, err := vm.Step(keys); err != nil {
			return i, err
		}
	}
	return limit, nil
}

func keyHeld(keys cpu.Keypad) bool {
	if keys == nil {
		return false
	}
	_, ok := keys.PressedKey()
	return ok
}

func runBinary(w io.Writer, path string, limit int, keys cpu.Keypad, showScreen bool, logger *log.Logger) error {
	loadedBytes, err := readBinary(path)
	if err != nil {
		return err
	}

	vm, err := cpu.NewCPU(loadedBytes, cpu.WithLogger(logger))
	if err != nil {
		return err
	}

	executed, err := runCycles(vm, limit, keys)
	blocked := errors.Is(err, errBlocked)
	if err != nil && !blocked {
		return fmt.Errorf("after %d cycles: %w", executed, err)
	}

	fmt.Fprintf(w,
		"run complete (%s): cycles=%d state=%s PC=0x%03X I=0x%03X SP=%d DT=%d ST=%d\n",
		path, executed, vm.State, vm.PC, vm.I, vm.SP, vm.DelayTimer, vm.SoundTimer,
	)
	for i, v := range vm.V {
		fmt.Fprintf(w, "V%X=%02X", i, v)
		if i%8 == 7 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, " ")
		}
	}

	if showScreen {
		for _, row := range vm.Display.Rows() {
			for _, px := range row {
				if px != 0 {
					fmt.Fprint(w, "#")
				} else {
					fmt.Fprint(w, ".")
				}
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
