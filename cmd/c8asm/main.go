package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/asm"
	"gochip8/pkg/config"
)

func main() {
	outPath := flag.String("o", "", "output program path (default: input with .ch8 extension)")
	list := flag.Bool("list", false, "print an address/word/source listing")
	disasm := flag.Bool("d", false, "disassemble a program image instead of assembling")
	quiet := flag.Bool("q", false, "only log errors")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [options] <input>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := config.CreateLogger(false, *quiet)
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	in := flag.Arg(0)

	if *disasm {
		if err := disassembleFile(os.Stdout, in); err != nil {
			logger.Fatal("Disassembly failed", log.Err(err))
		}
		return
	}

	out := *outPath
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".ch8"
	}

	var listing io.Writer
	if *list {
		listing = os.Stdout
	}
	size, err := assembleFile(in, out, listing)
	if err != nil {
		logger.Fatal("Assembly failed", log.Err(err))
	}
	logger.Info("Program assembled", log.String("output", out), log.Int("bytes", size))
}

// assembleFile assembles in to out. When listing is set, every emitted word
// is printed next to its source line.
func assembleFile(in, out string, listing io.Writer) (int, error) {
	source, err := os.ReadFile(in)
	if err != nil {
		return 0, err
	}

	program, sourceMap, err := asm.Assemble(string(source))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(in), err)
	}

	if listing != nil {
		lines := strings.Split(string(source), "\n")
		for _, l := range asm.Disassemble(program) {
			src := ""
			if lineNo, ok := sourceMap[l.Address]; ok && lineNo <= len(lines) {
				src = strings.TrimSpace(lines[lineNo-1])
			}
			fmt.Fprintf(listing, "%-32s %s\n", l, src)
		}
	}

	if err := os.WriteFile(out, program, 0o644); err != nil {
		return 0, err
	}
	return len(program), nil
}

func disassembleFile(w io.Writer, in string) error {
	program, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	for _, l := range asm.Disassemble(program) {
		fmt.Fprintln(w, l)
	}
	return nil
}
