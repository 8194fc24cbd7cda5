package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"

	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/utils"
)

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)

var errQuit = errors.New("quit requested")

// readKeys forwards stdin bytes to the returned channel until stdin fails.
func readKeys(r io.Reader) <-chan byte {
	ch := make(chan byte, 32)
	go func() {
		defer close(ch)
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				ch <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

type console struct {
	vm     *cpu.CPU
	cfg    config.Config
	logger *log.Logger
	out    *bufio.Writer
	keys   heldKeys
	dirty  bool
	beeped bool
}

// drainKeys consumes pending keystrokes without blocking.
func (c *console) drainKeys(input <-chan byte) error {
	for {
		select {
		case b, ok := <-input:
			if !ok {
				return nil
			}
			if b == keyCtrlC || b == keyEscape {
				return errQuit
			}
			if !c.keys.press(rune(b)) {
				c.logger.Debug("Ignoring unmapped key", log.Hex("byte", b))
			}
		default:
			return nil
		}
	}
}

func (c *console) frame() error {
	c.keys.tick()
	for range c.cfg.CyclesPerFrame {
		res, err := c.vm.Step(&c.keys.state)
		if err != nil {
			return fmt.Errorf("cycle at pc %04x: %w", c.vm.PC, err)
		}
		if res.DisplayChanged {
			c.dirty = true
		}
	}

	sounding := c.vm.SoundTimer > 0
	if sounding && !c.beeped && !c.cfg.Mute {
		_, _ = c.out.WriteString("\a")
	}
	c.beeped = sounding

	if c.dirty {
		_, _ = c.out.WriteString(cursorHome)
		_, _ = c.out.WriteString(renderFrame(&c.vm.Display))
		c.dirty = false
	}
	return c.out.Flush()
}

func (c *console) run(ctx context.Context, input <-chan byte) error {
	ticker := time.NewTicker(time.Second / config.FrameRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := c.drainKeys(input); err != nil {
			return err
		}
		if err := c.frame(); err != nil {
			return err
		}
	}
}

func main() {
	ctx := app.Context()

	cfg := config.Default()
	fs := flag.NewFlagSet("console", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [options] <program.ch8|program.asm>\n", os.Args[0])
		fmt.Fprintln(fs.Output(), "keys: 1234/QWER/ASDF/ZXCV, Esc or Ctrl+C to quit")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	logger := config.CreateLogger(cfg.Debug, cfg.Quiet)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal(err.Error())
	}

	program, err := utils.LoadProgram(fs.Arg(0))
	if err != nil {
		logger.Fatal(err.Error())
	}
	vm, err := cpu.NewCPU(program, cpu.WithLogger(logger))
	if err != nil {
		logger.Fatal(err.Error())
	}

	fd := int(os.Stdin.Fd())
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && (w < cpu.DisplayWidth || h < cpu.DisplayHeight/2) {
		logger.Warn("Terminal smaller than the display",
			log.Int("columns", w), log.Int("rows", h))
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logger.Fatal("Failed to set raw mode", log.Err(err))
	}

	c := &console{
		vm:     vm,
		cfg:    cfg,
		logger: logger,
		out:    bufio.NewWriter(os.Stdout),
		dirty:  true,
	}
	_, _ = c.out.WriteString(clearScreen + hideCursor)

	err = c.run(ctx, readKeys(os.Stdin))

	_, _ = c.out.WriteString(showCursor)
	_ = c.out.Flush()
	_ = term.Restore(fd, oldState)

	if err != nil && !errors.Is(err, errQuit) && !errors.Is(err, context.Canceled) {
		logger.Error("Emulation stopped", log.Err(err))
		os.Exit(1)
	}
}
