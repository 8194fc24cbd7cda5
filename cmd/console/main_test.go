package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/asm"
	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
)

func newTestConsole(t *testing.T, src string, out *bytes.Buffer) *console {
	t.Helper()
	program, _, err := asm.Assemble(src)
	assert.NoError(t, err)
	vm, err := cpu.NewCPU(program)
	assert.NoError(t, err)

	return &console{
		vm:     vm,
		cfg:    config.Default(),
		logger: log.NewTestLogger(t),
		out:    bufio.NewWriter(out),
		dirty:  true,
	}
}

func TestRenderFrame(t *testing.T) {
	program, _, err := asm.Assemble(`
    LD I, 0
    DRW V0, V0, 5
`)
	assert.NoError(t, err)
	vm, err := cpu.NewCPU(program)
	assert.NoError(t, err)
	for range 2 {
		_, err := vm.Step(nil)
		assert.NoError(t, err)
	}

	lines := strings.Split(renderFrame(&vm.Display), "\r\n")
	assert.Equal(t, cpu.DisplayHeight/2+1, len(lines))

	// glyph 0 rows: F0 90 90 90 F0
	assert.True(t, strings.HasPrefix(lines[0], "█▀▀█ "))
	assert.True(t, strings.HasPrefix(lines[1], "█  █ "))
	assert.True(t, strings.HasPrefix(lines[2], "▀▀▀▀ "))
	assert.True(t, strings.HasPrefix(lines[3], "    "))
}

func TestHeldKeys(t *testing.T) {
	var h heldKeys

	assert.False(t, h.press('p'))
	assert.True(t, h.press('W'))

	key, ok := h.state.PressedKey()
	assert.True(t, ok)
	assert.Equal(t, uint8(0x5), key)

	for range holdFrames - 1 {
		h.tick()
	}
	assert.True(t, h.state.IsPressed(0x5))
	h.tick()
	assert.False(t, h.state.IsPressed(0x5))
}

func TestDrainKeys(t *testing.T) {
	c := newTestConsole(t, "CLS", &bytes.Buffer{})

	input := make(chan byte, 4)
	input <- 'x'
	assert.NoError(t, c.drainKeys(input))
	assert.True(t, c.keys.state.IsPressed(0x0))

	input <- keyEscape
	assert.True(t, errors.Is(c.drainKeys(input), errQuit))

	close(input)
	assert.NoError(t, c.drainKeys(input))
}

func TestFrameRendersAndBeeps(t *testing.T) {
	var out bytes.Buffer
	c := newTestConsole(t, `
    LD V0, 30
    LD ST, V0
    LD I, 0
    DRW V1, V1, 5
loop:
    JP loop
`, &out)

	assert.NoError(t, c.frame())
	s := out.String()
	assert.True(t, strings.Contains(s, "\a"))
	assert.True(t, strings.Contains(s, cursorHome))
	assert.True(t, strings.Contains(s, "█▀▀█"))

	out.Reset()
	assert.NoError(t, c.frame())
	assert.Equal(t, "", out.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	c := newTestConsole(t, "loop: JP loop", &bytes.Buffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.run(ctx, make(chan byte))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRunStopsOnCPUError(t *testing.T) {
	c := newTestConsole(t, ".WORD 0xFFFF", &bytes.Buffer{})

	err := c.run(context.Background(), make(chan byte))
	assert.True(t, errors.Is(err, cpu.ErrUnrecognizedInstruction))
}
