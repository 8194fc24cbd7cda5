package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
	"gochip8/pkg/keypad"
)

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "game.ch8", defaultOutputPath("game.asm"))
	assert.Equal(t, "dir/game.ch8", defaultOutputPath("dir/game.s"))
	assert.Equal(t, "game.ch8", defaultOutputPath("game"))
}

func assembleFile(t *testing.T, src string) string {
	t.Helper()
	code, _, err := asm.Assemble(src)
	assert.NoError(t, err)
	path := filepath.Join(t.TempDir(), "prog.ch8")
	assert.NoError(t, writeBinary(path, code))
	return path
}

func TestRunBinary(t *testing.T) {
	path := assembleFile(t, `
    LD V0, 5
    ADD V0, 3
    LD I, 0
    DRW V1, V1, 5
done:
    JP done
`)

	var out bytes.Buffer
	err := runBinary(&out, path, 20, nil, true, log.NewTestLogger(t))
	assert.NoError(t, err)

	s := out.String()
	assert.True(t, strings.Contains(s, "cycles=20"))
	assert.True(t, strings.Contains(s, "V0=08"))
	assert.True(t, strings.Contains(s, "PC=0x208"))
	assert.True(t, strings.Contains(s, "\n####...."))
}

func TestRunBinaryBlocksOnKeyWait(t *testing.T) {
	path := assembleFile(t, `
    LD V0, 1
    LD V1, K
    LD V2, 2
`)

	var out bytes.Buffer
	err := runBinary(&out, path, 100, nil, false, log.NewTestLogger(t))
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out.String(), "cycles=2 state=AwaitingKey"))

	var keys keypad.State
	assert.NoError(t, keys.Press(0xB))
	out.Reset()
	err = runBinary(&out, path, 4, &keys, false, log.NewTestLogger(t))
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out.String(), "V1=0B"))
	assert.True(t, strings.Contains(out.String(), "V2=02"))
}

func TestRunBinaryReportsFaults(t *testing.T) {
	path := assembleFile(t, "RET")

	err := runBinary(&bytes.Buffer{}, path, 10, nil, false, log.NewTestLogger(t))
	assert.True(t, errors.Is(err, cpu.ErrOutOfBounds))
	assert.ErrorContains(t, err, "after 0 cycles")

	err = runBinary(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.ch8"), 10, nil, false, nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
