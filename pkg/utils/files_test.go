package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"gochip8/pkg/cpu"
)

func TestGetPathInfo(t *testing.T) {
	full, dir, err := GetPathInfo("a/../b/prog.ch8")
	assert.NoError(t, err)
	assert.True(t, filepath.IsAbs(full))
	assert.Equal(t, "prog.ch8", filepath.Base(full))
	assert.Equal(t, "b", filepath.Base(dir))
}

func TestLoadProgram(t *testing.T) {
	dir := t.TempDir()

	bin := filepath.Join(dir, "prog.ch8")
	assert.NoError(t, os.WriteFile(bin, []byte{0x60, 0x05}, 0o644))
	program, err := LoadProgram(bin)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x05}, program)

	src := filepath.Join(dir, "prog.asm")
	assert.NoError(t, os.WriteFile(src, []byte("LD V0, 5\nADD V0, 3\n"), 0o644))
	program, err = LoadProgram(src)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x05, 0x70, 0x03}, program)

	bad := filepath.Join(dir, "bad.asm")
	assert.NoError(t, os.WriteFile(bad, []byte("HLT\n"), 0o644))
	_, err = LoadProgram(bad)
	assert.ErrorContains(t, err, "assembling bad.asm")

	big := filepath.Join(dir, "big.ch8")
	assert.NoError(t, os.WriteFile(big, make([]byte, cpu.MaxProgram+1), 0o644))
	_, err = LoadProgram(big)
	assert.True(t, errors.Is(err, cpu.ErrProgramTooLarge))

	_, err = LoadProgram(filepath.Join(dir, "missing.ch8"))
	assert.Error(t, err)
}

func TestIsSource(t *testing.T) {
	assert.True(t, IsSource("x.asm"))
	assert.True(t, IsSource("x.S"))
	assert.False(t, IsSource("x.ch8"))
	assert.False(t, IsSource("x"))
}
