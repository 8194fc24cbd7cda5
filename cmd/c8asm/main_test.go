package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestAssembleFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "prog.asm")
	out := filepath.Join(dir, "prog.ch8")
	assert.NoError(t, os.WriteFile(in, []byte("start:\n    LD V0, 5 ; five\n    JP start\n"), 0o644))

	var listing bytes.Buffer
	size, err := assembleFile(in, out, &listing)
	assert.NoError(t, err)
	assert.Equal(t, 4, size)

	data, err := os.ReadFile(out)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x05, 0x12, 0x00}, data)

	lines := strings.Split(strings.TrimSpace(listing.String()), "\n")
	assert.Equal(t, 2, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], "200: 6005  LD V0, 0x05"))
	assert.True(t, strings.HasSuffix(lines[0], "LD V0, 5 ; five"))
	assert.True(t, strings.HasSuffix(lines[1], "JP start"))

	var dis bytes.Buffer
	assert.NoError(t, disassembleFile(&dis, out))
	assert.Equal(t, "200: 6005  LD V0, 0x05\n202: 1200  JP 0x200\n", dis.String())
}

func TestAssembleFileErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.asm")
	assert.NoError(t, os.WriteFile(in, []byte("JP nowhere\n"), 0o644))

	_, err := assembleFile(in, filepath.Join(dir, "bad.ch8"), nil)
	assert.ErrorContains(t, err, "bad.asm: undefined label 'nowhere'")

	_, err = assembleFile(filepath.Join(dir, "missing.asm"), filepath.Join(dir, "x.ch8"), nil)
	assert.Error(t, err)
}
