package cpu

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestSnapshotRoundTrip(t *testing.T) {
	c1 := newTestCPU(t, 0x6A2B, 0xA000, 0xD015, 0x2208, 0xF10A)
	stepN(t, c1, nil, 5)
	c1.DelayTimer = 17
	c1.SoundTimer = 3
	c1.Memory[0x400] = 0xCD

	data, err := c1.Snapshot()
	assert.NoError(t, err)

	c2 := newTestCPU(t)
	assert.NoError(t, c2.Restore(data))

	assert.Equal(t, c1.V, c2.V)
	assert.Equal(t, c1.I, c2.I)
	assert.Equal(t, c1.PC, c2.PC)
	assert.Equal(t, c1.SP, c2.SP)
	assert.Equal(t, c1.Stack, c2.Stack)
	assert.Equal(t, c1.Memory, c2.Memory)
	assert.Equal(t, uint8(17), c2.DelayTimer)
	assert.Equal(t, uint8(3), c2.SoundTimer)
	assert.Equal(t, StateAwaitingKey, c2.State)
	assert.Equal(t, uint8(1), c2.WaitRegister)
	assert.Equal(t, c1.Display.Rows(), c2.Display.Rows())
	assert.True(t, c2.Display.Pixel(0, 0))
}

func TestRestoreRejectsBadInput(t *testing.T) {
	c := newTestCPU(t, 0x6001)

	assert.Error(t, c.Restore([]byte("not a zip")))

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	assert.NoError(t, writeZipEntry(zw, "cpu_state.json", []byte(`{"sp": 17}`)))
	assert.NoError(t, zw.Close())
	assert.ErrorContains(t, c.Restore(buf.Bytes()), "invalid cpu_state")

	buf.Reset()
	zw = zip.NewWriter(buf)
	assert.NoError(t, writeZipEntry(zw, "cpu_state.json", []byte(`{"pc": 514}`)))
	assert.NoError(t, writeZipEntry(zw, "memory.bin", make([]byte, 16)))
	assert.NoError(t, zw.Close())
	assert.ErrorContains(t, c.Restore(buf.Bytes()), "memory.bin")

	buf.Reset()
	zw = zip.NewWriter(buf)
	assert.NoError(t, writeZipEntry(zw, "cpu_state.json", []byte(`{"pc": 514}`)))
	assert.NoError(t, zw.Close())
	assert.ErrorContains(t, c.Restore(buf.Bytes()), "not found")

	// a failed restore leaves the machine untouched
	assert.Equal(t, uint16(ProgramStart), c.PC)
	assert.Equal(t, byte(0x60), c.Memory[ProgramStart])
}
