package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// machineState is the JSON-serializable snapshot of the register file,
// stack, timers and key-wait latch.
type machineState struct {
	V            [NumRegisters]uint8 `json:"v"`
	I            uint16              `json:"i"`
	PC           uint16              `json:"pc"`
	SP           uint16              `json:"sp"`
	Stack        [StackDepth]uint16  `json:"stack"`
	DelayTimer   uint8               `json:"delay_timer"`
	SoundTimer   uint8               `json:"sound_timer"`
	State        RunState            `json:"state"`
	WaitRegister uint8               `json:"wait_register"`
}

// Snapshot serialises the complete machine state into an in-memory ZIP
// archive. Snapshots only live as long as the caller keeps the bytes.
func (c *CPU) Snapshot() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := machineState{
		V:            c.V,
		I:            c.I,
		PC:           c.PC,
		SP:           c.SP,
		Stack:        c.Stack,
		DelayTimer:   c.DelayTimer,
		SoundTimer:   c.SoundTimer,
		State:        c.State,
		WaitRegister: c.WaitRegister,
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal cpu_state: %w", err)
	}
	if err := writeZipEntry(zw, "cpu_state.json", jsonData); err != nil {
		return nil, err
	}

	if err := writeZipEntry(zw, "memory.bin", c.Memory[:]); err != nil {
		return nil, err
	}

	display := make([]byte, 0, DisplayWidth*DisplayHeight)
	for _, row := range c.Display.cells {
		display = append(display, row[:]...)
	}
	if err := writeZipEntry(zw, "display.bin", display); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore applies a snapshot produced by Snapshot. The CPU is left unchanged
// if the snapshot cannot be read or is inconsistent.
func (c *CPU) Restore(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "cpu_state.json")
	if err != nil {
		return err
	}
	var state machineState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal cpu_state: %w", err)
	}
	if state.SP > StackDepth || state.WaitRegister >= NumRegisters || state.State > StateAwaitingKey {
		return fmt.Errorf("invalid cpu_state: sp=%d wait_register=%d state=%d", state.SP, state.WaitRegister, state.State)
	}

	memData, err := readZipEntry(fileMap, "memory.bin")
	if err != nil {
		return err
	}
	if len(memData) != MemorySize {
		return fmt.Errorf("memory.bin: expected %d bytes, got %d", MemorySize, len(memData))
	}

	display, err := readZipEntry(fileMap, "display.bin")
	if err != nil {
		return err
	}
	if len(display) != DisplayWidth*DisplayHeight {
		return fmt.Errorf("display.bin: expected %d bytes, got %d", DisplayWidth*DisplayHeight, len(display))
	}

	c.V = state.V
	c.I = state.I
	c.PC = state.PC
	c.SP = state.SP
	c.Stack = state.Stack
	c.DelayTimer = state.DelayTimer
	c.SoundTimer = state.SoundTimer
	c.State = state.State
	c.WaitRegister = state.WaitRegister
	copy(c.Memory[:], memData)
	for y := range DisplayHeight {
		for x := range DisplayWidth {
			c.Display.cells[y][x] = display[y*DisplayWidth+x] & 1
		}
	}
	return nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
