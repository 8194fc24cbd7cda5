package main

import (
	"gochip8/pkg/keypad"
)

// holdFrames is how long a key stays down after a keystroke. Terminals only
// report presses, so releases are synthesized.
const holdFrames = 8

// heldKeys turns a stream of keystrokes into a keypad snapshot.
type heldKeys struct {
	state     keypad.State
	remaining [keypad.NumKeys]int
}

// press records a host keystroke. Keys outside the layout are ignored.
func (h *heldKeys) press(host rune) bool {
	code, err := keypad.Parse(host)
	if err != nil {
		return false
	}
	_ = h.state.Press(code)
	h.remaining[code] = holdFrames
	return true
}

// tick ages the held keys by one frame and releases expired ones.
func (h *heldKeys) tick() {
	for code := range h.remaining {
		if h.remaining[code] == 0 {
			continue
		}
		h.remaining[code]--
		if h.remaining[code] == 0 {
			h.state.Release(uint8(code))
		}
	}
}
