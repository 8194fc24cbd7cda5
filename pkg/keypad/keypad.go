// Package keypad models the 16-key hexadecimal input device and the mapping
// from a host keyboard onto it.
package keypad

import (
	"errors"
	"fmt"
	"unicode"
)

// NumKeys is the number of logical keys on the pad, codes 0x0-0xF.
const NumKeys = 16

// ErrUnknownInputCode is returned when a host key or raw value does not map to
// a logical key code.
var ErrUnknownInputCode = errors.New("unknown input code")

// State is a snapshot of which logical keys are held down. The zero value has
// no key pressed.
type State struct {
	down [NumKeys]bool
}

// Press marks code as held down.
func (s *State) Press(code uint8) error {
	if code >= NumKeys {
		return fmt.Errorf("%w: %#x", ErrUnknownInputCode, code)
	}
	s.down[code] = true
	return nil
}

// Release marks code as released. Unknown codes are ignored.
func (s *State) Release(code uint8) {
	if code < NumKeys {
		s.down[code] = false
	}
}

// Reset releases all keys.
func (s *State) Reset() {
	s.down = [NumKeys]bool{}
}

// IsPressed reports whether code is held down.
func (s *State) IsPressed(code uint8) bool {
	return code < NumKeys && s.down[code]
}

// PressedKey returns the lowest held key code. When several keys are down
// only that one is reported.
func (s *State) PressedKey() (uint8, bool) {
	if s == nil {
		return 0, false
	}
	for code, down := range s.down {
		if down {
			return uint8(code), true
		}
	}
	return 0, false
}

// layout maps the left block of a QWERTY keyboard onto the pad:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var layout = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// Parse translates a host key to its logical code. Letters are matched
// case-insensitively.
func Parse(host rune) (uint8, error) {
	code, ok := layout[unicode.ToLower(host)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInputCode, host)
	}
	return code, nil
}

// HostKeys returns the host keys in pad order, indexed by logical code.
func HostKeys() [NumKeys]rune {
	var keys [NumKeys]rune
	for host, code := range layout {
		keys[code] = host
	}
	return keys
}
