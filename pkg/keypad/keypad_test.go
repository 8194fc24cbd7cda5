package keypad

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestStatePressRelease(t *testing.T) {
	var s State

	_, ok := s.PressedKey()
	assert.False(t, ok)

	assert.NoError(t, s.Press(0xC))
	assert.NoError(t, s.Press(0x3))
	assert.True(t, s.IsPressed(0xC))

	key, ok := s.PressedKey()
	assert.True(t, ok)
	assert.Equal(t, uint8(0x3), key)

	s.Release(0x3)
	key, ok = s.PressedKey()
	assert.True(t, ok)
	assert.Equal(t, uint8(0xC), key)

	s.Reset()
	_, ok = s.PressedKey()
	assert.False(t, ok)
	assert.False(t, s.IsPressed(0xC))
}

func TestStateUnknownCode(t *testing.T) {
	var s State

	err := s.Press(NumKeys)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownInputCode))
	assert.False(t, s.IsPressed(NumKeys))

	// releasing an unknown code is a no-op
	s.Release(0xFF)
}

func TestNilStateHasNoKey(t *testing.T) {
	var s *State
	_, ok := s.PressedKey()
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	tests := []struct {
		host rune
		want uint8
	}{
		{'1', 0x1}, {'2', 0x2}, {'3', 0x3}, {'4', 0xC},
		{'q', 0x4}, {'W', 0x5}, {'e', 0x6}, {'R', 0xD},
		{'a', 0x7}, {'s', 0x8}, {'d', 0x9}, {'f', 0xE},
		{'z', 0xA}, {'x', 0x0}, {'C', 0xB}, {'v', 0xF},
	}

	for _, tt := range tests {
		got, err := Parse(tt.host)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	for _, host := range []rune{'5', 'p', ' ', '\n'} {
		_, err := Parse(host)
		assert.True(t, errors.Is(err, ErrUnknownInputCode))
	}
}

func TestHostKeys(t *testing.T) {
	keys := HostKeys()

	seen := make(map[rune]bool)
	for code, host := range keys {
		assert.False(t, seen[host])
		seen[host] = true

		got, err := Parse(host)
		assert.NoError(t, err)
		assert.Equal(t, uint8(code), got)
	}
	assert.Equal(t, 'x', keys[0])
	assert.Equal(t, 'v', keys[0xF])
}
