package beep

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func samples(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func TestToneSilentWhenOff(t *testing.T) {
	tone := NewTone(8000, 1000)
	buf := make([]byte, 64)

	n, err := tone.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 64, n)
	for _, s := range samples(buf) {
		assert.Equal(t, float32(0), s)
	}
}

func TestToneSquareWave(t *testing.T) {
	// 8 samples per period: 4 high, 4 low
	tone := NewTone(8000, 1000)
	tone.SetOn(true)
	assert.True(t, tone.On())

	buf := make([]byte, 16*4)
	_, err := tone.Read(buf)
	assert.NoError(t, err)

	got := samples(buf)
	for i, s := range got {
		want := float32(amplitude)
		if i%8 >= 4 {
			want = -amplitude
		}
		assert.Equal(t, want, s)
	}

	tone.SetOn(false)
	_, err = tone.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, float32(0), samples(buf)[0])
}

func TestToneReadsWholeSamples(t *testing.T) {
	tone := NewTone(DefaultSampleRate, 440)
	n, err := tone.Read(make([]byte, 10))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)
}
