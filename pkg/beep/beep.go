// Package beep produces the single square-wave tone played while the sound
// timer is running.
package beep

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const (
	DefaultSampleRate = 44100
	amplitude         = 0.15
)

// Tone is an endless mono float32 little-endian square wave. It emits
// silence while gated off. Read is safe to call concurrently with SetOn.
type Tone struct {
	on         atomic.Bool
	sampleRate float64
	hz         float64
	phase      float64
}

func NewTone(sampleRate int, hz float64) *Tone {
	return &Tone{
		sampleRate: float64(sampleRate),
		hz:         hz,
	}
}

// SetOn gates the tone.
func (t *Tone) SetOn(on bool) {
	t.on.Store(on)
}

func (t *Tone) On() bool {
	return t.on.Load()
}

func (t *Tone) Read(p []byte) (int, error) {
	n := len(p) / 4 * 4
	on := t.on.Load()
	step := t.hz / t.sampleRate

	for i := 0; i < n; i += 4 {
		var sample float32
		if on {
			if t.phase < 0.5 {
				sample = amplitude
			} else {
				sample = -amplitude
			}
		}
		t.phase += step
		if t.phase >= 1 {
			t.phase -= math.Floor(t.phase)
		}
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(sample))
	}
	return n, nil
}

// Player streams a Tone to the default audio device.
type Player struct {
	ctx     *oto.Context
	player  *oto.Player
	tone    *Tone
	started bool
	mutex   sync.Mutex
}

// NewPlayer opens the audio device. Only one Player may exist per process.
func NewPlayer(sampleRate int, hz float64) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	tone := NewTone(sampleRate, hz)
	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(tone),
		tone:   tone,
	}, nil
}

// SetActive starts or silences the tone. The stream keeps running so that
// short beeps have no start-up latency.
func (p *Player) SetActive(on bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.tone.SetOn(on)
	if on && !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

func (p *Player) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.tone.SetOn(false)
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	p.started = false
	return err
}
