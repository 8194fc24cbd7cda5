package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/beep"
	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/keypad"
	"gochip8/pkg/utils"
)

// hostKeys maps the keypad layout onto ebiten key codes.
var hostKeys = map[rune]ebiten.Key{
	'1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2, '3': ebiten.KeyDigit3, '4': ebiten.KeyDigit4,
	'q': ebiten.KeyQ, 'w': ebiten.KeyW, 'e': ebiten.KeyE, 'r': ebiten.KeyR,
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'z': ebiten.KeyZ, 'x': ebiten.KeyX, 'c': ebiten.KeyC, 'v': ebiten.KeyV,
}

// toneSink is the part of the beeper the game drives.
type toneSink interface {
	SetActive(on bool)
}

type mutedTone struct{}

func (mutedTone) SetActive(bool) {}

type Game struct {
	vm     *cpu.CPU
	cfg    config.Config
	logger *log.Logger
	tone   toneSink

	keys     keypad.State
	paused   bool
	dirty    bool
	snapshot []byte

	screenImg *ebiten.Image // reused 64×32 canvas
}

func newGame(vm *cpu.CPU, cfg config.Config, logger *log.Logger, tone toneSink) *Game {
	if tone == nil {
		tone = mutedTone{}
	}
	return &Game{
		vm:     vm,
		cfg:    cfg,
		logger: logger,
		tone:   tone,
		dirty:  true,
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handleHotkeys()
	g.pollKeys()

	if g.paused {
		g.tone.SetActive(false)
		return nil
	}
	return g.runFrame()
}

// pollKeys copies the host keyboard into the keypad snapshot.
func (g *Game) pollKeys() {
	for code, host := range keypad.HostKeys() {
		key, ok := hostKeys[host]
		if !ok {
			continue
		}
		if ebiten.IsKeyPressed(key) {
			_ = g.keys.Press(uint8(code))
		} else {
			g.keys.Release(uint8(code))
		}
	}
}

func (g *Game) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.paused = !g.paused
		if g.paused {
			g.logger.Info("Paused")
		} else {
			g.logger.Info("Resumed")
		}

	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		g.vm.Reset()
		g.dirty = true
		g.logger.Info("Machine reset")

	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		g.saveSnapshot()

	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		g.loadSnapshot()

	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		name := fmt.Sprintf("chip8-%s.png", time.Now().Format("20060102-150405"))
		if err := g.vm.Display.SaveScreenshot(name, g.cfg.Scale, g.cfg.Foreground, g.cfg.Background); err != nil {
			g.logger.Error("Saving screenshot failed", log.Err(err))
			return
		}
		g.logger.Info("Screenshot saved", log.String("file", name))
	}
}

func (g *Game) saveSnapshot() {
	data, err := g.vm.Snapshot()
	if err != nil {
		g.logger.Error("Snapshot failed", log.Err(err))
		return
	}
	g.snapshot = data
	g.logger.Info("Snapshot taken", log.Int("bytes", len(data)))
}

func (g *Game) loadSnapshot() {
	if g.snapshot == nil {
		g.logger.Warn("No snapshot to restore")
		return
	}
	if err := g.vm.Restore(g.snapshot); err != nil {
		g.logger.Error("Restoring snapshot failed", log.Err(err))
		return
	}
	g.dirty = true
	g.logger.Info("Snapshot restored")
}

// runFrame executes one frame worth of cycles against the current keypad
// snapshot. The tone follows the sound timer.
func (g *Game) runFrame() error {
	for range g.cfg.CyclesPerFrame {
		res, err := g.vm.Step(&g.keys)
		if err != nil {
			g.tone.SetActive(false)
			return fmt.Errorf("cycle at pc %04x: %w", g.vm.PC, err)
		}
		if res.DisplayChanged {
			g.dirty = true
		}
	}
	g.tone.SetActive(g.vm.SoundTimer > 0)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(cpu.DisplayWidth, cpu.DisplayHeight)
	}
	if g.dirty {
		g.screenImg.WritePixels(g.vm.Display.RGBA(g.cfg.Foreground, g.cfg.Background))
		g.dirty = false
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.cfg.Scale), float64(g.cfg.Scale))
	screen.DrawImage(g.screenImg, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.DisplayWidth * g.cfg.Scale, cpu.DisplayHeight * g.cfg.Scale
}

func main() {
	cfg := config.Default()
	fs := flag.NewFlagSet("desktop", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [options] <program.ch8|program.asm>\n", os.Args[0])
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	logger := config.CreateLogger(cfg.Debug, cfg.Quiet)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal(err.Error())
	}

	program, err := utils.LoadProgram(fs.Arg(0))
	if err != nil {
		logger.Fatal(err.Error())
	}

	var tone toneSink = mutedTone{}
	if !cfg.Mute {
		player, err := beep.NewPlayer(beep.DefaultSampleRate, cfg.ToneHz)
		if err != nil {
			logger.Warn("Audio unavailable, running muted", log.Err(err))
		} else {
			defer func() { _ = player.Close() }()
			tone = player
		}
	}

	vm, err := cpu.NewCPU(program,
		cpu.WithLogger(logger),
		cpu.WithToneStop(func() { tone.SetActive(false) }),
	)
	if err != nil {
		logger.Fatal(err.Error())
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cpu.DisplayWidth*cfg.Scale, cpu.DisplayHeight*cfg.Scale)
	ebiten.SetWindowTitle("gochip8 - " + fs.Arg(0))
	ebiten.SetTPS(config.FrameRate)

	game := newGame(vm, cfg, logger, tone)
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Error("Emulation stopped", log.Err(err))
		os.Exit(1)
	}
}
