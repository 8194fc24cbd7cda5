package cpu

import (
	"fmt"
	"math/rand/v2"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/keypad"
)

const (
	MemorySize   = 4096
	ProgramStart = 0x200
	MaxProgram   = MemorySize - ProgramStart
	NumRegisters = 16
	StackDepth   = 16

	// RegFlag is VF, overwritten by carry, borrow, shift and collision results.
	RegFlag = 0xF
)

// RunState is the engine's position in the key-wait state machine.
type RunState uint8

const (
	// StateFetching executes one instruction per Step.
	StateFetching RunState = iota
	// StateAwaitingKey polls the keypad once per Step until a key is down.
	StateAwaitingKey
)

func (s RunState) String() string {
	if s == StateAwaitingKey {
		return "AwaitingKey"
	}
	return "Fetching"
}

// Keypad is the input snapshot supplied to each Step.
type Keypad interface {
	// PressedKey returns the logical code of a held key, if any.
	PressedKey() (uint8, bool)
}

// CycleResult describes the outcome of one Step.
type CycleResult struct {
	// DisplayChanged is set when the cycle cleared or drew to the display.
	DisplayChanged bool
	// ToneStopped is set when the sound timer reached zero this cycle.
	ToneStopped bool
	// Display is the current framebuffer. It stays owned by the CPU.
	Display *Display
}

type CPU struct {
	V     [NumRegisters]uint8
	I     uint16
	PC    uint16
	SP    uint16
	Stack [StackDepth]uint16

	Memory [MemorySize]byte

	DelayTimer uint8
	SoundTimer uint8

	Display Display

	State        RunState
	WaitRegister uint8

	program    []byte
	logger     *log.Logger
	rng        *rand.Rand
	onToneStop func()
}

// Option configures a CPU at construction.
type Option func(*CPU)

// WithLogger enables debug tracing through logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *CPU) { c.logger = logger }
}

// WithRandom sets the source used by the RND instruction.
func WithRandom(rng *rand.Rand) Option {
	return func(c *CPU) { c.rng = rng }
}

// WithToneStop registers fn to be called when the sound timer reaches zero.
func WithToneStop(fn func()) Option {
	return func(c *CPU) { c.onToneStop = fn }
}

// NewCPU creates a machine with the font at address 0 and program copied to
// ProgramStart.
func NewCPU(program []byte, opts ...Option) (*CPU, error) {
	if len(program) > MaxProgram {
		return nil, fmt.Errorf("%w: %d bytes, at most %d fit", ErrProgramTooLarge, len(program), MaxProgram)
	}

	c := &CPU{
		program: append([]byte(nil), program...),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	c.Reset()
	return c, nil
}

// Reset restores the state the machine had right after construction.
func (c *CPU) Reset() {
	c.V = [NumRegisters]uint8{}
	c.I = 0
	c.PC = ProgramStart
	c.SP = 0
	c.Stack = [StackDepth]uint16{}
	c.Memory = [MemorySize]byte{}
	copy(c.Memory[:], font[:])
	copy(c.Memory[ProgramStart:], c.program)
	c.DelayTimer = 0
	c.SoundTimer = 0
	c.Display.clear()
	c.State = StateFetching
	c.WaitRegister = 0
}

func (c *CPU) result(changed, toneStopped bool) CycleResult {
	return CycleResult{
		DisplayChanged: changed,
		ToneStopped:    toneStopped,
		Display:        &c.Display,
	}
}

// Step runs one cycle: a key-wait poll while awaiting a key, otherwise one
// fetched, decoded and executed instruction. Any returned error is fatal for
// the run. A faulting cycle leaves the machine untouched, timers included.
func (c *CPU) Step(keys Keypad) (CycleResult, error) {
	if c.State == StateAwaitingKey {
		key, ok, err := pressedKey(keys)
		if err != nil {
			return c.result(false, false), err
		}
		if ok {
			c.V[c.WaitRegister] = key
			c.State = StateFetching
			if c.logger != nil {
				c.logger.Debug("Key wait released", log.Uint8("register", c.WaitRegister), log.Hex("key", key))
			}
		}
		return c.result(false, false), nil
	}

	word, err := c.fetch()
	if err != nil {
		return c.result(false, false), err
	}
	ins, err := Decode(word)
	if err != nil {
		return c.result(false, false), fmt.Errorf("decoding at %04x: %w", c.PC, err)
	}
	c.trace(ins)

	if err := c.fault(ins, keys); err != nil {
		return c.result(false, false), err
	}
	toneStopped := c.tickTimers()
	changed := c.execute(ins, keys)
	return c.result(changed, toneStopped), nil
}

func (c *CPU) fetch() (uint16, error) {
	if int(c.PC)+1 >= MemorySize {
		return 0, &OutOfBoundsError{Op: "fetch", Addr: int(c.PC)}
	}
	return uint16(c.Memory[c.PC])<<8 | uint16(c.Memory[c.PC+1]), nil
}

func (c *CPU) tickTimers() bool {
	if c.DelayTimer > 0 {
		c.DelayTimer--
	}
	if c.SoundTimer == 0 {
		return false
	}
	c.SoundTimer--
	if c.SoundTimer != 0 {
		return false
	}
	if c.logger != nil {
		c.logger.Debug("Tone stopped")
	}
	if c.onToneStop != nil {
		c.onToneStop()
	}
	return true
}

// checkRange verifies that length bytes starting at addr lie in memory.
func checkRange(op string, addr uint16, length int) error {
	if int(addr)+length > MemorySize {
		return &OutOfBoundsError{Op: op, Addr: int(addr) + length - 1}
	}
	return nil
}

// checkWrite is checkRange for stores, which must also stay clear of the
// glyph table.
func checkWrite(op string, addr uint16, length int) error {
	if int(addr) < len(font) {
		return &OutOfBoundsError{Op: op + " into font", Addr: int(addr)}
	}
	return checkRange(op, addr, length)
}

// fault reports the error ins would raise against the current state,
// before anything is modified.
func (c *CPU) fault(ins Instruction, keys Keypad) error {
	switch ins.Op {
	case OpReturn:
		if c.SP == 0 {
			return &OutOfBoundsError{Op: "stack underflow", Addr: -1}
		}
	case OpCall:
		if c.SP >= StackDepth {
			return &OutOfBoundsError{Op: "stack overflow", Addr: int(c.SP)}
		}
	case OpSkipKey, OpSkipNotKey:
		_, _, err := pressedKey(keys)
		return err
	case OpDraw:
		return checkRange("draw", c.I, int(ins.N))
	case OpAddIndex:
		if sum := int(c.I) + int(c.V[ins.X]); sum > 0xFFFF {
			return &OutOfBoundsError{Op: "add index", Addr: sum}
		}
	case OpBCD:
		return checkWrite("bcd", c.I, 3)
	case OpDump:
		return checkWrite("dump", c.I, int(ins.X)+1)
	case OpLoad:
		return checkRange("load", c.I, int(ins.X)+1)
	}
	return nil
}

func pressedKey(keys Keypad) (uint8, bool, error) {
	if keys == nil {
		return 0, false, nil
	}
	key, ok := keys.PressedKey()
	if !ok {
		return 0, false, nil
	}
	if key >= keypad.NumKeys {
		return 0, false, fmt.Errorf("%w: %#x", keypad.ErrUnknownInputCode, key)
	}
	return key, true, nil
}

// execute applies ins and advances PC unless ins transfers control itself.
// fault has already vetted ins.
func (c *CPU) execute(ins Instruction, keys Keypad) bool {
	x, y := ins.X, ins.Y
	changed := false

	switch ins.Op {
	case OpClearScreen:
		c.Display.clear()
		changed = true

	case OpReturn:
		c.SP--
		c.PC = c.Stack[c.SP]
		return false

	case OpJump:
		c.PC = ins.NNN
		return false

	case OpCall:
		c.Stack[c.SP] = c.PC + 2
		c.SP++
		c.PC = ins.NNN
		return false

	case OpJumpPlus:
		c.PC = ins.NNN + uint16(c.V[0])
		return false

	case OpSkipEqualImm:
		c.skipIf(c.V[x] == ins.KK)

	case OpSkipNotEqualImm:
		c.skipIf(c.V[x] != ins.KK)

	case OpSkipEqualReg:
		c.skipIf(c.V[x] == c.V[y])

	case OpSkipNotEqualReg:
		c.skipIf(c.V[x] != c.V[y])

	case OpSkipKey, OpSkipNotKey:
		key, ok, _ := pressedKey(keys)
		held := ok && key == c.V[x]
		c.skipIf(held == (ins.Op == OpSkipKey))

	case OpSetImm:
		c.V[x] = ins.KK

	case OpAddImm:
		c.V[x] += ins.KK

	case OpSetReg:
		c.V[x] = c.V[y]

	case OpOr:
		c.V[x] |= c.V[y]

	case OpAnd:
		c.V[x] &= c.V[y]

	case OpXor:
		c.V[x] ^= c.V[y]

	case OpAdd:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[RegFlag] = boolToFlag(sum > 0xFF)
		c.V[x] = uint8(sum)

	case OpSub:
		vx, vy := c.V[x], c.V[y]
		c.V[RegFlag] = boolToFlag(vx > vy)
		c.V[x] = vx - vy

	case OpSubOpposite:
		vx, vy := c.V[x], c.V[y]
		c.V[RegFlag] = boolToFlag(vy > vx)
		c.V[x] = vy - vx

	case OpShiftRight:
		vx := c.V[x]
		c.V[RegFlag] = vx & 0x01
		c.V[x] = vx >> 1

	case OpShiftLeft:
		vx := c.V[x]
		c.V[RegFlag] = vx >> 7
		c.V[x] = vx << 1

	case OpSetIndex:
		c.I = ins.NNN

	case OpRandAnd:
		c.V[x] = uint8(c.rng.UintN(256)) & ins.KK

	case OpDraw:
		c.draw(c.V[x], c.V[y], ins.N)
		changed = true

	case OpGetDelay:
		c.V[x] = c.DelayTimer

	case OpSetDelay:
		c.DelayTimer = c.V[x]

	case OpSetSound:
		c.SoundTimer = c.V[x]

	case OpWaitKey:
		c.State = StateAwaitingKey
		c.WaitRegister = x
		if c.logger != nil {
			c.logger.Debug("Waiting for key", log.Uint8("register", x))
		}

	case OpAddIndex:
		c.I += uint16(c.V[x])

	case OpSpriteAddr:
		c.I = uint16(c.V[x]) * GlyphSize

	case OpBCD:
		v := c.V[x]
		c.Memory[c.I] = v / 100
		c.Memory[c.I+1] = v / 10 % 10
		c.Memory[c.I+2] = v % 10

	case OpDump:
		copy(c.Memory[c.I:], c.V[:x+1])

	case OpLoad:
		copy(c.V[:x+1], c.Memory[c.I:])
	}

	c.PC += 2
	return changed
}

// skipIf skips the following instruction when cond holds. The regular
// advance still follows in execute.
func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC += 2
	}
}

// draw XORs an n-row sprite from I onto the display at (vx, vy). Pixel
// coordinates wrap around the display edges. VF reports whether any lit
// pixel was erased.
func (c *CPU) draw(vx, vy, n uint8) {
	c.V[RegFlag] = 0
	for row := range int(n) {
		bits := c.Memory[int(c.I)+row]
		for col := range 8 {
			if bits&(0x80>>col) == 0 {
				continue
			}
			if c.Display.toggle(int(vx)+col, int(vy)+row) {
				c.V[RegFlag] = 1
			}
		}
	}
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
