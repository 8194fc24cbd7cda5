package cpu

import "fmt"

// Op identifies a decoded CHIP-8 operation.
type Op uint8

const (
	OpClearScreen      Op = iota // 00E0
	OpReturn                     // 00EE
	OpJump                       // 1nnn
	OpCall                       // 2nnn
	OpSkipEqualImm               // 3xkk
	OpSkipNotEqualImm            // 4xkk
	OpSkipEqualReg               // 5xy0
	OpSetImm                     // 6xkk
	OpAddImm                     // 7xkk
	OpSetReg                     // 8xy0
	OpOr                         // 8xy1
	OpAnd                        // 8xy2
	OpXor                        // 8xy3
	OpAdd                        // 8xy4
	OpSub                        // 8xy5
	OpShiftRight                 // 8xy6
	OpSubOpposite                // 8xy7
	OpShiftLeft                  // 8xyE
	OpSkipNotEqualReg            // 9xy0
	OpSetIndex                   // Annn
	OpJumpPlus                   // Bnnn
	OpRandAnd                    // Cxkk
	OpDraw                       // Dxyn
	OpSkipKey                    // Ex9E
	OpSkipNotKey                 // ExA1
	OpGetDelay                   // Fx07
	OpWaitKey                    // Fx0A
	OpSetDelay                   // Fx15
	OpSetSound                   // Fx18
	OpAddIndex                   // Fx1E
	OpSpriteAddr                 // Fx29
	OpBCD                        // Fx33
	OpDump                       // Fx55
	OpLoad                       // Fx65

	opCount
)

var opNames = [opCount]string{
	OpClearScreen:     "ClearScreen",
	OpReturn:          "Return",
	OpJump:            "Jump",
	OpCall:            "Call",
	OpSkipEqualImm:    "SkipEqualImm",
	OpSkipNotEqualImm: "SkipNotEqualImm",
	OpSkipEqualReg:    "SkipEqualReg",
	OpSetImm:          "SetImm",
	OpAddImm:          "AddImm",
	OpSetReg:          "SetReg",
	OpOr:              "Or",
	OpAnd:             "And",
	OpXor:             "Xor",
	OpAdd:             "Add",
	OpSub:             "Sub",
	OpShiftRight:      "ShiftRight",
	OpSubOpposite:     "SubOpposite",
	OpShiftLeft:       "ShiftLeft",
	OpSkipNotEqualReg: "SkipNotEqualReg",
	OpSetIndex:        "SetIndex",
	OpJumpPlus:        "JumpPlus",
	OpRandAnd:         "RandAnd",
	OpDraw:            "Draw",
	OpSkipKey:         "SkipKey",
	OpSkipNotKey:      "SkipNotKey",
	OpGetDelay:        "GetDelay",
	OpWaitKey:         "WaitKey",
	OpSetDelay:        "SetDelay",
	OpSetSound:        "SetSound",
	OpAddIndex:        "AddIndex",
	OpSpriteAddr:      "SpriteAddr",
	OpBCD:             "BCD",
	OpDump:            "Dump",
	OpLoad:            "Load",
}

func (o Op) String() string {
	if o < opCount {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Instruction is a decoded instruction word. Operand fields not used by Op
// are still extracted but carry no meaning.
type Instruction struct {
	Op   Op
	Word uint16
	X    uint8  // register index, bits 8-11
	Y    uint8  // register index, bits 4-7
	N    uint8  // nibble, bits 0-3
	KK   uint8  // immediate byte, bits 0-7
	NNN  uint16 // address, bits 0-11
}

type rule struct {
	mask  uint16
	value uint16
	op    Op
}

// rules is ordered from the most specific mask to the least specific one.
// Decode takes the first match, so a coarse mask must never precede a finer
// mask covering the same bit pattern.
var rules = [...]rule{
	{0xFFFF, 0x00E0, OpClearScreen},
	{0xFFFF, 0x00EE, OpReturn},

	{0xF0FF, 0xE09E, OpSkipKey},
	{0xF0FF, 0xE0A1, OpSkipNotKey},
	{0xF0FF, 0xF007, OpGetDelay},
	{0xF0FF, 0xF00A, OpWaitKey},
	{0xF0FF, 0xF015, OpSetDelay},
	{0xF0FF, 0xF018, OpSetSound},
	{0xF0FF, 0xF01E, OpAddIndex},
	{0xF0FF, 0xF029, OpSpriteAddr},
	{0xF0FF, 0xF033, OpBCD},
	{0xF0FF, 0xF055, OpDump},
	{0xF0FF, 0xF065, OpLoad},

	{0xF00F, 0x5000, OpSkipEqualReg},
	{0xF00F, 0x8000, OpSetReg},
	{0xF00F, 0x8001, OpOr},
	{0xF00F, 0x8002, OpAnd},
	{0xF00F, 0x8003, OpXor},
	{0xF00F, 0x8004, OpAdd},
	{0xF00F, 0x8005, OpSub},
	{0xF00F, 0x8006, OpShiftRight},
	{0xF00F, 0x8007, OpSubOpposite},
	{0xF00F, 0x800E, OpShiftLeft},
	{0xF00F, 0x9000, OpSkipNotEqualReg},

	{0xF000, 0x1000, OpJump},
	{0xF000, 0x2000, OpCall},
	{0xF000, 0x3000, OpSkipEqualImm},
	{0xF000, 0x4000, OpSkipNotEqualImm},
	{0xF000, 0x6000, OpSetImm},
	{0xF000, 0x7000, OpAddImm},
	{0xF000, 0xA000, OpSetIndex},
	{0xF000, 0xB000, OpJumpPlus},
	{0xF000, 0xC000, OpRandAnd},
	{0xF000, 0xD000, OpDraw},
}

// Decode maps an instruction word to its operation. Unknown words return an
// *UnrecognizedInstructionError carrying the word.
func Decode(word uint16) (Instruction, error) {
	for _, r := range rules {
		if word&r.mask == r.value {
			return fields(word, r.op), nil
		}
	}
	return Instruction{Word: word}, &UnrecognizedInstructionError{Word: word}
}

func fields(word uint16, op Op) Instruction {
	return Instruction{
		Op:   op,
		Word: word,
		X:    uint8(word>>8) & 0x0F,
		Y:    uint8(word>>4) & 0x0F,
		N:    uint8(word) & 0x0F,
		KK:   uint8(word),
		NNN:  word & 0x0FFF,
	}
}

// EncodeInstruction assembles an instruction word from its prefix nibble and
// operand fields. Fields are masked to their widths.
func EncodeInstruction(prefix uint16, x, y, n uint8) uint16 {
	return (prefix&0xF)<<12 | uint16(x&0xF)<<8 | uint16(y&0xF)<<4 | uint16(n&0xF)
}
