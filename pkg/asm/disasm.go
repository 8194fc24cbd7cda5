package asm

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"

	"gochip8/pkg/cpu"
)

var opMnemonics = map[cpu.Op]string{
	cpu.OpClearScreen:     mnemonic(chip8.ClsInst),
	cpu.OpReturn:          mnemonic(chip8.RetInst),
	cpu.OpJump:            mnemonic(chip8.JpInst),
	cpu.OpJumpPlus:        mnemonic(chip8.JpInst),
	cpu.OpCall:            mnemonic(chip8.CallInst),
	cpu.OpSkipEqualImm:    mnemonic(chip8.SeInst),
	cpu.OpSkipEqualReg:    mnemonic(chip8.SeInst),
	cpu.OpSkipNotEqualImm: mnemonic(chip8.SneInst),
	cpu.OpSkipNotEqualReg: mnemonic(chip8.SneInst),
	cpu.OpSetImm:          mnemonic(chip8.LdInst),
	cpu.OpSetReg:          mnemonic(chip8.LdInst),
	cpu.OpSetIndex:        mnemonic(chip8.LdInst),
	cpu.OpGetDelay:        mnemonic(chip8.LdInst),
	cpu.OpWaitKey:         mnemonic(chip8.LdInst),
	cpu.OpSetDelay:        mnemonic(chip8.LdInst),
	cpu.OpSetSound:        mnemonic(chip8.LdInst),
	cpu.OpSpriteAddr:      mnemonic(chip8.LdInst),
	cpu.OpBCD:             mnemonic(chip8.LdInst),
	cpu.OpDump:            mnemonic(chip8.LdInst),
	cpu.OpLoad:            mnemonic(chip8.LdInst),
	cpu.OpAddImm:          mnemonic(chip8.AddInst),
	cpu.OpAdd:             mnemonic(chip8.AddInst),
	cpu.OpAddIndex:        mnemonic(chip8.AddInst),
	cpu.OpOr:              mnemonic(chip8.OrInst),
	cpu.OpAnd:             mnemonic(chip8.AndInst),
	cpu.OpXor:             mnemonic(chip8.XorInst),
	cpu.OpSub:             mnemonic(chip8.SubInst),
	cpu.OpSubOpposite:     mnemonic(chip8.SubnInst),
	cpu.OpShiftRight:      mnemonic(chip8.ShrInst),
	cpu.OpShiftLeft:       mnemonic(chip8.ShlInst),
	cpu.OpRandAnd:         mnemonic(chip8.RndInst),
	cpu.OpDraw:            mnemonic(chip8.DrwInst),
	cpu.OpSkipKey:         mnemonic(chip8.SkpInst),
	cpu.OpSkipNotKey:      mnemonic(chip8.SknpInst),
}

// Line is one disassembled instruction word.
type Line struct {
	Address uint16
	Word    uint16
	Text    string
}

// Disassemble decodes program word by word as loaded at cpu.ProgramStart.
// Words that are not instructions become .WORD directives, so the listing
// reassembles to the same bytes. A trailing odd byte becomes a .BYTE.
func Disassemble(program []byte) []Line {
	lines := make([]Line, 0, len(program)/2+1)
	for i := 0; i+1 < len(program); i += 2 {
		word := uint16(program[i])<<8 | uint16(program[i+1])
		lines = append(lines, Line{
			Address: uint16(cpu.ProgramStart + i),
			Word:    word,
			Text:    formatWord(word),
		})
	}
	if len(program)%2 == 1 {
		last := program[len(program)-1]
		lines = append(lines, Line{
			Address: uint16(cpu.ProgramStart + len(program) - 1),
			Word:    uint16(last),
			Text:    fmt.Sprintf(".BYTE 0x%02X", last),
		})
	}
	return lines
}

func (l Line) String() string {
	return fmt.Sprintf("%03X: %04X  %s", l.Address, l.Word, l.Text)
}

func formatWord(word uint16) string {
	ins, err := cpu.Decode(word)
	if err != nil {
		return fmt.Sprintf(".WORD 0x%04X", word)
	}

	name := opMnemonics[ins.Op]
	vx := fmt.Sprintf("V%X", ins.X)
	vy := fmt.Sprintf("V%X", ins.Y)
	kk := fmt.Sprintf("0x%02X", ins.KK)
	nnn := fmt.Sprintf("0x%03X", ins.NNN)

	switch ins.Op {
	case cpu.OpClearScreen, cpu.OpReturn:
		return name
	case cpu.OpJump, cpu.OpCall:
		return name + " " + nnn
	case cpu.OpJumpPlus:
		return name + " V0, " + nnn
	case cpu.OpSkipEqualImm, cpu.OpSkipNotEqualImm, cpu.OpSetImm, cpu.OpAddImm, cpu.OpRandAnd:
		return name + " " + vx + ", " + kk
	case cpu.OpSkipEqualReg, cpu.OpSkipNotEqualReg, cpu.OpSetReg, cpu.OpOr, cpu.OpAnd,
		cpu.OpXor, cpu.OpAdd, cpu.OpSub, cpu.OpSubOpposite, cpu.OpShiftRight, cpu.OpShiftLeft:
		return name + " " + vx + ", " + vy
	case cpu.OpSetIndex:
		return name + " I, " + nnn
	case cpu.OpDraw:
		return fmt.Sprintf("%s %s, %s, %d", name, vx, vy, ins.N)
	case cpu.OpSkipKey, cpu.OpSkipNotKey:
		return name + " " + vx
	case cpu.OpGetDelay:
		return name + " " + vx + ", DT"
	case cpu.OpWaitKey:
		return name + " " + vx + ", K"
	case cpu.OpLoad:
		return name + " " + vx + ", [I]"
	case cpu.OpSetDelay:
		return name + " DT, " + vx
	case cpu.OpSetSound:
		return name + " ST, " + vx
	case cpu.OpAddIndex:
		return name + " I, " + vx
	case cpu.OpSpriteAddr:
		return name + " F, " + vx
	case cpu.OpBCD:
		return name + " B, " + vx
	case cpu.OpDump:
		return name + " [I], " + vx
	}
	return fmt.Sprintf(".WORD 0x%04X", word)
}
