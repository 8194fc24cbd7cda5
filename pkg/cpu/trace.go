package cpu

import (
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
	"github.com/retroenv/retrogolib/log"
)

// Mnemonic returns the assembler name of word, or an empty string if the
// word is not a known instruction.
func Mnemonic(word uint16) string {
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if word&op.Info.Mask == op.Info.Value && op.Instruction != nil {
			return op.Instruction.Name
		}
	}
	return ""
}

func (c *CPU) trace(ins Instruction) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("Executing instruction",
		log.Hex("pc", c.PC),
		log.Hex("opcode", ins.Word),
		log.String("mnemonic", Mnemonic(ins.Word)),
		log.Stringer("op", ins.Op))
}
