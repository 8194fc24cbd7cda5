// Package asm implements a two-pass assembler for CHIP-8 programs using the
// conventional mnemonics (CLS, LD Vx, byte, DRW Vx, Vy, n, ...).
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"

	"gochip8/pkg/cpu"
)

// encoder builds the instruction word for one mnemonic from its operands.
type encoder func(a *Assembler, ops []string, lineNo int) (uint16, error)

var instructions = map[string]encoder{
	mnemonic(chip8.ClsInst):  fixed(0x00E0),
	mnemonic(chip8.RetInst):  fixed(0x00EE),
	mnemonic(chip8.JpInst):   encodeJump,
	mnemonic(chip8.CallInst): addressOp(0x2),
	mnemonic(chip8.SeInst):   skipOp(0x3, 0x5),
	mnemonic(chip8.SneInst):  skipOp(0x4, 0x9),
	mnemonic(chip8.LdInst):   encodeLoad,
	mnemonic(chip8.AddInst):  encodeAdd,
	mnemonic(chip8.OrInst):   registerPairOp(0x1),
	mnemonic(chip8.AndInst):  registerPairOp(0x2),
	mnemonic(chip8.XorInst):  registerPairOp(0x3),
	mnemonic(chip8.SubInst):  registerPairOp(0x5),
	mnemonic(chip8.SubnInst): registerPairOp(0x7),
	mnemonic(chip8.ShrInst):  shiftOp(0x6),
	mnemonic(chip8.ShlInst):  shiftOp(0xE),
	mnemonic(chip8.RndInst):  encodeRandom,
	mnemonic(chip8.DrwInst):  encodeDraw,
	mnemonic(chip8.SkpInst):  keyOp(0x9E),
	mnemonic(chip8.SknpInst): keyOp(0xA1),
}

func mnemonic(ins *chip8.Instruction) string {
	return strings.ToUpper(ins.Name)
}

type Assembler struct {
	labels map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

// Assemble translates source into a program image meant to be loaded at
// cpu.ProgramStart. The returned source map is keyed by absolute address.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

// Assemble translates code with a fresh label table, so one Assembler can
// be reused across sources.
func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	a.labels = make(map[string]uint16)
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

func (a *Assembler) pass1(lines []string) error {
	address := uint32(cpu.ProgramStart)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		if p.mnemonic == ".ORG" {
			target, err := parseOrigin(p.operands, lineNo)
			if err != nil {
				return err
			}
			if target < address {
				return fmt.Errorf("cannot move origin backward on line %d", lineNo)
			}
			address = target
			continue
		}

		length, err := directiveLength(p)
		if err != nil {
			return err
		}
		if length == 0 {
			l, ok := instructionLength(p.mnemonic)
			if !ok {
				return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
			}
			length = uint32(l)
		}

		if address+length > cpu.MemorySize {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
		address += length
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		mnemonic := p.mnemonic
		ops := p.operands

		if mnemonic == ".ORG" {
			target, err := parseOrigin(ops, lineNo)
			if err != nil {
				return nil, nil, err
			}
			padding := int(target) - cpu.ProgramStart - len(program)
			if padding < 0 {
				return nil, nil, fmt.Errorf("cannot move origin backward on line %d", lineNo)
			}
			if padding > 0 {
				program = append(program, make([]byte, padding)...)
			}
			continue
		}

		sourceMap[uint16(cpu.ProgramStart+len(program))] = lineNo

		if mnemonic == ".BYTE" {
			for _, op := range ops {
				val, err := a.parseValue(op, 0xFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val))
			}
			continue
		}

		if mnemonic == ".WORD" {
			val, err := a.parseValue(ops[0], 0xFFFF, lineNo)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, byte(val>>8), byte(val&0xFF))
			continue
		}

		encode, ok := instructions[mnemonic]
		if !ok {
			return nil, nil, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
		}
		word, err := encode(a, ops, lineNo)
		if err != nil {
			return nil, nil, err
		}
		program = append(program, byte(word>>8), byte(word&0xFF))
	}

	if len(program) > cpu.MaxProgram {
		return nil, nil, fmt.Errorf("%w: %d bytes", cpu.ErrProgramTooLarge, len(program))
	}
	return program, sourceMap, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	line = normalizeInstructionText(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

// normalizeInstructionText turns operand separators into whitespace. The
// [I] operand keeps its brackets to stay distinct from I.
func normalizeInstructionText(line string) string {
	return strings.ReplaceAll(line, ",", " ")
}

func parseOrigin(ops []string, lineNo int) (uint32, error) {
	if len(ops) != 1 {
		return 0, fmt.Errorf(".ORG expects exactly one operand on line %d", lineNo)
	}
	target, err := strconv.ParseUint(ops[0], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid .ORG value on line %d: %s", lineNo, ops[0])
	}
	if target < cpu.ProgramStart || target >= cpu.MemorySize {
		return 0, fmt.Errorf(".ORG out of range on line %d: %s", lineNo, ops[0])
	}
	return uint32(target), nil
}

// directiveLength returns the size of a data directive, or 0 for
// instructions.
func directiveLength(p parsedLine) (uint32, error) {
	switch p.mnemonic {
	case ".BYTE":
		if len(p.operands) == 0 {
			return 0, fmt.Errorf(".BYTE expects at least one operand on line %d", p.lineNo)
		}
		return uint32(len(p.operands)), nil
	case ".WORD":
		if len(p.operands) != 1 {
			return 0, fmt.Errorf(".WORD expects exactly one operand on line %d", p.lineNo)
		}
		return 2, nil
	}
	return 0, nil
}

// instructionLength returns the byte length of an instruction. Every
// CHIP-8 instruction is one 16-bit word.
func instructionLength(mnemonic string) (uint16, bool) {
	if _, ok := instructions[strings.ToUpper(mnemonic)]; ok {
		return 2, true
	}
	return 0, false
}

// parseRegister accepts V0-VF in either case.
func parseRegister(token string, lineNo int) (uint8, error) {
	if len(token) == 2 && (token[0] == 'V' || token[0] == 'v') {
		if n, err := strconv.ParseUint(token[1:], 16, 8); err == nil {
			return uint8(n), nil
		}
	}
	return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
}

func isRegister(token string) bool {
	_, err := parseRegister(token, 0)
	return err == nil
}

// parseValue resolves a numeric literal or label and checks it against max.
func (a *Assembler) parseValue(token string, maxValue uint16, lineNo int) (uint16, error) {
	if value, err := strconv.ParseUint(token, 0, 32); err == nil {
		if value > uint64(maxValue) {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	label := normalizeLabel(token)
	if addr, ok := a.labels[label]; ok {
		if addr > maxValue {
			return 0, fmt.Errorf("label '%s' out of range on line %d", token, lineNo)
		}
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
}

func expectOperands(name string, ops []string, n, lineNo int) error {
	if len(ops) != n {
		return fmt.Errorf("%s expects %d operands on line %d", name, n, lineNo)
	}
	return nil
}

func encodeXKK(prefix uint16, x uint8, kk uint16) uint16 {
	return prefix<<12 | uint16(x)<<8 | kk&0xFF
}

func encodeNNN(prefix, nnn uint16) uint16 {
	return prefix<<12 | nnn&0x0FFF
}

func fixed(word uint16) encoder {
	return func(_ *Assembler, ops []string, lineNo int) (uint16, error) {
		if len(ops) != 0 {
			return 0, fmt.Errorf("instruction expects 0 operands on line %d", lineNo)
		}
		return word, nil
	}
}

func addressOp(prefix uint16) encoder {
	return func(a *Assembler, ops []string, lineNo int) (uint16, error) {
		if err := expectOperands("instruction", ops, 1, lineNo); err != nil {
			return 0, err
		}
		addr, err := a.parseValue(ops[0], 0x0FFF, lineNo)
		if err != nil {
			return 0, err
		}
		return encodeNNN(prefix, addr), nil
	}
}

// encodeJump handles JP addr and JP V0, addr.
func encodeJump(a *Assembler, ops []string, lineNo int) (uint16, error) {
	if len(ops) == 2 {
		reg, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if reg != 0 {
			return 0, fmt.Errorf("JP offset register must be V0 on line %d", lineNo)
		}
		return addressOp(0xB)(a, ops[1:], lineNo)
	}
	return addressOp(0x1)(a, ops, lineNo)
}

// skipOp encodes SE/SNE against either a byte or a second register.
func skipOp(immPrefix, regPrefix uint16) encoder {
	return func(a *Assembler, ops []string, lineNo int) (uint16, error) {
		if err := expectOperands("skip", ops, 2, lineNo); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if isRegister(ops[1]) {
			y, _ := parseRegister(ops[1], lineNo)
			return cpu.EncodeInstruction(regPrefix, x, y, 0), nil
		}
		kk, err := a.parseValue(ops[1], 0xFF, lineNo)
		if err != nil {
			return 0, err
		}
		return encodeXKK(immPrefix, x, kk), nil
	}
}

func registerPairOp(n uint8) encoder {
	return func(_ *Assembler, ops []string, lineNo int) (uint16, error) {
		if err := expectOperands("instruction", ops, 2, lineNo); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		y, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return cpu.EncodeInstruction(0x8, x, y, n), nil
	}
}

// shiftOp accepts SHR Vx and SHR Vx, Vy. Vy is encoded but not read.
func shiftOp(n uint8) encoder {
	return func(_ *Assembler, ops []string, lineNo int) (uint16, error) {
		if len(ops) != 1 && len(ops) != 2 {
			return 0, fmt.Errorf("shift expects 1 or 2 operands on line %d", lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		var y uint8
		if len(ops) == 2 {
			if y, err = parseRegister(ops[1], lineNo); err != nil {
				return 0, err
			}
		}
		return cpu.EncodeInstruction(0x8, x, y, n), nil
	}
}

func keyOp(kk uint16) encoder {
	return func(_ *Assembler, ops []string, lineNo int) (uint16, error) {
		if err := expectOperands("key skip", ops, 1, lineNo); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		return encodeXKK(0xE, x, kk), nil
	}
}

func encodeRandom(a *Assembler, ops []string, lineNo int) (uint16, error) {
	if err := expectOperands("RND", ops, 2, lineNo); err != nil {
		return 0, err
	}
	x, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return 0, err
	}
	kk, err := a.parseValue(ops[1], 0xFF, lineNo)
	if err != nil {
		return 0, err
	}
	return encodeXKK(0xC, x, kk), nil
}

func encodeDraw(a *Assembler, ops []string, lineNo int) (uint16, error) {
	if err := expectOperands("DRW", ops, 3, lineNo); err != nil {
		return 0, err
	}
	x, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return 0, err
	}
	y, err := parseRegister(ops[1], lineNo)
	if err != nil {
		return 0, err
	}
	n, err := a.parseValue(ops[2], 0xF, lineNo)
	if err != nil {
		return 0, err
	}
	return cpu.EncodeInstruction(0xD, x, y, uint8(n)), nil
}

func encodeAdd(a *Assembler, ops []string, lineNo int) (uint16, error) {
	if err := expectOperands("ADD", ops, 2, lineNo); err != nil {
		return 0, err
	}
	if strings.EqualFold(ops[0], "I") {
		x, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return encodeXKK(0xF, x, 0x1E), nil
	}
	x, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return 0, err
	}
	if isRegister(ops[1]) {
		y, _ := parseRegister(ops[1], lineNo)
		return cpu.EncodeInstruction(0x8, x, y, 0x4), nil
	}
	kk, err := a.parseValue(ops[1], 0xFF, lineNo)
	if err != nil {
		return 0, err
	}
	return encodeXKK(0x7, x, kk), nil
}

// loadTargets maps LD's special first operands to the Fx?? low byte taking
// Vx as the second operand.
var loadTargets = map[string]uint16{
	"DT":  0x15,
	"ST":  0x18,
	"F":   0x29,
	"B":   0x33,
	"[I]": 0x55,
}

// loadSources maps LD Vx's special second operands to their Fx?? low byte.
var loadSources = map[string]uint16{
	"DT":  0x07,
	"K":   0x0A,
	"[I]": 0x65,
}

func encodeLoad(a *Assembler, ops []string, lineNo int) (uint16, error) {
	if err := expectOperands("LD", ops, 2, lineNo); err != nil {
		return 0, err
	}
	dst := strings.ToUpper(ops[0])
	src := strings.ToUpper(ops[1])

	if dst == "I" {
		addr, err := a.parseValue(ops[1], 0x0FFF, lineNo)
		if err != nil {
			return 0, err
		}
		return encodeNNN(0xA, addr), nil
	}
	if kk, ok := loadTargets[dst]; ok {
		x, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return 0, err
		}
		return encodeXKK(0xF, x, kk), nil
	}

	x, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return 0, err
	}
	if kk, ok := loadSources[src]; ok {
		return encodeXKK(0xF, x, kk), nil
	}
	if isRegister(ops[1]) {
		y, _ := parseRegister(ops[1], lineNo)
		return cpu.EncodeInstruction(0x8, x, y, 0x0), nil
	}
	kk, err := a.parseValue(ops[1], 0xFF, lineNo)
	if err != nil {
		return 0, err
	}
	return encodeXKK(0x6, x, kk), nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
