package cpu

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedInstruction matches decode failures via errors.Is.
	ErrUnrecognizedInstruction = errors.New("unrecognized instruction")
	// ErrOutOfBounds matches stack and memory range violations via errors.Is.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrProgramTooLarge is returned when a program does not fit above ProgramStart.
	ErrProgramTooLarge = errors.New("program too large")
)

// UnrecognizedInstructionError reports a word that matched no decode rule.
type UnrecognizedInstructionError struct {
	Word uint16
}

func (e *UnrecognizedInstructionError) Error() string {
	return fmt.Sprintf("unrecognized instruction %04x", e.Word)
}

func (e *UnrecognizedInstructionError) Is(target error) bool {
	return target == ErrUnrecognizedInstruction
}

// OutOfBoundsError reports an access outside memory or the call stack.
type OutOfBoundsError struct {
	Op   string // what was being accessed, e.g. "stack overflow", "dump"
	Addr int    // offending address or stack index
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: address %#04x out of bounds", e.Op, e.Addr)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}
