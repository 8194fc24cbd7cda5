package asm

import (
	"testing"
)

func TestAssembleSourceMap(t *testing.T) {
	code := `
; Line 1: Comment
LD V0, 10       ; Line 3: Instruction (2 bytes at 0x200)
                ; Line 4: Empty
LABEL:          ; Line 5: Label
ADD V0, V1      ; Line 6: Instruction (0x202)
.ORG 0x210      ; Line 7: ORG (padding up to 0x210)
CLS             ; Line 8: Instruction (0x210)
.BYTE 1, 2, 3   ; Line 9: Data (3 bytes at 0x212)
`
	// Expected sourceMap:
	// 0x200 -> 3  (LD)
	// 0x202 -> 6  (ADD, also where LABEL points)
	// 0x210 -> 8  (CLS)
	// 0x212 -> 9  (.BYTE)

	program, sourceMap, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(program) != 0x15 {
		t.Errorf("len(program) = %d; want %d", len(program), 0x15)
	}

	tests := []struct {
		addr uint16
		line int
	}{
		{0x200, 3},
		{0x202, 6},
		{0x210, 8},
		{0x212, 9},
	}

	for _, tc := range tests {
		if got := sourceMap[tc.addr]; got != tc.line {
			t.Errorf("sourceMap[0x%04X] = %d; want %d", tc.addr, got, tc.line)
		}
	}
	if len(sourceMap) != len(tests) {
		t.Errorf("len(sourceMap) = %d; want %d", len(sourceMap), len(tests))
	}
}
