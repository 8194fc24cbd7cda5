package main

import (
	"strings"

	"gochip8/pkg/cpu"
)

const (
	cursorHome  = "\x1b[H"
	clearScreen = "\x1b[2J"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
)

// halfBlocks is indexed by top<<1 | bottom.
var halfBlocks = [4]string{" ", "▄", "▀", "█"}

// renderFrame draws the display with two pixel rows per text line. Lines end
// in CRLF since the terminal is in raw mode.
func renderFrame(d *cpu.Display) string {
	var sb strings.Builder
	sb.Grow(cpu.DisplayHeight / 2 * (cpu.DisplayWidth*3 + 2))

	for y := 0; y < cpu.DisplayHeight; y += 2 {
		for x := range cpu.DisplayWidth {
			idx := 0
			if d.Pixel(x, y) {
				idx |= 2
			}
			if d.Pixel(x, y+1) {
				idx |= 1
			}
			sb.WriteString(halfBlocks[idx])
		}
		sb.WriteString("\r\n")
	}
	return sb.String()
}
