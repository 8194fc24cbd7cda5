package cpu

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"gochip8/pkg/grid"
)

const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

// Display is the 64×32 monochrome framebuffer. Only the CPU mutates it.
type Display struct {
	cells [DisplayHeight][DisplayWidth]uint8
}

// Pixel reports whether the pixel at (x, y) is lit. Out of range
// coordinates report false.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || x >= DisplayWidth || y < 0 || y >= DisplayHeight {
		return false
	}
	return d.cells[y][x] != 0
}

// Rows returns a copy of the framebuffer as 0/1 cells.
func (d *Display) Rows() [DisplayHeight][DisplayWidth]uint8 {
	return d.cells
}

func (d *Display) clear() {
	d.cells = [DisplayHeight][DisplayWidth]uint8{}
}

// toggle flips the pixel at (x, y), wrapped onto the display, and reports
// whether a lit pixel was turned off.
func (d *Display) toggle(x, y int) bool {
	x = grid.Wrap(x, DisplayWidth)
	y = grid.Wrap(y, DisplayHeight)
	erased := d.cells[y][x] == 1
	d.cells[y][x] ^= 1
	return erased
}

// RGBA decodes the framebuffer into a 64×32 RGBA8888 byte slice, lit pixels
// in fg and unlit pixels in bg.
func (d *Display) RGBA(fg, bg color.RGBA) []byte {
	pixels := make([]byte, DisplayWidth*DisplayHeight*4)
	for i := range DisplayWidth * DisplayHeight {
		x, y := grid.GetGridCoords(i, DisplayWidth)
		c := bg
		if d.cells[y][x] != 0 {
			c = fg
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
	return pixels
}

// Image returns the framebuffer as an *image.RGBA.
func (d *Display) Image(fg, bg color.RGBA) *image.RGBA {
	return &image.RGBA{
		Pix:    d.RGBA(fg, bg),
		Stride: DisplayWidth * 4,
		Rect:   image.Rect(0, 0, DisplayWidth, DisplayHeight),
	}
}

// WritePNG encodes the framebuffer scaled by scale as a PNG.
func (d *Display) WritePNG(w io.Writer, scale int, fg, bg color.RGBA) error {
	if scale < 1 {
		scale = 1
	}
	src := d.Image(fg, bg)
	dst := image.NewRGBA(image.Rect(0, 0, DisplayWidth*scale, DisplayHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return png.Encode(w, dst)
}

// SaveScreenshot writes the framebuffer as a PNG to filename.
func (d *Display) SaveScreenshot(filename string, scale int, fg, bg color.RGBA) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := d.WritePNG(f, scale, fg, bg); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
