package cpu

import (
	"bytes"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

var (
	testFG = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	testBG = color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}
)

func TestDisplayToggle(t *testing.T) {
	var d Display

	assert.False(t, d.toggle(3, 4))
	assert.True(t, d.Pixel(3, 4))
	assert.True(t, d.toggle(3, 4))
	assert.False(t, d.Pixel(3, 4))

	// wrapped coordinates address the same cell
	d.toggle(DisplayWidth+3, DisplayHeight+4)
	assert.True(t, d.Pixel(3, 4))

	assert.False(t, d.Pixel(-1, 0))
	assert.False(t, d.Pixel(DisplayWidth, 0))

	d.clear()
	assert.False(t, d.Pixel(3, 4))
}

func TestDisplayRGBA(t *testing.T) {
	var d Display
	d.toggle(1, 0)
	d.toggle(63, 31)

	pixels := d.RGBA(testFG, testBG)
	assert.Equal(t, DisplayWidth*DisplayHeight*4, len(pixels))

	assert.Equal(t, []byte{0x10, 0x20, 0x30, 0xFF}, pixels[0:4])
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, pixels[4:8])
	last := (DisplayWidth*DisplayHeight - 1) * 4
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, pixels[last:last+4])
}

func TestDisplayWritePNG(t *testing.T) {
	var d Display
	d.toggle(2, 1)

	var buf bytes.Buffer
	assert.NoError(t, d.WritePNG(&buf, 4, testFG, testBG))

	img, err := png.Decode(&buf)
	assert.NoError(t, err)
	assert.Equal(t, DisplayWidth*4, img.Bounds().Dx())
	assert.Equal(t, DisplayHeight*4, img.Bounds().Dy())

	r, _, _, _ := img.At(9, 5).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	r, _, _, _ = img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0x1010), r)
}

func TestDisplaySaveScreenshot(t *testing.T) {
	var d Display
	d.toggle(0, 0)

	path := filepath.Join(t.TempDir(), "screen.png")
	assert.NoError(t, d.SaveScreenshot(path, 1, testFG, testBG))

	err := d.SaveScreenshot(filepath.Join(t.TempDir(), "missing", "screen.png"), 1, testFG, testBG)
	assert.Error(t, err)
}
