// Package preview draws a small terminal thumbnail of the selected image.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"
)

// luminance ramp for terminals without color, darkest first
const ramp = " .:-=+*#%@"

// Thumbnail is a decoded, downscaled image ready to draw with half-block cells
type Thumbnail struct {
	Format       string
	SourceWidth  int
	SourceHeight int

	img image.Image
}

// Decode reads an image and scales it to fit within cols x rows terminal cells.
// Each cell holds two vertical pixels.
func Decode(data []byte, cols, rows uint) (*Thumbnail, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	return &Thumbnail{
		Format:       format,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		img:          resize.Thumbnail(cols, rows*2, img, resize.Lanczos3),
	}, nil
}

// Width returns the thumbnail width in cells
func (t *Thumbnail) Width() int {
	return t.img.Bounds().Dx()
}

// Height returns the thumbnail height in cells
func (t *Thumbnail) Height() int {
	return (t.img.Bounds().Dy() + 1) / 2
}

// Render draws the thumbnail. With color each cell is an upper half block
// whose foreground is the top pixel and background the bottom pixel.
func (t *Thumbnail) Render(noColor bool) string {
	b := t.img.Bounds()
	lines := make([]string, 0, t.Height())

	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		var line strings.Builder
		for x := b.Min.X; x < b.Max.X; x++ {
			top := t.img.At(x, y)
			bottom := top
			if y+1 < b.Max.Y {
				bottom = t.img.At(x, y+1)
			}

			if noColor {
				luma := (gray(top) + gray(bottom)) / 2
				line.WriteByte(ramp[luma*len(ramp)/256])
				continue
			}
			line.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(top))).
				Background(lipgloss.Color(hex(bottom))).
				Render("▀"))
		}
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}

func gray(c color.Color) int {
	return int(color.GrayModel.Convert(c).(color.Gray).Y)
}

func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
