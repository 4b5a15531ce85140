// Package mask computes the circular alpha mask for the overlay.
//
// The mask is evaluated at a working resolution four times the final
// overlay size. Every pixel is either fully opaque or fully transparent;
// the soft edge of the final circle comes only from the Lanczos downsample
// to the display size. Masking at display size directly gives a visibly
// stair-stepped rim.
package mask

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// WorkingScale is the working resolution multiplier over the display size
const WorkingScale = 4

// The opaque radius is 598/600 of the working half-width (598px at 1200px)
const (
	edgeNumerator   = 598
	edgeDenominator = 600
)

// Geometry describes the mask for one overlay size
type Geometry struct {
	Size    int     // final display diameter in pixels
	Working int     // working square side in pixels
	Center  float64 // center coordinate on both axes
	Radius  float64 // opaque radius at working resolution
}

// ForSize derives the working geometry for a display diameter.
// Size must be positive.
func ForSize(size int) (Geometry, error) {
	if size <= 0 {
		return Geometry{}, fmt.Errorf("mask size must be positive, got %d", size)
	}
	working := size * WorkingScale
	center := float64(working) / 2
	return Geometry{
		Size:    size,
		Working: working,
		Center:  center,
		Radius:  center * edgeNumerator / edgeDenominator,
	}, nil
}

// AlphaAt returns 255 for pixels within radius of the center and 0 otherwise
func AlphaAt(x, y, cx, cy, radius float64) uint8 {
	dx := x - cx
	dy := y - cy
	if dx*dx+dy*dy <= radius*radius {
		return 255
	}
	return 0
}

// Render evaluates AlphaAt for every pixel of the working square
func Render(g Geometry) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Working, g.Working))
	for y := 0; y < g.Working; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+g.Working]
		for x := range row {
			row[x] = AlphaAt(float64(x), float64(y), g.Center, g.Center, g.Radius)
		}
	}
	return img
}

// Downsample scales a working-resolution mask to the display size with Lanczos3
func Downsample(img image.Image, size int) image.Image {
	return resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
}

// Save writes a mask image; the format follows the file extension
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save mask %s: %w", path, err)
	}
	return nil
}

// GeqExpr renders the AlphaAt predicate as an ffmpeg geq alpha expression
// for a frame already scaled to the working square
func GeqExpr(g Geometry) string {
	c := formatFloat(g.Center)
	return fmt.Sprintf("if(lte(hypot(X-%s,Y-%s),%s),255,0)", c, c, formatFloat(g.Radius))
}

// EdgeCoverage counts partially transparent pixels, i.e. the anti-aliased rim
func EdgeCoverage(img image.Image) int {
	b := img.Bounds()
	count := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			if v > 0 && v < 255 {
				count++
			}
		}
	}
	return count
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
