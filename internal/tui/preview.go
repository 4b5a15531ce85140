package tui

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/blacktop/go-termimg"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	// Registers the WebP decoder so screenshot captures in WebP open too
	_ "golang.org/x/image/webp"
)

// ErrNoGraphics is returned when the terminal cannot display images inline
var ErrNoGraphics = errors.New("terminal does not support inline images")

// SupportsInlineImages reports whether the terminal speaks the Kitty graphics protocol
func SupportsInlineImages() bool {
	if os.Getenv("TERM") == "xterm-kitty" || os.Getenv("TERM_PROGRAM") == "kitty" {
		return true
	}
	return termimg.DetectProtocol() == termimg.Kitty
}

// previewPixels sizes an image to widthCells terminal columns, keeping its
// aspect ratio. A cell is roughly 8 pixels wide and 16 tall.
func previewPixels(bounds image.Rectangle, widthCells int) (w, h uint, heightCells int) {
	if widthCells < 1 {
		widthCells = 1
	}
	aspect := 1.0
	if bounds.Dy() > 0 {
		aspect = float64(bounds.Dx()) / float64(bounds.Dy())
	}
	w = uint(widthCells * 8)
	h = uint(float64(w) / aspect)
	if h < 8 {
		h = 8
	}
	heightCells = int(h) / 16
	if heightCells < 1 {
		heightCells = 1
	}
	return w, h, heightCells
}

// RenderImageFile renders an image file for the terminal at widthCells columns
func RenderImageFile(path string, widthCells int) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	return RenderImage(img, widthCells)
}

// RenderImage renders img with the Kitty graphics protocol
func RenderImage(img image.Image, widthCells int) (string, error) {
	if !SupportsInlineImages() {
		return "", ErrNoGraphics
	}

	w, h, heightCells := previewPixels(img.Bounds(), widthCells)
	resized := resize.Resize(w, h, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return "", err
	}

	ti, err := termimg.From(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", err
	}
	ti.Protocol(termimg.Kitty).
		Width(widthCells).
		Height(heightCells).
		Scale(termimg.ScaleFit)

	return ti.Render()
}
