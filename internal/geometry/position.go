// Package geometry places the overlay circle on the output canvas.
//
// Positions are expressed in the overlay filter's own vocabulary: W and H
// are the canvas dimensions, w and h the overlay dimensions. Keeping the
// expressions symbolic lets the same placement work for any canvas size.
package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kartoza/kartoza-video-composer/internal/models"
)

// DefaultMargin is the gap between the circle and the canvas edges
const DefaultMargin = 50

// OverlayPosition holds the x/y placement expressions for the overlay filter
type OverlayPosition struct {
	XExpr string
	YExpr string
}

// String renders the position as the overlay filter's "x:y" argument
func (p OverlayPosition) String() string {
	return p.XExpr + ":" + p.YExpr
}

// ResolvePosition computes the placement expressions for an anchor.
// Unknown anchors resolve to bottom-right.
func ResolvePosition(anchor models.Position, margin int) OverlayPosition {
	m := strconv.Itoa(margin)
	right := fmt.Sprintf("W-w-%d", margin)
	bottom := fmt.Sprintf("H-h-%d", margin)

	switch anchor {
	case models.PositionTopLeft:
		return OverlayPosition{XExpr: m, YExpr: m}
	case models.PositionTopRight:
		return OverlayPosition{XExpr: right, YExpr: m}
	case models.PositionBottomLeft:
		return OverlayPosition{XExpr: m, YExpr: bottom}
	default:
		return OverlayPosition{XExpr: right, YExpr: bottom}
	}
}

// Evaluate resolves the expressions to pixel coordinates for known dimensions
func Evaluate(p OverlayPosition, canvasW, canvasH, overlayW, overlayH int) (x, y int, err error) {
	x, err = evalExpr(p.XExpr, canvasW, canvasH, overlayW, overlayH)
	if err != nil {
		return 0, 0, fmt.Errorf("x: %w", err)
	}
	y, err = evalExpr(p.YExpr, canvasW, canvasH, overlayW, overlayH)
	if err != nil {
		return 0, 0, fmt.Errorf("y: %w", err)
	}
	return x, y, nil
}

// evalExpr handles the subtraction-only grammar ResolvePosition produces
func evalExpr(expr string, canvasW, canvasH, overlayW, overlayH int) (int, error) {
	terms := strings.Split(expr, "-")
	total := 0
	for i, term := range terms {
		v, err := termValue(strings.TrimSpace(term), canvasW, canvasH, overlayW, overlayH)
		if err != nil {
			return 0, fmt.Errorf("invalid expression %q: %w", expr, err)
		}
		if i == 0 {
			total = v
		} else {
			total -= v
		}
	}
	return total, nil
}

func termValue(term string, canvasW, canvasH, overlayW, overlayH int) (int, error) {
	switch term {
	case "W":
		return canvasW, nil
	case "H":
		return canvasH, nil
	case "w":
		return overlayW, nil
	case "h":
		return overlayH, nil
	}
	return strconv.Atoi(term)
}
