package bpc

import "math"

// BoundingBox is an axis-aligned rectangle.
type BoundingBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns MaxX-MinX.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY-MinY.
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of the rectangle.
func (b BoundingBox) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// PinPosition returns the absolute position of a pin on a box.
func PinPosition(box Box, pin Pin) Point {
	return box.Center.Add(pin.Offset)
}

// PinDirection returns the unit vector pointing from the box center toward the
// side the pin sits on. The dominant offset axis wins; on a tie the x axis is
// used. A pin at the center has no direction and yields the zero vector.
func PinDirection(box Box, pin Pin) Point {
	dx, dy := pin.Offset.X, pin.Offset.Y
	switch {
	case dx == 0 && dy == 0:
		return Point{}
	case math.Abs(dx) >= math.Abs(dy):
		return Point{X: math.Copysign(1, dx)}
	default:
		return Point{Y: math.Copysign(1, dy)}
	}
}

// Bounds returns the smallest rectangle containing every box center and every
// pin position. Pins whose box is missing are positioned relative to the
// origin. An empty graph yields the zero rectangle.
func Bounds(g Graph) BoundingBox {
	if g.Empty() {
		return BoundingBox{}
	}
	bb := BoundingBox{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	extend := func(p Point) {
		bb.MinX = math.Min(bb.MinX, p.X)
		bb.MinY = math.Min(bb.MinY, p.Y)
		bb.MaxX = math.Max(bb.MaxX, p.X)
		bb.MaxY = math.Max(bb.MaxY, p.Y)
	}

	centers := make(map[string]Box, len(g.Boxes))
	for _, b := range g.Boxes {
		centers[b.BoxID] = b
		extend(b.Center)
	}
	for _, p := range g.Pins {
		extend(PinPosition(centers[p.BoxID], p))
	}
	return bb
}
