package mot

import (
	"image"
	"math"
)

// Point is a centroid in image coordinates
type Point struct {
	X float64
	Y float64
}

// NewPoint creates point from coordinates
func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

// NewPointFrom converts integer image point
func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

// IsFinite reports whether both coordinates are neither NaN nor infinite
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(float64(p1.X-p2.X), 2) + math.Pow(float64(p1.Y-p2.Y), 2))
}

// PerimeterLine is a virtual boundary defined by two endpoints.
type PerimeterLine struct {
	A Point
	B Point
	// Bounded restricts crossings to the segment between A and B.
	// When false the line is treated as infinite (which is what a horizontal
	// "y = const" check does).
	Bounded bool
}

// NewPerimeterLine creates unbounded line through (x1, y1) and (x2, y2)
func NewPerimeterLine(x1, y1, x2, y2 float64) PerimeterLine {
	return PerimeterLine{
		A: Point{X: x1, Y: y1},
		B: Point{X: x2, Y: y2},
	}
}

// NewHorizontalLine creates line y = const spanning [x1; x2]
func NewHorizontalLine(x1, x2, y float64) PerimeterLine {
	return NewPerimeterLine(x1, y, x2, y)
}

// Length returns distance between endpoints
func (line PerimeterLine) Length() float64 {
	return euclideanDistance(line.A, line.B)
}

// Side returns signed area of triangle (A, B, p) doubled.
// Positive and negative values are the two half-planes, zero is "on the line".
// For a horizontal line going left to right positive means p.Y > line Y.
func (line PerimeterLine) Side(p Point) float64 {
	return (line.B.X-line.A.X)*(p.Y-line.A.Y) - (line.B.Y-line.A.Y)*(p.X-line.A.X)
}

// Crossed checks whether movement from prev to curr crosses the line.
// Boundary convention: a point resting exactly on the line belongs to the side
// it moved to, so leaving the line is not a crossing but arriving on it is.
func (line PerimeterLine) Crossed(prev, curr Point) bool {
	sPrev := line.Side(prev)
	sCurr := line.Side(curr)
	crossed := (sPrev < 0 && sCurr >= 0) || (sPrev > 0 && sCurr <= 0)
	if !crossed {
		return false
	}
	if !line.Bounded {
		return true
	}
	// Parameter of intersection point along the perimeter segment.
	// Movement segment is prev + t*(curr - prev), t in [0; 1] is guaranteed by the side test.
	t := sPrev / (sPrev - sCurr)
	hit := Point{
		X: prev.X + t*(curr.X-prev.X),
		Y: prev.Y + t*(curr.Y-prev.Y),
	}
	dx := line.B.X - line.A.X
	dy := line.B.Y - line.A.Y
	u := ((hit.X-line.A.X)*dx + (hit.Y-line.A.Y)*dy) / (dx*dx + dy*dy)
	return u >= 0 && u <= 1
}
