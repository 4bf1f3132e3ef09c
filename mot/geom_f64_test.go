package mot

import (
	"image"
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Point{X: 341, Y: 264}
	p2 := Point{X: 421, Y: 427}
	correnctAnswer := 181.57367
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correnctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correnctAnswer)
	}
}

func TestNewPointFrom(t *testing.T) {
	p := NewPointFrom(image.Pt(12, -7))
	if p.X != 12 || p.Y != -7 {
		t.Errorf("Wrong point: %+v", p)
	}
}

func TestPointIsFinite(t *testing.T) {
	cases := []struct {
		p      Point
		finite bool
	}{
		{NewPoint(1, 2), true},
		{NewPoint(math.NaN(), 2), false},
		{NewPoint(1, math.NaN()), false},
		{NewPoint(math.Inf(1), 0), false},
		{NewPoint(0, math.Inf(-1)), false},
	}
	for i, c := range cases {
		if c.p.IsFinite() != c.finite {
			t.Errorf("Case #%d: expected finite=%t for %+v", i, c.finite, c.p)
		}
	}
}

func TestPerimeterLineCrossedHorizontal(t *testing.T) {
	line := NewPerimeterLine(40, 430, 600, 430)
	cases := []struct {
		name    string
		prev    Point
		curr    Point
		crossed bool
	}{
		{"downwards", NewPoint(100, 420), NewPoint(102, 440), true},
		{"upwards", NewPoint(100, 440), NewPoint(100, 420), true},
		{"arrive on line from above", NewPoint(100, 420), NewPoint(100, 430), true},
		{"arrive on line from below", NewPoint(100, 440), NewPoint(100, 430), true},
		{"leave line", NewPoint(100, 430), NewPoint(100, 440), false},
		{"rest on line", NewPoint(100, 430), NewPoint(120, 430), false},
		{"same side", NewPoint(100, 420), NewPoint(100, 425), false},
		{"outside endpoints still counts when unbounded", NewPoint(10, 420), NewPoint(10, 440), true},
	}
	for _, c := range cases {
		if got := line.Crossed(c.prev, c.curr); got != c.crossed {
			t.Errorf("%s: expected crossed=%t, got %t", c.name, c.crossed, got)
		}
	}
}

func TestPerimeterLineCrossedMatchesHorizontalRule(t *testing.T) {
	// Signed side test must agree with plain "y against line Y" comparison for horizontal line
	lineY := 430.0
	line := NewHorizontalLine(40, 600, lineY)
	ys := []float64{400, 420, 429.5, 430, 430.5, 440, 470}
	for _, prevY := range ys {
		for _, currY := range ys {
			expected := (prevY < lineY && currY >= lineY) || (prevY > lineY && currY <= lineY)
			got := line.Crossed(NewPoint(300, prevY), NewPoint(300, currY))
			if got != expected {
				t.Errorf("prevY=%f currY=%f: expected %t, got %t", prevY, currY, expected, got)
			}
		}
	}
}

func TestPerimeterLineCrossedBounded(t *testing.T) {
	line := NewPerimeterLine(40, 430, 600, 430)
	line.Bounded = true
	if !line.Crossed(NewPoint(100, 420), NewPoint(102, 440)) {
		t.Errorf("Crossing inside segment should be detected")
	}
	if line.Crossed(NewPoint(10, 420), NewPoint(10, 440)) {
		t.Errorf("Crossing to the left of segment should be ignored")
	}
	if line.Crossed(NewPoint(650, 420), NewPoint(700, 440)) {
		t.Errorf("Crossing to the right of segment should be ignored")
	}
	// Diagonal segment
	diagonal := NewPerimeterLine(0, 0, 100, 100)
	diagonal.Bounded = true
	if !diagonal.Crossed(NewPoint(60, 40), NewPoint(40, 60)) {
		t.Errorf("Crossing diagonal segment should be detected")
	}
	if diagonal.Crossed(NewPoint(160, 140), NewPoint(140, 160)) {
		t.Errorf("Crossing diagonal beyond its end should be ignored")
	}
}

func TestPerimeterLineLength(t *testing.T) {
	line := NewPerimeterLine(0, 0, 3, 4)
	if math.Abs(line.Length()-5.0) > eps {
		t.Errorf("Wrong length: %f", line.Length())
	}
	if NewHorizontalLine(10, 10, 5).Length() != 0 {
		t.Errorf("Degenerate line should have zero length")
	}
}
