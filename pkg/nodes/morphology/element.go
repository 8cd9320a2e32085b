package morphology

import "math"

// Shape of the structuring element.
type Shape string

const (
	Square Shape = "square"
	Circle Shape = "circle"
	Cross  Shape = "cross"
)

// span is the inclusive range of column offsets [Lo, Hi] covered by one
// row of a structuring element. Empty rows have Lo > Hi.
type span struct {
	Lo, Hi int
}

func (s span) empty() bool { return s.Lo > s.Hi }

// Element is a (2r+1)x(2r+1) structuring element centred on its middle
// pixel, stored as one column span per row.
type Element struct {
	Radius int
	rows   []span
}

// NewElement builds the element the way OpenCV's getStructuringElement
// does for MORPH_RECT, MORPH_ELLIPSE and MORPH_CROSS with a centred anchor.
func NewElement(shape Shape, radius int) Element {
	size := 2*radius + 1
	rows := make([]span, size)

	var invR2 float64
	if radius > 0 {
		invR2 = 1 / float64(radius*radius)
	}

	for i := 0; i < size; i++ {
		j1, j2 := 0, 0
		switch {
		case shape == Square, shape == Cross && i == radius:
			j2 = size
		case shape == Cross:
			j1, j2 = radius, radius+1
		default:
			dy := i - radius
			if abs(dy) <= radius {
				dx := int(math.RoundToEven(float64(radius) * math.Sqrt(float64(radius*radius-dy*dy)*invR2)))
				j1 = max(radius-dx, 0)
				j2 = min(radius+dx+1, size)
			}
		}
		rows[i] = span{Lo: j1 - radius, Hi: j2 - 1 - radius}
	}
	return Element{Radius: radius, rows: rows}
}

// Contains reports whether offset (dx, dy) from the centre is part of the element.
func (e Element) Contains(dx, dy int) bool {
	if dy < -e.Radius || dy > e.Radius {
		return false
	}
	s := e.rows[dy+e.Radius]
	return dx >= s.Lo && dx <= s.Hi
}

// Mask renders the element as rows of 0/1, as OpenCV prints kernels.
func (e Element) Mask() [][]uint8 {
	size := 2*e.Radius + 1
	m := make([][]uint8, size)
	for y := range m {
		m[y] = make([]uint8, size)
		for x := range m[y] {
			if e.Contains(x-e.Radius, y-e.Radius) {
				m[y][x] = 1
			}
		}
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
