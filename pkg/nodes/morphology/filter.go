package morphology

import "math/bits"

// plane is one 8-bit channel.
type plane struct {
	w, h int
	pix  []uint8
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, pix: make([]uint8, w*h)}
}

// rangeTable answers min or max queries over [a, b] in O(1) after an
// O(n log n) build (sparse table).
type rangeTable struct {
	levels [][]uint8
	isMin  bool
}

func (t *rangeTable) build(row []uint8) {
	n := len(row)
	if n == 0 {
		t.levels = t.levels[:0]
		return
	}
	k := bits.Len(uint(n))
	if cap(t.levels) < k {
		t.levels = make([][]uint8, k)
	}
	t.levels = t.levels[:k]
	if cap(t.levels[0]) < n {
		t.levels[0] = make([]uint8, n)
	}
	t.levels[0] = t.levels[0][:n]
	copy(t.levels[0], row)

	for j := 1; j < k; j++ {
		width := 1 << j
		half := width >> 1
		prev := t.levels[j-1]
		cnt := n - width + 1
		if cap(t.levels[j]) < cnt {
			t.levels[j] = make([]uint8, cnt)
		}
		cur := t.levels[j][:cnt]
		for i := 0; i < cnt; i++ {
			cur[i] = t.pick(prev[i], prev[i+half])
		}
		t.levels[j] = cur
	}
}

func (t *rangeTable) pick(a, b uint8) uint8 {
	if t.isMin == (a < b) {
		return a
	}
	return b
}

// query returns the extremum of row[a..b], inclusive. a <= b is required.
func (t *rangeTable) query(a, b int) uint8 {
	j := bits.Len(uint(b-a+1)) - 1
	return t.pick(t.levels[j][a], t.levels[j][b-(1<<j)+1])
}

// apply computes, for every pixel, the minimum (erode) or maximum (dilate)
// of src over the element. Samples outside the plane are ignored.
func apply(src *plane, e Element, erode bool) *plane {
	dst := newPlane(src.w, src.h)
	init := uint8(0)
	if erode {
		init = 0xff
	}
	for i := range dst.pix {
		dst.pix[i] = init
	}

	t := &rangeTable{isMin: erode}
	for sy := 0; sy < src.h; sy++ {
		t.build(src.pix[sy*src.w : (sy+1)*src.w])

		// Source row sy contributes to output row y through element row dy = sy - y.
		for ri, s := range e.rows {
			if s.empty() {
				continue
			}
			y := sy - (ri - e.Radius)
			if y < 0 || y >= src.h {
				continue
			}
			out := dst.pix[y*dst.w : (y+1)*dst.w]
			for x := range out {
				a, b := max(x+s.Lo, 0), min(x+s.Hi, src.w-1)
				if a > b {
					continue
				}
				v := t.query(a, b)
				if t.pick(v, out[x]) == v {
					out[x] = v
				}
			}
		}
	}
	return dst
}

func repeat(p *plane, e Element, erode bool, n int) *plane {
	for i := 0; i < n; i++ {
		p = apply(p, e, erode)
	}
	return p
}

func subtract(a, b *plane) *plane {
	dst := newPlane(a.w, a.h)
	for i := range dst.pix {
		if a.pix[i] > b.pix[i] {
			dst.pix[i] = a.pix[i] - b.pix[i]
		}
	}
	return dst
}
