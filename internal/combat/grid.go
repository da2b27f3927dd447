package combat

import "math"

// Grid buckets living units into square cells for proximity queries. It is
// rebuilt from scratch every tick and keeps its own copy of positions, so
// movement later in the tick does not disturb queries.
type Grid struct {
	cellSize float64
	width    int

	heads []int
	tails []int

	next  []int
	units []*Unit
	pos   []Vec2
	side  []Side
}

func NewGrid(cellSize float64, width int) *Grid {
	if width < 1 {
		width = 1
	}
	n := width * width
	g := &Grid{
		cellSize: cellSize,
		width:    width,
		heads:    make([]int, n),
		tails:    make([]int, n),
	}
	g.reset()
	return g
}

func (g *Grid) reset() {
	for i := range g.heads {
		g.heads[i] = -1
		g.tails[i] = -1
	}
	g.next = g.next[:0]
	g.units = g.units[:0]
	g.pos = g.pos[:0]
	g.side = g.side[:0]
}

func (g *Grid) axis(v float64) int {
	c := math.Floor(v / g.cellSize)
	if !(c >= 0) {
		return 0
	}
	if c >= float64(g.width) {
		return g.width - 1
	}
	return int(c)
}

// CellOf maps a position to its cell index, clamping both axes to the grid.
func (g *Grid) CellOf(p Vec2) int {
	return g.axis(p.Y)*g.width + g.axis(p.X)
}

// Build indexes every living unit. Slots are assigned in input order.
func (g *Grid) Build(units []*Unit) {
	g.reset()
	for _, u := range units {
		if u == nil || !u.Alive() {
			continue
		}
		slot := len(g.units)
		g.units = append(g.units, u)
		g.pos = append(g.pos, u.Pos)
		g.side = append(g.side, u.Side)
		g.next = append(g.next, -1)

		c := g.CellOf(u.Pos)
		if g.tails[c] < 0 {
			g.heads[c] = slot
		} else {
			g.next[g.tails[c]] = slot
		}
		g.tails[c] = slot
	}
}

func (g *Grid) Len() int            { return len(g.units) }
func (g *Grid) Unit(slot int) *Unit { return g.units[slot] }
func (g *Grid) Pos(slot int) Vec2   { return g.pos[slot] }
func (g *Grid) Side(slot int) Side  { return g.side[slot] }

// each visits every slot in the cells overlapping the square around p.
func (g *Grid) each(p Vec2, radius float64, fn func(slot int)) {
	x0, x1 := g.axis(p.X-radius), g.axis(p.X+radius)
	y0, y1 := g.axis(p.Y-radius), g.axis(p.Y+radius)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			for s := g.heads[cy*g.width+cx]; s >= 0; s = g.next[s] {
				fn(s)
			}
		}
	}
}

// NearestEnemy returns the slot of the closest indexed unit on the other
// side within radius of from, or -1. On an exact distance tie the first
// candidate scanned wins.
func (g *Grid) NearestEnemy(from int, radius float64) int {
	p, mine := g.pos[from], g.side[from]
	best, bestD := -1, radius*radius
	g.each(p, radius, func(s int) {
		if g.side[s] == mine {
			return
		}
		d := g.pos[s].Sub(p).LenSq()
		if d > bestD || (best >= 0 && d == bestD) {
			return
		}
		best, bestD = s, d
	})
	return best
}

// Within calls fn for every indexed unit whose position lies within radius of p.
func (g *Grid) Within(p Vec2, radius float64, fn func(slot int)) {
	r2 := radius * radius
	g.each(p, radius, func(s int) {
		if g.pos[s].Sub(p).LenSq() <= r2 {
			fn(s)
		}
	})
}

// nearestLinear answers NearestEnemy by brute force.
func (g *Grid) nearestLinear(from int, radius float64) int {
	p, mine := g.pos[from], g.side[from]
	best, bestD := -1, radius*radius
	for s := range g.units {
		if g.side[s] == mine {
			continue
		}
		d := g.pos[s].Sub(p).LenSq()
		if d > bestD || (best >= 0 && d == bestD) {
			continue
		}
		best, bestD = s, d
	}
	return best
}
