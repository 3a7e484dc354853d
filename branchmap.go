package jabr

import (
	"cmp"
	"slices"
)

// Ends is an oriented branch: From is the lower internal bus index.
type Ends struct {
	From int
	To   int
}

// BranchMap assigns every physical branch a column of the R and I matrices.
// Parallel circuits share a column. Both directed ends of a branch resolve to
// the same column, so R and I columns always pair up.
type BranchMap struct {
	ends     []Ends       // column -> oriented branch
	columns  map[Ends]int // directed end -> column
	incident [][]int      // bus -> ascending columns
}

func newBranchMap(buses int, pairs []Ends) *BranchMap {
	oriented := make([]Ends, 0, len(pairs))
	for _, p := range pairs {
		if p.From > p.To {
			p.From, p.To = p.To, p.From
		}
		oriented = append(oriented, p)
	}
	slices.SortFunc(oriented, func(a, b Ends) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	oriented = slices.Compact(oriented)

	bm := &BranchMap{
		ends:     oriented,
		columns:  make(map[Ends]int, 2*len(oriented)),
		incident: make([][]int, buses),
	}
	for k, e := range oriented {
		bm.columns[e] = k
		bm.columns[Ends{From: e.To, To: e.From}] = k
		bm.incident[e.From] = append(bm.incident[e.From], k)
		bm.incident[e.To] = append(bm.incident[e.To], k)
	}
	return bm
}

// Len is the number of physical branches.
func (bm *BranchMap) Len() int {
	return len(bm.ends)
}

// Column returns the column of the directed end (i, j) and whether i is the
// branch's from end.
func (bm *BranchMap) Column(i, j int) (col int, fromEnd bool, ok bool) {
	col, ok = bm.columns[Ends{From: i, To: j}]
	if !ok {
		return 0, false, false
	}
	return col, bm.ends[col].From == i, true
}

func (bm *BranchMap) Ends(col int) Ends {
	return bm.ends[col]
}

// Other returns the bus at the far end of column col as seen from bus.
func (bm *BranchMap) Other(col, bus int) int {
	e := bm.ends[col]
	if e.From == bus {
		return e.To
	}
	return e.From
}

// Incident returns the columns touching bus in ascending order.
func (bm *BranchMap) Incident(bus int) []int {
	return slices.Clone(bm.incident[bus])
}
