package jabr

import (
	"fmt"
	"strings"

	"jabr/sparse"
)

// RefBus is the internal index of the reference bus in every Network.
const RefBus = 0

// Topology is the recovery capability of a network.
type Topology int

const (
	Auto Topology = iota
	Tree
	Mesh
)

func (t Topology) String() string {
	switch t {
	case Auto:
		return "auto"
	case Tree:
		return "tree"
	case Mesh:
		return "mesh"
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return Auto, nil
	case "tree":
		return Tree, nil
	case "mesh":
		return Mesh, nil
	}
	return Auto, fmt.Errorf("unknown topology %q", s)
}

// Network is the indexed, per-unit form of a Case. It is immutable after
// NewNetwork returns.
type Network struct {
	Case    *Case
	BaseMVA float64

	I2E []int       // internal -> external bus id
	E2I map[int]int // external bus id -> internal
	Bus []BusType   // effective bus type per internal bus

	G *sparse.Matrix // bus conductance matrix
	B *sparse.Matrix // bus susceptance matrix

	Branches *BranchMap

	P    []float64 // scheduled net active injection, p.u.
	Q    []float64 // scheduled net reactive injection, p.u.
	Qmin []float64 // net reactive injection limits of PV buses, p.u.
	Qmax []float64
	Vset []float64 // voltage magnitude set point
}

// NewNetwork indexes the in-service part of c and assembles its admittance matrices.
func NewNetwork(c *Case) (*Network, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	net := &Network{
		Case:    c,
		BaseMVA: c.BaseMVA,
		E2I:     make(map[int]int, len(c.Buses)),
	}

	ref := -1
	for k, bus := range c.Buses {
		if bus.Type == Ref {
			ref = k
			break
		}
	}
	if ref < 0 {
		return nil, ErrNoReference
	}

	order := []int{ref}
	for k, bus := range c.Buses {
		if k != ref && bus.Type != Isolated {
			order = append(order, k)
		}
	}
	for i, k := range order {
		net.I2E = append(net.I2E, c.Buses[k].ID)
		net.E2I[c.Buses[k].ID] = i
	}

	n := len(order)
	net.Bus = make([]BusType, n)
	net.P = make([]float64, n)
	net.Q = make([]float64, n)
	net.Qmin = make([]float64, n)
	net.Qmax = make([]float64, n)
	net.Vset = make([]float64, n)

	gens := make([]int, n)
	for _, gen := range c.Gens {
		i, ok := net.E2I[gen.Bus]
		if !ok || gen.Status <= 0 {
			continue
		}
		if gens[i] == 0 {
			net.Vset[i] = gen.Vg
		}
		gens[i]++
		net.P[i] += gen.Pg / c.BaseMVA
		net.Q[i] += gen.Qg / c.BaseMVA
		net.Qmin[i] += gen.Qmin / c.BaseMVA
		net.Qmax[i] += gen.Qmax / c.BaseMVA
	}

	for i, k := range order {
		bus := c.Buses[k]
		net.P[i] -= bus.Pd / c.BaseMVA
		net.Q[i] -= bus.Qd / c.BaseMVA
		net.Qmin[i] -= bus.Qd / c.BaseMVA
		net.Qmax[i] -= bus.Qd / c.BaseMVA

		switch {
		case i == RefBus:
			net.Bus[i] = Ref
		case gens[i] > 0 && (bus.Type == PV || bus.Type == Ref):
			net.Bus[i] = PV
		default:
			net.Bus[i] = PQ
		}

		if net.Bus[i] == PQ || net.Vset[i] <= 0 {
			net.Vset[i] = 1
			if net.Bus[i] != PQ && bus.Vm > 0 {
				net.Vset[i] = bus.Vm
			}
		}
	}

	var pairs []Ends
	var branches []Branch
	for _, br := range c.Branches {
		f, fok := net.E2I[br.From]
		t, tok := net.E2I[br.To]
		if !br.InService() || !fok || !tok {
			continue
		}
		pairs = append(pairs, Ends{From: f, To: t})
		branches = append(branches, br)
	}
	net.Branches = newBranchMap(n, pairs)

	if unreached := net.unreachable(); len(unreached) > 0 {
		return nil, fmt.Errorf("%w: buses %v unreachable from reference bus %d",
			ErrIslanded, unreached, net.I2E[RefBus])
	}

	var err error
	net.G, net.B, err = net.admittance(order, branches)
	if err != nil {
		return nil, err
	}

	return net, nil
}

func (net *Network) NumBuses() int {
	return len(net.I2E)
}

func (net *Network) NumBranches() int {
	return net.Branches.Len()
}

// Topology reports Tree for a connected network with exactly n-1 branches.
func (net *Network) Topology() Topology {
	if net.Branches.Len() == net.NumBuses()-1 {
		return Tree
	}
	return Mesh
}

// unreachable returns the external ids of buses not connected to the reference.
func (net *Network) unreachable() []int {
	visited := make([]bool, net.NumBuses())
	net.walk(func(_, bus, _ int) {
		visited[bus] = true
	})

	var ids []int
	for i, ok := range visited {
		if !ok {
			ids = append(ids, net.I2E[i])
		}
	}
	return ids
}

// walk visits the buses breadth first from the reference bus. fn receives the
// parent bus, the newly reached bus and the column crossed; the reference
// itself is reported with parent and column -1. Each bus is visited once.
func (net *Network) walk(fn func(parent, bus, col int)) {
	visited := make([]bool, net.NumBuses())
	visited[RefBus] = true
	fn(-1, RefBus, -1)

	queue := []int{RefBus}
	for len(queue) > 0 {
		bus := queue[0]
		queue = queue[1:]
		for _, col := range net.Branches.incident[bus] {
			next := net.Branches.Other(col, bus)
			if visited[next] {
				continue
			}
			visited[next] = true
			fn(bus, next, col)
			queue = append(queue, next)
		}
	}
}
