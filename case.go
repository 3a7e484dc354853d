package jabr

import "fmt"

type BusType int

const (
	PQ       BusType = 1
	PV       BusType = 2
	Ref      BusType = 3
	Isolated BusType = 4
)

func (t BusType) String() string {
	switch t {
	case PQ:
		return "PQ"
	case PV:
		return "PV"
	case Ref:
		return "REF"
	case Isolated:
		return "NONE"
	}
	return fmt.Sprintf("BusType(%d)", int(t))
}

// Case is a power system case in MATPOWER conventions: powers in MW and MVAr,
// impedances in per unit on BaseMVA, angles in degrees.
type Case struct {
	Name     string
	BaseMVA  float64
	Buses    []Bus
	Gens     []Gen
	Branches []Branch
}

type Bus struct {
	ID     int
	Type   BusType
	Pd     float64 // MW
	Qd     float64 // MVAr
	Gs     float64 // MW at V = 1 p.u.
	Bs     float64 // MVAr at V = 1 p.u.
	Vm     float64
	Va     float64 // degrees
	BaseKV float64
	Vmax   float64
	Vmin   float64
}

type Gen struct {
	Bus    int
	Pg     float64
	Qg     float64
	Qmax   float64
	Qmin   float64
	Vg     float64
	Status int
	Pmax   float64
	Pmin   float64
}

type Branch struct {
	From   int
	To     int
	R      float64
	X      float64
	B      float64 // total line charging susceptance
	RateA  float64
	Tap    float64 // 0 means nominal
	Shift  float64 // degrees
	Status int
}

// InService reports whether the branch takes part in the network.
func (br Branch) InService() bool {
	return br.Status > 0
}

// Ratio returns the off-nominal tap ratio, 1 for lines.
func (br Branch) Ratio() float64 {
	if br.Tap == 0 {
		return 1
	}
	return br.Tap
}

// Validate checks the cross references of the case.
func (c *Case) Validate() error {
	if c.BaseMVA <= 0 {
		return fmt.Errorf("%w: base MVA %g", ErrInvalidCase, c.BaseMVA)
	}

	seen := make(map[int]bool, len(c.Buses))
	refs := 0
	for _, bus := range c.Buses {
		if seen[bus.ID] {
			return fmt.Errorf("%w: duplicate bus %d", ErrInvalidCase, bus.ID)
		}
		seen[bus.ID] = true
		if bus.Type < PQ || bus.Type > Isolated {
			return fmt.Errorf("%w: bus %d has type %d", ErrInvalidCase, bus.ID, bus.Type)
		}
		if bus.Type == Ref {
			refs++
		}
	}
	if refs == 0 {
		return ErrNoReference
	}

	for k, gen := range c.Gens {
		if !seen[gen.Bus] {
			return fmt.Errorf("%w: generator %d at bus %d", ErrUnknownBus, k, gen.Bus)
		}
	}
	for k, br := range c.Branches {
		if !seen[br.From] || !seen[br.To] {
			return fmt.Errorf("%w: branch %d (%d-%d)", ErrUnknownBus, k, br.From, br.To)
		}
		if br.From == br.To {
			return fmt.Errorf("%w: branch %d connects bus %d to itself", ErrInvalidCase, k, br.From)
		}
	}

	return nil
}
