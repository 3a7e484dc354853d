// Package report renders solved cases as YAML and as voltage profile charts.
package report

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"

	"gopkg.in/yaml.v3"

	"jabr"
)

type Report struct {
	Case           string  `yaml:"case"`
	Backend        string  `yaml:"backend"`
	ProblemStatus  string  `yaml:"problem_status"`
	SolutionStatus string  `yaml:"solution_status"`
	Objective      float64 `yaml:"objective"`
	Recovery       string  `yaml:"recovery,omitempty"`
	Residual       float64 `yaml:"residual,omitempty"`

	Buses []Bus `yaml:"buses,omitempty"`
}

type Bus struct {
	ID        int     `yaml:"id"`
	Type      string  `yaml:"type"`
	Magnitude float64 `yaml:"vm"`
	Angle     float64 `yaml:"va"` // degrees
}

// New builds the report of one solve. v may be nil when no voltages were
// recovered; the buses are then omitted.
func New(net *jabr.Network, sol *jabr.Solution, v *jabr.Voltages, mode jabr.Topology) *Report {
	r := &Report{
		Case:           net.Case.Name,
		Backend:        sol.Backend,
		ProblemStatus:  string(sol.ProblemStatus),
		SolutionStatus: string(sol.SolutionStatus),
		Objective:      sol.Objective,
	}
	if v == nil {
		return r
	}

	if mode == jabr.Auto {
		mode = net.Topology()
	}
	r.Recovery = mode.String()
	r.Residual = v.Residual

	for bus := range v.Magnitude {
		r.Buses = append(r.Buses, Bus{
			ID:        net.I2E[bus],
			Type:      net.Bus[bus].String(),
			Magnitude: v.Magnitude[bus],
			Angle:     v.Angle[bus] * 180 / math.Pi,
		})
	}
	slices.SortFunc(r.Buses, func(a, b Bus) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return r
}

func (r *Report) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

func Read(rd io.Reader) (*Report, error) {
	var r Report
	if err := yaml.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
