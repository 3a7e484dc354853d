package gurobi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"jabr"
)

var ErrMalformedOutput = errors.New("gurobi: malformed result file")

// Optimization status codes reported in SolutionInfo.Status.
const (
	StatusLoaded       = 1
	StatusOptimal      = 2
	StatusInfeasible   = 3
	StatusInfOrUnbd    = 4
	StatusUnbounded    = 5
	StatusIterationLim = 7
	StatusTimeLimit    = 9
	StatusInterrupted  = 11
	StatusNumeric      = 12
	StatusSuboptimal   = 13
	StatusUserObjLimit = 15
)

type SolutionInfo struct {
	Status       int     `json:"Status"`
	Runtime      float64 `json:"Runtime"`
	ObjVal       float64 `json:"ObjVal"`
	SolCount     int     `json:"SolCount"`
	BarIterCount int     `json:"BarIterCount"`
}

type Var struct {
	VarName string  `json:"VarName"`
	X       float64 `json:"X"`
}

// Result is the JSON solution file written by gurobi_cl ResultFile=<name>.json.
type Result struct {
	SolutionInfo *SolutionInfo `json:"SolutionInfo"`
	Vars         []Var         `json:"Vars"`
}

func ParseSolutionFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := ParseSolution(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func ParseSolution(r io.Reader) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if res.SolutionInfo == nil {
		return nil, fmt.Errorf("%w: no SolutionInfo", ErrMalformedOutput)
	}
	return &res, nil
}

// Statuses maps a Gurobi status code onto the shared status vocabulary.
func Statuses(code int) (jabr.ProblemStatus, jabr.SolutionStatus) {
	switch code {
	case StatusOptimal:
		return jabr.PrimalAndDualFeasible, jabr.Optimal
	case StatusInfeasible:
		return jabr.PrimalInfeasible, jabr.PrimalInfeasibleCertificate
	case StatusUnbounded:
		return jabr.DualInfeasible, jabr.DualInfeasibleCertificate
	case StatusSuboptimal:
		return jabr.PrimalFeasible, jabr.UnknownSolutionStatus
	}
	return jabr.UnknownProblemStatus, jabr.UnknownSolutionStatus
}

// Solution places the variable values by name into the U, R and I vectors
// of m. A result without variables yields empty vectors. Gurobi leaves out
// variables whose value is zero, so missing names read as 0.
func (res *Result) Solution(m *jabr.Model) (*jabr.Solution, error) {
	sol := &jabr.Solution{Backend: Name, Objective: res.SolutionInfo.ObjVal}
	sol.ProblemStatus, sol.SolutionStatus = Statuses(res.SolutionInfo.Status)
	if len(res.Vars) == 0 {
		return sol, nil
	}

	index := make(map[string]int, m.Len())
	for k := 0; k < m.Len(); k++ {
		index[m.VarName(k)] = k
	}

	x := make([]float64, m.Len())
	for _, v := range res.Vars {
		k, ok := index[v.VarName]
		if !ok {
			return nil, fmt.Errorf("%w: unknown variable %q", ErrMalformedOutput, v.VarName)
		}
		x[k] = v.X
	}

	sol.U, sol.R, sol.I = m.Split(x)
	return sol, nil
}
