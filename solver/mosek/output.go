package mosek

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"jabr"
)

var ErrMalformedOutput = errors.New("mosek: malformed solution report")

// Output is the content of a MOSEK solution report.
type Output struct {
	ProblemStatus   jabr.ProblemStatus
	SolutionStatus  jabr.SolutionStatus
	PrimalObjective float64

	// Variable activities grouped by name prefix, in report order.
	U []float64
	R []float64
	I []float64
}

func ParseOutputFile(path string) (*Output, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out, err := ParseOutput(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// ParseOutput reads the status lines and the VARIABLES section of a report.
// Lines it does not recognize are skipped.
func ParseOutput(r io.Reader) (*Output, error) {
	out := &Output{}
	var problem, solution, variables bool

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	inVariables := false
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		if inVariables {
			if text == "" || isSection(text) {
				inVariables = false
			} else {
				if err := out.parseVariable(text, line); err != nil {
					return nil, err
				}
				continue
			}
		}

		key, value, ok := strings.Cut(text, ":")
		if ok {
			value = strings.TrimSpace(value)
			switch strings.Join(strings.Fields(key), " ") {
			case "PROBLEM STATUS":
				out.ProblemStatus = jabr.ProblemStatus(value)
				problem = true
			case "SOLUTION STATUS":
				out.SolutionStatus = jabr.SolutionStatus(value)
				solution = true
			case "PRIMAL OBJECTIVE":
				v, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: primal objective: %w", line, err)
				}
				out.PrimalObjective = v
			}
			continue
		}

		if text == "VARIABLES" {
			inVariables, variables = true, true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	switch {
	case !problem:
		return nil, fmt.Errorf("%w: no PROBLEM STATUS line", ErrMalformedOutput)
	case !solution:
		return nil, fmt.Errorf("%w: no SOLUTION STATUS line", ErrMalformedOutput)
	case !variables:
		return nil, fmt.Errorf("%w: no VARIABLES section", ErrMalformedOutput)
	}
	return out, nil
}

func isSection(text string) bool {
	switch text {
	case "CONSTRAINTS", "VARIABLES", "SYMMETRIC MATRIX VARIABLES", "AFFINE CONIC CONSTRAINTS":
		return true
	}
	return false
}

// parseVariable reads "<index> <name> <key> <activity> ...". The column
// header row is skipped.
func (o *Output) parseVariable(text string, line int) error {
	fields := strings.Fields(text)
	if len(fields) > 0 && fields[0] == "INDEX" {
		return nil
	}
	if len(fields) < 4 {
		return fmt.Errorf("%w: line %d: short variable row %q", ErrMalformedOutput, line, text)
	}

	name := fields[1]
	v, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return fmt.Errorf("line %d: variable %s: %w", line, name, err)
	}

	switch name[0] {
	case 'u':
		o.U = append(o.U, v)
	case 'r':
		o.R = append(o.R, v)
	case 'i':
		o.I = append(o.I, v)
	}
	return nil
}

// Solution converts the report into a backend-neutral solution.
func (o *Output) Solution() *jabr.Solution {
	return &jabr.Solution{
		Backend:        Name,
		ProblemStatus:  o.ProblemStatus,
		SolutionStatus: o.SolutionStatus,
		Objective:      o.PrimalObjective,
		U:              o.U,
		R:              o.R,
		I:              o.I,
	}
}
