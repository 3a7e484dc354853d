// Package casefile reads power system cases in the MATPOWER .m format.
//
// Only the numeric fields the relaxation needs are interpreted: mpc.baseMVA,
// mpc.bus, mpc.gen and mpc.branch. Other assignments, cell arrays and
// comments are skipped.
package casefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"jabr"
)

var ErrSyntax = errors.New("casefile: syntax error")

// Minimum column counts of the MATPOWER tables.
const (
	busColumns    = 13
	genColumns    = 10
	branchColumns = 11
)

type parser struct {
	name    string
	scalars map[string]string
	tables  map[string][][]float64

	field string // table or cell array being read, "" outside
	cell  bool
	line  int
}

// Parse reads a MATPOWER case from r.
func Parse(r io.Reader) (*jabr.Case, error) {
	p := &parser{
		scalars: make(map[string]string),
		tables:  make(map[string][][]float64),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if p.field != "" {
		return nil, fmt.Errorf("%w: mpc.%s is not terminated", ErrSyntax, p.field)
	}

	return p.build()
}

// ParseFile reads the case stored at path. A case without a function name
// is named after the file.
func ParseFile(path string) (*jabr.Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, nil
}

// Resolve finds a case by name in dir. Paths and names with an extension
// are used as given; bare names get ".m" appended.
func Resolve(dir, name string) string {
	if filepath.Ext(name) == "" {
		name += ".m"
	}
	if filepath.IsAbs(name) || strings.ContainsRune(name, os.PathSeparator) {
		return name
	}
	return filepath.Join(dir, name)
}

func (p *parser) parseLine(line string) error {
	if k := strings.IndexByte(line, '%'); k >= 0 {
		line = line[:k]
	}
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	if p.field != "" {
		return p.parseBody(line)
	}

	if strings.HasPrefix(line, "function") {
		if _, name, ok := strings.Cut(line, "="); ok {
			p.name = strings.TrimSpace(name)
		}
		return nil
	}

	lhs, rhs, ok := strings.Cut(line, "=")
	if !ok {
		// statements such as define_constants; or return
		if strings.Contains(line, "mpc.") {
			return fmt.Errorf("%w: line %d: expected an assignment", ErrSyntax, p.line)
		}
		return nil
	}
	lhs = strings.TrimSpace(lhs)
	field, ok := strings.CutPrefix(lhs, "mpc.")
	if !ok {
		return nil
	}
	rhs = strings.TrimSpace(rhs)

	switch {
	case strings.HasPrefix(rhs, "["):
		p.field, p.cell = field, false
		p.tables[field] = nil
		return p.parseBody(rhs[1:])
	case strings.HasPrefix(rhs, "{"):
		p.field, p.cell = field, true
		return p.parseBody(rhs[1:])
	}

	p.scalars[field] = strings.TrimSpace(strings.TrimSuffix(rhs, ";"))
	return nil
}

// parseBody consumes the rows of a table or cell array up to the closing bracket.
func (p *parser) parseBody(text string) error {
	closing := "]"
	if p.cell {
		closing = "}"
	}

	text, rest, done := strings.Cut(text, closing)
	if done {
		defer func() { p.field = "" }()
		if r := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ";")); r != "" {
			return fmt.Errorf("%w: line %d: unexpected %q after mpc.%s", ErrSyntax, p.line, r, p.field)
		}
	}
	if p.cell {
		return nil
	}

	for _, row := range strings.Split(text, ";") {
		fields := strings.FieldsFunc(row, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) == 0 {
			continue
		}
		values := make([]float64, len(fields))
		for k, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("%w: line %d: mpc.%s: %v", ErrSyntax, p.line, p.field, err)
			}
			values[k] = v
		}
		p.tables[p.field] = append(p.tables[p.field], values)
	}
	return nil
}

func (p *parser) build() (*jabr.Case, error) {
	c := &jabr.Case{Name: p.name}

	base, ok := p.scalars["baseMVA"]
	if !ok {
		return nil, fmt.Errorf("%w: missing mpc.baseMVA", ErrSyntax)
	}
	var err error
	if c.BaseMVA, err = strconv.ParseFloat(base, 64); err != nil {
		return nil, fmt.Errorf("%w: mpc.baseMVA: %v", ErrSyntax, err)
	}

	buses, ok := p.tables["bus"]
	if !ok {
		return nil, fmt.Errorf("%w: missing mpc.bus", ErrSyntax)
	}
	for k, row := range buses {
		if len(row) < busColumns {
			return nil, fmt.Errorf("%w: mpc.bus row %d has %d columns, want %d", ErrSyntax, k+1, len(row), busColumns)
		}
		c.Buses = append(c.Buses, jabr.Bus{
			ID:     int(row[0]),
			Type:   jabr.BusType(row[1]),
			Pd:     row[2],
			Qd:     row[3],
			Gs:     row[4],
			Bs:     row[5],
			Vm:     row[7],
			Va:     row[8],
			BaseKV: row[9],
			Vmax:   row[11],
			Vmin:   row[12],
		})
	}

	for k, row := range p.tables["gen"] {
		if len(row) < genColumns {
			return nil, fmt.Errorf("%w: mpc.gen row %d has %d columns, want %d", ErrSyntax, k+1, len(row), genColumns)
		}
		c.Gens = append(c.Gens, jabr.Gen{
			Bus:    int(row[0]),
			Pg:     row[1],
			Qg:     row[2],
			Qmax:   row[3],
			Qmin:   row[4],
			Vg:     row[5],
			Status: int(row[7]),
			Pmax:   row[8],
			Pmin:   row[9],
		})
	}

	for k, row := range p.tables["branch"] {
		if len(row) < branchColumns {
			return nil, fmt.Errorf("%w: mpc.branch row %d has %d columns, want %d", ErrSyntax, k+1, len(row), branchColumns)
		}
		c.Branches = append(c.Branches, jabr.Branch{
			From:   int(row[0]),
			To:     int(row[1]),
			R:      row[2],
			X:      row[3],
			B:      row[4],
			RateA:  row[5],
			Tap:    row[8],
			Shift:  row[9],
			Status: int(row[10]),
		})
	}

	return c, nil
}
