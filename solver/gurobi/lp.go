package gurobi

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"jabr"
)

// WriteLP writes m in the CPLEX LP format read by gurobi_cl. Each cone is the
// quadratic constraint [ r^2 + i^2 - 2 u_f * u_t ] <= 0; range rows are split
// into a lower and an upper row.
func WriteLP(w io.Writer, m *jabr.Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\ %s: %d buses, %d branches\n", m.Name, m.N, m.M)
	fmt.Fprintf(bw, "Minimize\n obj: %s\n", expression(m, m.Cost))

	bw.WriteString("Subject To\n")
	for _, row := range m.Rows {
		expr := expression(m, row.Coefficients)
		switch {
		case row.Equality():
			fmt.Fprintf(bw, " %s: %s = %s\n", row.Name, expr, number(row.Lower))
		default:
			if !math.IsInf(row.Lower, -1) {
				fmt.Fprintf(bw, " %s_lo: %s >= %s\n", row.Name, expr, number(row.Lower))
			}
			if !math.IsInf(row.Upper, 1) {
				fmt.Fprintf(bw, " %s_hi: %s <= %s\n", row.Name, expr, number(row.Upper))
			}
		}
	}
	for _, c := range m.Cones {
		fmt.Fprintf(bw, " k%d: [ %s ^ 2 + %s ^ 2 - 2 %s * %s ] <= 0\n", c.Branch,
			m.VarName(m.R(c.Branch)), m.VarName(m.I(c.Branch)),
			m.VarName(m.U(c.From)), m.VarName(m.U(c.To)))
	}

	// LP variables default to [0, inf), so every bound is written out.
	bw.WriteString("Bounds\n")
	for k, b := range m.Bounds {
		name := m.VarName(k)
		lower, upper := !math.IsInf(b.Lower, -1), !math.IsInf(b.Upper, 1)
		switch {
		case b.Fixed():
			fmt.Fprintf(bw, " %s = %s\n", name, number(b.Lower))
		case lower && upper:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", number(b.Lower), name, number(b.Upper))
		case lower:
			fmt.Fprintf(bw, " %s >= %s\n", name, number(b.Lower))
		case upper:
			fmt.Fprintf(bw, " -inf <= %s <= %s\n", name, number(b.Upper))
		default:
			fmt.Fprintf(bw, " %s free\n", name)
		}
	}
	bw.WriteString("End\n")

	return bw.Flush()
}

func expression(m *jabr.Model, c jabr.Coefficients) string {
	if len(c.Cols) == 0 {
		return "0 " + m.VarName(0)
	}
	var buf []byte
	for k, col := range c.Cols {
		v := c.Vals[k]
		switch {
		case v < 0 && k == 0:
			buf = append(buf, "- "...)
		case v < 0:
			buf = append(buf, " - "...)
		case k > 0:
			buf = append(buf, " + "...)
		}
		buf = strconv.AppendFloat(buf, math.Abs(v), 'g', -1, 64)
		buf = append(buf, ' ')
		buf = append(buf, m.VarName(col)...)
	}
	return string(buf)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
