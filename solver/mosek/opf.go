package mosek

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"jabr"
)

// WriteOPF writes m in the MOSEK OPF text format. Variables are declared
// as u<bus>, r<branch>, i<branch> in model order and every branch cone is a
// [cone rquad] over (u_from, u_to, r, i).
func WriteOPF(w io.Writer, m *jabr.Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "[comment]\n  %s: %d buses, %d branches\n[/comment]\n\n", m.Name, m.N, m.M)

	bw.WriteString("[variables]\n")
	for k := 0; k < m.Len(); k++ {
		bw.WriteString(m.VarName(k))
		if (k+1)%10 == 0 || k == m.Len()-1 {
			bw.WriteByte('\n')
		} else {
			bw.WriteByte(' ')
		}
	}
	bw.WriteString("[/variables]\n\n")

	fmt.Fprintf(bw, "[objective minimize 'obj']\n  %s\n[/objective]\n\n", expression(m, m.Cost))

	bw.WriteString("[constraints]\n")
	for _, row := range m.Rows {
		expr := expression(m, row.Coefficients)
		switch {
		case row.Equality():
			fmt.Fprintf(bw, "[con '%s'] %s = %s [/con]\n", row.Name, expr, number(row.Lower))
		case math.IsInf(row.Lower, -1):
			fmt.Fprintf(bw, "[con '%s'] %s <= %s [/con]\n", row.Name, expr, number(row.Upper))
		case math.IsInf(row.Upper, 1):
			fmt.Fprintf(bw, "[con '%s'] %s >= %s [/con]\n", row.Name, expr, number(row.Lower))
		default:
			fmt.Fprintf(bw, "[con '%s'] %s <= %s <= %s [/con]\n",
				row.Name, number(row.Lower), expr, number(row.Upper))
		}
	}
	bw.WriteString("[/constraints]\n\n")

	bw.WriteString("[bounds]\n")
	for k, b := range m.Bounds {
		name := m.VarName(k)
		lower, upper := !math.IsInf(b.Lower, -1), !math.IsInf(b.Upper, 1)
		switch {
		case b.Fixed():
			fmt.Fprintf(bw, "[b] %s = %s [/b]\n", name, number(b.Lower))
		case lower && upper:
			fmt.Fprintf(bw, "[b] %s <= %s <= %s [/b]\n", number(b.Lower), name, number(b.Upper))
		case lower:
			fmt.Fprintf(bw, "[b] %s >= %s [/b]\n", name, number(b.Lower))
		case upper:
			fmt.Fprintf(bw, "[b] %s <= %s [/b]\n", name, number(b.Upper))
		default:
			fmt.Fprintf(bw, "[b] %s free [/b]\n", name)
		}
	}
	for _, c := range m.Cones {
		fmt.Fprintf(bw, "[cone rquad 'k%d'] %s, %s, %s, %s [/cone]\n", c.Branch,
			m.VarName(m.U(c.From)), m.VarName(m.U(c.To)),
			m.VarName(m.R(c.Branch)), m.VarName(m.I(c.Branch)))
	}
	bw.WriteString("[/bounds]\n")

	return bw.Flush()
}

func expression(m *jabr.Model, c jabr.Coefficients) string {
	if len(c.Cols) == 0 {
		return "0 " + m.VarName(0)
	}
	buf := make([]byte, 0, 24*len(c.Cols))
	for k, col := range c.Cols {
		v := c.Vals[k]
		switch {
		case k == 0 && v < 0:
			buf = append(buf, "- "...)
		case k > 0 && v < 0:
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
