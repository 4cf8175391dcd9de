package mlp

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrIncompleteModel is returned when a model file lacks rows for a requested section.
var ErrIncompleteModel = errors.New("incomplete model")

// maxLine bounds a single weight row. A row of 784 weights at full precision is ~25KB.
const maxLine = 4 << 20

// ParseError reports a weight row that is not a comma separated list of decimals.
type ParseError struct {
	Section string
	Line    int
	Text    string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d of section %q: cannot parse %q: %v", e.Line, e.Section, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Encode writes the weights of every layer of every network. Each layer starts with a
// "# <section>" header, followed by one row per unit.
func Encode(w io.Writer, nets ...*Network) error {
	bw := bufio.NewWriter(w)
	for _, n := range nets {
		for _, l := range n.Layers {
			fmt.Fprintf(bw, "# %s\n", l.Name)
			for _, u := range l.Units {
				for j, v := range u.Weights {
					if j > 0 {
						bw.WriteByte(',')
					}
					bw.WriteString(v.String())
				}
				bw.WriteByte('\n')
			}
		}
	}
	return errors.WithStack(bw.Flush())
}

type section struct {
	layer      Layer
	rows, cols int
}

// Decode reads the sections belonging to nets and ignores all others. Every requested section
// must hold exactly one row per unit, each row as wide as the unit's weight vector.
// Nothing is written into nets unless every requested section is complete and well formed.
func Decode(r io.Reader, nets ...*Network) error {
	want := make(map[string]section)
	var order []string
	for _, n := range nets {
		w := n.widths()
		for i, l := range n.Layers {
			want[l.Name] = section{layer: l, rows: w[i], cols: w[i+1]}
			order = append(order, l.Name)
		}
	}

	rows := make(map[string][][]decimal.Decimal, len(want))
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	var current string
	var lineNo int
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#"):
			current = strings.TrimSpace(line[1:])
			continue
		}

		s, ok := want[current]
		if !ok {
			continue
		}
		row, err := parseRow(line)
		if err != nil {
			return &ParseError{Section: current, Line: lineNo, Text: line, Err: err}
		}
		if len(rows[current]) == s.rows {
			return errors.Wrapf(ErrTopology, "line %d: section %s has more than %d rows", lineNo, current, s.rows)
		}
		if len(row) != s.cols {
			return errors.Wrapf(ErrTopology, "line %d: section %s row has %d weights, expected %d", lineNo, current, len(row), s.cols)
		}
		rows[current] = append(rows[current], row)
	}
	if err := sc.Err(); err != nil {
		return errors.WithStack(err)
	}

	var missing manyErr
	for _, name := range order {
		if got := len(rows[name]); got < want[name].rows {
			missing = append(missing, errors.Errorf("section %s has %d of %d rows", name, got, want[name].rows))
		}
	}
	if len(missing) > 0 {
		return errors.Wrap(ErrIncompleteModel, strings.TrimSpace(missing.Error()))
	}

	for _, name := range order {
		for i, u := range want[name].layer.Units {
			u.Weights = rows[name][i]
		}
	}
	for _, n := range nets {
		n.evaluated = false
	}
	return nil
}

func parseRow(line string) ([]decimal.Decimal, error) {
	parts := strings.Split(line, ",")
	retVal := make([]decimal.Decimal, len(parts))
	for i, p := range parts {
		v, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		retVal[i] = v
	}
	return retVal, nil
}
