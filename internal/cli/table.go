package cli

import (
	"io"
	"strings"

	"github.com/rivo/uniseg"
)

const columnGap = 2

// table aligns columns by display width, so product names with wide or
// combining characters line up.
type table struct {
	rows [][]string
}

func newTable(header ...string) *table {
	t := &table{}
	if len(header) > 0 {
		t.rows = append(t.rows, header)
	}
	return t
}

func (t *table) row(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) error {
	var widths []int
	for _, r := range t.rows {
		for i, c := range r {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if n := uniseg.StringWidth(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	for _, r := range t.rows {
		for i, c := range r {
			b.WriteString(c)
			if i == len(r)-1 {
				break
			}
			b.WriteString(strings.Repeat(" ", widths[i]-uniseg.StringWidth(c)+columnGap))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
