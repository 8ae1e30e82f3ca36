package xlsx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxRangeCells bounds a single range read or write.
const maxRangeCells = 1 << 20

var errBadAddress = errors.New("xlsx.bad_address")

// ref is a rectangular block of cells, 1-based and inclusive.
type ref struct {
	col1, row1 int
	col2, row2 int
}

func (r ref) rows() int { return r.row2 - r.row1 + 1 }
func (r ref) cols() int { return r.col2 - r.col1 + 1 }

func (r ref) single() bool { return r.col1 == r.col2 && r.row1 == r.row2 }

// parseRef accepts "A1", "$A$1" and "A1:C3".
func parseRef(addr string) (ref, error) {
	addr = strings.ReplaceAll(strings.TrimSpace(addr), "$", "")
	parts := strings.Split(addr, ":")
	if len(parts) > 2 || parts[0] == "" {
		return ref{}, fmt.Errorf("%w: %q", errBadAddress, addr)
	}

	c1, r1, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return ref{}, errors.Join(errBadAddress, err)
	}
	c2, r2 := c1, r1
	if len(parts) == 2 {
		c2, r2, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return ref{}, errors.Join(errBadAddress, err)
		}
	}

	rf := ref{col1: min(c1, c2), row1: min(r1, r2), col2: max(c1, c2), row2: max(r1, r2)}
	if rf.rows()*rf.cols() > maxRangeCells {
		return ref{}, fmt.Errorf("%w: %q spans too many cells", errBadAddress, addr)
	}
	return rf, nil
}

// cell returns the A1 name of the cell at offset (i, j) from the top-left corner.
func (r ref) cell(i, j int) (string, error) {
	return excelize.CoordinatesToCellName(r.col1+j, r.row1+i)
}

// String renders the absolute address, e.g. "$A$1:$B$2".
func (r ref) String() string {
	tl, _ := excelize.CoordinatesToCellName(r.col1, r.row1, true)
	if r.single() {
		return tl
	}
	br, _ := excelize.CoordinatesToCellName(r.col2, r.row2, true)
	return tl + ":" + br
}
