// Package layout arranges processed documents onto printable A4 sheets.
package layout

import "fmt"

// Grid is a page arrangement, named columns-by-rows the way print dialogs
// list them: "1x2" is two documents side by side.
type Grid string

const (
	Grid1x1 Grid = "1x1"
	Grid1x2 Grid = "1x2"
	Grid2x2 Grid = "2x2"
	Grid2x3 Grid = "2x3"
)

// ParseGrid validates s. An empty string selects Grid1x2.
func ParseGrid(s string) (Grid, error) {
	switch g := Grid(s); g {
	case "":
		return Grid1x2, nil
	case Grid1x1, Grid1x2, Grid2x2, Grid2x3:
		return g, nil
	}
	return "", fmt.Errorf("unknown grid %q (want 1x1, 1x2, 2x2 or 2x3)", s)
}

// Dims returns the number of columns and rows.
func (g Grid) Dims() (cols, rows int) {
	switch g {
	case Grid1x1:
		return 1, 1
	case Grid2x2:
		return 2, 2
	case Grid2x3:
		return 2, 3
	default:
		return 2, 1
	}
}

// ItemsPerPage is cols*rows.
func (g Grid) ItemsPerPage() int {
	c, r := g.Dims()
	return c * r
}

// Paginate splits items into consecutive pages of at most per items.
func Paginate[T any](items []T, per int) [][]T {
	if per < 1 {
		per = 1
	}
	var pages [][]T
	for i := 0; i < len(items); i += per {
		pages = append(pages, items[i:min(i+per, len(items))])
	}
	return pages
}
