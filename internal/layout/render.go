package layout

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// A4 at 96 dpi.
const (
	A4Width  = 794
	A4Height = 1123
)

// basicfont.Face7x13 metrics.
const (
	glyphWidth  = 7
	glyphHeight = 13
)

// Item is one document placed on a page.
type Item struct {
	Image image.Image
	Note  string
}

// PageOptions sizes a sheet in page pixels before Scale is applied.
type PageOptions struct {
	Width  int
	Height int
	Margin int // 15mm
	Gap    int
	Header int // title band height, rule included
	Title  string

	// Scale multiplies every dimension, e.g. 2 for 192 dpi output.
	// Text stays at the fixed face size.
	Scale float64
}

// DefaultPage returns an A4 sheet with the stock margins.
func DefaultPage() PageOptions {
	return PageOptions{
		Width:  A4Width,
		Height: A4Height,
		Margin: 57,
		Gap:    32,
		Header: 40,
		Scale:  1,
	}
}

func (o PageOptions) px(v int) int {
	s := o.Scale
	if s <= 0 {
		s = 1
	}
	return int(math.Round(float64(v) * s))
}

// Render lays items onto as many pages as grid requires. Items are numbered
// Q.1, Q.2 ... across pages.
func Render(items []Item, grid Grid, opts PageOptions) ([]*image.NRGBA, error) {
	per := grid.ItemsPerPage()
	var pages []*image.NRGBA
	for i, page := range Paginate(items, per) {
		img, err := RenderPage(page, grid, opts, i+1, i*per+1)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// RenderPage draws one sheet. firstNumber labels the first item.
func RenderPage(items []Item, grid Grid, opts PageOptions, pageNumber, firstNumber int) (*image.NRGBA, error) {
	w, h := opts.px(opts.Width), opts.px(opts.Height)
	margin, gap, header := opts.px(opts.Margin), opts.px(opts.Gap), opts.px(opts.Header)
	cols, rows := grid.Dims()

	areaW := w - 2*margin
	areaH := h - 2*margin - header
	cellW := (areaW - (cols-1)*gap) / cols
	cellH := (areaH - (rows-1)*gap) / rows
	if cellW <= 0 || cellH <= 0 {
		return nil, fmt.Errorf("page %dx%d too small for grid %s", w, h, grid)
	}

	page := imaging.New(w, h, color.White)

	// Header: title left, page number right, rule below.
	baseline := margin + glyphHeight
	drawText(page, margin, baseline, opts.Title, color.Black)
	label := fmt.Sprintf("PAGE %d", pageNumber)
	drawText(page, w-margin-len(label)*glyphWidth, baseline, label, color.Gray{Y: 160})
	rule := margin + header - opts.px(6)
	fillRect(page, image.Rect(margin, rule, w-margin, rule+opts.px(2)), color.Black)

	labelH := glyphHeight + 6
	noteH := glyphHeight + 8
	for i, it := range items {
		col, row := i%cols, i/cols
		x := margin + col*(cellW+gap)
		y := margin + header + row*(cellH+gap)

		// Black tag with the item number.
		tag := fmt.Sprintf("Q.%d", firstNumber+i)
		fillRect(page, image.Rect(x, y, x+len(tag)*glyphWidth+8, y+labelH), color.Black)
		drawText(page, x+4, y+glyphHeight+2, tag, color.White)

		imgTop := y + labelH + 4
		imgH := cellH - labelH - 4 - noteH
		if it.Image != nil && imgH > 0 {
			fitted := imaging.Fit(it.Image, cellW, imgH, imaging.Lanczos)
			page = imaging.Paste(page, fitted, image.Pt(x, imgTop))
		}

		note := it.Note
		if note == "" {
			note = "..."
		}
		drawText(page, x, y+cellH-4, truncate(note, cellW/glyphWidth), color.Gray{Y: 150})
	}
	return page, nil
}

func drawText(img *image.NRGBA, x, y int, text string, col color.Color) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func fillRect(img *image.NRGBA, r image.Rectangle, col color.Color) {
	draw.Draw(img, r, &image.Uniform{col}, image.Point{}, draw.Src)
}

// truncate shortens s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:max(0, n)])
	}
	return string(r[:n-3]) + "..."
}
