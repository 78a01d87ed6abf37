// ABOUTME: Cell geometry for the board view
// ABOUTME: Places stage columns and deal cards and exposes them as drop regions
package tui

import (
	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

const (
	colWidth     = 26
	colGap       = 2
	boardTop     = 2 // title and status lines
	footerHeight = 2 // notice/saving line and help line
	headerHeight = 3 // stage name, aggregates, rule
	cardHeight   = 4 // bordered card with two content lines
)

type cardBox struct {
	deal models.Deal
	row  int
	rect board.Rect
}

type columnBox struct {
	col    int // index into Board.Columns
	rect   board.Rect
	cards  []cardBox
	hidden int // cards that did not fit
}

type layout struct {
	columns []columnBox
	regions []board.Region
}

// visibleColumns is how many columns fit in width.
func visibleColumns(width int) int {
	n := (width + colGap) / (colWidth + colGap)
	if n < 1 {
		return 1
	}
	return n
}

func boardHeight(height int) int {
	h := height - boardTop - footerHeight
	if floor := headerHeight + cardHeight; h < floor {
		return floor
	}
	return h
}

// computeLayout places columns firstCol onward. In the focused column the
// cards scroll so focusRow stays visible.
func computeLayout(b *board.Board, width, height, firstCol, focusCol, focusRow int) layout {
	var l layout
	h := boardHeight(height)
	visible := visibleColumns(width)

	for i := firstCol; i < len(b.Columns) && i < firstCol+visible; i++ {
		col := b.Columns[i]
		x := float64((i - firstCol) * (colWidth + colGap))
		box := columnBox{
			col:  i,
			rect: board.Rect{X: x, Y: boardTop, W: colWidth, H: float64(h)},
		}
		l.regions = append(l.regions, board.Region{Kind: board.RegionColumn, StageID: col.Stage.ID, Rect: box.rect})

		fit := (h - headerHeight) / cardHeight
		start := 0
		if len(col.Deals) > fit {
			// Keep one line for the "+N more" marker.
			fit = (h - headerHeight - 1) / cardHeight
			if i == focusCol && focusRow >= fit {
				start = focusRow - fit + 1
			}
		}

		y := boardTop + headerHeight
		for row := start; row < len(col.Deals) && row < start+fit; row++ {
			d := col.Deals[row]
			card := cardBox{
				deal: d,
				row:  row,
				rect: board.Rect{X: x, Y: float64(y), W: colWidth, H: cardHeight},
			}
			box.cards = append(box.cards, card)
			l.regions = append(l.regions, board.Region{Kind: board.RegionCard, StageID: col.Stage.ID, DealID: d.ID, Rect: card.rect})
			y += cardHeight
		}
		box.hidden = len(col.Deals) - len(box.cards)
		l.columns = append(l.columns, box)
	}
	return l
}

func (l layout) column(col int) (columnBox, bool) {
	for _, c := range l.columns {
		if c.col == col {
			return c, true
		}
	}
	return columnBox{}, false
}

func (l layout) card(col, row int) (cardBox, bool) {
	c, ok := l.column(col)
	if !ok {
		return cardBox{}, false
	}
	for _, card := range c.cards {
		if card.row == row {
			return card, true
		}
	}
	return cardBox{}, false
}

// cardAt returns the card region under p.
func (l layout) cardAt(p board.Point) (board.Region, bool) {
	for _, r := range l.regions {
		if r.Kind == board.RegionCard && r.Rect.Contains(p) {
			return r, true
		}
	}
	return board.Region{}, false
}

// cellPoint maps a terminal cell to the point at its centre.
func cellPoint(x, y int) board.Point {
	return board.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
}
