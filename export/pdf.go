package export

import (
	"fmt"
	"time"

	"github.com/cameroncuttingedge/place/canvas"
	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin = 10.0  // mm
	boardSpan  = 190.0 // mm, A4 width minus margins
)

// PDF renders a board snapshot onto one A4 page, one filled square per
// pixel, and writes it to path.
func PDF(path string, board []canvas.Color, size int, takenAt time.Time) error {
	if len(board) != size*size {
		return fmt.Errorf("board has %d pixels, want %d", len(board), size*size)
	}

	p := gofpdf.New("P", "mm", "A4", "")
	p.SetTitle("place board", false)
	p.AddPage()

	p.SetFont("Helvetica", "", 9)
	p.SetTextColor(0x22, 0x22, 0x22)
	p.Text(pageMargin, pageMargin-2, fmt.Sprintf("%dx%d board, %s", size, size, takenAt.UTC().Format(time.RFC3339)))

	cell := boardSpan / float64(size)
	for i, c := range board {
		rgb := Palette[int(c)%len(Palette)]
		p.SetFillColor(int(rgb.R), int(rgb.G), int(rgb.B))
		x := pageMargin + float64(i%size)*cell
		y := pageMargin + float64(i/size)*cell
		p.Rect(x, y, cell, cell, "F")
	}

	p.SetDrawColor(0x88, 0x88, 0x88)
	p.SetLineWidth(0.2)
	p.Rect(pageMargin, pageMargin, boardSpan, boardSpan, "D")

	if err := p.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
