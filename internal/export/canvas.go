package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
)

// RGB is an 8-bit colour
type RGB struct {
	R, G, B int
}

// Gray returns the RGB for a gray level
func Gray(level int) RGB {
	return RGB{R: level, G: level, B: level}
}

// HexColor parses #rrggbb
func HexColor(hex string) (RGB, error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid colour %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return RGB{R: int(v>>16) & 255, G: int(v>>8) & 255, B: int(v) & 255}, nil
}

// Canvas is the drawing surface handed to page decorators. It hides the PDF
// library so decorators only deal with rectangles and text.
type Canvas interface {
	PageSize() (width, height float64)
	FillRect(x, y, w, h float64, c RGB)
	// Text draws s with its baseline at y. x is the left edge, the centre or
	// the right edge depending on align.
	Text(x, y, size float64, c RGB, align Align, s string)
}

type fpdfCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (c *fpdfCanvas) PageSize() (float64, float64) {
	return c.pdf.GetPageSize()
}

func (c *fpdfCanvas) FillRect(x, y, w, h float64, col RGB) {
	c.pdf.SetFillColor(col.R, col.G, col.B)
	c.pdf.Rect(x, y, w, h, "F")
}

func (c *fpdfCanvas) Text(x, y, size float64, col RGB, align Align, s string) {
	txt := c.tr(s)
	c.pdf.SetFont(fontFamily, "", size)
	c.pdf.SetTextColor(col.R, col.G, col.B)
	switch align {
	case AlignCenter:
		x -= c.pdf.GetStringWidth(txt) / 2
	case AlignRight:
		x -= c.pdf.GetStringWidth(txt)
	}
	c.pdf.Text(x, y, txt)
}
