package export

import "fmt"

// PageDecorator draws the parts of a page that do not belong to the table.
// It is called once per page after the whole table is laid out, so total
// is always the final page count.
type PageDecorator interface {
	DecoratePage(c Canvas, page, total int)
}

// DecoratorFunc adapts a function to PageDecorator
type DecoratorFunc func(c Canvas, page, total int)

func (f DecoratorFunc) DecoratePage(c Canvas, page, total int) {
	f(c, page, total)
}

// HeaderFooter is the branded band on top of each page plus the page counter
type HeaderFooter struct {
	Title       string
	Technician  string
	RequestDate string
	Primary     RGB
	Layout      Layout
}

func (h HeaderFooter) DecoratePage(c Canvas, page, total int) {
	width, height := c.PageSize()

	c.FillRect(0, 0, width, h.Layout.HeaderHeight, h.Primary)
	c.Text(width/2, 24, 16, Gray(255), AlignCenter, h.Title)

	meta := fmt.Sprintf("Técnico: %s  |  Fecha de Solicitud: %s", orDash(h.Technician), orDash(h.RequestDate))
	c.Text(width/2, 42, 10, Gray(255), AlignCenter, meta)

	footer := fmt.Sprintf("Página %d de %d", page, total)
	c.Text(width-h.Layout.Margins.Right, height-24, 9, Gray(110), AlignRight, footer)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
