package export

import (
	"bytes"
	"fmt"

	"didcom/service-report/internal/models"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const fontFamily = "Helvetica"

// Document is everything that ends up in one PDF
type Document struct {
	Title       string
	Technician  string
	RequestDate string
	Records     []models.EquipmentRecord
}

// RenderError wraps anything that went wrong while laying out a document
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "failed to render report: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Exporter renders service reports as paginated PDF tables
type Exporter struct {
	layout    Layout
	primary   RGB
	decorator func(Document) PageDecorator
	logger    *zap.Logger
}

// NewExporter creates an exporter that brands every page with primary
func NewExporter(primary RGB, logger *zap.Logger) *Exporter {
	e := &Exporter{
		layout:  DefaultLayout(),
		primary: primary,
		logger:  logger,
	}
	e.decorator = e.headerFooter
	return e
}

// WithDecorator replaces the per-page decoration
func (e *Exporter) WithDecorator(fn func(Document) PageDecorator) *Exporter {
	e.decorator = fn
	return e
}

func (e *Exporter) headerFooter(doc Document) PageDecorator {
	return HeaderFooter{
		Title:       doc.Title,
		Technician:  doc.Technician,
		RequestDate: doc.RequestDate,
		Primary:     e.primary,
		Layout:      e.layout,
	}
}

// Render lays out doc and returns the PDF bytes. Library panics are
// recovered and returned as *RenderError like any other failure.
func (e *Exporter) Render(doc Document) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			e.logger.Error("PDF generation failed",
				zap.Error(err),
				zap.String("technician", doc.Technician),
				zap.Int("rows", len(doc.Records)),
			)
		}
	}()

	m := e.layout.Margins
	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetMargins(m.Left, m.Top, m.Right)
	pdf.SetAutoPageBreak(false, m.Bottom)
	pdf.SetCellMargin(0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pageWidth, pageHeight := pdf.GetPageSize()

	t := &table{
		pdf:     pdf,
		tr:      tr,
		layout:  e.layout,
		widths:  e.layout.ColumnWidths(pageWidth),
		bottom:  pageHeight - m.Bottom,
		primary: e.primary,
	}
	t.write(doc, m.Top+e.layout.FirstPageOffset)

	total := pdf.PageCount()
	canvas := &fpdfCanvas{pdf: pdf, tr: tr}
	decorator := e.decorator(doc)
	for page := 1; page <= total; page++ {
		pdf.SetPage(page)
		decorator.DecoratePage(canvas, page, total)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}

	e.logger.Debug("PDF generated",
		zap.Int("pages", total),
		zap.Int("rows", len(doc.Records)),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

// table draws the grid. A row that does not fit goes to a new page and the
// head is repeated there. A row taller than a whole page is split: the
// lines that fit are drawn and the rest of every cell continues on the
// next page.
type table struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	layout  Layout
	widths  []float64
	bottom  float64
	primary RGB
}

func (t *table) write(doc Document, startY float64) {
	y := t.drawRow(ColumnTitles(), startY, true)
	rowsOnPage := 0

	for _, r := range doc.Records {
		cells := []string{
			doc.Technician,
			doc.RequestDate,
			r.CompletionDate,
			r.ActivityType,
			r.DeviceType,
			r.UnitLabel,
			r.Details,
			r.Comments,
		}
		lines, height := t.measure(cells, false)
		if rowsOnPage > 0 && y+height > t.bottom {
			y = t.newPage()
			rowsOnPage = 0
		}
		for y+height > t.bottom {
			fit := max(t.linesThatFit(t.bottom-y), 1)
			var rest [][]string
			lines, rest = splitLines(lines, fit)
			t.drawLines(lines, t.rowHeight(fit, false), y, false)
			y = t.newPage()
			lines, height = rest, t.rowHeight(maxLines(rest), false)
		}
		y = t.drawLines(lines, height, y, false)
		rowsOnPage++
	}
}

// newPage starts a page with a repeated head and returns the y below it
func (t *table) newPage() float64 {
	t.pdf.AddPage()
	return t.drawRow(ColumnTitles(), t.layout.Margins.Top, true)
}

func (t *table) rowHeight(lines int, head bool) float64 {
	size := t.layout.BodyFontSize
	if head {
		size = t.layout.HeadFontSize
	}
	return float64(lines)*size*t.layout.LineHeight + 2*t.layout.CellPadding
}

// linesThatFit is the number of body lines a row segment of height h holds
func (t *table) linesThatFit(h float64) int {
	return int((h - 2*t.layout.CellPadding) / (t.layout.BodyFontSize * t.layout.LineHeight))
}

// splitLines cuts every cell after n lines
func splitLines(lines [][]string, n int) (head, rest [][]string) {
	head = make([][]string, len(lines))
	rest = make([][]string, len(lines))
	for i, cell := range lines {
		k := min(n, len(cell))
		head[i], rest[i] = cell[:k], cell[k:]
	}
	return head, rest
}

func maxLines(lines [][]string) int {
	n := 1
	for _, cell := range lines {
		n = max(n, len(cell))
	}
	return n
}

func (t *table) setFont(head bool) float64 {
	if head {
		t.pdf.SetFont(fontFamily, "B", t.layout.HeadFontSize)
		return t.layout.HeadFontSize
	}
	t.pdf.SetFont(fontFamily, "", t.layout.BodyFontSize)
	return t.layout.BodyFontSize
}

// measure wraps every cell to its column and returns the lines and the row height
func (t *table) measure(cells []string, head bool) ([][]string, float64) {
	t.setFont(head)
	pad := t.layout.CellPadding
	lines := make([][]string, len(cells))
	for i, cell := range cells {
		wrapped := t.pdf.SplitText(t.tr(cell), t.widths[i]-2*pad)
		if len(wrapped) == 0 {
			wrapped = []string{""}
		}
		lines[i] = wrapped
	}
	return lines, t.rowHeight(maxLines(lines), head)
}

func (t *table) drawRow(cells []string, y float64, head bool) float64 {
	lines, height := t.measure(cells, head)
	return t.drawLines(lines, height, y, head)
}

func (t *table) drawLines(lines [][]string, height, y float64, head bool) float64 {
	size := t.setFont(head)
	pad := t.layout.CellPadding
	lineHeight := size * t.layout.LineHeight

	t.pdf.SetDrawColor(200, 200, 200)
	t.pdf.SetLineWidth(0.1)
	if head {
		t.pdf.SetFillColor(t.primary.R, t.primary.G, t.primary.B)
		t.pdf.SetTextColor(255, 255, 255)
	} else {
		t.pdf.SetTextColor(30, 30, 30)
	}

	x := t.layout.Margins.Left
	for i, cellLines := range lines {
		w := t.widths[i]
		style := "D"
		if head {
			style = "FD"
		}
		t.pdf.Rect(x, y, w, height, style)

		align := columns[i].align
		if head {
			align = AlignCenter
		}
		for k, line := range cellLines {
			t.pdf.SetXY(x+pad, y+pad+float64(k)*lineHeight)
			t.pdf.CellFormat(w-2*pad, lineHeight, line, "", 0, align.fpdf(), false, 0, "")
		}
		x += w
	}
	return y + height
}
