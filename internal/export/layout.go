package export

import (
	"strings"
)

// Margins are page margins in points
type Margins struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// Layout holds the table geometry and type sizes, all in points
type Layout struct {
	Margins Margins
	// FirstPageOffset is added to the top margin before the table on page one.
	FirstPageOffset float64
	HeaderHeight    float64
	MinDetailsWidth float64

	BodyFontSize float64
	HeadFontSize float64
	CellPadding  float64
	LineHeight   float64 // multiple of the font size
}

// DefaultLayout is the A4 landscape report layout
func DefaultLayout() Layout {
	return Layout{
		Margins:         Margins{Left: 10, Right: 10, Top: 72, Bottom: 56},
		FirstPageOffset: 10,
		HeaderHeight:    56,
		MinDetailsWidth: 140,
		BodyFontSize:    7,
		HeadFontSize:    8,
		CellPadding:     2,
		LineHeight:      1.2,
	}
}

// Align is a horizontal text alignment
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) fpdf() string {
	switch a {
	case AlignCenter:
		return "C"
	case AlignRight:
		return "R"
	default:
		return "L"
	}
}

type column struct {
	title string
	width float64 // zero for the details column, which takes the remainder
	align Align
}

// detailsColumn is the index of the column that absorbs the remaining width
const detailsColumn = 6

var columns = []column{
	{title: "Tecnico", width: 60, align: AlignCenter},
	{title: "FechaSolicitud", width: 70, align: AlignCenter},
	{title: "FechaRealizacion", width: 70, align: AlignCenter},
	{title: "Actividad", width: 80, align: AlignCenter},
	{title: "Dispositivo", width: 80, align: AlignCenter},
	{title: "Unidad", width: 60, align: AlignCenter},
	{title: "Detalles", align: AlignLeft},
	{title: "Comentarios", width: 220, align: AlignLeft},
}

// ColumnTitles returns the table head in column order
func ColumnTitles() []string {
	titles := make([]string, len(columns))
	for i, c := range columns {
		titles[i] = c.title
	}
	return titles
}

// ColumnWidths returns the width of every column for a page of the given
// width. The details column gets what the fixed columns leave of the usable
// width, but never less than the layout minimum.
func (l Layout) ColumnWidths(pageWidth float64) []float64 {
	usable := pageWidth - l.Margins.Left - l.Margins.Right
	widths := make([]float64, len(columns))
	fixed := 0.0
	for i, c := range columns {
		widths[i] = c.width
		fixed += c.width
	}
	widths[detailsColumn] = max(usable-fixed, l.MinDetailsWidth)
	return widths
}

// Filename builds reporte_[company_]technician_date.pdf
func Filename(company, technician, requestDate string, includeCompany bool) string {
	parts := []string{"reporte"}
	if includeCompany {
		parts = append(parts, company)
	}
	parts = append(parts, technician, requestDate)
	return strings.Join(parts, "_") + ".pdf"
}
