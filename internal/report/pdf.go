package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/Veraticus/proforma/internal/config"
	"github.com/Veraticus/proforma/internal/tablemap"
)

// Page geometry in points for a Letter page.
const (
	pagePadding  = 32.0
	bottomMargin = 48.0
	rowHeight    = 14.0
	tableFont    = 8.0
	footerText   = "Powered by underwritre.com"

	fullImageHeight = 280.0
	halfImageHeight = 180.0
	imageGutter     = 8.0
)

const font = "Helvetica"

// PDF renders documents as paginated Letter-size PDFs.
type PDF struct {
	theme        config.Theme
	contentWidth float64
}

// NewPDF creates a renderer. A non-positive content width falls back to the
// width of a Letter page less its padding.
func NewPDF(theme config.Theme, contentWidth float64) *PDF {
	if contentWidth <= 0 {
		contentWidth = tablemap.PDFContentWidth
	}
	return &PDF{theme: theme, contentWidth: contentWidth}
}

// pdfWriter carries the state of one render.
type pdfWriter struct {
	*PDF
	pdf      *fpdf.Fpdf
	tr       func(string) string
	images   int
	sections int
}

// Render writes doc to w. Sections are emitted in opts.Order; disabled and
// empty sections are skipped and every rendered section after the first
// starts a new page.
func (p *PDF) Render(w io.Writer, doc Document, opts Options) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pagePadding, pagePadding, pagePadding)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetTitle(doc.Title, true)

	pw := &pdfWriter{PDF: p, pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(pw.footer)

	pdf.AddPage()
	pw.header(doc, opts)

	for _, key := range opts.Order {
		if !opts.Enabled(key) {
			continue
		}
		switch key {
		case SectionSummary:
			pw.section(func() { pw.summary(doc) })
		case SectionSensitivity:
			pw.section(func() { pw.sensitivity(doc) })
		case SectionIncome:
			if hasRows(doc.Income) {
				pw.section(func() { pw.income(doc) })
			}
		case SectionImages:
			if len(doc.Images) > 0 {
				pw.section(func() { pw.pictures(doc.Images) })
			}
		case SectionNotes:
			if len(doc.Notes) > 1 {
				pw.section(func() { pw.notes(doc.Notes) })
			}
		default:
			if g, ok := doc.Table(key); ok && !g.Empty() {
				pw.section(func() {
					pw.sectionTitle(g.Title)
					pw.table(g, false)
				})
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// Bytes renders doc into memory.
func (p *PDF) Bytes(doc Document, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) section(render func()) {
	if w.sections > 0 {
		w.pdf.AddPage()
	}
	w.sections++
	render()
}

func (w *pdfWriter) header(doc Document, opts Options) {
	pdf := w.pdf
	top := pdf.GetY()

	rightBottom := top
	if opts.Enabled(FlagCompanyLogo) && doc.Company != nil && doc.Company.Logo != nil {
		const logoHeight = 40.0
		if name := w.register(*doc.Company.Logo); name != "" {
			width, height := w.contain(name, 120, logoHeight)
			x := pagePadding + w.contentWidth - width
			pdf.ImageOptions(name, x, top, width, height, false, fpdf.ImageOptions{}, 0, "")
			rightBottom = top + height + 4
		}
	}
	if opts.Enabled(FlagCompanyInfo) && doc.Company.HasInfo() {
		pdf.SetFont(font, "", 9)
		w.textColor(w.theme.Muted)
		pdf.SetY(rightBottom)
		for _, line := range []string{doc.Company.Name, doc.Company.Phone, doc.Company.Email} {
			if line != "" {
				pdf.SetX(pagePadding)
				pdf.CellFormat(w.contentWidth, 11, w.tr(line), "", 1, "R", false, 0, "")
			}
		}
		rightBottom = pdf.GetY()
	}

	pdf.SetXY(pagePadding, top)
	pdf.SetFont(font, "B", 16)
	w.textColor(w.theme.Text)
	pdf.CellFormat(w.contentWidth*0.6, 20, w.tr(doc.Title), "", 1, "L", false, 0, "")
	if doc.Address != "" {
		pdf.SetFont(font, "", 10)
		w.textColor(w.theme.Muted)
		pdf.CellFormat(w.contentWidth*0.6, 14, w.tr(doc.Address), "", 1, "L", false, 0, "")
	}

	y := max(pdf.GetY(), rightBottom) + 6
	w.drawColor(w.theme.Border)
	pdf.SetLineWidth(1)
	pdf.Line(pagePadding, y, pagePadding+w.contentWidth, y)
	pdf.SetY(y + 10)
}

func (w *pdfWriter) footer() {
	pdf := w.pdf
	_, pageHeight := pdf.GetPageSize()
	pdf.SetY(pageHeight - 30)
	pdf.SetFont(font, "", 8)
	w.textColor(w.theme.Muted)
	pdf.CellFormat(w.contentWidth, 10, footerText, "", 0, "C", false, 0, "")
	pdf.SetX(pagePadding)
	pdf.CellFormat(w.contentWidth, 10, fmt.Sprint(pdf.PageNo()), "", 0, "R", false, 0, "")
}

func (w *pdfWriter) sectionTitle(title string) {
	w.pdf.SetFont(font, "B", 12)
	w.textColor(w.theme.Text)
	w.pdf.CellFormat(w.contentWidth, 18, w.tr(title), "", 1, "L", false, 0, "")
	w.pdf.Ln(2)
}

func (w *pdfWriter) subTitle(title string) {
	w.pdf.SetFont(font, "B", 10)
	w.textColor(w.theme.Text)
	w.pdf.CellFormat(w.contentWidth, 14, w.tr(title), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) summary(doc Document) {
	pdf := w.pdf
	w.sectionTitle("Key Performance Metrics")

	third := w.contentWidth / 3
	y := pdf.GetY()
	for i, k := range doc.KPIs {
		x := pagePadding + float64(i%3)*third
		pdf.SetXY(x, y)
		pdf.SetFont(font, "", 9)
		w.textColor(w.theme.Muted)
		pdf.CellFormat(third, 12, w.tr(k.Label), "", 2, "L", false, 0, "")
		pdf.SetFont(font, "B", 12)
		w.textColor(w.theme.Text)
		pdf.CellFormat(third, 16, w.tr(k.Value), "", 0, "L", false, 0, "")
	}
	pdf.SetXY(pagePadding, y+34)

	if hasRows(doc.Summary) {
		w.sectionTitle("Summary Tables")
		for _, g := range doc.Summary {
			if !g.Empty() {
				w.table(g, false)
				pdf.Ln(8)
			}
		}
	}
}

func (w *pdfWriter) sensitivity(doc Document) {
	w.sectionTitle("Sensitivity Tables")
	w.pdf.SetFont(font, "", 9)
	w.textColor(w.theme.Muted)
	w.pdf.CellFormat(w.contentWidth, 12, "Exit Cap Rate (%) vs Acquisition Price ($)", "", 1, "L", false, 0, "")

	if !hasRows(doc.Sensitivity) {
		w.pdf.Ln(6)
		w.pdf.SetFont(font, "", 10)
		w.pdf.CellFormat(w.contentWidth, 14, "No data available", "", 1, "L", false, 0, "")
		return
	}
	for _, g := range doc.Sensitivity {
		if g.Empty() {
			continue
		}
		w.pdf.Ln(6)
		w.subTitle(g.Title)
		w.table(g, false)
	}
}

// income renders the rent roll and amenity income together; operating
// expenses start their own page.
func (w *pdfWriter) income(doc Document) {
	w.sectionTitle("Income and Expenses")
	for _, g := range doc.Income {
		if g.Empty() {
			continue
		}
		if g.Title == ExpensesTitle {
			w.pdf.AddPage()
			w.sectionTitle(g.Title)
		} else {
			w.pdf.Ln(6)
			w.subTitle(g.Title)
		}
		w.table(g, true)
	}
}

// table draws g with the weighted column widths. Tables short enough to fit
// on one page are moved to a fresh page instead of being split.
func (w *pdfWriter) table(g Grid, keepTogether bool) {
	pdf := w.pdf
	n := g.ColumnCount()
	if n == 0 {
		return
	}
	widths := tablemap.PointWidths(n, w.contentWidth)

	height := float64(len(g.Rows)) * rowHeight
	_, pageHeight := pdf.GetPageSize()
	if keepTogether || len(g.Rows) <= tablemap.KeepTogetherRows {
		if pdf.GetY()+height > pageHeight-bottomMargin && height < pageHeight-2*pagePadding {
			pdf.AddPage()
		}
	}

	for i, row := range g.Rows {
		pdf.SetX(pagePadding)
		for j := 0; j < n; j++ {
			text := ""
			if j < len(row) {
				text = row[j]
			}
			w.cell(g, i, j, widths[j], text)
		}
		pdf.Ln(rowHeight)
	}
	pdf.SetLineWidth(1)
}

func (w *pdfWriter) cell(g Grid, i, j int, width float64, text string) {
	pdf := w.pdf
	style := g.Style(i, j)

	bold := style.Bold() || (g.Header && i == 0) || (g.IsTotals(i) && j == 0)
	if bold {
		pdf.SetFont(font, "B", tableFont)
	} else {
		pdf.SetFont(font, "", tableFont)
	}

	fill := false
	switch {
	case style.BackgroundColor != "":
		fill = w.fillColor(style.BackgroundColor)
	case g.Header && i == 0:
		fill = w.fillColor(w.theme.HeaderFill)
	case g.IsTotals(i):
		fill = w.fillColor(w.theme.TotalsFill)
	}

	if style.Color == "" || !w.textColor(style.Color) {
		w.textColor(w.theme.Text)
	}

	borderColor, borderWidth := w.theme.Border, 0.75
	if b := style.BorderBottom; b != nil {
		borderColor, borderWidth = b.Color, b.Width*0.75
	}
	if !w.drawColor(borderColor) {
		w.drawColor(w.theme.Border)
	}
	pdf.SetLineWidth(borderWidth)

	pdf.CellFormat(width, rowHeight, w.fit(text, width-4), "B", 0, g.Align(i, j), fill, 0, "")
}

// fit truncates text with an ellipsis to the given width at the current
// font.
func (w *pdfWriter) fit(text string, width float64) string {
	s := w.tr(text)
	if w.pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && w.pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func (w *pdfWriter) pictures(images []Image) {
	pdf := w.pdf
	w.sectionTitle("Property Images")

	first := images[0]
	if name := w.register(first); name != "" {
		width, height := w.contain(name, w.contentWidth, fullImageHeight)
		pdf.ImageOptions(name, pagePadding, pdf.GetY(), width, height, true, fpdf.ImageOptions{}, 0, "")
		w.caption(first.Description, w.contentWidth)
	}
	pdf.Ln(imageGutter)

	half := (w.contentWidth - imageGutter) / 2
	_, pageHeight := pdf.GetPageSize()
	rest := images[1:]
	for i := 0; i < len(rest); i += 2 {
		if pdf.GetY()+halfImageHeight+24 > pageHeight-bottomMargin {
			pdf.AddPage()
		}
		y := pdf.GetY()
		bottom := y
		for k := 0; k < 2 && i+k < len(rest); k++ {
			img := rest[i+k]
			x := pagePadding + float64(k)*(half+imageGutter)
			name := w.register(img)
			if name == "" {
				continue
			}
			width, height := w.contain(name, half, halfImageHeight)
			pdf.ImageOptions(name, x, y, width, height, false, fpdf.ImageOptions{}, 0, "")
			pdf.SetXY(x, y+height)
			w.caption(img.Description, half)
			bottom = max(bottom, pdf.GetY())
		}
		pdf.SetXY(pagePadding, bottom+imageGutter)
	}
}

func (w *pdfWriter) caption(text string, width float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	x := w.pdf.GetX()
	w.pdf.SetFont(font, "", 10)
	w.textColor(w.theme.Muted)
	w.pdf.Ln(4)
	w.pdf.SetX(x)
	w.pdf.MultiCell(width, 12, w.tr(text), "", "L", false)
}

func (w *pdfWriter) notes(notes []string) {
	pdf := w.pdf
	w.sectionTitle("Notes")
	for i, n := range notes {
		pdf.SetFont(font, "", 10)
		w.textColor(w.theme.Text)
		pdf.MultiCell(w.contentWidth, 14, w.tr(n), "", "L", false)
		if i < len(notes)-1 {
			y := pdf.GetY() + 6
			w.drawColor(w.theme.Border)
			pdf.SetLineWidth(0.75)
			pdf.Line(pagePadding, y, pagePadding+w.contentWidth, y)
			pdf.SetY(y + 6)
		}
	}
}

// register loads an image into the document and returns its name, or ""
// when the data cannot be decoded.
func (w *pdfWriter) register(img Image) string {
	if len(img.Data) == 0 || img.Type == "" {
		return ""
	}
	w.images++
	name := fmt.Sprintf("img%d", w.images)
	info := w.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: img.Type}, bytes.NewReader(img.Data))
	if info == nil || w.pdf.Err() {
		// A bad image must not abort the rest of the report.
		w.pdf.ClearError()
		return ""
	}
	return name
}

// contain scales a registered image to fit the box, keeping its aspect
// ratio.
func (w *pdfWriter) contain(name string, maxWidth, maxHeight float64) (float64, float64) {
	info := w.pdf.GetImageInfo(name)
	if info == nil || info.Width() == 0 || info.Height() == 0 {
		return maxWidth, maxHeight
	}
	scale := min(maxWidth/info.Width(), maxHeight/info.Height())
	return info.Width() * scale, info.Height() * scale
}

func (w *pdfWriter) textColor(s string) bool {
	c, ok := tablemap.ParseColor(s)
	if ok {
		w.pdf.SetTextColor(c.R, c.G, c.B)
	}
	return ok
}

func (w *pdfWriter) fillColor(s string) bool {
	c, ok := tablemap.ParseColor(s)
	if ok {
		w.pdf.SetFillColor(c.R, c.G, c.B)
	}
	return ok
}

func (w *pdfWriter) drawColor(s string) bool {
	c, ok := tablemap.ParseColor(s)
	if ok {
		w.pdf.SetDrawColor(c.R, c.G, c.B)
	}
	return ok
}

func hasRows(grids []Grid) bool {
	for _, g := range grids {
		if !g.Empty() {
			return true
		}
	}
	return false
}
