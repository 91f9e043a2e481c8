package report

import (
	"path"
	"strings"

	"github.com/Veraticus/proforma/internal/expense"
	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/income"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/sensitivity"
	"github.com/Veraticus/proforma/internal/tablemap"
)

// Image is a decoded picture. Type is an fpdf image type: "PNG", "JPG" or
// "GIF".
type Image struct {
	Data        []byte
	Type        string
	Description string
}

// Company identifies the firm preparing the report.
type Company struct {
	Name  string
	Phone string
	Email string
	Logo  *Image
}

// HasInfo reports whether any contact line is set.
func (c *Company) HasInfo() bool {
	return c != nil && (c.Name != "" || c.Phone != "" || c.Email != "")
}

// Document is everything a renderer needs, already computed.
type Document struct {
	Title       string
	Address     string
	Company     *Company
	KPIs        []KPI
	Summary     []Grid
	Sensitivity []Grid
	Income      []Grid
	Tables      []Grid
	Images      []Image
	Notes       []string
}

// NewDocument computes every grid for a model version. Images and notes are
// fetched separately and attached by the caller.
func NewDocument(m *model.Model, result model.SensitivityResult, calc income.Calculator) Document {
	doc := Document{
		Title:   m.Name,
		Address: m.Address(),
		KPIs:    KPIs(fields.FromModel(m)),
		Sensitivity: []Grid{
			SensitivityGrid(result, sensitivity.IRR),
			SensitivityGrid(result, sensitivity.MOIC),
		},
	}

	for _, t := range tablemap.Summary(m.TableMappingOutput) {
		doc.Summary = append(doc.Summary, MappingGrid(t))
	}
	for _, t := range tablemap.Visible(m.TableMappingOutput) {
		if t.TableName != "" {
			doc.Tables = append(doc.Tables, MappingGrid(t))
		}
	}

	alloc := expense.NewAllocator(expense.ContextFromModel(m, calc))
	doc.Income = []Grid{
		UnitsGrid(m.Units, m.MarketRentAssumptions),
		AmenityGrid(m.AmenityIncome),
		ExpensesGrid(m.OperatingExpenses, alloc),
	}
	return doc
}

// TableNames lists the named tables in display order.
func (d Document) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for _, t := range d.Tables {
		names = append(names, t.Title)
	}
	return names
}

// Table returns the named table.
func (d Document) Table(name string) (Grid, bool) {
	for _, t := range d.Tables {
		if t.Title == name {
			return t, true
		}
	}
	return Grid{}, false
}

// DefaultOptions returns the section defaults for this document.
func (d Document) DefaultOptions() Options {
	return DefaultOptions(d.TableNames(), len(d.Images) > 0)
}

// ImageType maps a content type, or failing that a file extension, to an
// fpdf image type. It returns "" for unsupported formats.
func ImageType(contentType, name string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "image/png":
		return "PNG"
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}

	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	}
	return ""
}
