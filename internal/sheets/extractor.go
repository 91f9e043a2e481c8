package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/service"
)

// gridReader is the slice of the Sheets API the extractor uses.
type gridReader interface {
	Values(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Grid(ctx context.Context, spreadsheetID, rng string) ([]*sheets.RowData, error)
}

// MappingEntry is one row of the mapping worksheet.
type MappingEntry struct {
	TableName string
	Location  string
	// Order is nil when the sheet has no integer order for the table.
	Order   *int
	Summary *bool
}

// Extractor reads the tables listed on the mapping worksheet, with values
// as displayed and a style string per cell.
type Extractor struct {
	api    gridReader
	logger *slog.Logger
	config Config
}

var _ service.TableSource = (*Extractor)(nil)

// NewExtractor creates an extractor backed by the Google Sheets API.
func NewExtractor(ctx context.Context, config Config, logger *slog.Logger) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return newExtractor(&apiReader{srv: srv}, config, logger), nil
}

func newExtractor(api gridReader, config Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MappingSheet == "" {
		config.MappingSheet = DefaultMappingSheet
	}
	return &Extractor{api: api, logger: logger, config: config}
}

// ExtractTables reads every mapped table. Entries with an invalid location
// or a failed read are logged and skipped. The result is sorted by order;
// tables without an integer order go last.
func (e *Extractor) ExtractTables(ctx context.Context, spreadsheetID string) ([]model.TableMapping, error) {
	entries, err := e.MappingEntries(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	e.logger.Info("extracting tables", "spreadsheet_id", spreadsheetID, "entries", len(entries))

	type extracted struct {
		mapping model.TableMapping
		order   *int
	}
	out := make([]extracted, 0, len(entries))

	for _, entry := range entries {
		rng, ok := NormalizeLocation(entry.Location)
		if !ok {
			e.logger.Warn("skipping table with invalid location",
				"table", entry.TableName,
				"location", entry.Location)
			continue
		}

		var rows []*sheets.RowData
		err := common.WithRetry(ctx, func() error {
			var gridErr error
			rows, gridErr = e.api.Grid(ctx, spreadsheetID, rng)
			return gridErr
		}, e.retryOptions())
		if err != nil {
			e.logger.Warn("failed to extract table",
				"table", entry.TableName,
				"range", rng,
				"error", err)
			continue
		}

		m := GridToMapping(rows)
		m.TableName = entry.TableName
		m.Location = entry.Location
		m.Summary = entry.Summary
		if entry.Order != nil {
			m.Order = model.Number(*entry.Order)
		}
		out = append(out, extracted{mapping: m, order: entry.Order})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].order, out[j].order
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	mappings := make([]model.TableMapping, len(out))
	for i, x := range out {
		mappings[i] = x.mapping
	}

	e.logger.Info("extracted tables", "count", len(mappings))
	return mappings, nil
}

// MappingEntries reads the mapping worksheet. The first row holds the
// headers table_name, table_location, table_order and optionally summary.
func (e *Extractor) MappingEntries(ctx context.Context, spreadsheetID string) ([]MappingEntry, error) {
	var rows [][]any
	err := common.WithRetry(ctx, func() error {
		var valuesErr error
		rows, valuesErr = e.api.Values(ctx, spreadsheetID, quoteSheet(e.config.MappingSheet))
		return valuesErr
	}, e.retryOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.config.MappingSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", common.ErrNotFound, e.config.MappingSheet)
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(fmt.Sprint(h)))] = i
	}
	col := func(row []any, name string) string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	entries := make([]MappingEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entry := MappingEntry{
			TableName: col(row, "table_name"),
			Location:  col(row, "table_location"),
		}
		if n, err := strconv.Atoi(col(row, "table_order")); err == nil {
			entry.Order = &n
		}
		if b, err := strconv.ParseBool(col(row, "summary")); err == nil {
			entry.Summary = &b
		}
		if entry.TableName == "" && entry.Location == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (e *Extractor) retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  max(1, e.config.RetryAttempts),
		InitialDelay: e.config.RetryDelay,
		Multiplier:   2.0,
	}
}

// NormalizeLocation turns a mapping location such as "=Returns!B2:H9" or
// "'Cash Flow'!A1:F20" into an API range with a quoted sheet name.
func NormalizeLocation(location string) (string, bool) {
	loc := strings.TrimSpace(location)
	loc = strings.TrimSpace(strings.TrimPrefix(loc, "="))

	sheet, rng, ok := strings.Cut(loc, "!")
	if !ok || rng == "" {
		return "", false
	}
	sheet = strings.Trim(sheet, `'"`)
	if sheet == "" {
		return "", false
	}
	return quoteSheet(sheet) + "!" + rng, true
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// GridToMapping converts grid rows into values and style strings.
func GridToMapping(rows []*sheets.RowData) model.TableMapping {
	m := model.TableMapping{
		Data:   make([][]model.Cell, 0, len(rows)),
		Styles: make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		var cells []*sheets.CellData
		if row != nil {
			cells = row.Values
		}
		values := make([]model.Cell, 0, len(cells))
		styles := make([]string, 0, len(cells))
		for _, cell := range cells {
			if cell == nil {
				values = append(values, "")
				styles = append(styles, CellStyle(nil))
				continue
			}
			values = append(values, cell.FormattedValue)
			styles = append(styles, CellStyle(cell.EffectiveFormat))
		}
		m.Data = append(m.Data, values)
		m.Styles = append(m.Styles, styles)
	}
	return m
}

// CellStyle renders a cell format as an inline style string. Dark fills get
// white text.
func CellStyle(f *sheets.CellFormat) string {
	r, g, b := 255, 255, 255
	bold := false
	if f != nil {
		if c := f.BackgroundColor; c != nil {
			r, g, b = channel(c.Red), channel(c.Green), channel(c.Blue)
		}
		if f.TextFormat != nil {
			bold = f.TextFormat.Bold
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "background-color: rgb(%d,%d,%d);", r, g, b)
	if bold {
		sb.WriteString(" font-weight: bold;")
	}
	if 0.299*float64(r)+0.587*float64(g)+0.114*float64(b) < 140 {
		sb.WriteString(" color: white;")
	}
	return sb.String()
}

func channel(v float64) int {
	return int(math.Trunc(v * 255))
}
