package tablemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/proforma/internal/model"
)

func grid(rows, cols int) ([][]model.Cell, [][]string) {
	data := make([][]model.Cell, rows)
	styles := make([][]string, rows)
	for i := range data {
		data[i] = make([]model.Cell, cols)
		styles[i] = make([]string, cols)
		for j := range data[i] {
			data[i][j] = ""
		}
	}
	return data, styles
}

func TestTrimBoundingBox(t *testing.T) {
	data, styles := grid(5, 5)
	data[2][0] = "NOI"
	data[2][3] = 125000.0
	data[4][1] = "   "
	data[0][2] = nil
	styles[2][0] = "font-weight: bold"
	styles[2][3] = "text-align: right"

	got := Trim(model.TableMapping{Data: data, Styles: styles})

	require.Len(t, got.Rows, 3, "leading blank rows survive; only the trailing run is cut")
	assert.Equal(t, []model.Cell{"", ""}, got.Rows[0])
	assert.Equal(t, []model.Cell{"", ""}, got.Rows[1])
	assert.Equal(t, []model.Cell{"NOI", 125000.0}, got.Rows[2])
	assert.Equal(t, []string{"font-weight: bold", "text-align: right"}, got.Styles[2])
	assert.Equal(t, 2, got.ColumnCount())
}

func TestTrimSingleRow(t *testing.T) {
	data, styles := grid(5, 5)
	data[0] = []model.Cell{"Cap Rate", nil, " ", "6.5%", ""}
	styles[0][3] = "color: white"

	got := Trim(model.TableMapping{Data: data, Styles: styles})

	require.Len(t, got.Rows, 1)
	assert.Equal(t, []model.Cell{"Cap Rate", "6.5%"}, got.Rows[0])
	assert.Equal(t, []string{"", "color: white"}, got.Styles[0])
	assert.Equal(t, "6.5%", got.Text(0, 1))
	assert.Equal(t, "", got.Text(3, 3))
}

func TestTrimKeepsInteriorBlankColumnsWithValues(t *testing.T) {
	got := Trim(model.TableMapping{
		Data: [][]model.Cell{
			{"a", "", "c"},
			{"", "b", ""},
		},
	})
	require.Len(t, got.Rows, 2)
	assert.Equal(t, []model.Cell{"a", "", "c"}, got.Rows[0])
	assert.Equal(t, []string{"", "", ""}, got.Styles[1], "missing styles fill with empty strings")
}

func TestTrimRaggedRows(t *testing.T) {
	got := Trim(model.TableMapping{
		Data: [][]model.Cell{
			{"Label"},
			{"x", nil, 3.0},
		},
	})
	require.Len(t, got.Rows, 2)
	assert.Equal(t, []model.Cell{"Label", ""}, got.Rows[0])
	assert.Equal(t, []model.Cell{"x", 3.0}, got.Rows[1])
}

func TestTrimDegenerate(t *testing.T) {
	data, styles := grid(4, 3)
	assert.True(t, Trim(model.TableMapping{Data: data, Styles: styles}).Empty())
	assert.True(t, Trim(model.TableMapping{}).Empty())
	assert.Empty(t, Trim(model.TableMapping{Data: [][]model.Cell{{nil, " "}}}).Rows)
}

func TestKeepTogether(t *testing.T) {
	data := make([][]model.Cell, 19)
	for i := range data {
		data[i] = []model.Cell{"row"}
	}
	assert.False(t, Trim(model.TableMapping{Data: data}).KeepTogether())
	assert.True(t, Trim(model.TableMapping{Data: data[:18]}).KeepTogether())
}

func TestColumnWidths(t *testing.T) {
	assert.Nil(t, ColumnWidths(0))
	assert.Equal(t, []float64{100}, ColumnWidths(1))

	got := ColumnWidths(4)
	require.Len(t, got, 4)
	assert.InDelta(t, 40.0, got[0], 1e-9)
	for _, w := range got[1:] {
		assert.InDelta(t, 20.0, w, 1e-9)
	}

	pts := PointWidths(3, PDFContentWidth)
	assert.InDelta(t, 274.0, pts[0], 1e-9)
	assert.InDelta(t, 137.0, pts[1], 1e-9)
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CellStyle
	}{
		{
			name: "empty",
			in:   "",
			want: CellStyle{},
		},
		{
			name: "sheet export",
			in:   "background-color: rgb(31,78,121); font-weight: bold; color: white;",
			want: CellStyle{BackgroundColor: "rgb(31,78,121)", FontWeight: 700, Color: "white"},
		},
		{
			name: "numeric weight and alignment",
			in:   "FONT-WEIGHT: 600;text-align:center",
			want: CellStyle{FontWeight: 600, TextAlign: "center"},
		},
		{
			name: "unknown properties dropped",
			in:   "padding: 4px; background-color: #fff; font-style: italic; nonsense",
			want: CellStyle{BackgroundColor: "#fff"},
		},
		{
			name: "border bottom",
			in:   "border-bottom: 2px dashed #000000",
			want: CellStyle{BorderBottom: &Border{Width: 2, Style: "solid", Color: "#000000"}},
		},
		{
			name: "unparsable border falls back",
			in:   "border-bottom: thin",
			want: CellStyle{BorderBottom: &Border{Width: DefaultBorderWidth, Style: "solid", Color: DefaultBorderColor}},
		},
		{
			name: "unparsable weight ignored",
			in:   "font-weight: heavy",
			want: CellStyle{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStyle(tt.in))
		})
	}
	assert.True(t, ParseStyle("font-weight: bold").Bold())
	assert.False(t, ParseStyle("font-weight: 400").Bold())
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
		ok   bool
	}{
		{"#fff", RGB{255, 255, 255}, true},
		{"#1F4E79", RGB{31, 78, 121}, true},
		{"rgb(31, 78, 121)", RGB{31, 78, 121}, true},
		{"rgba(10,20,30,0.5)", RGB{10, 20, 30}, true},
		{" White ", RGB{255, 255, 255}, true},
		{"#12345", RGB{}, false},
		{"rgb(1,2)", RGB{}, false},
		{"transparent", RGB{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "#1f4e79", RGB{31, 78, 121}.Hex())
	assert.Less(t, RGB{31, 78, 121}.Luminance(), 140.0)
}

func TestLooksNumeric(t *testing.T) {
	assert.True(t, LooksNumeric("$1,250,000"))
	assert.True(t, LooksNumeric("6.50%"))
	assert.True(t, LooksNumeric(42.0))
	assert.True(t, LooksNumeric("(1,200)"))
	assert.False(t, LooksNumeric("1.45x"))
	assert.False(t, LooksNumeric("Year 1"))
	assert.False(t, LooksNumeric("  "))
	assert.False(t, LooksNumeric(nil))
	assert.False(t, LooksNumeric("-"))
}

func TestVisible(t *testing.T) {
	yes, no := true, false
	mappings := []model.TableMapping{
		{TableName: "Summary", Order: 0, Summary: &yes},
		{TableName: "Returns", Order: 3, Summary: &no},
		{TableName: "Unflagged", Order: 2},
		{TableName: "Sources", Order: 1, Summary: &no},
	}

	got := Names(Visible(mappings))
	assert.Equal(t, []string{"Sources", "Unflagged", "Returns"}, got)

	onlySummary := Visible(mappings[:1])
	assert.Equal(t, []string{"Summary"}, Names(onlySummary))

	assert.Empty(t, Visible(nil))
}

func TestVisibleStableOrder(t *testing.T) {
	mappings := []model.TableMapping{
		{TableName: "B", Order: 1},
		{TableName: "A", Order: 1},
		{TableName: "", Order: 0},
	}
	got := Visible(mappings)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"B", "A"}, Names(got))
}

func TestSummary(t *testing.T) {
	yes, no := true, false
	mappings := []model.TableMapping{
		{TableName: "Returns", Order: 3, Summary: &yes},
		{TableName: "Detail", Order: 1, Summary: &no},
		{TableName: "Unflagged", Order: 0},
		{TableName: "Sources", Order: 2, Summary: &yes},
	}
	assert.Equal(t, []string{"Sources", "Returns"}, Names(Summary(mappings)))
	assert.Empty(t, Summary(mappings[1:3]))
}
