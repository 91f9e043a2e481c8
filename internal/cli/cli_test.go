package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/proforma/internal/report"
	"github.com/Veraticus/proforma/internal/sensitivity"
)

func TestRenderGrid(t *testing.T) {
	g := report.Grid{
		Title:  "Units",
		Header: true,
		Totals: true,
		Rows: [][]string{
			{"Unit", "Layout", "Rent"},
			{"1", "1BR", "$1,200"},
			{"Totals", ""},
		},
	}

	out := RenderGrid(g)
	assert.True(t, strings.HasPrefix(out, BoldStyle.Render("Units")))
	for _, want := range []string{"Unit", "Layout", "1BR", "$1,200", "Totals"} {
		assert.Contains(t, out, want)
	}

	assert.Contains(t, RenderGrid(report.Grid{Title: "Empty"}), "No data available")
}

func TestRenderKeyValues(t *testing.T) {
	out := RenderKeyValues([][2]string{{"EGI", "$1,000"}, {"Vacancy rate", "5%"}})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "EGI")
	assert.Contains(t, lines[1], "5%")
}

func TestPollProgress(t *testing.T) {
	out := &syncBuffer{}
	p := NewPollProgress(out, 5)

	p.Observe(sensitivity.Snapshot{State: sensitivity.Requesting})
	p.Observe(sensitivity.Snapshot{State: sensitivity.Generating, Polls: 2})
	p.Observe(sensitivity.Snapshot{State: sensitivity.Ready, Polls: 3})
	assert.True(t, p.done)

	// Updates after the session ended are ignored.
	p.Observe(sensitivity.Snapshot{State: sensitivity.Generating, Polls: 4})
	p.Finish()
	assert.NotEmpty(t, out.String())
}
