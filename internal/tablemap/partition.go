package tablemap

import (
	"sort"

	"github.com/Veraticus/proforma/internal/model"
)

// Visible returns the mappings to show, ordered by Order. When any mapping
// is explicitly marked non-summary, mappings explicitly marked summary are
// hidden; mappings without a summary flag are always kept.
func Visible(mappings []model.TableMapping) []model.TableMapping {
	hasDetail := false
	for _, m := range mappings {
		if summary, ok := m.IsSummary(); ok && !summary {
			hasDetail = true
			break
		}
	}

	out := make([]model.TableMapping, 0, len(mappings))
	for _, m := range mappings {
		if summary, ok := m.IsSummary(); hasDetail && ok && summary {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return model.Finite(out[i].Order.Float()) < model.Finite(out[j].Order.Float())
	})
	return out
}

// Names returns the non-empty table names in order.
func Names(mappings []model.TableMapping) []string {
	names := make([]string, 0, len(mappings))
	for _, m := range mappings {
		if m.TableName != "" {
			names = append(names, m.TableName)
		}
	}
	return names
}

// Summary returns the mappings explicitly flagged as summary tables, ordered
// by Order. They are rendered together under the report's summary section.
func Summary(mappings []model.TableMapping) []model.TableMapping {
	out := make([]model.TableMapping, 0, len(mappings))
	for _, m := range mappings {
		if summary, ok := m.IsSummary(); ok && summary {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return model.Finite(out[i].Order.Float()) < model.Finite(out[j].Order.Float())
	})
	return out
}
