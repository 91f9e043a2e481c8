package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/proforma/internal/cli"
	"github.com/Veraticus/proforma/internal/config"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/report"
	"github.com/Veraticus/proforma/internal/sheets"
	"github.com/Veraticus/proforma/internal/tablemap"
)

type tablesFlags struct {
	name      string
	fromSheet bool
	summary   bool
	list      bool
}

func tablesCmd() *cobra.Command {
	var (
		mf modelFlags
		tf tablesFlags
	)

	cmd := &cobra.Command{
		Use:   "tables [model-id]",
		Short: "Show the tables mapped from the model's workbook",
		Long: `Show the tables listed on the workbook's "Table Mapping" sheet, trimmed of
empty rows and columns. By default the tables stored on the model version
are used; --from-sheet reads them live from Google Sheets.`,
		Args: mf.args(),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newBackend()
			if err != nil {
				return err
			}
			m, _, err := mf.load(cmd.Context(), client, args)
			if err != nil {
				return err
			}

			mappings := m.TableMappingOutput
			if tf.fromSheet {
				if mappings, err = extractFromSheet(cmd.Context(), m); err != nil {
					return err
				}
			}

			selected := selectTables(mappings, tf)
			if len(selected) == 0 {
				if names := tablemap.Names(tablemap.Visible(mappings)); tf.name != "" && len(names) > 0 {
					writeln(cmd, cli.FormatInfo(fmt.Sprintf("No table named %q. Tables: %s", tf.name, strings.Join(names, ", "))))
					return nil
				}
				writeln(cmd, cli.FormatInfo("No tables found."))
				return nil
			}

			if tf.list {
				for _, name := range tablemap.Names(selected) {
					writeln(cmd, name)
				}
				return nil
			}
			for _, t := range selected {
				writeln(cmd, cli.RenderGrid(report.MappingGrid(t)))
				writeln(cmd)
			}
			return nil
		},
	}

	mf.register(cmd)
	cmd.Flags().StringVar(&tf.name, "name", "", "show only the named table")
	cmd.Flags().BoolVar(&tf.fromSheet, "from-sheet", false, "read tables from the model's Google Sheet")
	cmd.Flags().BoolVar(&tf.summary, "summary", false, "show only summary tables")
	cmd.Flags().BoolVar(&tf.list, "list", false, "list table names only")

	return cmd
}

// selectTables picks the tables to show in display order.
func selectTables(mappings []model.TableMapping, tf tablesFlags) []model.TableMapping {
	var tables []model.TableMapping
	if tf.summary {
		tables = tablemap.Summary(mappings)
	} else {
		tables = tablemap.Visible(mappings)
	}
	if tf.name == "" {
		return tables
	}
	for _, t := range tables {
		if strings.EqualFold(strings.TrimSpace(t.TableName), strings.TrimSpace(tf.name)) {
			return []model.TableMapping{t}
		}
	}
	return nil
}

func extractFromSheet(ctx context.Context, m *model.Model) ([]model.TableMapping, error) {
	if m.GoogleSheetURL == "" {
		return nil, fmt.Errorf("model has no Google Sheet")
	}
	id, err := sheets.SpreadsheetIDFromURL(m.GoogleSheetURL)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("google sheets is not configured: %w", err)
	}
	extractor, err := sheets.NewExtractor(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return extractor.ExtractTables(ctx, id)
}
