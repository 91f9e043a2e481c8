package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/proforma/internal/backend"
	"github.com/Veraticus/proforma/internal/cli"
	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/config"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/report"
	"github.com/Veraticus/proforma/internal/sensitivity"
	"github.com/Veraticus/proforma/internal/storage"
)

// Export formats.
const (
	formatPDF  = "pdf"
	formatXLSX = "xlsx"
)

type exportFlags struct {
	format    string
	output    string
	only      []string
	exclude   []string
	moveUp    []string
	moveDown  []string
	notes     bool
	noCompany bool
	noLogo    bool
}

func exportCmd() *cobra.Command {
	var (
		mf modelFlags
		ef exportFlags
	)

	cmd := &cobra.Command{
		Use:   "export [model-id]",
		Short: "Export an investment summary as PDF or XLSX",
		Long: `Render an investment summary for a model version. Sections are the
summary KPIs and tables, the sensitivity matrices, income and expenses,
property images, notes, and each named table from the workbook. Sections
can be included, excluded and reordered; by default notes are left out.

Sensitivity matrices come from the model version or the table cache;
run "uw sensitivity" first to generate them.`,
		Args: mf.args(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, &mf, ef)
		},
	}

	mf.register(cmd)
	cmd.Flags().StringVar(&ef.format, "format", "", "output format (pdf, xlsx; default: from --output, else pdf)")
	cmd.Flags().StringVarP(&ef.output, "output", "o", "", "output file (default: \"<model name> Summary.<format>\")")
	cmd.Flags().StringSliceVar(&ef.only, "only", nil, "include only these sections")
	cmd.Flags().StringSliceVar(&ef.exclude, "exclude", nil, "leave these sections out")
	cmd.Flags().StringSliceVar(&ef.moveUp, "up", nil, "move these sections one step earlier")
	cmd.Flags().StringSliceVar(&ef.moveDown, "down", nil, "move these sections one step later")
	cmd.Flags().BoolVar(&ef.notes, "notes", false, "include the model's notes")
	cmd.Flags().BoolVar(&ef.noCompany, "no-company", false, "leave company details out of the header")
	cmd.Flags().BoolVar(&ef.noLogo, "no-logo", false, "leave the company logo out of the header")

	cmd.Flags().String("company-name", "", "company name for the header")
	cmd.Flags().String("company-phone", "", "company phone for the header")
	cmd.Flags().String("company-email", "", "company email for the header")
	cmd.Flags().String("company-logo", "", "path to a PNG or JPEG company logo")
	_ = viper.BindPFlag("report.company_name", cmd.Flags().Lookup("company-name"))
	_ = viper.BindPFlag("report.company_phone", cmd.Flags().Lookup("company-phone"))
	_ = viper.BindPFlag("report.company_email", cmd.Flags().Lookup("company-email"))
	_ = viper.BindPFlag("report.company_logo", cmd.Flags().Lookup("company-logo"))

	return cmd
}

func runExport(cmd *cobra.Command, args []string, mf *modelFlags, ef exportFlags) error {
	format, err := exportFormat(ef.format, ef.output)
	if err != nil {
		return err
	}

	client, cfg, err := newBackend()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	m, modelID, err := mf.load(ctx, client, args)
	if err != nil {
		return err
	}

	doc := report.NewDocument(m, exportResult(ctx, cfg, m), calculator())
	doc.Company = loadCompany()
	doc.Images = downloadPictures(ctx, client, m.Pictures)

	opts, err := exportOptions(doc, ef)
	if err != nil {
		return err
	}
	if opts.Enabled(report.SectionNotes) && modelID != "" {
		notes, err := client.GetNotes(ctx, modelID)
		if err != nil {
			slog.Warn("Failed to fetch notes", "model_id", modelID, "error", err)
		}
		doc.Notes = notes
	}

	var buf bytes.Buffer
	eng := engine()
	switch format {
	case formatXLSX:
		err = report.NewXLSX(eng.Theme).Write(&buf, doc, opts)
	default:
		err = report.NewPDF(eng.Theme, eng.PDFContentWidth).Render(&buf, doc, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", format, err)
	}

	path := ef.output
	if path == "" {
		path = defaultOutput(m.Name, format)
	}
	path = config.ExpandPath(path)
	if err := config.EnsureParentDir(path); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	common.LogDebug("Exported investment summary", common.Fields{
		"path":     path,
		"format":   format,
		"bytes":    buf.Len(),
		"sections": len(opts.Order),
	})
	writeln(cmd, cli.FormatSuccess(fmt.Sprintf("Wrote %s", path)))
	return nil
}

// exportFormat picks the format from the flag, then the output extension.
func exportFormat(flag, output string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(flag))
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	switch f {
	case "", formatPDF:
		return formatPDF, nil
	case formatXLSX:
		return formatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q: use pdf or xlsx", f)
	}
}

func defaultOutput(name, format string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = "Investment"
	}
	base = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '-'
		}
		return r
	}, base)
	return base + " Summary." + format
}

// exportOptions applies the section flags to the document defaults.
func exportOptions(doc report.Document, ef exportFlags) (report.Options, error) {
	opts := doc.DefaultOptions()
	known := func(key string) (string, error) {
		for _, k := range opts.Order {
			if strings.EqualFold(k, strings.TrimSpace(key)) {
				return k, nil
			}
		}
		return "", fmt.Errorf("unknown section %q (sections: %s)", key, strings.Join(opts.Order, ", "))
	}

	if len(ef.only) > 0 {
		keep := make([]string, 0, len(ef.only))
		for _, key := range ef.only {
			k, err := known(key)
			if err != nil {
				return opts, err
			}
			keep = append(keep, k)
		}
		for _, k := range opts.Order {
			opts.Set(k, slices.Contains(keep, k))
		}
	}
	for _, key := range ef.exclude {
		k, err := known(key)
		if err != nil {
			return opts, err
		}
		opts.Set(k, false)
	}
	if ef.notes && len(ef.only) == 0 {
		opts.Set(report.SectionNotes, true)
	}
	for _, key := range ef.moveUp {
		k, err := known(key)
		if err != nil {
			return opts, err
		}
		opts.Move(k, report.Up)
	}
	for _, key := range ef.moveDown {
		k, err := known(key)
		if err != nil {
			return opts, err
		}
		opts.Move(k, report.Down)
	}
	if ef.noCompany {
		opts.Set(report.FlagCompanyInfo, false)
	}
	if ef.noLogo {
		opts.Set(report.FlagCompanyLogo, false)
	}
	return opts, nil
}

// exportResult returns the embedded matrices, else the cached ones, else
// empty matrices.
func exportResult(ctx context.Context, cfg config.Sensitivity, m *model.Model) model.SensitivityResult {
	if result, ok := sensitivity.NormalizeResult(m.Sensitivity()); ok {
		return result
	}

	empty := model.SensitivityResult{IRR: model.EmptySensitivityTable(), MOIC: model.EmptySensitivityTable()}
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		slog.Warn("Failed to open table cache", "error", err)
		return empty
	}
	defer func() { _ = store.Close() }()

	cached, err := store.Get(ctx, m.VersionID)
	if err != nil || cached == nil {
		return empty
	}
	return cached.Result
}

func loadCompany() *report.Company {
	c := &report.Company{
		Name:  viper.GetString("report.company_name"),
		Phone: viper.GetString("report.company_phone"),
		Email: viper.GetString("report.company_email"),
	}
	if path := viper.GetString("report.company_logo"); path != "" {
		path = config.ExpandPath(path)
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Failed to read company logo", "path", path, "error", err)
		} else if typ := report.ImageType("", path); typ != "" {
			c.Logo = &report.Image{Data: data, Type: typ}
		} else {
			slog.Warn("Unsupported company logo format", "path", path)
		}
	}
	if !c.HasInfo() && c.Logo == nil {
		return nil
	}
	return c
}

// downloadPictures fetches each picture. Failed or unsupported images are
// logged and skipped.
func downloadPictures(ctx context.Context, client *backend.Client, pictures []model.Picture) []report.Image {
	images := make([]report.Image, 0, len(pictures))
	for _, p := range pictures {
		if p.URL == "" {
			continue
		}
		data, contentType, err := client.Download(ctx, p.URL)
		if err != nil {
			slog.Warn("Failed to download picture", "id", p.ID, "error", err)
			continue
		}
		typ := report.ImageType(contentType, p.URL)
		if typ == "" {
			slog.Warn("Skipping picture with unsupported format", "id", p.ID, "content_type", contentType)
			continue
		}
		images = append(images, report.Image{Data: data, Type: typ, Description: p.Description})
	}
	return images
}
