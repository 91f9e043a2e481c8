package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/proforma/internal/cli"
	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/config"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/report"
	"github.com/Veraticus/proforma/internal/sensitivity"
	"github.com/Veraticus/proforma/internal/storage"
)

type sensitivityFlags struct {
	maxPrice   string
	minCapRate string
	metric     string
	resume     bool
	noProgress bool
}

func sensitivityCmd() *cobra.Command {
	var (
		mf modelFlags
		sf sensitivityFlags
	)

	cmd := &cobra.Command{
		Use:   "sensitivity [model-id]",
		Short: "Generate IRR and MOIC sensitivity tables",
		Long: `Ask the remote engine for levered IRR and MOIC matrices over acquisition
price and exit cap rate, then poll until they are ready or the poll limit
is reached. Tables already stored on the model or in the cache for the
same inputs are shown without a new request.

Interrupting stops polling only; the engine keeps generating and
--resume picks the result up later without issuing another request.`,
		Args: mf.args(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSensitivityCmd(cmd, args, &mf, sf)
		},
	}

	mf.register(cmd)
	cmd.Flags().StringVar(&sf.maxPrice, "max-price", "", "acquisition price (default: the model's value)")
	cmd.Flags().StringVar(&sf.minCapRate, "min-cap-rate", "", "exit cap rate in percent (default: the model's value)")
	cmd.Flags().StringVar(&sf.metric, "metric", "both", "matrix to show (irr, moic, both)")
	cmd.Flags().BoolVar(&sf.resume, "resume", false, "poll an earlier request instead of starting a new one")
	cmd.Flags().BoolVar(&sf.noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

func runSensitivityCmd(cmd *cobra.Command, args []string, mf *modelFlags, sf sensitivityFlags) error {
	metrics, err := parseMetrics(sf.metric)
	if err != nil {
		return err
	}

	client, cfg, err := newBackend()
	if err != nil {
		return err
	}
	m, modelID, err := mf.load(cmd.Context(), client, args)
	if err != nil {
		return err
	}

	eng := engine()
	req, err := sensitivity.RequestFromModel(modelID, m, sensitivity.Seeds{
		MaxPrice:   eng.DefaultMaxPrice,
		MinCapRate: eng.DefaultMinCapRate,
	})
	if err != nil {
		return common.NewUserError("The model's acquisition price or exit cap rate is not numeric", err)
	}
	if req, err = applyOverrides(req, sf); err != nil {
		return err
	}

	store, err := storage.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open table cache: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Warn("Failed to close table cache", "error", cerr)
		}
	}()

	opts := sensitivityOptions(cfg)
	var progress *cli.PollProgress
	if !sf.noProgress {
		progress = cli.NewPollProgress(cmd.ErrOrStderr(), cfg.MaxPolls)
		opts.Observer = progress.Observe
	}
	orch := sensitivity.New(client, store, opts)
	defer func() { _ = orch.Close() }()

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), resumeHint(modelID, mf, req))

	snap, err := settle(ctx, orch, req, m.Sensitivity(), sf.resume)
	if progress != nil {
		progress.Finish()
	}
	if handler.WasInterrupted() {
		return nil
	}
	if err != nil {
		common.LogError(err, "Sensitivity generation failed", common.Fields{
			"version_id": snap.VersionID,
			"state":      snap.State,
			"polls":      snap.Polls,
		})
		return sensitivityError(snap, err)
	}

	writeln(cmd, cli.FormatTitle(titleFor(m.Name, "Sensitivity")))
	writeln(cmd, cli.SubtleStyle.Render(fmt.Sprintf("Acquisition price $%s, exit cap rate %s%%",
		common.FormatThousands(req.MaxPrice, 0), common.FormatThousands(req.MinCapRate, 2))))
	for _, metric := range metrics {
		writeln(cmd)
		writeln(cmd, cli.RenderGrid(report.SensitivityGrid(snap.Result, metric)))
	}
	return nil
}

// settle seeds the session from the model's embedded state and then either
// resumes polling or triggers generation, waiting for the session to end.
func settle(ctx context.Context, orch *sensitivity.Orchestrator, req sensitivity.Request, embedded *model.SensitivityTablesPayload, resume bool) (sensitivity.Snapshot, error) {
	if orch.Hydrate(ctx, req, embedded) && !orch.Snapshot(req.VersionID).State.InFlight() {
		// Embedded matrices may have been built from other inputs; Generate
		// is a no-op when they match.
		return orch.Generate(ctx, req)
	}
	if resume {
		if _, err := orch.Resume(req); err != nil {
			return orch.Snapshot(req.VersionID), err
		}
		return orch.Wait(ctx, req.VersionID)
	}
	if orch.Snapshot(req.VersionID).State.InFlight() {
		return orch.Wait(ctx, req.VersionID)
	}
	return orch.Generate(ctx, req)
}

func applyOverrides(req sensitivity.Request, sf sensitivityFlags) (sensitivity.Request, error) {
	if sf.maxPrice != "" {
		v, err := sensitivity.ParseInput(sf.maxPrice)
		if err != nil {
			return req, common.NewUserError("--max-price must be a number", err)
		}
		req.MaxPrice = v
	}
	if sf.minCapRate != "" {
		v, err := sensitivity.ParseInput(sf.minCapRate)
		if err != nil {
			return req, common.NewUserError("--min-cap-rate must be a number", err)
		}
		req.MinCapRate = v
	}
	return req, nil
}

func parseMetrics(s string) ([]sensitivity.Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "irr":
		return []sensitivity.Metric{sensitivity.IRR}, nil
	case "moic":
		return []sensitivity.Metric{sensitivity.MOIC}, nil
	case "", "both":
		return []sensitivity.Metric{sensitivity.IRR, sensitivity.MOIC}, nil
	default:
		return nil, fmt.Errorf("invalid metric %q: use irr, moic or both", s)
	}
}

func sensitivityOptions(cfg config.Sensitivity) sensitivity.Options {
	return sensitivity.Options{
		Logger:         slog.Default(),
		PollInterval:   cfg.PollInterval,
		MaxPollDelay:   cfg.MaxPollDelay,
		PollMultiplier: cfg.PollMultiplier,
		MaxPolls:       cfg.MaxPolls,
	}
}

func resumeHint(modelID string, mf *modelFlags, req sensitivity.Request) string {
	ref := modelID
	if mf.file != "" {
		ref = "--file " + mf.file
	}
	if ref == "" {
		return ""
	}
	return fmt.Sprintf("uw sensitivity %s --version %s --resume", ref, req.VersionID)
}

// sensitivityError maps a terminal session error to what the user sees.
func sensitivityError(snap sensitivity.Snapshot, err error) error {
	switch {
	case errors.Is(err, common.ErrPollTimeout), snap.State == sensitivity.TimedOut:
		return common.NewUserError("Sensitivity tables are still generating. Try again in a few minutes.", err)
	case errors.Is(err, common.ErrInputsNotReady):
		return common.NewUserError("Sensitivity inputs are not ready", err)
	case errors.Is(err, context.Canceled):
		return common.NewUserError("Sensitivity generation canceled", err)
	default:
		return common.NewUserError("No data available", err)
	}
}
