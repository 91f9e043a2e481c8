package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/proforma/internal/cli"
	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/config"
	"github.com/Veraticus/proforma/internal/report"
	"github.com/Veraticus/proforma/internal/service"
	"github.com/Veraticus/proforma/internal/storage"
)

// versionLister is implemented by caches that outlive one command.
type versionLister interface {
	Versions(ctx context.Context) ([]string, error)
}

// pruner is implemented by caches without their own expiry.
type pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune cached sensitivity tables",
	}
	cmd.AddCommand(cacheListCmd(), cachePruneCmd())
	return cmd
}

func cacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached sensitivity tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd.Context(), func(store service.TableStore) error {
				return listCache(cmd, store)
			})
		},
	}
}

func cachePruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached sensitivity tables older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return withCache(cmd.Context(), func(store service.TableStore) error {
				return pruneCache(cmd, store, time.Now().Add(-olderThan))
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "delete entries created before this long ago")
	return cmd
}

func withCache(ctx context.Context, fn func(service.TableStore) error) error {
	cfg, err := config.LoadSensitivity(viper.GetViper())
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open table cache: %w", err)
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func listCache(cmd *cobra.Command, store service.TableStore) error {
	lister, ok := store.(versionLister)
	if !ok {
		writeln(cmd, cli.FormatInfo("The memory cache lasts for one command; configure cache.backend to keep tables."))
		return nil
	}

	ctx := cmd.Context()
	versions, err := lister.Versions(ctx)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		writeln(cmd, cli.FormatInfo("No cached sensitivity tables."))
		return nil
	}

	g := report.Grid{Title: "CACHED SENSITIVITY TABLES", Header: true}
	g.Rows = append(g.Rows, []string{"Version", "Max price", "Min cap rate", "Created"})
	for _, v := range versions {
		entry, err := store.Get(ctx, v)
		if err != nil || entry == nil {
			continue
		}
		g.Rows = append(g.Rows, []string{
			v,
			common.FormatMoney(entry.Key.MaxPrice),
			common.FormatThousands(entry.Key.MinCapRate, 2) + "%",
			entry.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	writeln(cmd, cli.RenderGrid(g))
	return nil
}

func pruneCache(cmd *cobra.Command, store service.TableStore, cutoff time.Time) error {
	p, ok := store.(pruner)
	if !ok {
		writeln(cmd, cli.FormatInfo("This cache backend expires entries on its own; nothing to prune."))
		return nil
	}

	n, err := p.Prune(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	common.LogInfo("Pruned sensitivity cache", common.Fields{"removed": n, "cutoff": cutoff})
	writeln(cmd, cli.FormatSuccess(fmt.Sprintf("Removed %d cached table set(s)", n)))
	return nil
}
