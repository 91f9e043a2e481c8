package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/proforma/internal/backend"
	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/config"
	"github.com/Veraticus/proforma/internal/income"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/service"
)

// envKeyReplacer maps nested keys such as api.base_url to UW_API_BASE_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

// modelFlags selects the model version a command works on: a model id
// fetched from the API, or a JSON payload on disk.
type modelFlags struct {
	file      string
	versionID string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read the model version from a JSON file instead of the API")
	cmd.Flags().StringVar(&f.versionID, "version", "", "model version id (default: current version)")
}

func (f *modelFlags) args() cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if f.file == "" && len(args) != 1 {
			return fmt.Errorf("requires a model id or --file")
		}
		if len(args) > 1 {
			return fmt.Errorf("accepts at most one model id, received %d", len(args))
		}
		return nil
	}
}

// load returns the selected model version and its model id.
func (f *modelFlags) load(ctx context.Context, source service.ModelSource, args []string) (*model.Model, string, error) {
	if f.file != "" {
		m, err := readModelFile(f.file)
		if err != nil {
			return nil, "", err
		}
		return m, m.ID, nil
	}

	ref := service.ModelRef{ModelID: args[0], VersionID: f.versionID}
	m, err := source.GetModel(ctx, ref)
	if err != nil {
		return nil, "", common.NewUserError(fmt.Sprintf("Could not load model %s", ref.ModelID), err)
	}
	return m, ref.ModelID, nil
}

func readModelFile(path string) (*model.Model, error) {
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var m model.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInvalidPayload, path, err)
	}
	return &m, nil
}

// newBackend builds the API client from configuration.
func newBackend() (*backend.Client, config.Sensitivity, error) {
	cfg, err := config.LoadSensitivity(viper.GetViper())
	if err != nil {
		return nil, config.Sensitivity{}, err
	}
	client := backend.New(backend.Options{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.RequestTimeout,
		Logger:  slog.Default(),
	})
	return client, cfg, nil
}

// engine returns the configured calculation defaults.
func engine() config.Engine {
	return config.LoadEngine(viper.GetViper())
}

func calculator() income.Calculator {
	return income.NewCalculator(engine().Defaults)
}

func writef(cmd *cobra.Command, format string, a ...any) {
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), format, a...); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}

func writeln(cmd *cobra.Command, a ...any) {
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), a...); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
