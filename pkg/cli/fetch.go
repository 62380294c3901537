package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mchmarny/riskscore/pkg/config"
	"github.com/mchmarny/riskscore/pkg/dataset"
	"github.com/mchmarny/riskscore/pkg/net"
	urfave "github.com/urfave/cli/v3"
)

const (
	urlFlagName   = "url"
	forceFlagName = "force"
)

func fetchCommand() *urfave.Command {
	return &urfave.Command{
		Name:   "fetch",
		Usage:  "Download the training CSV to the dataset path",
		Action: cmdFetch,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:     urlFlagName,
				Usage:    "URL of the CSV file",
				Required: true,
			},
			&urfave.StringFlag{
				Name:    datasetFlagName,
				Usage:   fmt.Sprintf("Where to save the CSV (default: %s)", config.DefaultDatasetPath),
				Sources: urfave.EnvVars(config.DatasetEnvVar),
			},
			&urfave.BoolFlag{
				Name:  forceFlagName,
				Usage: "Overwrite an existing dataset",
			},
		},
	}
}

func cmdFetch(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)
	applyFlags(cmd, cfg)
	return fetchDataset(ctx, cmd.String(urlFlagName), cfg.Dataset, cmd.Bool(forceFlagName))
}

// fetchDataset downloads url to path and checks that it carries the
// expected columns. An existing file is kept unless force is set.
func fetchDataset(ctx context.Context, url, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		slog.Info("dataset already present", "path", path)
		return nil
	}

	if err := net.Download(ctx, url, path); err != nil {
		if errors.Is(err, net.ErrorURLNotFound) {
			return fmt.Errorf("dataset not found at %s: %w", url, err)
		}
		return err
	}

	d, err := dataset.Load(path, dataset.DefaultFeatures)
	if err != nil {
		return fmt.Errorf("downloaded file is not a usable dataset: %w", err)
	}

	slog.Info("dataset saved", "path", path, "rows", d.Rows())
	return nil
}
