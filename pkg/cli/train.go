package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mchmarny/riskscore/pkg/config"
	"github.com/mchmarny/riskscore/pkg/dataset"
	"github.com/mchmarny/riskscore/pkg/model"
	urfave "github.com/urfave/cli/v3"
)

func trainCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "train",
		Usage: "Fit the calibrated classifier on the dataset and save the model artifact",
		UsageText: `riskscore train                                     # backend/data/diabetes.csv -> backend/models/diabetes_model.json
   riskscore train --dataset data.csv --artifact m.json   # custom paths`,
		Action: cmdTrain,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    datasetFlagName,
				Usage:   fmt.Sprintf("Path to the training CSV (default: %s)", config.DefaultDatasetPath),
				Sources: urfave.EnvVars(config.DatasetEnvVar),
			},
			artifactFlag(),
		},
	}
}

func cmdTrain(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)
	applyFlags(cmd, cfg)
	return runTrain(ctx, cfg, output(cmd))
}

// runTrain prints exactly two status lines to w on success.
func runTrain(ctx context.Context, cfg *config.Config, w io.Writer) error {
	start := time.Now()

	d, err := dataset.Load(cfg.Dataset, dataset.DefaultFeatures)
	if err != nil {
		return err
	}

	res, err := model.Train(ctx, d, model.Options{
		Folds:   cfg.Training.Folds,
		Workers: cfg.Training.Workers,
		C:       cfg.Training.C,
		MaxIter: cfg.Training.MaxIter,
	})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	fmt.Fprintf(w, "AUC: %s Brier: %s\n", formatMetric(res.Metrics.AUC), formatMetric(res.Metrics.Brier))

	if err := res.Artifact.Save(cfg.Artifact); err != nil {
		return err
	}

	fmt.Fprintf(w, "Saved model → %s\n", cfg.Artifact)

	slog.Debug("training complete", "rows", d.Rows(), "duration", time.Since(start).String())
	return nil
}

// formatMetric rounds v to three decimals and drops trailing zeros,
// keeping at least one digit after the point (0.830 prints as 0.83).
func formatMetric(v float64) string {
	s := strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
