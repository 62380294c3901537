package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mchmarny/riskscore/pkg/config"
	"github.com/mchmarny/riskscore/pkg/logging"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName = "riskscore"

	formatJSON = "json"
	formatYAML = "yaml"

	debugFlagName    = "debug"
	configFlagName   = "config"
	formatFlagName   = "format"
	datasetFlagName  = "dataset"
	artifactFlagName = "artifact"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	logLevel = new(slog.LevelVar)
)

type configKey struct{}

// Execute creates and runs the CLI application.
func Execute() {
	initLogging()

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Train and serve a calibrated clinical risk score",
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:    configFlagName,
				Usage:   "Path to a YAML config file (optional)",
				Sources: urfave.EnvVars(config.PathEnvVar),
			},
			&urfave.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*urfave.Command{
			trainCommand(),
			serveCommand(),
			scoreCommand(),
			configCommand(),
			fetchCommand(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			cfg, err := config.Load(cmd.String(configFlagName))
			if err != nil {
				return ctx, fmt.Errorf("loading config: %w", err)
			}

			logLevel.Set(logging.ParseLogLevel(cfg.LogLevel))
			if cmd.Bool(debugFlagName) {
				logLevel.Set(slog.LevelDebug)
			}

			slog.Debug("config loaded", "dataset", cfg.Dataset, "artifact", cfg.Artifact)
			return context.WithValue(ctx, configKey{}, cfg), nil
		},
	}
}

func getConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
		return cfg
	}
	return config.Default()
}

// applyFlags lets command flags win over file and environment settings.
func applyFlags(cmd *urfave.Command, cfg *config.Config) {
	if v := cmd.String(datasetFlagName); v != "" {
		cfg.Dataset = v
	}
	if v := cmd.String(artifactFlagName); v != "" {
		cfg.Artifact = v
	}
}

func artifactFlag() *urfave.StringFlag {
	return &urfave.StringFlag{
		Name:    artifactFlagName,
		Usage:   fmt.Sprintf("Path to the model artifact (default: %s)", config.DefaultArtifactPath),
		Sources: urfave.EnvVars(config.ArtifactEnvVar),
	}
}

func initLogging() {
	h := logging.NewCLIHandler(os.Stderr, logLevel, true)
	slog.SetDefault(slog.New(h))
}

func output(cmd *urfave.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML || format == "yml" {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
