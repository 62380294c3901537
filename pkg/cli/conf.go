package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/riskscore/pkg/config"
	urfave "github.com/urfave/cli/v3"
)

const saveFlagName = "save"

func configCommand() *urfave.Command {
	return &urfave.Command{
		Name:   "config",
		Usage:  "Print the effective configuration",
		Action: cmdConfig,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  saveFlagName,
				Usage: "Also write the effective configuration as YAML to this path",
			},
		},
	}
}

func cmdConfig(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)

	if p := cmd.String(saveFlagName); p != "" {
		if err := config.Save(p, cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		slog.Info("config saved", "path", p)
	}

	return encode(output(cmd), cmd.String(formatFlagName), cfg)
}
