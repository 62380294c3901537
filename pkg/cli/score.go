package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mchmarny/riskscore/pkg/net"
	"github.com/mchmarny/riskscore/pkg/predict"
	"github.com/mchmarny/riskscore/pkg/risk"
	urfave "github.com/urfave/cli/v3"
)

const (
	inputFlagName  = "input"
	serverFlagName = "server"
	stdinInput     = "-"
)

func scoreCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "score",
		Usage: "Score a single JSON record locally or against a running server",
		UsageText: `riskscore score --input record.json
   echo '{"Glucose": 85, ...}' | riskscore score
   riskscore score --input record.json --server http://localhost:5000`,
		Action: cmdScore,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  inputFlagName,
				Usage: "Path to a JSON record, - reads stdin",
				Value: stdinInput,
			},
			&urfave.StringFlag{
				Name:  serverFlagName,
				Usage: "Base URL of a running server (optional, scores locally when empty)",
			},
			artifactFlag(),
		},
	}
}

func cmdScore(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(ctx)
	applyFlags(cmd, cfg)

	r, closeFn, err := openInput(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	record, err := predict.DecodeRecord(r)
	if err != nil {
		return err
	}

	var a *risk.Assessment
	if server := cmd.String(serverFlagName); server != "" {
		a, err = net.Predict(ctx, server, record)
	} else {
		a, err = scoreLocal(cfg.Artifact, record)
	}
	if err != nil {
		return err
	}

	return encode(output(cmd), cmd.String(formatFlagName), a)
}

func scoreLocal(artifact string, record map[string]any) (*risk.Assessment, error) {
	svc, err := predict.Load(artifact)
	if err != nil {
		return nil, err
	}
	return svc.Score(record)
}

func openInput(cmd *urfave.Command) (io.Reader, func(), error) {
	path := cmd.String(inputFlagName)
	if path == "" || path == stdinInput {
		if r := cmd.Root().Reader; r != nil {
			return r, func() {}, nil
		}
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening input: %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
