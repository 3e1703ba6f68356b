package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"clinvalidate/internal/config"
	"clinvalidate/internal/logging"
)

// errGateFailed signals a completed run whose verdict was negative: invalid
// records or a failed report. The command has already said why.
var errGateFailed = errors.New("validation gate failed")

// app is the state shared by every subcommand
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	logLevel   string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:           "clinvalidate",
		Short:         "Validate clinical trial records and produce GxP evidence",
		Long:          `clinvalidate checks patient and adverse event records against their schemas and business rules, and renders validation reports and audit logs from CI test results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	cmd.AddCommand(
		newValidateCmd(a),
		newReportCmd(a),
		newAuditCmd(a),
		newVersionCmd(a),
	)

	return cmd
}

// setup loads the config and builds the logger; flags win over the file
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.NewWithWriter(a.stderr, level)
	return nil
}
