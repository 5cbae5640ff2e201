package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xctrace-mcp/internal/config"
	"xctrace-mcp/internal/logging"
	"xctrace-mcp/internal/mcptools"
	"xctrace-mcp/internal/session"
)

var (
	rootCmd = &cobra.Command{
		Use:           "xctrace-charts",
		Short:         "Chart FPS, GPU, CPU and memory samples from xctrace exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	parseCmd = &cobra.Command{
		Use:   "parse [export.xml...]",
		Short: "Extract samples from exported XML tables, save them and render a report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args)
		},
	}

	chartsCmd = &cobra.Command{
		Use:   "charts [directory]",
		Short: "Render a multi-series report from saved *_fps/_gpu/_cpu/_mem.json files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCharts(cmd.Context(), args[0])
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	configPath    string
	targetProcess string
	logLevel      string
	noSave        bool

	conf   *config.Config
	logger *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	parseCmd.Flags().StringVarP(&targetProcess, "target-process", "p", "", "process whose CPU and memory are extracted (e.g. Steam)")
	parseCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save raw samples as JSON")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		conf = config.Default()
		if configPath != "" {
			if conf, err = config.Parse(configPath); err != nil {
				return err
			}
		}
		if logLevel != "" {
			conf.LogLevel = logLevel
		}
		if targetProcess != "" {
			conf.TargetProcess = targetProcess
		}
		logger, err = logging.New(conf.LogLevel)
		return err
	}

	rootCmd.AddCommand(parseCmd, chartsCmd, serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func runParse(paths []string) error {
	defer func() { _ = logger.Sync() }()

	if conf.TargetProcess == "" {
		logger.Warn("No target process set, CPU and memory samples are skipped")
	}

	s, parseErr := session.FromExports(paths, conf, logger)
	if parseErr != nil && len(s.Raw) == 0 {
		return parseErr
	}

	if !noSave {
		saved, err := s.Save(conf.Output.SaveDir)
		if err != nil {
			return err
		}
		for _, p := range saved {
			logger.Info("Saved samples", zap.String("path", p))
		}
	}

	logger.Info("Start visualize")
	path := s.ReportPath(conf.Output.VisualizeDir)
	if err := s.WriteReport(path); err != nil {
		return errors.Join(parseErr, err)
	}
	logger.Info("Report saved", zap.String("path", path))
	return parseErr
}

func runCharts(ctx context.Context, dir string) error {
	defer func() { _ = logger.Sync() }()

	s, err := session.FromSampleDir(ctx, dir, logger)
	if err != nil {
		return err
	}

	path := s.ReportPath(conf.Output.VisualizeDir)
	if err := s.WriteReport(path); err != nil {
		return err
	}
	logger.Info("Report saved", zap.String("path", path))
	return nil
}

func runServe() error {
	defer func() { _ = logger.Sync() }()
	return server.ServeStdio(mcptools.NewServer(mcptools.New(conf, logger), "1.0.0"))
}
