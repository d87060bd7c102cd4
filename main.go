// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gewnthar/gaslines/config"
	"github.com/gewnthar/gaslines/database"
	"github.com/gewnthar/gaslines/handlers"
	"github.com/gewnthar/gaslines/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool
	logger     *zap.Logger
)

func main() {
	err := rootCmd().Execute()
	// PersistentPostRun is skipped when a command fails, so clean up here
	shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gaslines",
		Short: "Import gas line reports into a polyline feature class",
		Long: `gaslines reads date-named gas line reports from a directory, groups the
points of each report into polylines and appends them to the Gas_Lines
feature class. Reports whose date is already present in the feature class
are skipped, so repeated runs only import what is new.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runImport,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Import pending reports once and exit",
			RunE:  runImport,
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the health, import and feature class API",
			RunE:  serve,
		},
		&cobra.Command{
			Use:   "schedule",
			Short: "Import pending reports on the configured cron schedule",
			RunE:  schedule,
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Import whenever a report lands in the report directory",
			RunE:  watch,
		},
		exportCmd(),
		&cobra.Command{
			Use:   "classes",
			Short: "List the feature classes in the workspace",
			RunE:  listClasses,
		},
	)
	return root
}

func setup(cmd *cobra.Command, args []string) error {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "console"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	var err error
	if logger, err = zapCfg.Build(); err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	if err := config.LoadConfig(configPath); err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	cfg := config.AppConfig
	logger.Info("Configuration loaded",
		zap.String("driver", cfg.Workspace.Driver),
		zap.String("feature_class", cfg.FeatureClass.Name),
		zap.String("reports", cfg.Reports.Directory))

	if err := database.InitDB(cmd.Context(), cfg.Workspace); err != nil {
		return fmt.Errorf("error initializing workspace: %w", err)
	}
	return nil
}

func shutdown() {
	database.CloseDB()
	if logger != nil {
		_ = logger.Sync()
	}
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	summary, err := services.RunImport(ctx)
	if summary != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Feature class:     %s\n", config.AppConfig.FeatureClass.Name)
		fmt.Fprintf(out, "Reports available: %d\n", len(summary.Available))
		fmt.Fprintf(out, "Already imported:  %d\n", len(summary.Completed))
		fmt.Fprintf(out, "Pending:           %d\n", len(summary.Pending))
		for _, name := range summary.Imported {
			fmt.Fprintf(out, "  imported %s\n", name)
		}
		for _, name := range summary.Skipped {
			fmt.Fprintf(out, "  skipped  %s (no rows)\n", name)
		}
		fmt.Fprintf(out, "Features written:  %d\n", summary.Features)
	}
	return err
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + config.AppConfig.Server.Port,
		Handler:           handlers.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func schedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	// catch up once before waiting for the first tick
	services.RunAndLog(ctx, "startup")

	c, err := services.StartSchedule(config.AppConfig.Schedule.Cron, func() {
		services.RunAndLog(ctx, "schedule")
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func watch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	cfg := config.AppConfig
	services.RunAndLog(ctx, "startup")
	return services.WatchReports(ctx, cfg.Reports.Directory, cfg.Reports.Extension, cfg.Schedule.WatchDebounce, func() {
		services.RunAndLog(ctx, "watch")
	})
}

func exportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the feature class as GeoJSON or KML",
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := services.Export(cmd.Context(), w, format); err != nil {
				return err
			}
			if f, ok := w.(*os.File); ok && f != os.Stdout {
				return f.Sync()
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", services.FormatGeoJSON, "output format: geojson or kml")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func listClasses(cmd *cobra.Command, args []string) error {
	classes, err := database.ListFeatureClasses(cmd.Context())
	if err != nil {
		return err
	}
	for _, c := range classes {
		n, err := database.CountFeatures(cmd.Context(), c.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-12s srs=%-6d features=%d\n", c.Name, c.GeometryType, c.SRSID, n)
	}
	return nil
}
