package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/studioops/funnelio/pkg/config"
	"github.com/studioops/funnelio/pkg/csv"
	"github.com/studioops/funnelio/pkg/models"
	"github.com/studioops/funnelio/pkg/server"
	"github.com/studioops/funnelio/pkg/service"
	"github.com/studioops/funnelio/pkg/storage"
)

var (
	cliFilters filters
	cfgFile    string
)

var rootCmd = &cobra.Command{
	Use:   "funnelio",
	Short: "Import CRM exports into bookings and a monthly sales funnel",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var importCmd = &cobra.Command{
	Use:   "import [flags] <file|dir|manifest.yaml> ...",
	Short: "Import Leads / Booked-Client exports (CSV or XLS)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		persist, _ := cmd.Flags().GetBool("persist")
		reportType, _ := cmd.Flags().GetString("type")
		debug, _ := cmd.Flags().GetBool("debug")

		var store service.Store
		if persist {
			repo, err := storage.New(cfg.DBPath, logger)
			if err != nil {
				return err
			}
			defer repo.Close()
			store = repo
		}

		processor := service.NewProcessor(logger, store, cfg.OutputPath)
		ctx := cmd.Context()

		var outcome *service.Outcome
		for _, arg := range args {
			info, err := os.Stat(arg)
			if err != nil {
				return err
			}

			switch {
			case info.IsDir():
				outcome, err = processor.ProcessDirectory(ctx, arg, cfg.UserID)
			case strings.HasSuffix(strings.ToLower(arg), ".yaml"), strings.HasSuffix(strings.ToLower(arg), ".yml"):
				outcome, err = processor.RunManifest(ctx, arg, cfg.UserID)
			default:
				outcome, err = processor.Run(ctx, []models.Report{{Type: reportType, FilePath: arg}}, cfg.UserID)
			}
			if err != nil {
				return err
			}

			if debug {
				_, _ = pp.Println(outcome)
			}

			result := &models.ImportResult{
				Bookings:     outcome.Bookings,
				ServiceTypes: outcome.Catalog.ServiceTypes,
				LeadSources:  outcome.Catalog.LeadSources,
			}
			if len(outcome.Bookings) > 0 {
				fmt.Print(string(csv.Bookings(result, cliFilters.toFilterFunc())))
			}
			fmt.Print(string(csv.Funnel(outcome.Funnel)))
		}
		return nil
	},
}

var funnelCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Print the stored monthly funnel for a tenant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger(cmd)

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		repo, err := storage.New(cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer repo.Close()

		buckets, err := repo.FunnelMonths(cmd.Context(), cfg.UserID)
		if err != nil {
			return err
		}

		fmt.Print(string(csv.Funnel(buckets)))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the import HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger(cmd)

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		repo, err := storage.New(cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer repo.Close()

		srv := server.New(cfg, logger, repo)
		addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
		logger.Info("starting server", "addr", addr)
		return srv.Start(addr)
	},
}

func newLogger(cmd *cobra.Command) *log.Logger {
	opts := log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "funnelio",
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		opts.Level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, opts)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")
	rootCmd.PersistentFlags().String("out", "", "Output directory for generated CSVs")
	rootCmd.PersistentFlags().String("user", "", "Tenant/user id")
	rootCmd.PersistentFlags().String("port", "", "Server port")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug logging and result dump")

	// Filter flags (global)
	rootCmd.PersistentFlags().StringVar(&cliFilters.startDate, "start", "", "Earliest booked date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&cliFilters.endDate, "end", "", "Latest booked date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().Float64Var(&cliFilters.minRevenue, "min", 0, "Minimum revenue")
	rootCmd.PersistentFlags().Float64Var(&cliFilters.maxRevenue, "max", 0, "Maximum revenue")
	rootCmd.PersistentFlags().StringVar(&cliFilters.project, "project", "", "Filter by project name (case insensitive)")

	// Flags specific to the import subcommand
	importCmd.Flags().Bool("persist", false, "Persist the import result")
	importCmd.Flags().String("type", "", "Force report type (leads|booked) instead of detecting")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(funnelCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
