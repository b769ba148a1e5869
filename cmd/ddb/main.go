// Package main provides the entry point for the ddb indexing engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dronedb/ddb/internal/adapters/vector"
	"github.com/dronedb/ddb/internal/app"
	"github.com/dronedb/ddb/internal/application"
	"github.com/dronedb/ddb/internal/config"
	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/input"
	"github.com/dronedb/ddb/internal/ports/output"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ddb",
	Short: "ddb - a local, content-addressed file indexing engine for geospatial assets",
	Long: `ddb indexes geospatial and photogrammetric assets under a working tree.

Features:
  - Content-addressed hashing and derived-artifact caching (thumbnails, tiles)
  - Classification and metadata extraction for imagery, rasters, point clouds and vectors
  - Remote ingestion from S3, Azure or HTTP sources (pull)
  - Hot-reload via filesystem watching
  - A read-only HTTP query/status server (serve)`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("ddb %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a new working tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := dirArg(args)
		fromScratch, _ := cmd.Flags().GetBool("from-scratch")

		logger := rootLogger()
		opener := application.NewOpener(noOpMetrics(), logger)
		marker, err := opener.InitIndex(cmd.Context(), dir, fromScratch)
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		fmt.Printf("initialized empty working tree in %s\n", marker)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add [paths...]",
	Short: "Add paths to the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTree(cmd.Context(), func(tree input.WorkingTree) error {
			paths := pathsOrRoot(args, tree.Root())
			return tree.AddToIndex(cmd.Context(), paths, func(e domain.Entry, wasUpdate bool) bool {
				verb := "add"
				if wasUpdate {
					verb = "upd"
				}
				fmt.Printf("%s\t%s\n", verb, e.Path)
				return true
			})
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [paths...]",
	Short: "Remove paths from the index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTree(cmd.Context(), func(tree input.WorkingTree) error {
			changes, err := tree.RemoveFromIndex(cmd.Context(), args, func(path string) bool {
				fmt.Printf("D\t%s\n", path)
				return true
			})
			if err != nil {
				return err
			}
			fmt.Printf("%d entries removed\n", len(changes))
			return nil
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the index against the filesystem",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withTree(cmd.Context(), func(tree input.WorkingTree) error {
			changes, err := tree.SyncIndex(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range changes {
				fmt.Printf("%s\t%s\n", changeLetter(c.Status), c.Path)
			}
			return nil
		})
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <source> <dest>",
	Short: "Rename or move an entry or directory subtree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTree(cmd.Context(), func(tree input.WorkingTree) error {
			return tree.MoveEntry(cmd.Context(), args[0], args[1])
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List an entry and its descendants",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return withTree(cmd.Context(), func(tree input.WorkingTree) error {
			entries, err := tree.List(cmd.Context(), path)
			if err != nil {
				return err
			}
			printEntries(entries)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search entries by glob-style pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		folder, _ := cmd.Flags().GetBool("folder")
		maxDepth, _ := cmd.Flags().GetInt("max-depth")

		return withTree(cmd.Context(), func(tree input.WorkingTree) error {
			entries, err := tree.Match(cmd.Context(), args[0], maxDepth, folder)
			if err != nil {
				return err
			}
			if format == "kml" {
				return printKML(entries)
			}
			printEntries(entries)
			return nil
		})
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull source assets from a configured remote and index them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger := setupLogger(cfg.Logging)

		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("initializing application: %w", err)
		}
		defer func() { _ = a.Tree.Close() }()

		if a.PullService == nil {
			return fmt.Errorf("no remote configured (set remote.type)")
		}

		result, err := a.PullService.TriggerPull(cmd.Context())
		if err != nil {
			return fmt.Errorf("pull: %w", err)
		}
		fmt.Printf("pulled %d objects, indexed %d entries\n", result.ObjectsDownloaded, result.EntriesIndexed)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a working tree over HTTP",
	RunE:  runServer,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().String("dir", ".", "working tree directory")

	initCmd.Flags().Bool("from-scratch", false, "build the index schema from scratch instead of a packaged template")

	searchCmd.Flags().String("format", "json", "output format (json, kml)")
	searchCmd.Flags().Bool("folder", false, "restrict matches to subtrees")
	searchCmd.Flags().Int("max-depth", -1, "maximum match depth (<=0 means unlimited)")

	serveCmd.Flags().String("host", "0.0.0.0", "server host")
	serveCmd.Flags().Int("port", 8080, "server port")
	serveCmd.Flags().Bool("tls", false, "enable TLS")
	serveCmd.Flags().StringSlice("tls-domains", nil, "TLS domains")
	serveCmd.Flags().String("tls-email", "", "TLS email for Let's Encrypt")
	serveCmd.Flags().StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("index.root", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("tls.enabled", serveCmd.Flags().Lookup("tls"))
	_ = viper.BindPFlag("tls.domains", serveCmd.Flags().Lookup("tls-domains"))
	_ = viper.BindPFlag("tls.email", serveCmd.Flags().Lookup("tls-email"))
	_ = viper.BindPFlag("server.cors.allowed_origins", serveCmd.Flags().Lookup("cors"))

	rootCmd.AddCommand(versionCmd, initCmd, addCmd, rmCmd, syncCmd, mvCmd, listCmd, searchCmd, pullCmd, serveCmd)
}

func initConfig() {
	config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// withTree opens the working tree rooted at the --dir flag, runs fn, and
// closes it afterward regardless of fn's outcome.
func withTree(ctx context.Context, fn func(tree input.WorkingTree) error) error {
	dir := viper.GetString("index.root")
	if dir == "" {
		dir = "."
	}

	opener := application.NewOpener(noOpMetrics(), rootLogger())
	tree, err := opener.OpenWorkingTree(ctx, dir, true)
	if err != nil {
		return fmt.Errorf("opening working tree: %w", err)
	}
	defer func() { _ = tree.Close() }()

	return fn(tree)
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func pathsOrRoot(args []string, root string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{root}
}

func changeLetter(status domain.ChangeStatus) string {
	switch status {
	case domain.Modified:
		return "U"
	case domain.Deleted:
		return "D"
	default:
		return "="
	}
}

func printEntries(entries []domain.Entry) {
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%d\n", e.Type.String(), e.Path, e.Size)
	}
}

func printKML(entries []domain.Entry) error {
	footprints := make([]vector.Footprint, 0, len(entries))
	for _, e := range entries {
		if e.PointGeom == nil && e.PolygonGeom == nil {
			continue
		}
		footprints = append(footprints, vector.Footprint{Path: e.Path, Point: e.PointGeom, Polygon: e.PolygonGeom})
	}
	return vector.WriteKML(os.Stdout, footprints)
}

func rootLogger() *slog.Logger {
	return slog.Default()
}

func noOpMetrics() output.MetricsCollector {
	return &output.NoOpMetrics{}
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting ddb",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"index_root", cfg.Index.Root,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address())
		if err := application.Start(ctx); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		cancel()
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down server")
	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
