package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kikiluvv/replaycut/internal/api"
	"github.com/kikiluvv/replaycut/internal/config"
	"github.com/kikiluvv/replaycut/internal/logging"
	"github.com/kikiluvv/replaycut/internal/pipeline"
	"github.com/kikiluvv/replaycut/internal/probecache"
	"github.com/kikiluvv/replaycut/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "replaycut",
	Short: "replaycut - instant-replay compilation tool",
	Long: "Schedules non-overlapping segments from a folder of instant-replay recordings " +
		"and joins them into a single compilation.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			logging.Init(verbose, "")
			return err
		}

		// Initialize logging
		if path, err := logging.Init(verbose, cfg.LogDir); err != nil {
			log.Warn().Err(err).Msg("file logging disabled")
		} else if path != "" {
			log.Debug().Str("path", path).Msg("logging to file")
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	planCmd.Flags().Bool("json", false, "print the plan as JSON")
	planCmd.Flags().String("target", "", "target clip length (15, 1:30, 00:00:15.5)")

	compileCmd.Flags().StringP("output", "o", "", "output directory (default: output_dir from config)")
	compileCmd.Flags().String("name", "", "output file name, timestamped on write")
	compileCmd.Flags().String("intro", "", "intro video prepended to the compilation")
	compileCmd.Flags().String("target", "", "target clip length (15, 1:30, 00:00:15.5)")

	serveCmd.Flags().String("addr", "", "listen address (default: server.addr from config)")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan [dir]",
	Short: "Show which segment of each recording would be used",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		target, err := targetFlag(cmd)
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg, pipeline.Deps{})
		if err != nil {
			return err
		}
		defer pipe.Close()

		res, err := pipe.PlanWithTarget(cmd.Context(), dirArg(args, cfg), target)
		if res == nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if jerr := printPlanJSON(cmd.OutOrStdout(), res); jerr != nil {
				return jerr
			}
		} else {
			printPlan(cmd.OutOrStdout(), res)
		}
		return err
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile [dir]",
	Short: "Extract scheduled segments and join them into one video",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		target, err := targetFlag(cmd)
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg, pipeline.Deps{})
		if err != nil {
			return err
		}
		defer pipe.Close()

		opts := pipeline.CompileOptions{Target: target}
		opts.OutputDir, _ = cmd.Flags().GetString("output")
		opts.OutputName, _ = cmd.Flags().GetString("name")
		opts.IntroPath, _ = cmd.Flags().GetString("intro")
		opts.OutputDir = util.ExpandHome(opts.OutputDir)
		opts.IntroPath = util.ExpandHome(opts.IntroPath)

		output, report, err := pipe.Compile(cmd.Context(), dirArg(args, cfg), opts)
		if err != nil {
			if pipeline.IsEmptyPlan(err) {
				log.Warn().Err(err).Msg("nothing to compile")
			}
			return err
		}

		printCompileReport(cmd.OutOrStdout(), report)
		log.Info().Str("output", output).Msg("compilation written")
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP planning API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		logger := logging.WithComponent("serve")

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		srvCfg := api.ServerConfig{
			Addr:      addr,
			Logger:    log.Logger,
			StartTime: time.Now(),
			Version:   version,
		}

		pipe, err := pipeline.New(log.Logger, cfg, pipeline.Deps{})
		if err != nil {
			logger.Warn().Err(err).Msg("directory planning disabled, serving /v1/schedule only")
		} else {
			defer pipe.Close()
			srvCfg.Planner = pipe
			srvCfg.Cache = pipe.Cache()
		}

		srv := api.NewServer(srvCfg)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
			logger.Info().Msg("received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := util.ExpandHome("~/.replaycut/config.yaml")
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Probe cache commands",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show probe cache size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer cache.Close()

		s, err := cache.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "entries: %d\n", s.Entries)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every cached probe result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer cache.Close()

		n, err := cache.Purge(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries\n", n)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "replaycut", version)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}

func dirArg(args []string, cfg *config.Config) string {
	if len(args) == 1 {
		return util.ExpandHome(args[0])
	}
	return cfg.InputDir
}

func targetFlag(cmd *cobra.Command) (float64, error) {
	raw, _ := cmd.Flags().GetString("target")
	if raw == "" {
		return 0, nil
	}
	secs, err := util.ParseTimestamp(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --target: %w", err)
	}
	if secs <= 0 {
		return 0, errors.New("invalid --target: must be greater than zero")
	}
	return secs, nil
}

func openCache(cmd *cobra.Command) (*probecache.Cache, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg.Cache.Path == "" {
		return nil, errors.New("cache.path is not set")
	}
	return probecache.Open(cfg.Cache.Path, log.Logger)
}
