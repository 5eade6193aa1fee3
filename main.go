package main

import (
	"os"
	"time"

	"f1visualizer/pkg/cache"
	"f1visualizer/pkg/config"
	"f1visualizer/pkg/dashboard"
	"f1visualizer/pkg/provider"
	"f1visualizer/pkg/provider/openf1"
	"f1visualizer/pkg/pubsub"
	"f1visualizer/pkg/resources"
	"f1visualizer/pkg/webserver"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	addr       string
	cacheDir   string
	logLevel   string
	offline    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "f1visualizer",
		Short:         "Formula 1 lap time and telemetry dashboard",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}

	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultPath(), "path of the TOML config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory of the response cache")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "serve the bundled sample season instead of the live API")

	return rootCmd
}

// loadConfig reads the config file and applies the flags set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = addr
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("offline") {
		cfg.Offline = offline
	}
	return cfg, cfg.Validate()
}

func setupLogging(level string) error {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	logrus.SetLevel(lvl)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		return err
	}

	var upstream provider.Provider
	if cfg.Offline {
		logrus.Info("Offline mode, serving the sample season")
		upstream = provider.NewSampleData()
	} else {
		upstream = openf1.NewClient(cfg.APIURL, cfg.HTTPTimeout.Duration)
	}

	store, err := cache.NewStore(cfg.CacheDir)
	if err != nil {
		return err
	}
	defer store.Close()
	logrus.WithField("path", store.Path()).Info("Response cache opened")

	statsPubSub := pubsub.NewPubSub[cache.Stats]()
	cached := cache.NewCached(upstream, store, cfg.CacheTTL.Duration)
	cached.Notify(statsPubSub)

	res, err := resources.NewManager(cfg.ResourcesDir)
	if err != nil {
		return err
	}

	firstSeason := cfg.FirstSeason
	if cfg.Offline {
		firstSeason = provider.SampleSeason
	}
	d := dashboard.New(cached, firstSeason)

	purge := cfg.CachePurge.Duration
	if purge <= 0 {
		purge = time.Hour
	}
	ticker := time.NewTicker(purge)
	tickerDone := make(chan bool)
	cached.Sync(ticker, tickerDone)
	defer func() {
		ticker.Stop()
		close(tickerDone)
	}()

	m := webserver.NewManager(cfg.Addr, d, res).WithCache(cached, statsPubSub)
	m.Debug()
	return m.Serve()
}
