package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/hudkeep/keeper/internal/config"
	"github.com/hudkeep/keeper/internal/journal"
	"github.com/hudkeep/keeper/internal/keeper"
	"github.com/hudkeep/keeper/internal/props"
	"github.com/hudkeep/keeper/internal/remote"
	"github.com/hudkeep/keeper/internal/util"
)

const envConfigKey = "KEEPER_CONFIG"

var (
	// version is set via ldflags during build
	version = "dev"

	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:     "keeper",
	Short:   "Store and retrieve analyst files in object storage with conflict detection",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(flagVerbose)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to configuration file (overrides default)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
	slog.SetDefault(logger)
}

// app bundles everything a command needs: loaded config, the keeper and
// its journal. Close releases the journal.
type app struct {
	cfg     *config.Config
	keeper  *keeper.Keeper
	journal *journal.Journal
}

// newApp resolves the config path (flag > env > platform default), loads
// the config and wires the keeper. Credential resolution happens here,
// outside the reconciliation core.
func newApp(ctx context.Context) (*app, error) {
	configPath := flagConfig
	if configPath == "" {
		if envPath := os.Getenv(envConfigKey); envPath != "" {
			configPath = envPath
		} else {
			configPath = util.GetDefaultConfigPath()
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("configuration loaded", "path", configPath, "remote", cfg.Remote.GetType())

	store, err := buildStore(ctx, cfg.Remote)
	if err != nil {
		return nil, err
	}

	prober, err := props.NewProber(cfg.HashCacheSize)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		keeper:  keeper.New(store, prober, jnl),
		journal: jnl,
	}, nil
}

func (a *app) Close() {
	if a.journal != nil {
		a.journal.Close()
	}
}

// remoteKey applies the configured prefix to a user-supplied key.
func (a *app) remoteKey(key string) string {
	return util.JoinKey(a.cfg.Remote.GetPrefix(), key)
}

func buildStore(ctx context.Context, conf config.RemoteConf) (remote.Store, error) {
	switch c := conf.(type) {
	case config.RemoteS3Conf:
		return remote.NewS3Store(ctx, remote.S3Config{
			Endpoint:  c.Endpoint,
			Region:    c.Region,
			Bucket:    c.Bucket,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown remote type '%s'", conf.GetType())
	}
}
