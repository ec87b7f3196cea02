package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhutchin/wordrush/internal/api"
	"github.com/mhutchin/wordrush/internal/factory"
	redisstorage "github.com/mhutchin/wordrush/internal/storage/redis"
)

const envPrefix = "WORDRUSH"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wordrush-server",
	Short: "Realtime room server for the word rush game",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./wordrush.yaml)")
	rootCmd.Flags().String("host", "", "listen host")
	rootCmd.Flags().Int("port", 8080, "listen port")
	rootCmd.Flags().String("storage", factory.StorageTypeMemory, "storage backend (memory or redis)")
	rootCmd.Flags().String("redis-url", "", "redis connection URL (required with --storage redis)")
	rootCmd.Flags().String("dictionary-dir", "data/words", "directory of per-category word lists (<category>.txt)")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlags(rootCmd.Flags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("wordrush")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "error reading config file:", err)
		}
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(viper.GetString("log-level")),
	}))
	slog.SetDefault(logger)

	cfg := factory.Config{
		Logger:      logger,
		StorageType: viper.GetString("storage"),
	}

	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := viper.GetString("redis-url")
		if redisURL == "" {
			return fmt.Errorf("redis-url required when storage is redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(cfg)
	if err != nil {
		return fmt.Errorf("creating application: %w", err)
	}

	loadDictionaries(app, viper.GetString("dictionary-dir"), logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		PlayerService: app.PlayerService,
		Dictionary:    app.DictionaryService,
		Hub:           app.Hub,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = viper.GetString("host")
	serverConfig.Port = viper.GetInt("port")
	server := api.NewServer(router, serverConfig, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		app.Hub.Shutdown()
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

// loadDictionaries loads every <category>.txt in dir. A missing or
// empty directory is not fatal; word validation just reports the
// category as unloaded.
func loadDictionaries(app *factory.App, dir string, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("could not read dictionary directory", slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		category := strings.TrimSuffix(entry.Name(), ".txt")
		path := filepath.Join(dir, entry.Name())
		if err := app.DictionaryService.LoadFromFile(context.Background(), category, path); err != nil {
			logger.Warn("could not load word list",
				slog.String("category", category),
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		logger.Info("loaded word list",
			slog.String("category", category),
			slog.Int("words", app.DictionaryService.WordCount(category)))
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
