package cmd

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/rheko/matcha/internal/app"
	"github.com/rheko/matcha/internal/config"
	"github.com/rheko/matcha/internal/logger"
)

// Build metadata, set from main.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Run parses CLI flags, sets up logging and config, and starts the app.
func Run() error {
	configPath := flag.String("config-path", config.DefaultPath(), "path to config file")
	logPath := flag.String("log-path", logger.DefaultPath(), "path to log file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("matcha %s (%s, %s)\n", Version, Commit, Date)
		return nil
	}

	level := parseLevel(*logLevel)
	if err := logger.Setup(*logPath, level); err != nil {
		return err
	}

	slog.Info("starting matcha", "config", *configPath, "log", *logPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	return app.New(cfg).Run()
}

func parseLevel(s string) slog.Level {
	switch s {
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
