package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// initLogger installs a tint handler as the default slog logger.
func initLogger(level slog.Level) {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			AddSource:  level <= slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}),
	))
}
