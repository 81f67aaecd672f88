package logging

import (
	"io"
	"log/slog"
	"time"
)

// Init installs a text slog handler writing to w as the default logger.
// Debug records are kept only when verbose is set. Output of the standard
// log package goes through the same handler at Info level.
func Init(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return logger
}

// TrackTime logs how long the named step took since start.
// Use it as: defer logging.TrackTime(time.Now(), "step").
func TrackTime(start time.Time, name string) {
	slog.Debug("finished", "step", name, "elapsed", time.Since(start).Round(time.Millisecond))
}
