package config

import (
	"io"
	"log/slog"
)

// NewLogger builds the run's logger. Production runs log JSON; anything else
// gets human readable text with source locations. Verbose enables debug
// output.
func NewLogger(w io.Writer, env string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceTimeAttr,
			AddSource:   verbose,
		})
	}

	return slog.New(handler)
}

func replaceTimeAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.String("time", a.Value.Time().Local().Format("2006-01-02 15:04:05"))
	}
	return a
}
