package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level and an optional rotating log file.
type Config struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// New creates a console slog.Logger. When cfg.File is set the output is
// JSON and is duplicated into a rotating file.
func New(cfg Config) *slog.Logger {
	return slog.New(newHandler(os.Stdout, cfg))
}

// NewTo is New with a custom console writer.
func NewTo(w io.Writer, cfg Config) *slog.Logger {
	return slog.New(newHandler(w, cfg))
}

func newHandler(stdout io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: levelFromString(cfg.Level)}
	if strings.TrimSpace(cfg.File) == "" {
		return slog.NewTextHandler(stdout, opts)
	}

	if dir := filepath.Dir(cfg.File); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.New(slog.NewTextHandler(stdout, nil)).Error("create log directory", "path", dir, "error", err)
			return slog.NewTextHandler(stdout, opts)
		}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 5),
		MaxBackups: orDefault(cfg.MaxBackups, 3),
		MaxAge:     orDefault(cfg.MaxAgeDays, 30),
		Compress:   true,
	}
	opts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
		}
		return a
	}
	return slog.NewJSONHandler(io.MultiWriter(stdout, rotator), opts).
		WithAttrs([]slog.Attr{slog.String("service", "factulist")})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
