// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init configures the global zerolog logger.
func Init(cfg config.LogConfig) {
	log.Logger = zerolog.New(Writer(cfg)).With().Timestamp().Caller().Logger()

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// Writer builds the log sink: human-readable console output in development, JSON otherwise,
// optionally teed into a rotating file.
func Writer(cfg config.LogConfig) io.Writer {
	var out io.Writer = os.Stderr
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	if cfg.File == "" {
		return out
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return io.MultiWriter(out, file)
}
