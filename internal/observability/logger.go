package observability

import (
	"io"
	"os"
	"time"

	"github.com/danmuck/hexrelay/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions adds an optional rotating file sink next to the console.
type LogOptions struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func InitLogger(app string, opts LogOptions) zerolog.Logger {
	cfg := logging.ConfigureRuntime()
	var out io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	if opts.File != "" {
		out = io.MultiWriter(out, fileWriter(opts))
	}
	logger := zerolog.New(out).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

func fileWriter(opts LogOptions) *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    5,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	if opts.MaxSizeMB > 0 {
		w.MaxSize = opts.MaxSizeMB
	}
	if opts.MaxBackups > 0 {
		w.MaxBackups = opts.MaxBackups
	}
	if opts.MaxAgeDays > 0 {
		w.MaxAge = opts.MaxAgeDays
	}
	return w
}
