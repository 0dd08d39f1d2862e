package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global SugaredLogger instance.
// Initialized with a no-op logger until Initialize is called.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// FileOptions configures the rolling log file written next to stdout.
type FileOptions struct {
	Path       string // Log file path; empty disables the file sink
	MaxSizeMB  int    // Rotate after this many megabytes
	MaxBackups int    // Rotated files to keep
	MaxAgeDays int    // Days to keep rotated files
	Compress   bool   // Gzip rotated files
}

// Initialize sets up the global logger with the given log level.
func Initialize(level string) error {
	return InitializeWithFile(level, FileOptions{})
}

// InitializeWithFile sets up the global logger writing JSON to stdout and,
// when opts.Path is set, to a lumberjack rolling file as well.
func InitializeWithFile(level string, opts FileOptions) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stdout), lvl),
	}

	if opts.Path != "" {
		if dir := filepath.Dir(opts.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		lj := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 7),
			Compress:   opts.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(lj), lvl))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
