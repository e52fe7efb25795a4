// Package logging builds the process-wide *slog.Logger on top of a zap core.
//
// Packages log through *slog.Logger; only this package knows about zap.
package logging

import (
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Supported encodings.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New returns a logger writing to stderr at the given level ("debug", "info",
// "warn", "error") and format ("json" or "console").
func New(level, format string) (*slog.Logger, error) {
	core, err := newCore(level, format, zapcore.Lock(os.Stderr))
	if err != nil {
		return nil, err
	}
	return slog.New(zapslog.NewHandler(core)), nil
}

func newCore(level, format string, out zapcore.WriteSyncer) (zapcore.Core, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case FormatJSON, "":
		enc = zapcore.NewJSONEncoder(encCfg)
	case FormatConsole:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return zapcore.NewCore(enc, out, zap.NewAtomicLevelAt(lvl)), nil
}
