package logger

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	global = zap.NewNop()
)

// Init builds the process logger. level is a zap level name, asJSON
// selects the JSON encoder over the console one.
func Init(level string, asJSON bool) error {
	const op = "logger.Init"

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%s: parse level %q: %w", op, level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if asJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)

	mu.Lock()
	global = zap.New(core)
	mu.Unlock()
	return nil
}

// L returns the process logger.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return global
}

func Debug(_ context.Context, msg string, fields ...Field) { L().Debug(msg, fields...) }
func Info(_ context.Context, msg string, fields ...Field)  { L().Info(msg, fields...) }
func Warn(_ context.Context, msg string, fields ...Field)  { L().Warn(msg, fields...) }
func Error(_ context.Context, msg string, fields ...Field) { L().Error(msg, fields...) }
func Fatal(_ context.Context, msg string, fields ...Field) { L().Fatal(msg, fields...) }

// Sync flushes buffered log entries.
func Sync() error { return L().Sync() }
