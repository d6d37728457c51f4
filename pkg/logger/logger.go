package logger

import (
	"context"
	"os"

	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/vaultpay/withdrawal-service/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a logger that supports log levels, context and structured logging.
type Logger interface {
	// With returns a logger based off the root logger and decorates it
	// with the given context and arguments.
	With(ctx context.Context, args ...interface{}) Logger

	Debug(args ...interface{})
	Info(args ...interface{})
	Error(args ...interface{})

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// Log satisfies the sqldb-logger interface so that every
	// database query can be logged with this logger.
	Log(ctx context.Context, level sqldblogger.Level, msg string, data map[string]interface{})

	// Sync flushes any buffered log entries.
	Sync() error
}

type logger struct {
	*zap.SugaredLogger
}

// New creates a new logger writing to stderr and, when a log path is
// configured, to a size-rotated log file.
func New(cfg *config.Config) Logger {
	level, err := zapcore.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stderr),
			level,
		),
	}

	if cfg.Logger.Path != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Logger.Path,
			MaxSize:    cfg.Logger.MaxSizeMB,
			MaxBackups: cfg.Logger.MaxBackups,
			MaxAge:     cfg.Logger.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotator),
			level,
		))
	}

	return NewWithZap(zap.New(zapcore.NewTee(cores...)))
}

// NewWithZap creates a new logger using the preconfigured zap logger.
func NewWithZap(l *zap.Logger) Logger {
	return &logger{l.Sugar()}
}

func (l *logger) With(_ context.Context, args ...interface{}) Logger {
	if len(args) > 0 {
		return &logger{l.SugaredLogger.With(args...)}
	}
	return l
}

// Log satisfies the sqldb-logger interface.
func (l *logger) Log(_ context.Context, level sqldblogger.Level, msg string, data map[string]interface{}) {
	args := make([]interface{}, 0, len(data)*2)
	for k, v := range data {
		args = append(args, k, v)
	}

	switch level {
	case sqldblogger.LevelError:
		l.Errorw(msg, args...)
	case sqldblogger.LevelInfo:
		l.Infow(msg, args...)
	default:
		l.Debugw(msg, args...)
	}
}
