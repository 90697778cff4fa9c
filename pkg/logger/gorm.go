package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxSQLLength caps the SQL text attached to a log entry
const maxSQLLength = 1000

// GormOptions configures the SQL logger attached to the user store.
type GormOptions struct {
	SlowThreshold time.Duration
	Level         gormlogger.LogLevel
}

// GormLogger writes GORM statements through zap under the "gorm" name.
type GormLogger struct {
	log  *zap.Logger
	opts GormOptions
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger wraps base for use as gorm.Config.Logger.
func NewGormLogger(base *zap.Logger, opts GormOptions) *GormLogger {
	return &GormLogger{log: base.Named("gorm"), opts: opts}
}

// NewGormLoggerWithConfig builds a GormLogger from the service log settings.
// Debug and info service levels both enable per-statement logging.
func NewGormLoggerWithConfig(base *zap.Logger, slowQuerySeconds float64, level string) *GormLogger {
	return NewGormLogger(base, GormOptions{
		SlowThreshold: time.Duration(slowQuerySeconds * float64(time.Second)),
		Level:         ParseGormLevel(level),
	})
}

// ParseGormLevel maps a service log level onto GORM's coarser levels.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error", "fatal", "panic":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.opts.Level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.opts.Level >= gormlogger.Info {
		WithContext(ctx, l.log).Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.opts.Level >= gormlogger.Warn {
		WithContext(ctx, l.log).Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.opts.Level >= gormlogger.Error {
		WithContext(ctx, l.log).Sugar().Errorf(msg, data...)
	}
}

// Trace logs failed statements at error, slow ones at warn and the rest at info.
// A missing row is not a failure.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.opts.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.opts.SlowThreshold > 0 && elapsed > l.opts.SlowThreshold

	var write func(string, ...zap.Field)
	var msg string
	log := WithContext(ctx, l.log)
	switch {
	case failed && l.opts.Level >= gormlogger.Error:
		write, msg = log.Error, "gorm query error"
	case !failed && slow && l.opts.Level >= gormlogger.Warn:
		write, msg = log.Warn, "gorm slow query"
	case !failed && l.opts.Level >= gormlogger.Info:
		write, msg = log.Info, "gorm query"
	default:
		return
	}

	sql, rows := fc()
	fields := make([]zap.Field, 0, 6)
	if len(sql) > maxSQLLength {
		sql = sql[:maxSQLLength] + "..."
		fields = append(fields, zap.Bool("sql_truncated", true))
	}
	fields = append(fields,
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
	if failed {
		fields = append(fields, zap.Error(err))
	} else if slow {
		fields = append(fields, zap.Duration("threshold", l.opts.SlowThreshold))
	}

	write(msg, fields...)
}
