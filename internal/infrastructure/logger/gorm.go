package logger

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold is used when no threshold is configured
const DefaultSlowQueryThreshold = 200 * time.Millisecond

var (
	// quotedLiteral matches single-quoted SQL strings, including '' escapes
	quotedLiteral = regexp.MustCompile(`'(?:[^']|'')*'`)
	// tableRef finds the first table a statement touches
	tableRef = regexp.MustCompile(`(?i)\b(?:from|into|update|join)\s+"?([a-z_][a-z0-9_]*)"?`)
)

// GormLogger routes GORM statements through zap. Entries carry the table the
// statement touches plus the request, trace and document fields of the context.
// Quoted literals are masked unless full SQL logging is on.
type GormLogger struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
	fullSQL       bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is logged as slow.
// Zero disables slow query logging.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithFullSQL logs statements with their literal values
func WithFullSQL(full bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.fullSQL = full
	}
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:        zapLogger.Named("gorm"),
		logLevel:      level,
		slowThreshold: DefaultSlowQueryThreshold,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Info {
		WithLogger(ctx, l.logger).Zap().Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Warn {
		WithLogger(ctx, l.logger).Zap().Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Error {
		WithLogger(ctx, l.logger).Zap().Sugar().Errorf(msg, data...)
	}
}

// Trace logs failed statements as errors, slow statements as warnings and,
// at gormlogger.Info, every statement at debug. Record-not-found is a normal
// outcome for lookups and is never logged.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	var extra zap.Field
	level := zapcore.DebugLevel
	switch {
	case failed && l.logLevel >= gormlogger.Error:
		level, extra = zapcore.ErrorLevel, zap.Error(err)
	case slow && l.logLevel >= gormlogger.Warn:
		level, extra = zapcore.WarnLevel, zap.Duration("slow_threshold", l.slowThreshold)
	case !failed && l.logLevel >= gormlogger.Info:
		extra = zap.Skip()
	default:
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", l.statement(sql)),
		extra,
	}
	if table := statementTable(sql); table != "" {
		fields = append(fields, zap.String("table", table))
	}

	log := WithLogger(ctx, l.logger).Zap()
	switch level {
	case zapcore.ErrorLevel:
		log.Error("SQL error", fields...)
	case zapcore.WarnLevel:
		log.Warn("slow SQL", fields...)
	default:
		log.Debug("SQL", fields...)
	}
}

func (l *GormLogger) statement(sql string) string {
	if l.fullSQL {
		return sql
	}
	return quotedLiteral.ReplaceAllString(sql, "'?'")
}

// statementTable returns the first table named in sql, lower-cased
func statementTable(sql string) string {
	m := tableRef.FindStringSubmatch(sql)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// MapGormLogLevel maps the application log level to GORM's. Statements are
// only traced at debug; info and above log errors and slow queries.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
