package logging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger adapts a zerolog logger to gorm's logger.Interface. Queries
// are logged at trace level; slow queries and query errors at warn.
type GormLogger struct {
	log           zerolog.Logger
	slowThreshold time.Duration
}

// NewGormLogger creates the adapter. A zero slowThreshold disables slow
// query warnings.
func NewGormLogger(l zerolog.Logger, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{log: l.With().Str("component", "gorm").Logger(), slowThreshold: slowThreshold}
}

// LogMode is a no-op; verbosity follows the zerolog level.
func (g *GormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return g
}

func (g *GormLogger) Info(_ context.Context, msg string, data ...any) {
	g.log.Debug().Msg(fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	g.log.Warn().Msg(fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Error(_ context.Context, msg string, data ...any) {
	g.log.Error().Msg(fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := g.slowThreshold > 0 && elapsed > g.slowThreshold
	if !failed && !slow && !g.traceEnabled() {
		return
	}
	sql, rows := fc()

	switch {
	case failed:
		g.log.Warn().Err(err).Str("sql", sql).Int64("rows_affected", rows).Dur("duration", elapsed).Msg("query error")
	case slow:
		g.log.Warn().Str("sql", sql).Int64("rows_affected", rows).Dur("duration", elapsed).Dur("threshold", g.slowThreshold).Msg("slow query")
	default:
		g.log.Trace().Str("sql", sql).Int64("rows_affected", rows).Dur("duration", elapsed).Msg("query")
	}
}

func (g *GormLogger) traceEnabled() bool {
	return g.log.GetLevel() <= zerolog.TraceLevel && zerolog.GlobalLevel() <= zerolog.TraceLevel
}
