package logger

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var output io.Writer = os.Stdout

// Setup initializes Logrus on a rotating file mirrored to stdout.
func Setup(file, level string) {
	// 1) Lumberjack for file rotation
	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 7,  // keep up to 7 old files
		MaxAge:     7,  // days
		Compress:   true,
	}
	output = io.MultiWriter(os.Stdout, rotator)

	// 2) Configure Logrus to write to that file
	logrus.SetOutput(output)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.DebugLevel // capture SQL at Debug/Info
	}
	logrus.SetLevel(lvl)
}

// Output is the sink chosen by Setup, shared with the HTTP access log.
func Output() io.Writer {
	return output
}

// GormLogger routes GORM's SQL trace into logrus.
func GormLogger() gormlogger.Interface {
	return &gormLogrus{entry: logrus.WithField("component", "gorm"), slow: 200 * time.Millisecond}
}

type gormLogrus struct {
	entry *logrus.Entry
	slow  time.Duration
	level gormlogger.LogLevel
}

func (l *gormLogrus) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogrus) Info(ctx context.Context, msg string, args ...interface{}) {
	l.entry.Infof(msg, args...)
}

func (l *gormLogrus) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.entry.Warnf(msg, args...)
}

func (l *gormLogrus) Error(ctx context.Context, msg string, args ...interface{}) {
	l.entry.Errorf(msg, args...)
}

func (l *gormLogrus) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := logrus.Fields{"elapsed_ms": elapsed.Milliseconds(), "rows": rows, "sql": sql}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.entry.WithFields(fields).WithError(err).Error("query failed")
	case elapsed > l.slow:
		l.entry.WithFields(fields).Warn("slow query")
	default:
		l.entry.WithFields(fields).Debug("query")
	}
}
