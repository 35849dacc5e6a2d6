package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevLevel := logrus.StandardLogger().Out, logrus.GetLevel()
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logrus.SetOutput(prevOut)
		logrus.SetLevel(prevLevel)
	})
	return &buf
}

func TestGormLoggerTrace(t *testing.T) {
	buf := captureLogs(t)
	l := GormLogger()

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return `SELECT * FROM "trips"`, 3
	}, nil)
	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), "trips")

	buf.Reset()
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return `SELECT * FROM "drivers"`, 0
	}, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "level=error")

	buf.Reset()
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return `INSERT INTO "trips"`, 0
	}, errors.New("boom"))
	assert.Contains(t, buf.String(), "level=error")
	assert.Contains(t, buf.String(), "boom")
}

func TestGormLoggerSilent(t *testing.T) {
	buf := captureLogs(t)
	l := GormLogger().LogMode(gormlogger.Silent)
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return `SELECT 1`, 1
	}, errors.New("ignored"))
	assert.Empty(t, buf.String())
}
