package logger_test

import (
	"testing"

	"github.com/forbearing/docdb/logger"
	"github.com/stretchr/testify/assert"
)

func TestNewLogsWithoutPanicking(t *testing.T) {
	l := logger.New("engine", logger.Config{File: "/dev/stdout", Level: "debug"})
	assert.NotPanics(t, func() {
		l.With("key1", "value1", "key2", "value2").Infow("hello", "extra", 1)
		l.Errorz("boom")
	})
}

func TestWithPadsOddFields(t *testing.T) {
	l := logger.Nop()
	assert.NotPanics(t, func() {
		l.With("onlykey").Info("still works")
	})
}

func TestGormAdapterSatisfiesInterface(t *testing.T) {
	adapter := logger.NewGormAdapter(logger.Nop(), 0)
	assert.Equal(t, adapter, adapter.LogMode(0))
}
