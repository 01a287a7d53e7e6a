package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	logfile := t.TempDir() + "/test.log"
	l, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0444)
	assert.NoError(t, err, "error creating log file")
	defer l.Close()
	logger := NewLogger("test", LogOutput{File: l}, LogLevelDebug)
	logger.Debugf("Debug %s", "Debug")
	logger.Infof("Info %s", "Info")
	logger.Errorf("Error %s", "Error")
	log, err := os.ReadFile(logfile)
	assert.NoError(t, err, "error reading log file")
	assert.Contains(t, string(log), "test: Debug Debug")
	assert.Contains(t, string(log), "test: Info Info")
	assert.Contains(t, string(log), "test: Error Error")
}

func TestLoggerLevelFilter(t *testing.T) {
	logfile := t.TempDir() + "/test.log"
	l, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0444)
	assert.NoError(t, err, "error creating log file")
	defer l.Close()
	logger := NewLogger("test", LogOutput{File: l}, LogLevelError)
	logger.Debugf("hidden")
	logger.Errorf("shown")
	log, err := os.ReadFile(logfile)
	assert.NoError(t, err, "error reading log file")
	assert.NotContains(t, string(log), "hidden")
	assert.Contains(t, string(log), "test: shown")
}

func TestLoggerFork(t *testing.T) {
	logfile := t.TempDir() + "/test.log"
	l, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0444)
	assert.NoError(t, err)
	defer l.Close()
	logger := NewLogger("server", LogOutput{File: l}, LogLevelInfo)
	child := logger.Fork("ingest: %s", "127.0.0.1:1234")
	child.Infof("connected")
	log, err := os.ReadFile(logfile)
	assert.NoError(t, err)
	assert.Contains(t, string(log), "server: ingest: 127.0.0.1:1234: connected")
}
