// Package logging builds the service's zap logger. Output goes to stdout and to
// a daily file (app-YYYY-MM-DD.log) whose old siblings are pruned after the
// retention window.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Dir           string
	RetentionDays int
	Level         string
	Production    bool
}

// New returns the logger and a cleanup func that flushes and closes the log file.
// When the log directory cannot be prepared the logger still writes to stdout and
// the error is returned alongside it.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zap.NewAtomicLevelAt(parseLevel(opts.Level))

	var encoderCfg zapcore.EncoderConfig
	if opts.Production {
		encoderCfg = zap.NewProductionEncoderConfig()
	} else {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}
	encoderCfg.TimeKey = "ts"
	encoderCfg.LevelKey = "level"
	encoderCfg.MessageKey = "msg"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	stdout := zapcore.NewCore(newEncoder(encoderCfg, opts.Production), zapcore.Lock(os.Stdout), level)

	files, err := newDailyFile(opts.Dir, opts.RetentionDays, time.Now)
	if err != nil {
		logger := zap.New(stdout, zap.AddCaller())
		return logger, func() { _ = logger.Sync() }, err
	}
	fileEncoder := zapcore.NewJSONEncoder(encoderCfg)
	core := zapcore.NewTee(stdout, zapcore.NewCore(fileEncoder, files, level))
	logger := zap.New(core, zap.AddCaller())
	return logger, func() {
		_ = logger.Sync()
		_ = files.Close()
	}, nil
}

func newEncoder(cfg zapcore.EncoderConfig, production bool) zapcore.Encoder {
	if production {
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}

func parseLevel(raw string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(raw)))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// dailyFile is a WriteSyncer that switches to a new file when the date changes.
type dailyFile struct {
	mu            sync.Mutex
	dir           string
	retentionDays int
	now           func() time.Time
	date          string
	file          *os.File
}

func newDailyFile(dir string, retentionDays int, now func() time.Time) (*dailyFile, error) {
	if dir == "" {
		dir = "storage/logs"
	}
	if retentionDays < 1 || retentionDays > 7 {
		retentionDays = 7
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &dailyFile{dir: dir, retentionDays: retentionDays, now: now}
	date := now().Format("2006-01-02")
	file, err := openLogFile(dir, date)
	if err != nil {
		return nil, err
	}
	d.file = file
	d.date = date
	cleanupOldLogs(dir, retentionDays, now())
	return d, nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if date := d.now().Format("2006-01-02"); date != d.date {
		newFile, err := openLogFile(d.dir, date)
		if err == nil {
			_ = d.file.Close()
			d.file = newFile
			d.date = date
			cleanupOldLogs(d.dir, d.retentionDays, d.now())
		}
	}
	if d.file == nil {
		return 0, fmt.Errorf("log file closed")
	}
	return d.file.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func openLogFile(logDir, date string) (*os.File, error) {
	filename := filepath.Join(logDir, fmt.Sprintf("app-%s.log", date))
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func cleanupOldLogs(logDir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -(retentionDays - 1)).Truncate(24 * time.Hour)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		logDate, err := time.Parse("2006-01-02", datePart)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}
