package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	logFilePrefix = "knative-charm-"
	logFileSuffix = ".log"

	// DefaultRetentionDays is how long generated log files are kept.
	DefaultRetentionDays = 7
)

// LogConfig selects where log lines go.
type LogConfig struct {
	// Output is "-" for stderr, "none" to discard, "" for a generated file
	// in Dir, or a path (relative paths are taken from Dir).
	Output string
	Dir    string
	// Name is added to generated file names, usually the charm name.
	Name string
	// RetentionDays removes older generated files from Dir when a file is
	// opened. Zero keeps everything.
	RetentionDays int
}

// LogFile is the destination chosen by NewLogFile.
type LogFile struct {
	Path   string // empty unless a file was opened
	file   *os.File
	writer io.Writer
}

// NewLogFile opens the destination described by cfg.
func NewLogFile(cfg *LogConfig) (*LogFile, error) {
	var path string
	switch out := strings.ToLower(cfg.Output); {
	case out == "none":
		return &LogFile{writer: io.Discard}, nil
	case out == "-":
		return &LogFile{writer: os.Stderr}, nil
	case out == "":
		path = filepath.Join(cfg.Dir, GenerateLogFilename(cfg.Name, time.Now().UTC()))
	case filepath.IsAbs(cfg.Output):
		path = cfg.Output
	default:
		path = filepath.Join(cfg.Dir, cfg.Output)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if cfg.RetentionDays > 0 && cfg.Dir != "" {
		if err := CleanupOldLogFiles(cfg.Dir, cfg.RetentionDays); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &LogFile{Path: path, file: f, writer: f}, nil
}

// Writer returns the destination writer.
func (lf *LogFile) Writer() io.Writer { return lf.writer }

// Close closes the file, if one was opened.
func (lf *LogFile) Close() error {
	if lf.file == nil {
		return nil
	}
	return lf.file.Close()
}

// GenerateLogFilename returns knative-charm-[name-]YYYYMMDD-HHMMSS-mmm.log for t.
func GenerateLogFilename(name string, t time.Time) string {
	prefix := logFilePrefix
	if name != "" {
		prefix += name + "-"
	}
	return fmt.Sprintf("%s%s-%03d%s", prefix, t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond), logFileSuffix)
}

// CleanupOldLogFiles removes generated log files in dir last modified more
// than retentionDays ago. Other files are left alone.
func CleanupOldLogFiles(dir string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read log directory: %w", err)
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, logFileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		_ = os.Remove(filepath.Join(dir, name))
	}
	return nil
}
