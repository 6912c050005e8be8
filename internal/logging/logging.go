// Package logging builds the component loggers used across the
// codebase: stdlib log.Logger instances with bracketed prefixes, backed
// by stderr or a size-rotated file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger for component writing to w. A nil w means
// stderr. The prefix matches the convention used everywhere in this
// codebase: "[component] ".
func New(component string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.New(w, "["+component+"] ", log.LstdFlags)
}

// FileWriter returns a size-rotated writer for path. Old files are
// pruned so a long-running daemon cannot fill the disk.
func FileWriter(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// Writer resolves the destination for a log file setting: a rotated
// file when path is set, stderr otherwise.
func Writer(path string) io.Writer {
	if path == "" {
		return os.Stderr
	}
	return FileWriter(path)
}
