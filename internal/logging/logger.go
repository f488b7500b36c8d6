// Package logging adapts the teacher's plain-text rotating file Logger for
// gateway use: the same Info/Warn/Error/Close/RotateDaily shape, plus
// structured key=value fields for per-session/per-device correlation.
package logging

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger wraps a standard library *log.Logger writing to a rotated file.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
}

// New opens (or creates) the log file at path.
func New(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("logging: open log: %w", err)
	}
	return &Logger{file: file, logger: log.New(file, "", log.LstdFlags|log.Lmsgprefix)}, nil
}

func (l *Logger) Info(msg string)  { l.write("INFO", msg) }
func (l *Logger) Warn(msg string)  { l.write("WARN", msg) }
func (l *Logger) Error(msg string) { l.write("ERROR", msg) }

func (l *Logger) write(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.SetPrefix(level + ": ")
	l.logger.Println(msg)
}

// Close closes the underlying log file.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
}

// RotateDaily reopens the log file every 24h, the same loop shape as the
// teacher's Logger.RotateDaily.
func (l *Logger) RotateDaily() {
	for {
		now := time.Now()
		next := now.Add(24 * time.Hour)
		time.Sleep(next.Sub(now))

		l.mu.Lock()
		name := l.file.Name()
		_ = l.file.Close()
		file, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			l.mu.Unlock()
			fmt.Printf("logging: rotate failed: %v\n", err)
			return
		}
		l.file = file
		l.logger.SetOutput(file)
		l.mu.Unlock()
	}
}

// Fields is a correlation-tag bag appended to a message as "key=value"
// pairs, sorted for deterministic output.
type Fields map[string]any

func (f Fields) String() string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, f[k])
	}
	return strings.Join(parts, " ")
}

// InfoFields logs msg with structured fields appended.
func (l *Logger) InfoFields(msg string, fields Fields) { l.write("INFO", msg+" "+fields.String()) }

// WarnFields logs msg with structured fields appended.
func (l *Logger) WarnFields(msg string, fields Fields) { l.write("WARN", msg+" "+fields.String()) }

// ErrorFields logs msg with structured fields appended.
func (l *Logger) ErrorFields(msg string, fields Fields) { l.write("ERROR", msg+" "+fields.String()) }
