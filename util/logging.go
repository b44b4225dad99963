package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel orders log severities. A category emits a record only when the
// record's level is at or above both the category's own threshold and the
// global floor.
type LogLevel int32

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelNone silences a category entirely.
	LogLevelNone
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	}
	return "NONE"
}

// LogCategory tags every record of one subsystem (LogDevice, LogGPUScene,
// LogPool, ...) and carries its own severity threshold, so one noisy
// subsystem can be silenced or opened up for debugging independently.
type LogCategory struct {
	name     string
	minLevel atomic.Int32
}

var logRegistry struct {
	sync.Mutex
	categories  map[string]*LogCategory
	sink        io.Writer
	globalFloor atomic.Int32
}

func init() {
	logRegistry.categories = make(map[string]*LogCategory)
	logRegistry.sink = os.Stderr
}

// NewLogCategory returns the category registered under name, creating it
// at the Info threshold on first use. Calls with the same name share one
// category, so a package-level var and a lookup agree on thresholds.
func NewLogCategory(name string) *LogCategory {
	logRegistry.Lock()
	defer logRegistry.Unlock()
	if c, ok := logRegistry.categories[name]; ok {
		return c
	}
	c := &LogCategory{name: name}
	c.minLevel.Store(int32(LogLevelInfo))
	logRegistry.categories[name] = c
	return c
}

// SetLogOutput redirects all categories to w. Tests point this at a
// buffer; nil restores the default stderr sink.
func SetLogOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logRegistry.Lock()
	logRegistry.sink = w
	logRegistry.Unlock()
}

// SetGlobalLogFloor raises the minimum severity across every category,
// regardless of their individual thresholds.
func SetGlobalLogFloor(level LogLevel) {
	logRegistry.globalFloor.Store(int32(level))
}

// SetMinLevel adjusts this category's threshold.
func (c *LogCategory) SetMinLevel(level LogLevel) {
	c.minLevel.Store(int32(level))
}

// Enabled reports whether a record at level would be emitted. Callers can
// guard expensive message construction with it.
func (c *LogCategory) Enabled(level LogLevel) bool {
	if int32(level) < c.minLevel.Load() {
		return false
	}
	return int32(level) >= logRegistry.globalFloor.Load()
}

func (c *LogCategory) emit(level LogLevel, format string, args ...any) {
	if !c.Enabled(level) {
		return
	}
	stamp := time.Now().Format("15:04:05.000000")
	line := fmt.Sprintf("%s %-5s %s: %s\n", stamp, level, c.name, fmt.Sprintf(format, args...))

	logRegistry.Lock()
	io.WriteString(logRegistry.sink, line)
	logRegistry.Unlock()
}

func (c *LogCategory) Debugf(format string, args ...any) {
	c.emit(LogLevelDebug, format, args...)
}

func (c *LogCategory) Infof(format string, args ...any) {
	c.emit(LogLevelInfo, format, args...)
}

func (c *LogCategory) Warnf(format string, args ...any) {
	c.emit(LogLevelWarn, format, args...)
}

func (c *LogCategory) Errorf(format string, args ...any) {
	c.emit(LogLevelError, format, args...)
}
