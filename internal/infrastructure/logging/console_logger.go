package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"prinsight.ai/cli/internal/application/ports"
)

var levelStyles = map[ports.LogLevel]lipgloss.Style{
	ports.LogLevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	ports.LogLevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	ports.LogLevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	ports.LogLevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

// ConsoleLogger implements ports.LoggingGateway over a standard logger.
// Output goes to stderr so stdout stays clean for command results.
type ConsoleLogger struct {
	mu     sync.RWMutex
	logger *log.Logger
	level  ports.LogLevel
	styled bool
}

var _ ports.LoggingGateway = (*ConsoleLogger)(nil)

// NewConsoleLogger creates a logger writing to stderr
func NewConsoleLogger(level ports.LogLevel) *ConsoleLogger {
	return NewLogger(os.Stderr, level, true)
}

// NewLogger creates a logger writing to w. Level tags are colored when
// styled is set.
func NewLogger(w io.Writer, level ports.LogLevel, styled bool) *ConsoleLogger {
	return &ConsoleLogger{
		logger: log.New(w, "[pri] ", log.LstdFlags),
		level:  level,
		styled: styled,
	}
}

func (l *ConsoleLogger) Log(level ports.LogLevel, message string, fields map[string]interface{}) {
	if !l.enabled(level) {
		return
	}
	l.logger.Print(l.format(level, message, fields))
}

func (l *ConsoleLogger) LogError(err error, message string, fields map[string]interface{}) {
	if !l.enabled(ports.LogLevelError) {
		return
	}
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	l.logger.Print(l.format(ports.LogLevelError, message, fields))
}

func (l *ConsoleLogger) SetLogLevel(level ports.LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *ConsoleLogger) GetLogLevel() ports.LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *ConsoleLogger) enabled(level ports.LogLevel) bool {
	return level.Rank() >= l.GetLogLevel().Rank()
}

func (l *ConsoleLogger) format(level ports.LogLevel, message string, fields map[string]interface{}) string {
	tag := strings.ToUpper(string(level))
	if l.styled {
		tag = levelStyles[level].Render(tag)
	}

	var b strings.Builder
	b.WriteString(tag)
	b.WriteString(": ")
	b.WriteString(message)
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	return b.String()
}

// Discard is a LoggingGateway that drops everything
type Discard = ports.NoopLogger
