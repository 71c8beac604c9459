package secfetch

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"go.uber.org/zap"
)

// SimpleLogger writes key=value debug lines via the standard log package.
// Useful for examples and tests; applications should prefer ZapLogger.
type SimpleLogger struct {
	prefix string
}

// NewSimpleLogger creates a SimpleLogger with the "secfetch" prefix.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{prefix: "secfetch"}
}

func (l *SimpleLogger) logf(level, msg string, keysAndValues ...interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", l.prefix, level, msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	log.Print(b.String())
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logf("DEBUG", msg, keysAndValues...)
}

func (l *SimpleLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logf("INFO", msg, keysAndValues...)
}

func (l *SimpleLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logf("WARN", msg, keysAndValues...)
}

func (l *SimpleLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logf("ERROR", msg, keysAndValues...)
}

// ZapLogger adapts a zap logger to the Logger interface so applications
// already running zap can route fetch diagnostics into their pipeline.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps an existing *zap.Logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

const requestIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func defaultRequestID() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = requestIDAlphabet[rand.Intn(len(requestIDAlphabet))]
	}
	return string(b)
}
