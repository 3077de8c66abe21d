package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the narrow logging surface background components depend on.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// New builds a production zap logger, or a development one when debug is set.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// StdLog bridges zap to the *log.Logger http.Server expects for ErrorLog.
func StdLog(l *zap.Logger) *log.Logger {
	std, err := zap.NewStdLogAt(l.Named("http"), zapcore.ErrorLevel)
	if err != nil {
		return zap.NewStdLog(l)
	}
	return std
}

// Nop discards everything; handy in tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
