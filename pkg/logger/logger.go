package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

// Init builds the process-wide logger. Production environments get the JSON
// encoder at info level, everything else the console encoder at debug level.
func Init(environment string) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}
	sugar = base.Sugar()
}

func log() *zap.SugaredLogger {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return sugar
}

func Debug(msg string, keysAndValues ...any) {
	log().Debugw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	log().Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	log().Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	log().Errorw(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...any) {
	log().Fatalw(msg, keysAndValues...)
}

// Sync flushes buffered log entries; call before process exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
