package config

import (
	"fmt"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a no-op until InitLogger runs, so packages can log from tests without setup.
var Logger *zap.Logger = zap.NewNop()

// InitLogger initializes the Zap logger with Lumberjack log rotation in the 'logs' folder.
// When LOG_TO_STDOUT is "true" entries are also written to stdout.
func InitLogger() {
	err := os.MkdirAll("logs", os.ModePerm)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logs directory: %v", err))
	}

	logFile := &lumberjack.Logger{
		Filename:   fmt.Sprintf("logs/%s.log", time.Now().Format("2006-01-02")),
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     28, // days
		Compress:   true,
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(logFile)}
	if os.Getenv("LOG_TO_STDOUT") == "true" {
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(sinks...),
		zapcore.InfoLevel,
	)

	Logger = zap.New(core, zap.AddCaller())
}

// InitFromEnv loads the env files before building the logger, so logger settings kept in
// .env take effect. The returned error is the env load failure, if any; the logger is
// initialized either way.
func InitFromEnv(files ...string) error {
	envErr := LoadEnv(files...)
	InitLogger()
	return envErr
}
