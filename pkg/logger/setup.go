package logger

import "os"

func SetupLogger(logLevel string, logJSON, logSource bool) Logger {
	Init(&Config{
		Level:      LogLevel(logLevel),
		JSON:       logJSON,
		AddSource:  logSource,
		Output:     os.Stderr,
		TimeFormat: "15:04:05",
	})
	return defaultLogger
}
