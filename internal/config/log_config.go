package config

type LogConfig interface {
	GetLogLevel() string
	GetLogFormat() string
	GetLogFile() string
	GetLogMaxSizeMB() int
}

type Log struct{}

var _ LogConfig = Log{}

func (Log) GetLogLevel() string {
	return GetEnv("LOG_LEVEL", "info")
}

// GetLogFormat returns "console" or "json".
func (Log) GetLogFormat() string {
	return GetEnv("LOG_FORMAT", "console")
}

func (Log) GetLogFile() string {
	return GetEnv("LOG_FILE", "")
}

func (Log) GetLogMaxSizeMB() int {
	return GetEnvInt("LOG_MAX_SIZE_MB", 10)
}
