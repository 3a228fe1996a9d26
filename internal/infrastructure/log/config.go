package log

import (
	"os"
	"strconv"
	"strings"
)

// Config 日志配置
type Config struct {
	// Level 日志级别：debug, info, warn, error
	Level string `json:"level" env:"LOG_LEVEL"`

	// Format 日志格式：console, json
	Format string `json:"format" env:"LOG_FORMAT"`

	// AddSource 是否输出源文件位置（开发环境）
	AddSource bool `json:"add_source" env:"LOG_ADD_SOURCE"`
}

// NewConfigFromEnv 从环境变量创建配置
// ENV=development 时强制 debug 级别并输出源文件位置
func NewConfigFromEnv() *Config {
	cfg := &Config{
		Level:     envOr("LOG_LEVEL", "info"),
		Format:    envOr("LOG_FORMAT", "console"),
		AddSource: envBool("LOG_ADD_SOURCE", false),
	}

	if strings.EqualFold(envOr("ENV", "production"), "development") {
		cfg.Level = "debug"
		cfg.Format = "console"
		cfg.AddSource = true
	}

	return cfg
}

// envOr 读取环境变量，为空时返回默认值
func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envBool 读取布尔型环境变量，解析失败返回默认值
func envBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
