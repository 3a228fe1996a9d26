package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Import   ImportConfig   `yaml:"import"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"` // 固定端口，用于单例锁
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path SQLite 数据库文件路径
	// 留空表示使用默认路径 <data_dir>/db/chat_history.db
	Path string `yaml:"path"`
}

// StorageConfig 文档存储配置
type StorageConfig struct {
	// BaseDir 文档存储根目录（original/summary/url 三个子目录）
	// 留空表示使用默认路径 <data_dir>/data
	BaseDir string `yaml:"base_dir"`
}

// LLMConfig LLM 总结配置
type LLMConfig struct {
	// Provider 当前使用的提供商：glm/chatgpt/minimax/perplexity
	Provider string `yaml:"provider"`

	// TimeoutSeconds API 请求超时（秒）
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MaxRetries 可重试失败的最大重试次数
	MaxRetries int `yaml:"max_retries"`
}

// ImportConfig 导入配置
type ImportConfig struct {
	// WatchDir 监听的导出文件目录，留空表示不启用监听
	WatchDir string `yaml:"watch_dir"`

	// Parallelism 目录批量导入的并发度
	Parallelism int `yaml:"parallelism"`
}

// NewConfig 创建配置（默认值，可被配置文件覆盖）
func NewConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort: ":19970",
		},
		Database: DatabaseConfig{
			Path: "",
		},
		Storage: StorageConfig{
			BaseDir: "",
		},
		LLM: LLMConfig{
			Provider:       "glm",
			TimeoutSeconds: 180,
			MaxRetries:     3,
		},
		Import: ImportConfig{
			WatchDir:    "",
			Parallelism: 4,
		},
	}

	// 配置文件存在时覆盖默认值，不存在则静默使用默认值
	path := filepath.Join(GetDataDir(), "config.yaml")
	if err := cfg.loadFile(path); err != nil && !os.IsNotExist(err) {
		// 配置文件损坏时保留默认值继续运行
		fmt.Fprintf(os.Stderr, "config: failed to load %s: %v\n", path, err)
	}

	return cfg
}

// loadFile 从 YAML 文件加载配置
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// DatabasePath 返回数据库文件的实际路径
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(GetDataDir(), "db", "chat_history.db")
}

// StorageBaseDir 返回文档存储根目录的实际路径
func (c *Config) StorageBaseDir() string {
	if c.Storage.BaseDir != "" {
		return c.Storage.BaseDir
	}
	return filepath.Join(GetDataDir(), "data")
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewLLMConfig 创建 LLM 配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewImportConfig 创建导入配置
func NewImportConfig(cfg *Config) *ImportConfig {
	return &cfg.Import
}
