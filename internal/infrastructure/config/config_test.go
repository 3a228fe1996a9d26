package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDataDir_Default(t *testing.T) {
	resetDataDir()
	os.Unsetenv(EnvDataDir)

	dir := GetDataDir()

	homeDir, err := os.UserHomeDir()
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, ".kakaosum"), dir)
}

func TestGetDataDir_EnvOverride(t *testing.T) {
	resetDataDir()
	t.Setenv(EnvDataDir, "/custom/data/path")

	dir := GetDataDir()
	assert.Equal(t, "/custom/data/path", dir)
}

func TestGetDataDir_Cached(t *testing.T) {
	resetDataDir()
	t.Setenv(EnvDataDir, "/first/path")
	assert.Equal(t, "/first/path", GetDataDir())

	// 修改环境变量后再调用，应该返回缓存值
	os.Setenv(EnvDataDir, "/second/path")
	assert.Equal(t, "/first/path", GetDataDir(), "应该返回缓存值，不受环境变量修改影响")
}

func TestNewConfig_Defaults(t *testing.T) {
	resetDataDir()
	t.Setenv(EnvDataDir, t.TempDir())

	cfg := NewConfig()

	assert.Equal(t, ":19970", cfg.Server.HTTPPort)
	assert.Equal(t, "glm", cfg.LLM.Provider)
	assert.Equal(t, 180, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, 4, cfg.Import.Parallelism)
}

func TestNewConfig_FileOverride(t *testing.T) {
	resetDataDir()
	dataDir := t.TempDir()
	t.Setenv(EnvDataDir, dataDir)

	content := `
server:
  http_port: ":20000"
llm:
  provider: chatgpt
  max_retries: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(content), 0644))

	cfg := NewConfig()

	assert.Equal(t, ":20000", cfg.Server.HTTPPort)
	assert.Equal(t, "chatgpt", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
	// 未覆盖的字段保留默认值
	assert.Equal(t, 180, cfg.LLM.TimeoutSeconds)
}

func TestConfig_DefaultPaths(t *testing.T) {
	resetDataDir()
	dataDir := t.TempDir()
	t.Setenv(EnvDataDir, dataDir)

	cfg := NewConfig()

	assert.Equal(t, filepath.Join(dataDir, "db", "chat_history.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(dataDir, "data"), cfg.StorageBaseDir())
}

// resetDataDir 重置数据目录缓存，每个用例重新解析环境变量
func resetDataDir() {
	dataDirOnce = sync.Once{}
	dataDirPath = ""
}
