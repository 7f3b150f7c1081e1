package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LLM_PROVIDER", "LLM_TIMEOUT", "LLM_MAX_ATTEMPTS", "SCHEMA_RETRY", "PROMPT_MAX_CHARS", "OBJECT_STORE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 3, cfg.LLMMaxAttempts)
	assert.Equal(t, 0, cfg.SchemaRetry)
	assert.Equal(t, 60000, cfg.PromptMaxChars)
	assert.Equal(t, "local", cfg.ObjectStoreType)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("LLM_TIMEOUT", "30")
	t.Setenv("LLM_MAX_ATTEMPTS", "5")
	t.Setenv("OBJECT_STORE", "minio")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("ENV", "prod")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 5, cfg.LLMMaxAttempts)
	assert.Equal(t, "minio", cfg.ObjectStoreType)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigin)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LLM_MAX_ATTEMPTS", "many")
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, 3, cfg.LLMMaxAttempts)
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RM_TEST_FROM_FILE=file\nRM_TEST_PRESET=file\n"), 0o600))
	t.Setenv("RM_TEST_PRESET", "env")
	t.Cleanup(func() { _ = os.Unsetenv("RM_TEST_FROM_FILE") })

	loadEnvFiles(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "file", os.Getenv("RM_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("RM_TEST_PRESET"))
}
