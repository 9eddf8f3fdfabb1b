package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/config"
	"github.com/dagflow/dagflow/internal/task"
)

func TestDefaultValues(t *testing.T) {
	c := config.Default()
	assert.Equal(t, "thread", c.DefaultExecutor)
	assert.Equal(t, task.Thread, c.DefaultExecutorMode())
	assert.Equal(t, 10000, c.MaxDynamicTasks)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dagflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_executor: process\nmax_dynamic_tasks: 50\n"), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "process", c.DefaultExecutor)
	assert.Equal(t, task.Process, c.DefaultExecutorMode())
	assert.Equal(t, 50, c.MaxDynamicTasks)
}

func TestApplyEnvOverridesWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dagflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("result_cache: memory\n"), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)

	fakeEnv := map[string]string{"DAGFLOW_RESULT_CACHE": "filesystem"}
	config.ApplyEnvOverrides(c, func(key string) (string, bool) {
		v, ok := fakeEnv[key]
		return v, ok
	})
	assert.Equal(t, "filesystem", c.ResultCache)
}

func TestSetActiveReplacesActiveConfig(t *testing.T) {
	c := config.Default()
	c.MaxDynamicTasks = 7
	config.SetActive(c)
	assert.Same(t, c, config.Active())
}
