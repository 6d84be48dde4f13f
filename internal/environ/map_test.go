package environ

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	m := FromSlice([]string{"A=1", "B=x=y", "EMPTY=", "broken", "=nokey"})

	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "EMPTY": ""}, m.ToMap())

	v, ok := m.Lookup("EMPTY")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = m.Lookup("a")
	assert.False(t, ok, "keys are case-sensitive")
}

func TestMerge(t *testing.T) {
	m := FromMap(map[string]string{"A": "base", "B": "base"})
	other := FromMap(map[string]string{"B": "other", "C": "other"})

	kept := m.Clone()
	kept.Merge(other, false)
	assert.Equal(t, map[string]string{"A": "base", "B": "base", "C": "other"}, kept.ToMap())

	overwritten := m.Clone()
	overwritten.Merge(other, true)
	assert.Equal(t, map[string]string{"A": "base", "B": "other", "C": "other"}, overwritten.ToMap())

	// Clones are independent of the original.
	assert.Equal(t, map[string]string{"A": "base", "B": "base"}, m.ToMap())
}

func TestKeys_SortedAndLen(t *testing.T) {
	m := FromMap(map[string]string{"WORLD_SIZE": "8", "RANK": "3", "LOCAL_RANK": "3"})

	assert.Equal(t, []string{"LOCAL_RANK", "RANK", "WORLD_SIZE"}, m.Keys())
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 0, Empty().Len())
}

func TestLoadAndWrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "base.env")
	require.NoError(t, os.WriteFile(in, []byte("# comment\nNCCL_DEBUG=INFO\nMASTER_PORT=1234\n"), 0o600))

	m, err := Load(in)
	require.NoError(t, err)
	assert.Equal(t, "INFO", m.Get("NCCL_DEBUG"))
	assert.Equal(t, "1234", m.Get("MASTER_PORT"))

	m.Set("RANK", "0")
	out := filepath.Join(dir, "task.env")
	require.NoError(t, m.Write(out))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "RANK=0")
	assert.Contains(t, string(content), `NCCL_DEBUG="INFO"`)

	_, err = Load(filepath.Join(dir, "missing.env"))
	require.Error(t, err)
}
