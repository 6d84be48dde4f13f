package hcl

import (
	"context"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/torchrun-prelaunch/internal/config"
)

// writeFiles creates the given files under a temporary directory and returns
// its path.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestLoader_ExplicitNodes(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"layout.hcl": `
			control_port = 7000

			node "gpu01" {
				tasks = [0, 1, 2, 3]
				addr  = "10.0.0.1"
			}

			node "gpu02" {
				tasks = [4, 5, 6, 7]
			}

			env {
				NCCL_DEBUG = "INFO"
				OMP_NUM_THREADS = 4
			}
		`,
	})

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, &config.Model{
		ControlPort: 7000,
		Nodes: []*config.NodeSpec{
			{Hostname: "gpu01", Tasks: []uint32{0, 1, 2, 3}, Addr: netip.MustParseAddr("10.0.0.1")},
			{Hostname: "gpu02", Tasks: []uint32{4, 5, 6, 7}},
		},
		Env: map[string]string{"NCCL_DEBUG": "INFO", "OMP_NUM_THREADS": "4"},
	}, model)

	v, err := model.View()
	require.NoError(t, err)
	assert.Equal(t, uint32(8), v.WorldSize())
}

func TestLoader_NodelistAcrossFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.hcl":          `nodelist = "gpu[01-03]"`,
		"nested/b.hcl":   `tasks_per_node = 2`,
		"nested/skip.md": `not a layout`,
	})

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "gpu[01-03]", model.Nodelist)
	assert.Equal(t, 2, model.TasksPerNode)

	v, err := model.View()
	require.NoError(t, err)
	assert.Equal(t, 3, v.NodeCount())
	assert.Equal(t, "gpu03", v.Hostname(2))
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		errPart string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"x.hcl": `node "a" {`},
			errPart: "failed to parse",
		},
		{
			name:    "unknown attribute",
			files:   map[string]string{"x.hcl": `workers = 4`},
			errPart: "failed to decode",
		},
		{
			name:    "missing tasks",
			files:   map[string]string{"x.hcl": `node "a" {}`},
			errPart: "failed to decode",
		},
		{
			name:    "tasks not a list",
			files:   map[string]string{"x.hcl": `node "a" { tasks = "zero" }`},
			errPart: "list of numbers",
		},
		{
			name:    "negative rank",
			files:   map[string]string{"x.hcl": `node "a" { tasks = [0, -1] }`},
			errPart: "non-negative integer",
		},
		{
			name:    "fractional rank",
			files:   map[string]string{"x.hcl": `node "a" { tasks = [0.5] }`},
			errPart: "non-negative integer",
		},
		{
			name:    "bad addr",
			files:   map[string]string{"x.hcl": "node \"a\" {\n  tasks = [0]\n  addr = \"not-an-ip\"\n}\n"},
			errPart: "invalid addr",
		},
		{
			name:    "port out of range",
			files:   map[string]string{"x.hcl": `control_port = 70000`},
			errPart: "outside 1-65535",
		},
		{
			name: "duplicate scalar",
			files: map[string]string{
				"a.hcl": `control_port = 1`,
				"b.hcl": `control_port = 2`,
			},
			errPart: "more than once",
		},
		{
			name:    "null env value",
			files:   map[string]string{"x.hcl": `env { A = null }`},
			errPart: "must not be null",
		},
		{
			name:    "no files",
			files:   map[string]string{"readme.txt": ``},
			errPart: "no .hcl layout files",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeFiles(t, tc.files)
			_, err := NewLoader().Load(context.Background(), dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}

func TestLoader_LayoutFormsBuildViews(t *testing.T) {
	explicit := `
		node "gpu01" {
			tasks = [0, 1, 2, 3]
		}

		node "gpu02" {
			tasks = [4, 5, 6, 7]
		}
	`
	block := `
		nodelist       = "gpu[01-02]"
		tasks_per_node = 4
	`

	for name, content := range map[string]string{"explicit": explicit, "nodelist": block} {
		t.Run(name, func(t *testing.T) {
			model, err := NewLoader().Load(context.Background(), writeFiles(t, map[string]string{"layout.hcl": content}))
			require.NoError(t, err)

			v, err := model.View()
			require.NoError(t, err)
			assert.Equal(t, 2, v.NodeCount())
			assert.Equal(t, uint32(8), v.WorldSize())
			assert.Equal(t, "gpu02", v.Hostname(1))
		})
	}

	t.Run("mixed", func(t *testing.T) {
		model, err := NewLoader().Load(context.Background(), writeFiles(t, map[string]string{"layout.hcl": explicit + block}))
		require.NoError(t, err)

		_, err = model.View()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pick one")
	})
}
