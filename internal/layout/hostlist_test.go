package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHostlist(t *testing.T) {
	testCases := []struct {
		name      string
		expr      string
		expected  []string
		expectErr bool
	}{
		{
			name:     "single host",
			expr:     "login1",
			expected: []string{"login1"},
		},
		{
			name:     "plain list",
			expr:     "a,b,c",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "range keeps zero padding",
			expr:     "gpu[08-11]",
			expected: []string{"gpu08", "gpu09", "gpu10", "gpu11"},
		},
		{
			name:     "range and singles mixed",
			expr:     "gpu[01-02,07],cpu1",
			expected: []string{"gpu01", "gpu02", "gpu07", "cpu1"},
		},
		{
			name:     "suffix after bracket",
			expr:     "rack[1-2]-ib",
			expected: []string{"rack1-ib", "rack2-ib"},
		},
		{
			name:     "two bracket groups",
			expr:     "r[1-2]n[1-2]",
			expected: []string{"r1n1", "r1n2", "r2n1", "r2n2"},
		},
		{
			name:      "error - empty",
			expr:      "",
			expectErr: true,
		},
		{
			name:      "error - empty item",
			expr:      "a,,b",
			expectErr: true,
		},
		{
			name:      "error - unbalanced",
			expr:      "gpu[01-02",
			expectErr: true,
		},
		{
			name:      "error - nested",
			expr:      "gpu[0[1]]",
			expectErr: true,
		},
		{
			name:      "error - descending range",
			expr:      "gpu[5-1]",
			expectErr: true,
		},
		{
			name:      "error - non numeric range",
			expr:      "gpu[a-b]",
			expectErr: true,
		},
		{
			name:      "error - too large",
			expr:      "gpu[0-99999999]",
			expectErr: true,
		},
		{
			name:      "error - cap exceeded across items",
			expr:      "n[0-65535],extra",
			expectErr: true,
		},
		{
			name:      "error - cap exceeded across terms",
			expr:      "n[0-40000,0-40000]",
			expectErr: true,
		},
		{
			name:      "error - cap exceeded through suffix",
			expr:      "n[0-300]r[0-300]",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hosts, err := ExpandHostlist(tc.expr)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, hosts)
		})
	}
}

func TestExpandHostlist_AtCap(t *testing.T) {
	hosts, err := ExpandHostlist("n[0-65535]")
	require.NoError(t, err)
	assert.Len(t, hosts, maxHostlistSize)
	assert.Equal(t, "n0", hosts[0])
	assert.Equal(t, "n65535", hosts[maxHostlistSize-1])
}

func TestExpandHostlist_RejectsBeforeExpandingEveryTerm(t *testing.T) {
	expr := "n[" + strings.TrimSuffix(strings.Repeat("0-65535,", 100), ",") + "]"

	allocs := testing.AllocsPerRun(1, func() {
		_, err := ExpandHostlist(expr)
		require.Error(t, err)
	})
	// Expanding all 100 terms would cost millions of allocations; only the
	// first term fits the cap.
	assert.Less(t, allocs, float64(16*maxHostlistSize))
}
