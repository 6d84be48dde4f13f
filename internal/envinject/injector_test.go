package envinject

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/torchrun-prelaunch/internal/environ"
	"github.com/vk/torchrun-prelaunch/internal/rank"
	"github.com/vk/torchrun-prelaunch/internal/rendezvous"
)

var (
	testRanks    = rank.Set{GlobalRank: 5, WorldSize: 8, LocalRank: 1, GroupRank: 1, LocalWorldSize: 4}
	testEndpoint = rendezvous.Endpoint{Address: "10.0.0.9", Port: 41234}
	testSecret   = uint64(18446744073709551615)
)

func TestApply_Overrides(t *testing.T) {
	testCases := []struct {
		name         string
		env          map[string]string
		expectedAddr string
		expectedPort string
		outcome      Outcome
	}{
		{
			name:         "nothing preset",
			env:          map[string]string{},
			expectedAddr: "10.0.0.9",
			expectedPort: "41234",
			outcome:      Applied,
		},
		{
			name:         "both preset",
			env:          map[string]string{EnvMasterAddr: "user-host", EnvMasterPort: "1111"},
			expectedAddr: "user-host",
			expectedPort: "1111",
			outcome:      RendezvousOverridden,
		},
		{
			name:         "only address preset",
			env:          map[string]string{EnvMasterAddr: "user-host"},
			expectedAddr: "user-host",
			outcome:      RendezvousOverridden,
		},
		{
			name:         "only port preset",
			env:          map[string]string{EnvMasterPort: "1111"},
			expectedPort: "1111",
			outcome:      RendezvousOverridden,
		},
		{
			name:         "empty value still counts as set",
			env:          map[string]string{EnvMasterPort: ""},
			expectedPort: "",
			outcome:      RendezvousOverridden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := environ.FromMap(tc.env)
			_, addrBefore := env.Lookup(EnvMasterAddr)
			_, portBefore := env.Lookup(EnvMasterPort)

			res := Apply(env, testRanks, testEndpoint, testSecret)

			assert.Equal(t, tc.outcome, res.Outcome)
			addr, addrSet := env.Lookup(EnvMasterAddr)
			port, portSet := env.Lookup(EnvMasterPort)
			if tc.outcome == RendezvousOverridden {
				assert.Equal(t, addrBefore, addrSet, "MASTER_ADDR must not be added")
				assert.Equal(t, portBefore, portSet, "MASTER_PORT must not be added")
				assert.NotContains(t, res.Overlay, EnvMasterAddr)
				assert.NotContains(t, res.Overlay, EnvMasterPort)
			}
			assert.Equal(t, tc.expectedAddr, addr)
			assert.Equal(t, tc.expectedPort, port)
		})
	}
}

func TestApply_RankAndSecretAlwaysOverwrite(t *testing.T) {
	env := environ.FromMap(map[string]string{
		EnvRank:         "99",
		EnvWorldSize:    "99",
		EnvSharedSecret: "stale",
		EnvMasterAddr:   "user-host",
		"UNRELATED":     "kept",
	})

	Apply(env, testRanks, testEndpoint, testSecret)

	assert.Equal(t, map[string]string{
		EnvRank:           "5",
		EnvWorldSize:      "8",
		EnvLocalRank:      "1",
		EnvGroupRank:      "1",
		EnvLocalWorldSize: "4",
		EnvSharedSecret:   "18446744073709551615",
		EnvMasterAddr:     "user-host",
		"UNRELATED":       "kept",
	}, env.ToMap())
}

func TestApply_FallbackPort(t *testing.T) {
	env := environ.Empty()
	ep := rendezvous.Endpoint{Address: "10.0.0.9", Port: rendezvous.DefaultPort, Fallback: true}

	res := Apply(env, testRanks, ep, 1)

	assert.Equal(t, Applied, res.Outcome)
	assert.Equal(t, "29400", env.Get(EnvMasterPort))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "overridden", RendezvousOverridden.String())
}
