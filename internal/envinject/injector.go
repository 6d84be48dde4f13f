// Package envinject writes rank, rendezvous and shared-secret variables into
// the environment of a worker task.
package envinject

import (
	"strconv"

	"github.com/vk/torchrun-prelaunch/internal/rank"
	"github.com/vk/torchrun-prelaunch/internal/rendezvous"
)

// Variable names understood by torch.distributed and PMI.
const (
	EnvRank           = "RANK"
	EnvWorldSize      = "WORLD_SIZE"
	EnvLocalRank      = "LOCAL_RANK"
	EnvGroupRank      = "GROUP_RANK"
	EnvLocalWorldSize = "LOCAL_WORLD_SIZE"
	EnvMasterAddr     = "MASTER_ADDR"
	EnvMasterPort     = "MASTER_PORT"
	EnvSharedSecret   = "PMI_SHARED_SECRET"
)

// Environment is the task environment being prepared.
type Environment interface {
	Lookup(key string) (string, bool)
	Set(key, value string)
}

// Outcome tells whether the rendezvous variables were written.
type Outcome int

const (
	// Applied means MASTER_ADDR and MASTER_PORT were written from the
	// resolved endpoint.
	Applied Outcome = iota
	// RendezvousOverridden means the environment already named a rendezvous
	// address or port, so neither variable was touched.
	RendezvousOverridden
)

func (o Outcome) String() string {
	if o == RendezvousOverridden {
		return "overridden"
	}
	return "applied"
}

// Result describes what Apply wrote.
type Result struct {
	Outcome Outcome
	Overlay map[string]string
}

// Overridden reports whether env already sets MASTER_ADDR or MASTER_PORT.
// Either one is enough.
func Overridden(env Environment) bool {
	_, addr := env.Lookup(EnvMasterAddr)
	_, port := env.Lookup(EnvMasterPort)
	return addr || port
}

// Apply writes the task variables into env. Rank and secret variables are
// always overwritten. The rendezvous pair is written only when env sets
// neither MASTER_ADDR nor MASTER_PORT; ep is ignored otherwise.
func Apply(env Environment, ranks rank.Set, ep rendezvous.Endpoint, secret uint64) Result {
	res := Result{Outcome: Applied, Overlay: make(map[string]string, 8)}

	if Overridden(env) {
		res.Outcome = RendezvousOverridden
	} else {
		res.Overlay[EnvMasterAddr] = ep.Address
		res.Overlay[EnvMasterPort] = strconv.FormatUint(uint64(ep.Port), 10)
	}

	res.Overlay[EnvRank] = formatUint32(ranks.GlobalRank)
	res.Overlay[EnvWorldSize] = formatUint32(ranks.WorldSize)
	res.Overlay[EnvLocalRank] = formatUint32(ranks.LocalRank)
	res.Overlay[EnvGroupRank] = formatUint32(ranks.GroupRank)
	res.Overlay[EnvLocalWorldSize] = formatUint32(ranks.LocalWorldSize)
	res.Overlay[EnvSharedSecret] = strconv.FormatUint(secret, 10)

	for k, v := range res.Overlay {
		env.Set(k, v)
	}
	return res
}

func formatUint32(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
