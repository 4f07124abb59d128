// File: facade/affinity_adapter.go
// License: Apache-2.0
//
// affinityAdapter backs api.Affinity with the existing NUMA/CPU pin
// machinery in internal/concurrency, the concrete implementation
// api.Affinity's interface was always meant to have.

package facade

import (
	"github.com/momentics/workqueue/api"
	"github.com/momentics/workqueue/internal/concurrency"
)

type affinityAdapter struct{}

func newAffinityAdapter() api.Affinity { return affinityAdapter{} }

// Pin locks the calling goroutine's OS thread to numaID, preferring
// cpuID when the platform backend honors it directly.
func (affinityAdapter) Pin(cpuID, numaID int) error {
	concurrency.PinCurrentThread(numaID, cpuID)
	return nil
}

func (affinityAdapter) Unpin() error {
	concurrency.UnpinCurrentThread()
	return nil
}

// Get reports the current NUMA node; cpuID is not tracked by the
// underlying platform backends, so -1 is returned for it.
func (affinityAdapter) Get() (cpuID, numaID int, err error) {
	return -1, concurrency.CurrentNUMANodeID(), nil
}

var _ api.Affinity = affinityAdapter{}
