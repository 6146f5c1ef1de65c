// Package harnesses provides ready-made contract systems for the simulated backend, each pairing target contracts
// with a contract asserting invariants over them.
package harnesses

import (
	"sort"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/tenet/chain/simulated"
	"github.com/pkg/errors"
)

// Harness describes a contract system which can be deployed to a simulated backend.
type Harness struct {
	// Name is the identifier the harness is selected by.
	Name string

	// Description summarizes the contracts and invariants of the harness.
	Description string

	// deploy deploys the contracts of the harness. senders are the accounts calls will be sent from.
	deploy func(backend *simulated.Backend, senders []common.Address) error
}

// registry holds every known harness, keyed by name.
var registry = map[string]*Harness{}

// register adds a harness to the registry.
func register(harness *Harness) {
	registry[harness.Name] = harness
}

// All returns every known harness, sorted by name.
func All() []*Harness {
	all := make([]*Harness, 0, len(registry))
	for _, harness := range registry {
		all = append(all, harness)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all
}

// Get returns the harness with the given name.
func Get(name string) (*Harness, error) {
	harness, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown harness %q", name)
	}
	return harness, nil
}

// Deploy deploys the harness to backend.
func (h *Harness) Deploy(backend *simulated.Backend, senders []common.Address) error {
	return errors.Wrapf(h.deploy(backend, senders), "could not deploy harness %v", h.Name)
}

// NewBackend creates a simulated backend of the given version with the named harness deployed.
func NewBackend(name string, version string, senders []common.Address) (*simulated.Backend, error) {
	harness, err := Get(name)
	if err != nil {
		return nil, err
	}
	backend, err := simulated.NewBackend(version)
	if err != nil {
		return nil, err
	}
	if err = harness.Deploy(backend, senders); err != nil {
		return nil, err
	}
	return backend, nil
}
