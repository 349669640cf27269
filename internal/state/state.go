package state

import (
	"fmt"
	"sync"

	"github.com/roach88/t3ns/internal/network"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/sparse"
	"github.com/roach88/t3ns/internal/symmetry"
)

// State is the aggregate of registry, topology, tensors and operators.
//
// A nil Registry means the symmetry configuration is not known yet; a
// snapshot read adopts the configuration it finds.
type State struct {
	mu sync.Mutex

	Registry *sectors.Registry
	Network  *network.Network
	Tensors  []*sparse.SiteTensor
	Ops      []*sparse.ROperators
}

// New returns a state with empty tensors and unattached operators for the
// given registry and topology.
func New(reg *sectors.Registry, net *network.Network) (*State, error) {
	s := &State{}
	if err := s.reset(reg, net); err != nil {
		return nil, err
	}
	return s, nil
}

// Unconfigured returns a state without symmetry configuration or topology.
func Unconfigured() *State { return &State{} }

func (s *State) reset(reg *sectors.Registry, net *network.Network) error {
	if reg.NrBonds() != net.NrBonds() || reg.NrSites() != net.NrPhysical() {
		return fmt.Errorf("registry sized for %d bonds and %d physical sites, network has %d and %d",
			reg.NrBonds(), reg.NrSites(), net.NrBonds(), net.NrPhysical())
	}
	s.Registry = reg
	s.Network = net
	s.Tensors = make([]*sparse.SiteTensor, net.NrSites())
	for site := range s.Tensors {
		s.Tensors[site] = sparse.NewSiteTensor(net, site)
	}
	s.Ops = make([]*sparse.ROperators, net.NrBonds())
	for b := range s.Ops {
		s.Ops[b] = sparse.Unattached()
	}
	return nil
}

// Configured reports whether a symmetry configuration is present.
func (s *State) Configured() bool { return s.Registry != nil }

// Groups returns the configured symmetry groups, nil when unconfigured.
func (s *State) Groups() symmetry.Groups {
	if s.Registry == nil {
		return nil
	}
	return s.Registry.Groups()
}

// Exclusive runs fn while holding the state. The state is released when fn
// returns, panics included.
func (s *State) Exclusive(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

// Release drops all tensors, operators and the registry. The topology and
// the lock survive so the state can be refilled.
func (s *State) Release() {
	s.Registry = nil
	s.Tensors = nil
	s.Ops = nil
}

// Replace moves the contents of o into s. o must not be used afterwards.
func (s *State) Replace(o *State) {
	s.Registry = o.Registry
	s.Network = o.Network
	s.Tensors = o.Tensors
	s.Ops = o.Ops
}

// Clone returns a deep copy of the contents. The network is immutable apart
// from its sweep and is copied through New.
func (s *State) Clone() (*State, error) {
	c := &State{}
	if s.Registry != nil {
		c.Registry = s.Registry.Clone()
	}
	if s.Network != nil {
		net, err := network.New(s.Network.Bonds(), s.Network.SiteToOrb())
		if err != nil {
			return nil, err
		}
		if err := net.SetSweep(s.Network.Sweep()); err != nil {
			return nil, err
		}
		c.Network = net
	}
	if s.Tensors != nil {
		c.Tensors = make([]*sparse.SiteTensor, len(s.Tensors))
		for i, t := range s.Tensors {
			c.Tensors[i] = t.Clone()
		}
	}
	if s.Ops != nil {
		c.Ops = make([]*sparse.ROperators, len(s.Ops))
		for i, r := range s.Ops {
			c.Ops[i] = r.Clone()
		}
	}
	return c, nil
}

// OpenBond returns the open bond and the site whose tensor feeds it.
func (s *State) OpenBond() (bond, site int) {
	bond = s.Network.OpenBond()
	return bond, s.Network.Bond(bond)[0]
}
