package sectors

import (
	"fmt"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/symmetry"
)

// Registry owns the sector lists of a run. It is not safe for concurrent
// mutation; concurrent reads are fine while nobody registers.
type Registry struct {
	groups symmetry.Groups
	target ir.Labels
	bonds  []List
	sites  []List
	hss    List
}

// New creates a registry with empty lists for nrBonds bonds and nrSites
// physical sites. The Hamiltonian symmetry sectors default to the single
// trivial sector.
func New(groups symmetry.Groups, target ir.Labels, nrBonds, nrSites int) (*Registry, error) {
	if len(target) != len(groups) {
		return nil, ir.Errorf(ir.ErrCodeSizeMismatch,
			"target state has %d labels for %d symmetries", len(target), len(groups))
	}
	if nrBonds < 0 || nrSites < 0 {
		return nil, ir.Errorf(ir.ErrCodeOutOfRange, "negative bond or site count")
	}
	return &Registry{
		groups: groups,
		target: target.Clone(),
		bonds:  make([]List, nrBonds),
		sites:  make([]List, nrSites),
		hss:    Trivial(groups.Trivial()),
	}, nil
}

// Groups returns the configured symmetry groups.
func (r *Registry) Groups() symmetry.Groups { return r.groups }

// NrBonds returns the number of bond lists.
func (r *Registry) NrBonds() int { return len(r.bonds) }

// NrSites returns the number of physical site lists.
func (r *Registry) NrSites() int { return len(r.sites) }

// TargetState returns the global target labels.
func (r *Registry) TargetState() ir.Labels { return r.target.Clone() }

// SetTargetState replaces the target labels. The open bond list is not
// touched; callers rebuild it with TargetSectors.
func (r *Registry) SetTargetState(target ir.Labels) error {
	if len(target) != len(r.groups) {
		return ir.Errorf(ir.ErrCodeSizeMismatch,
			"target state has %d labels for %d symmetries", len(target), len(r.groups))
	}
	r.target = target.Clone()
	return nil
}

// RegisterSectors replaces the sector list of a bond.
func (r *Registry) RegisterSectors(bond int, list List) error {
	if bond < 0 || bond >= len(r.bonds) {
		return outOfRange("bond", bond, len(r.bonds))
	}
	if err := r.check(list); err != nil {
		return fmt.Errorf("bond %d: %w", bond, err)
	}
	r.bonds[bond] = list
	return nil
}

// RegisterSiteSectors replaces the sector list of a physical site.
func (r *Registry) RegisterSiteSectors(site int, list List) error {
	if site < 0 || site >= len(r.sites) {
		return outOfRange("physical site", site, len(r.sites))
	}
	if err := r.check(list); err != nil {
		return fmt.Errorf("physical site %d: %w", site, err)
	}
	r.sites[site] = list
	return nil
}

// RegisterHSS replaces the Hamiltonian symmetry sectors.
func (r *Registry) RegisterHSS(list List) error {
	if len(list) == 0 {
		return ir.Errorf(ir.ErrCodeSizeMismatch, "hamiltonian needs at least one symmetry sector")
	}
	if err := r.check(list); err != nil {
		return fmt.Errorf("hamiltonian sectors: %w", err)
	}
	r.hss = list
	return nil
}

func (r *Registry) check(list List) error {
	for i, s := range list {
		if !r.groups.Valid(s.Irreps) {
			return ir.Errorf(ir.ErrCodeInvalidIrrepText,
				"sector %d has labels %v outside the configured groups %s", i, s.Irreps, r.groups)
		}
		if s.Dim < 0 {
			return ir.Errorf(ir.ErrCodeSizeMismatch, "sector %d has negative dimension %d", i, s.Dim)
		}
		for j := 0; j < i; j++ {
			if list[j].Irreps.Equal(s.Irreps) {
				return fmt.Errorf("sectors %d and %d share labels %s", j, i, r.groups.FormatLabels(s.Irreps))
			}
		}
	}
	return nil
}

// Sectors returns the list of a bond.
func (r *Registry) Sectors(bond int) (List, error) {
	if bond < 0 || bond >= len(r.bonds) {
		return nil, outOfRange("bond", bond, len(r.bonds))
	}
	return r.bonds[bond], nil
}

// SiteSectors returns the list of a physical site.
func (r *Registry) SiteSectors(site int) (List, error) {
	if site < 0 || site >= len(r.sites) {
		return nil, outOfRange("physical site", site, len(r.sites))
	}
	return r.sites[site], nil
}

// HSS returns the Hamiltonian symmetry sectors.
func (r *Registry) HSS() List { return r.hss }

// Lookup returns sector idx of a bond.
func (r *Registry) Lookup(bond, idx int) (Sector, error) {
	list, err := r.Sectors(bond)
	if err != nil {
		return Sector{}, err
	}
	if idx < 0 || idx >= len(list) {
		return Sector{}, outOfRange(fmt.Sprintf("sector of bond %d", bond), idx, len(list))
	}
	return list[idx], nil
}

// SiteLookup returns sector idx of a physical site.
func (r *Registry) SiteLookup(site, idx int) (Sector, error) {
	list, err := r.SiteSectors(site)
	if err != nil {
		return Sector{}, err
	}
	if idx < 0 || idx >= len(list) {
		return Sector{}, outOfRange(fmt.Sprintf("sector of physical site %d", site), idx, len(list))
	}
	return list[idx], nil
}

// HSSLookup returns Hamiltonian symmetry sector idx.
func (r *Registry) HSSLookup(idx int) (Sector, error) {
	if idx < 0 || idx >= len(r.hss) {
		return Sector{}, outOfRange("hamiltonian sector", idx, len(r.hss))
	}
	return r.hss[idx], nil
}

// TrivialHSS returns the index of the trivial Hamiltonian sector.
func (r *Registry) TrivialHSS() (int, error) {
	idx, ok := r.hss.Find(r.groups.Trivial())
	if !ok {
		return -1, ir.Errorf(ir.ErrCodeNotFound, "hamiltonian sectors lack the trivial sector")
	}
	return idx, nil
}

// TotalDimension sums the sector dimensions of a bond.
func (r *Registry) TotalDimension(bond int) (int, error) {
	list, err := r.Sectors(bond)
	if err != nil {
		return 0, err
	}
	return list.TotalDims(), nil
}

// Leg resolves the sector list a tensor leg indexes into.
func (r *Registry) Leg(leg ir.Leg) (List, error) {
	switch leg.Kind {
	case ir.LegBond:
		return r.Sectors(leg.Index)
	case ir.LegSite:
		return r.SiteSectors(leg.Index)
	case ir.LegHSS:
		return r.hss, nil
	}
	return nil, ir.Errorf(ir.ErrCodeOutOfRange, "unknown leg kind %d", leg.Kind)
}

// Clone returns an independent copy. Groups are immutable and shared.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		groups: r.groups,
		target: r.target.Clone(),
		bonds:  make([]List, len(r.bonds)),
		sites:  make([]List, len(r.sites)),
		hss:    r.hss.Clone(),
	}
	for i, l := range r.bonds {
		c.bonds[i] = l.Clone()
	}
	for i, l := range r.sites {
		c.sites[i] = l.Clone()
	}
	return c
}

func outOfRange(what string, idx, n int) error {
	return ir.Errorf(ir.ErrCodeOutOfRange, "%s %d out of range [0, %d)", what, idx, n).
		With("index", fmt.Sprint(idx))
}
