// Package network describes the tree topology of a tensor network: the bonds
// between sites, which sites are physical, and the deterministic sweep order
// handed to the optimization driver.
package network

import (
	"fmt"
	"slices"

	"github.com/roach88/t3ns/internal/ir"
)

// Bond is a directed edge [from, to] between two sites. from = -1 marks a
// vacuum leaf bond, to = -1 marks the open bond carrying the target state.
type Bond [2]int

// Network is a tree of sites and bonds. Only the sweep changes after
// construction.
type Network struct {
	bonds     []Bond
	siteToOrb []int
	sweep     []int

	open    int
	psites  int
	outBond []int
	inBonds [][]int
	orbSite []int
}

// New builds a network from its bond list and the orbital of every site
// (-1 for branching sites).
//
// Every site has exactly one outgoing bond. Physical sites have one incoming
// bond, branching sites two. Exactly one bond is open, orbitals are a
// permutation of 0..psites-1 and the graph is a tree.
func New(bonds []Bond, siteToOrb []int) (*Network, error) {
	n := &Network{
		bonds:     slices.Clone(bonds),
		siteToOrb: slices.Clone(siteToOrb),
		open:      -1,
		outBond:   make([]int, len(siteToOrb)),
		inBonds:   make([][]int, len(siteToOrb)),
	}
	for i := range n.outBond {
		n.outBond[i] = -1
	}

	for _, orb := range siteToOrb {
		if orb >= 0 {
			n.psites++
		}
	}
	n.orbSite = make([]int, n.psites)
	for i := range n.orbSite {
		n.orbSite[i] = -1
	}
	for site, orb := range siteToOrb {
		if orb < -1 || orb >= n.psites {
			return nil, invalid("site %d maps to orbital %d, expected -1 or [0, %d)", site, orb, n.psites)
		}
		if orb == -1 {
			continue
		}
		if n.orbSite[orb] != -1 {
			return nil, invalid("orbital %d is on sites %d and %d", orb, n.orbSite[orb], site)
		}
		n.orbSite[orb] = site
	}

	for b, bond := range bonds {
		from, to := bond[0], bond[1]
		if from < -1 || from >= len(siteToOrb) || to < -1 || to >= len(siteToOrb) {
			return nil, invalid("bond %d connects unknown sites %v", b, bond)
		}
		if from == -1 && to == -1 {
			return nil, invalid("bond %d is both vacuum and open", b)
		}
		if from == to {
			return nil, invalid("bond %d is a loop on site %d", b, from)
		}
		if to == -1 {
			if n.open != -1 {
				return nil, invalid("bonds %d and %d are both open", n.open, b)
			}
			n.open = b
		} else {
			n.inBonds[to] = append(n.inBonds[to], b)
		}
		if from != -1 {
			if n.outBond[from] != -1 {
				return nil, invalid("site %d has outgoing bonds %d and %d", from, n.outBond[from], b)
			}
			n.outBond[from] = b
		}
	}
	if n.open == -1 {
		return nil, invalid("no open bond")
	}

	for site := range siteToOrb {
		want := 2
		if n.IsPhysical(site) {
			want = 1
		}
		if n.outBond[site] == -1 {
			return nil, invalid("site %d has no outgoing bond", site)
		}
		if got := len(n.inBonds[site]); got != want {
			return nil, invalid("site %d has %d incoming bonds, expected %d", site, got, want)
		}
	}

	n.sweep = n.SweepOrder()
	if len(n.sweep) != len(bonds) {
		return nil, invalid("bonds are not connected to the open bond: reached %d of %d", len(n.sweep), len(bonds))
	}
	return n, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("invalid network: "+format, args...)
}

// NrBonds returns the number of bonds.
func (n *Network) NrBonds() int { return len(n.bonds) }

// NrSites returns the number of sites, physical and branching.
func (n *Network) NrSites() int { return len(n.siteToOrb) }

// NrPhysical returns the number of physical sites.
func (n *Network) NrPhysical() int { return n.psites }

// Bonds returns a copy of the bond list.
func (n *Network) Bonds() []Bond { return slices.Clone(n.bonds) }

// Bond returns bond b.
func (n *Network) Bond(b int) Bond { return n.bonds[b] }

// SiteToOrb returns a copy of the site to orbital map.
func (n *Network) SiteToOrb() []int { return slices.Clone(n.siteToOrb) }

// Orbital returns the orbital of a physical site, or -1.
func (n *Network) Orbital(site int) int { return n.siteToOrb[site] }

// OrbitalSite returns the site of an orbital.
func (n *Network) OrbitalSite(orb int) int { return n.orbSite[orb] }

// IsPhysical reports whether site carries an orbital.
func (n *Network) IsPhysical(site int) bool { return n.siteToOrb[site] >= 0 }

// OpenBond returns the bond carrying the target state.
func (n *Network) OpenBond() int { return n.open }

// IsOpen reports whether b is the open bond.
func (n *Network) IsOpen(b int) bool { return b == n.open }

// IsVacuum reports whether b is a leaf bond without a source site.
func (n *Network) IsVacuum(b int) bool { return n.bonds[b][0] == -1 }

// OutBond returns the outgoing bond of a site.
func (n *Network) OutBond(site int) int { return n.outBond[site] }

// InBonds returns the incoming bonds of a site in increasing order.
func (n *Network) InBonds(site int) []int { return slices.Clone(n.inBonds[site]) }

// Neighbors returns the bonds sharing a site with b, in increasing order.
func (n *Network) Neighbors(b int) []int {
	var out []int
	for _, site := range n.bonds[b] {
		if site == -1 {
			continue
		}
		if o := n.outBond[site]; o != b {
			out = append(out, o)
		}
		for _, in := range n.inBonds[site] {
			if in != b {
				out = append(out, in)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Legs returns the three legs of the tensor at a site: two incoming legs and
// the outgoing bond. A physical site's second leg is its physical leg.
func (n *Network) Legs(site int) [3]ir.Leg {
	in := n.inBonds[site]
	if n.IsPhysical(site) {
		return [3]ir.Leg{ir.BondLeg(in[0]), ir.SiteLeg(n.siteToOrb[site]), ir.BondLeg(n.outBond[site])}
	}
	return [3]ir.Leg{ir.BondLeg(in[0]), ir.BondLeg(in[1]), ir.BondLeg(n.outBond[site])}
}

// SweepOrder returns the depth-first order of all bonds starting at the open
// bond. Incoming bonds of a site are visited in increasing order, so the
// order depends on the topology only.
func (n *Network) SweepOrder() []int {
	out := make([]int, 0, len(n.bonds))
	seen := make([]bool, len(n.bonds))
	stack := []int{n.open}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
		if from := n.bonds[b][0]; from != -1 {
			in := n.inBonds[from]
			for i := len(in) - 1; i >= 0; i-- {
				stack = append(stack, in[i])
			}
		}
	}
	return out
}

// Sweep returns the active sweep.
func (n *Network) Sweep() []int { return slices.Clone(n.sweep) }

// SetSweep installs a restored sweep. Every entry must be a valid bond.
func (n *Network) SetSweep(sweep []int) error {
	for i, b := range sweep {
		if b < 0 || b >= len(n.bonds) {
			return ir.Errorf(ir.ErrCodeOutOfRange, "sweep entry %d is bond %d, network has %d bonds", i, b, len(n.bonds))
		}
	}
	n.sweep = slices.Clone(sweep)
	return nil
}

// Equal reports whether two networks share bonds, orbitals and sweep.
func (n *Network) Equal(o *Network) bool {
	return slices.Equal(n.bonds, o.bonds) &&
		slices.Equal(n.siteToOrb, o.siteToOrb) &&
		slices.Equal(n.sweep, o.sweep)
}
