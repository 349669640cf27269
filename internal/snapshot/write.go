package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/network"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/sparse"
	"github.com/roach88/t3ns/internal/state"
	"github.com/roach88/t3ns/internal/store"
)

// Write stores st in c, replacing the previous snapshot. The state is held
// exclusively for the duration.
func Write(ctx context.Context, c store.Container, st *state.State) error {
	return st.Exclusive(func(st *state.State) error {
		if !st.Configured() || st.Network == nil {
			return errors.New("write snapshot: state is not configured")
		}
		digest, err := StructureDigest(st)
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		err = c.Write(ctx, func(root store.Group) error {
			if err := writeHeader(root, digest); err != nil {
				return fmt.Errorf("header: %w", err)
			}
			if err := writeNetwork(root, st.Network); err != nil {
				return fmt.Errorf("network: %w", err)
			}
			if err := writeBookkeeper(root, st.Registry); err != nil {
				return fmt.Errorf("bookkeeper: %w", err)
			}
			if err := writeHamiltonian(root, st.Registry); err != nil {
				return fmt.Errorf("hamiltonian: %w", err)
			}
			if err := writeTensors(root, st.Registry, st.Tensors); err != nil {
				return fmt.Errorf("tensors: %w", err)
			}
			if err := writeOperators(root, st.Registry, st.Ops); err != nil {
				return fmt.Errorf("operators: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		slog.Debug("snapshot written",
			"digest", digest,
			"sites", st.Network.NrSites(),
			"bonds", st.Network.NrBonds(),
		)
		return nil
	})
}

func writeHeader(root store.Group, digest string) error {
	for name, v := range map[string]string{
		attrFormatVersion: ir.FormatVersion,
		attrCoreVersion:   ir.CoreVersion,
		attrDigest:        digest,
	} {
		if err := root.SetStringAttr(name, v); err != nil {
			return err
		}
	}
	return nil
}

func writeNetwork(root store.Group, net *network.Network) error {
	g, err := root.CreateGroup(groupNetwork)
	if err != nil {
		return err
	}
	sweep := net.Sweep()
	for name, v := range map[string]int{
		"nr_bonds":    net.NrBonds(),
		"psites":      net.NrPhysical(),
		"sites":       net.NrSites(),
		"sweeplength": len(sweep),
	} {
		if err := g.SetIntAttr(name, v); err != nil {
			return err
		}
	}

	bonds := make([]int, 0, 2*net.NrBonds())
	for _, b := range net.Bonds() {
		bonds = append(bonds, b[0], b[1])
	}
	if err := g.WriteInts("bonds", bonds); err != nil {
		return err
	}
	if err := g.WriteInts("sitetoorb", net.SiteToOrb()); err != nil {
		return err
	}
	return g.WriteInts("sweep", sweep)
}

func writeBookkeeper(root store.Group, reg *sectors.Registry) error {
	g, err := root.CreateGroup(groupBookkeeper)
	if err != nil {
		return err
	}
	groups := reg.Groups()
	if len(groups) > ir.MaxSymmetries {
		return ir.Errorf(ir.ErrCodeUnsupportedSymmetryCount,
			"%d symmetries exceed the maximum of %d", len(groups), ir.MaxSymmetries)
	}
	target := reg.TargetState()
	labels := make([]int, len(target))
	for i, l := range target {
		labels[i] = int(l)
	}

	if err := g.SetIntAttr("nrSyms", len(groups)); err != nil {
		return err
	}
	if err := g.SetIntAttr("Max_symmetries", symmetrySlots); err != nil {
		return err
	}
	if err := g.SetIntAttr("sgs", groups.Tags()...); err != nil {
		return err
	}
	if err := g.SetIntAttr("target_state", labels...); err != nil {
		return err
	}
	if err := g.SetIntAttr("nr_bonds", reg.NrBonds()); err != nil {
		return err
	}
	if err := g.SetIntAttr("psites", reg.NrSites()); err != nil {
		return err
	}

	for b := 0; b < reg.NrBonds(); b++ {
		list, err := reg.Sectors(b)
		if err != nil {
			return err
		}
		if err := writeSectors(g, bondSectorsName(b), list); err != nil {
			return err
		}
	}
	for s := 0; s < reg.NrSites(); s++ {
		list, err := reg.SiteSectors(s)
		if err != nil {
			return err
		}
		if err := writeSectors(g, siteSectorsName(s), list); err != nil {
			return err
		}
	}
	return nil
}

func writeHamiltonian(root store.Group, reg *sectors.Registry) error {
	g, err := root.CreateGroup(groupHamiltonian)
	if err != nil {
		return err
	}
	return writeSectors(g, groupHSS, reg.HSS())
}

// writeSectors pads every irreps row to symmetrySlots slots.
func writeSectors(parent store.Group, name string, list sectors.List) error {
	g, err := parent.CreateGroup(name)
	if err != nil {
		return err
	}
	if err := g.SetIntAttr("nrSecs", list.Len()); err != nil {
		return err
	}
	if err := g.SetIntAttr("totaldims", list.TotalDims()); err != nil {
		return err
	}
	if list.Len() == 0 {
		return nil
	}

	irreps := make([]int, symmetrySlots*list.Len())
	fcidims := make([]float64, list.Len())
	for i, s := range list {
		for j, l := range s.Irreps {
			irreps[i*symmetrySlots+j] = int(l)
		}
		fcidims[i] = s.FCIDim
	}
	if err := g.WriteInts("dims", list.Dims()); err != nil {
		return err
	}
	if err := g.WriteInts("irreps", irreps); err != nil {
		return err
	}
	return g.WriteFloats("fcidims", fcidims)
}

// legCounts returns the number of sectors on each leg, the radix of packed
// triplets.
func legCounts(reg *sectors.Registry, legs [3]ir.Leg) ([3]int, error) {
	var n [3]int
	for i, leg := range legs {
		list, err := reg.Leg(leg)
		if err != nil {
			return n, err
		}
		n[i] = list.Len()
	}
	return n, nil
}

func packTriplets(ts []ir.Triplet, n [3]int) []int {
	out := make([]int, len(ts))
	for i, t := range ts {
		out[i] = int(ir.PackTriplet(t, n))
	}
	return out
}

func writeTensors(root store.Group, reg *sectors.Registry, tensors []*sparse.SiteTensor) error {
	g, err := root.CreateGroup(groupTensors)
	if err != nil {
		return err
	}
	if err := g.SetIntAttr("nrSites", len(tensors)); err != nil {
		return err
	}
	for site, st := range tensors {
		tg, err := g.CreateGroup(tensorName(site))
		if err != nil {
			return err
		}
		if err := tg.SetIntAttr("nrsites", len(st.Sites)); err != nil {
			return err
		}
		if err := tg.SetIntAttr("sites", st.Sites...); err != nil {
			return err
		}
		if err := tg.SetIntAttr("nrblocks", st.NrBlocks()); err != nil {
			return err
		}
		if st.NrBlocks() > 0 {
			n, err := legCounts(reg, st.Legs)
			if err != nil {
				return fmt.Errorf("tensor %d: %w", site, err)
			}
			if err := tg.WriteInts("qnumbers", packTriplets(st.Triplets, n)); err != nil {
				return err
			}
		}
		if err := writeBlocks(tg, blockName(0), st.Blocks); err != nil {
			return err
		}
	}
	return nil
}

// writeOperators skips unattached operator sets.
func writeOperators(root store.Group, reg *sectors.Registry, ops []*sparse.ROperators) error {
	g, err := root.CreateGroup(groupOperators)
	if err != nil {
		return err
	}
	if err := g.SetIntAttr("nrOps", len(ops)); err != nil {
		return err
	}
	for b, r := range ops {
		if r.IsUnattached() {
			continue
		}
		og, err := g.CreateGroup(operatorName(b))
		if err != nil {
			return err
		}
		pOperator := 0
		if r.POperator {
			pOperator = 1
		}
		for name, v := range map[string]int{
			"bond_of_operator": r.Bond,
			"is_left":          int(r.Direction),
			"P_operator":       pOperator,
			"nrhss":            r.NrHSS(),
			"nrops":            r.NrOps(),
		} {
			if err := og.SetIntAttr(name, v); err != nil {
				return err
			}
		}
		if err := og.WriteInts("begin_blocks_of_hss", r.BeginBlocksOfHSS); err != nil {
			return err
		}
		if len(r.Triplets) > 0 {
			n, err := legCounts(reg, [3]ir.Leg{ir.BondLeg(r.Bond), ir.BondLeg(r.Bond), ir.HSSLeg})
			if err != nil {
				return fmt.Errorf("operators on bond %d: %w", b, err)
			}
			if err := og.WriteInts("qnumbers", packTriplets(r.Triplets, n)); err != nil {
				return err
			}
		}
		if r.NrOps() > 0 {
			if err := og.WriteInts("hss_of_ops", r.HSSOfOps); err != nil {
				return err
			}
		}
		for k, blocks := range r.Operators {
			if err := writeBlocks(og, blockName(k), blocks); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeBlocks records an empty block set as a zero count without datasets.
func writeBlocks(parent store.Group, name string, b sparse.Blocks) error {
	g, err := parent.CreateGroup(name)
	if err != nil {
		return err
	}
	n := b.NrBlocks()
	if err := g.SetIntAttr("nrBlocks", n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if err := g.WriteInts("beginblock", b.BeginBlock); err != nil {
		return err
	}
	return g.WriteFloats("tel", b.Tel)
}
