package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/network"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/sparse"
	"github.com/roach88/t3ns/internal/state"
	"github.com/roach88/t3ns/internal/store"
	"github.com/roach88/t3ns/internal/symmetry"
)

// Read restores st from c.
//
// The sections are read in write order into a scratch state; st is only
// replaced once all of them validated and, for a configured st, the
// snapshot was migrated to the configured target. The returned change
// reports what the migration had to do.
func Read(ctx context.Context, c store.Container, st *state.State) (state.TargetChange, error) {
	change := state.Compatible
	err := st.Exclusive(func(st *state.State) error {
		return c.Read(ctx, func(root store.Group) error {
			scratch, old, err := read(root, st)
			if err != nil {
				return err
			}
			if st.Configured() {
				if change, err = scratch.ChangeTargetState(scratch.Groups(), old); err != nil {
					return err
				}
			}
			st.Replace(scratch)
			slog.Debug("snapshot read",
				"sites", scratch.Network.NrSites(),
				"groups", scratch.Groups().String(),
				"migration", change.String(),
			)
			return nil
		})
	})
	if err != nil {
		return state.Incompatible, fmt.Errorf("read snapshot: %w", err)
	}
	return change, nil
}

// read returns the scratch state and the target the snapshot was written
// for. The scratch structure must hash to the stored digest.
func read(root store.Group, st *state.State) (*state.State, ir.Labels, error) {
	digest, err := readHeader(root)
	if err != nil {
		return nil, nil, fmt.Errorf("header: %w", err)
	}
	net, err := readNetwork(root, st.Network)
	if err != nil {
		return nil, nil, fmt.Errorf("network: %w", err)
	}
	reg, old, err := readBookkeeper(root, net, st)
	if err != nil {
		return nil, nil, fmt.Errorf("bookkeeper: %w", err)
	}
	if err := readHamiltonian(root, reg); err != nil {
		return nil, nil, fmt.Errorf("hamiltonian: %w", err)
	}
	scratch, err := state.New(reg, net)
	if err != nil {
		return nil, nil, err
	}
	if err := readTensors(root, scratch); err != nil {
		return nil, nil, fmt.Errorf("tensors: %w", err)
	}
	if err := readOperators(root, scratch); err != nil {
		return nil, nil, fmt.Errorf("operators: %w", err)
	}
	d, err := describe(scratch, old)
	if err != nil {
		return nil, nil, err
	}
	got, err := ir.StructureDigest(d)
	if err != nil {
		return nil, nil, err
	}
	if got != digest {
		return nil, nil, sizeMismatch("structure digest %s differs from stored %s", got, digest)
	}
	return scratch, old, nil
}

// readHeader checks the format version and returns the stored digest.
func readHeader(root store.Group) (string, error) {
	format, err := root.StringAttr(attrFormatVersion)
	if err != nil {
		return "", err
	}
	if format != ir.FormatVersion {
		return "", sizeMismatch("snapshot format %q, this build reads %q", format, ir.FormatVersion)
	}
	core, err := root.StringAttr(attrCoreVersion)
	if err != nil {
		return "", err
	}
	digest, err := root.StringAttr(attrDigest)
	if err != nil {
		return "", err
	}
	slog.Debug("snapshot header", "format", format, "core", core)
	return digest, nil
}

func sizeMismatch(format string, args ...any) error {
	return ir.Errorf(ir.ErrCodeSizeMismatch, format, args...)
}

func readLen[T any](read func(string) ([]T, error), name string, n int) ([]T, error) {
	v, err := read(name)
	if err != nil {
		return nil, err
	}
	if len(v) != n {
		return nil, sizeMismatch("dataset %s holds %d values, %d declared", name, len(v), n)
	}
	return v, nil
}

func attrLen(g store.Group, name string, n int) ([]int, error) {
	v, err := g.IntAttr(name)
	if err != nil {
		return nil, err
	}
	if len(v) != n {
		return nil, sizeMismatch("attribute %s of %s holds %d values, %d declared", name, g.Path(), len(v), n)
	}
	return v, nil
}

// readNetwork restores the topology. A configured topology must have the
// same bonds and orbitals; only the sweep is taken from the snapshot.
func readNetwork(root store.Group, configured *network.Network) (*network.Network, error) {
	g, err := root.OpenGroup(groupNetwork)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, name := range []string{"nr_bonds", "psites", "sites", "sweeplength"} {
		if counts[name], err = store.Scalar(g, name); err != nil {
			return nil, err
		}
	}
	if configured != nil &&
		(counts["nr_bonds"] != configured.NrBonds() || counts["sites"] != configured.NrSites() ||
			counts["psites"] != configured.NrPhysical()) {
		return nil, sizeMismatch("snapshot has %d bonds, %d sites, %d orbitals; configured %d, %d, %d",
			counts["nr_bonds"], counts["sites"], counts["psites"],
			configured.NrBonds(), configured.NrSites(), configured.NrPhysical())
	}

	flat, err := readLen(g.ReadInts, "bonds", 2*counts["nr_bonds"])
	if err != nil {
		return nil, err
	}
	bonds := make([]network.Bond, counts["nr_bonds"])
	for i := range bonds {
		bonds[i] = network.Bond{flat[2*i], flat[2*i+1]}
	}
	siteToOrb, err := readLen(g.ReadInts, "sitetoorb", counts["sites"])
	if err != nil {
		return nil, err
	}
	sweep, err := readLen(g.ReadInts, "sweep", counts["sweeplength"])
	if err != nil {
		return nil, err
	}

	net, err := network.New(bonds, siteToOrb)
	if err != nil {
		return nil, err
	}
	if net.NrPhysical() != counts["psites"] {
		return nil, sizeMismatch("psites %d, site_to_orb has %d orbitals", counts["psites"], net.NrPhysical())
	}
	if configured != nil && !sameTopology(net, configured) {
		return nil, sizeMismatch("snapshot topology %s differs from configured %s",
			network.FormatBonds(bonds), network.FormatBonds(configured.Bonds()))
	}
	if err := net.SetSweep(sweep); err != nil {
		return nil, err
	}
	return net, nil
}

func sameTopology(a, b *network.Network) bool {
	if a.NrBonds() != b.NrBonds() || a.NrSites() != b.NrSites() {
		return false
	}
	for i := 0; i < a.NrBonds(); i++ {
		if a.Bond(i) != b.Bond(i) {
			return false
		}
	}
	for s := 0; s < a.NrSites(); s++ {
		if a.Orbital(s) != b.Orbital(s) {
			return false
		}
	}
	return true
}

// readBookkeeper returns the registry under the effective target and the
// target stored in the snapshot.
func readBookkeeper(root store.Group, net *network.Network, st *state.State) (*sectors.Registry, ir.Labels, error) {
	g, err := root.OpenGroup(groupBookkeeper)
	if err != nil {
		return nil, nil, err
	}
	nrSyms, err := store.Scalar(g, "nrSyms")
	if err != nil {
		return nil, nil, err
	}
	if nrSyms < 1 || nrSyms > ir.MaxSymmetries {
		return nil, nil, ir.Errorf(ir.ErrCodeUnsupportedSymmetryCount,
			"snapshot declares %d symmetries, this build supports 1 to %d", nrSyms, ir.MaxSymmetries)
	}
	slots, err := store.Scalar(g, "Max_symmetries")
	if err != nil {
		return nil, nil, err
	}
	if slots < nrSyms {
		return nil, nil, sizeMismatch("%d symmetry slots for %d symmetries", slots, nrSyms)
	}

	tags, err := attrLen(g, "sgs", nrSyms)
	if err != nil {
		return nil, nil, err
	}
	groups, err := symmetry.FromTags(tags)
	if err != nil {
		return nil, nil, err
	}
	raw, err := attrLen(g, "target_state", nrSyms)
	if err != nil {
		return nil, nil, err
	}
	old := make(ir.Labels, nrSyms)
	for i, l := range raw {
		old[i] = ir.Label(l)
	}

	target := old
	if st.Configured() {
		if configured := st.Groups(); !groups.Equal(configured) {
			return nil, nil, ir.Errorf(ir.ErrCodeSymmetryMismatch,
				"snapshot symmetries %s differ from configured %s", groups, configured).
				With("configured", configured.String()).
				With("snapshot", groups.String())
		}
		target = st.Registry.TargetState()
	}

	for name, want := range map[string]int{"nr_bonds": net.NrBonds(), "psites": net.NrPhysical()} {
		got, err := store.Scalar(g, name)
		if err != nil {
			return nil, nil, err
		}
		if got != want {
			return nil, nil, sizeMismatch("bookkeeper %s is %d, network has %d", name, got, want)
		}
	}

	reg, err := sectors.New(groups, target, net.NrBonds(), net.NrPhysical())
	if err != nil {
		return nil, nil, err
	}
	for b := 0; b < net.NrBonds(); b++ {
		list, err := readSectors(g, bondSectorsName(b), nrSyms, slots)
		if err != nil {
			return nil, nil, err
		}
		if err := reg.RegisterSectors(b, list); err != nil {
			return nil, nil, err
		}
	}
	for s := 0; s < net.NrPhysical(); s++ {
		list, err := readSectors(g, siteSectorsName(s), nrSyms, slots)
		if err != nil {
			return nil, nil, err
		}
		if err := reg.RegisterSiteSectors(s, list); err != nil {
			return nil, nil, err
		}
	}
	return reg, old, nil
}

// readSectors truncates the padded irreps rows to the active symmetries.
func readSectors(parent store.Group, name string, nrSyms, slots int) (sectors.List, error) {
	g, err := parent.OpenGroup(name)
	if err != nil {
		return nil, err
	}
	n, err := store.Scalar(g, "nrSecs")
	if err != nil {
		return nil, err
	}
	total, err := store.Scalar(g, "totaldims")
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, sizeMismatch("%s declares %d sectors", g.Path(), n)
	}
	if n == 0 {
		if total != 0 {
			return nil, sizeMismatch("%s: no sectors but totaldims %d", g.Path(), total)
		}
		return sectors.List{}, nil
	}

	dims, err := readLen(g.ReadInts, "dims", n)
	if err != nil {
		return nil, err
	}
	irreps, err := readLen(g.ReadInts, "irreps", n*slots)
	if err != nil {
		return nil, err
	}
	fcidims, err := readLen(g.ReadFloats, "fcidims", n)
	if err != nil {
		return nil, err
	}

	list := make(sectors.List, n)
	sum := 0
	for i := range list {
		labels := make(ir.Labels, nrSyms)
		for j := range labels {
			labels[j] = ir.Label(irreps[i*slots+j])
		}
		list[i] = sectors.Sector{Irreps: labels, Dim: dims[i], FCIDim: fcidims[i]}
		sum += dims[i]
	}
	if sum != total {
		return nil, sizeMismatch("%s: dims sum to %d, totaldims %d", g.Path(), sum, total)
	}
	return list, nil
}

// readHamiltonian keeps the default trivial hss when the section is absent.
func readHamiltonian(root store.Group, reg *sectors.Registry) error {
	ok, err := root.HasGroup(groupHamiltonian)
	if err != nil || !ok {
		return err
	}
	g, err := root.OpenGroup(groupHamiltonian)
	if err != nil {
		return err
	}
	hss, err := readSectors(g, groupHSS, len(reg.Groups()), symmetrySlots)
	if err != nil {
		return err
	}
	return reg.RegisterHSS(hss)
}

func unpackTriplets(q []int, n [3]int) ([]ir.Triplet, error) {
	out := make([]ir.Triplet, len(q))
	for i, v := range q {
		t, ok := ir.UnpackTriplet(int64(v), n)
		if !ok {
			return nil, ir.Errorf(ir.ErrCodeOutOfRange, "quantum number %d out of range for legs %v", v, n)
		}
		out[i] = t
	}
	return out, nil
}

func readTensors(root store.Group, st *state.State) error {
	g, err := root.OpenGroup(groupTensors)
	if err != nil {
		return err
	}
	nrSites, err := store.Scalar(g, "nrSites")
	if err != nil {
		return err
	}
	if nrSites != st.Network.NrSites() {
		return sizeMismatch("%d tensors for %d sites", nrSites, st.Network.NrSites())
	}

	for site, tensor := range st.Tensors {
		tg, err := g.OpenGroup(tensorName(site))
		if err != nil {
			return err
		}
		nrsites, err := store.Scalar(tg, "nrsites")
		if err != nil {
			return err
		}
		sites, err := attrLen(tg, "sites", nrsites)
		if err != nil {
			return err
		}
		if nrsites != 1 || sites[0] != site {
			return sizeMismatch("tensor %d spans sites %v", site, sites)
		}
		nrblocks, err := store.Scalar(tg, "nrblocks")
		if err != nil {
			return err
		}
		if nrblocks < 0 {
			return sizeMismatch("tensor %d declares %d blocks", site, nrblocks)
		}
		if nrblocks > 0 {
			q, err := readLen(tg.ReadInts, "qnumbers", nrblocks*nrsites)
			if err != nil {
				return err
			}
			n, err := legCounts(st.Registry, tensor.Legs)
			if err != nil {
				return err
			}
			if tensor.Triplets, err = unpackTriplets(q, n); err != nil {
				return fmt.Errorf("tensor %d: %w", site, err)
			}
		}
		if tensor.Blocks, err = readBlocks(tg, blockName(0), nrblocks); err != nil {
			return fmt.Errorf("tensor %d: %w", site, err)
		}
		if err := tensor.Validate(st.Registry); err != nil {
			return fmt.Errorf("tensor %d: %w", site, err)
		}
	}
	return nil
}

func readOperators(root store.Group, st *state.State) error {
	g, err := root.OpenGroup(groupOperators)
	if err != nil {
		return err
	}
	nrOps, err := store.Scalar(g, "nrOps")
	if err != nil {
		return err
	}
	if nrOps != st.Network.NrBonds() {
		return sizeMismatch("%d operator sets for %d bonds", nrOps, st.Network.NrBonds())
	}

	for b := range st.Ops {
		ok, err := g.HasGroup(operatorName(b))
		if err != nil {
			return err
		}
		if !ok {
			st.Ops[b] = sparse.Unattached()
			continue
		}
		og, err := g.OpenGroup(operatorName(b))
		if err != nil {
			return err
		}
		r, err := readOperator(og, st.Registry, b)
		if err != nil {
			return fmt.Errorf("operators on bond %d: %w", b, err)
		}
		st.Ops[b] = r
	}
	return nil
}

func readOperator(og store.Group, reg *sectors.Registry, b int) (*sparse.ROperators, error) {
	attrs := map[string]int{}
	for _, name := range []string{"bond_of_operator", "is_left", "P_operator", "nrhss", "nrops"} {
		v, err := store.Scalar(og, name)
		if err != nil {
			return nil, err
		}
		attrs[name] = v
	}
	if attrs["bond_of_operator"] != b {
		return nil, sizeMismatch("stored under bond %d, attached to %d", b, attrs["bond_of_operator"])
	}
	nrhss, nrops := attrs["nrhss"], attrs["nrops"]
	if nrhss < 0 || nrops < 0 {
		return nil, sizeMismatch("negative counts nrhss=%d nrops=%d", nrhss, nrops)
	}

	r := &sparse.ROperators{
		Bond:      b,
		Direction: ir.Direction(attrs["is_left"]),
		POperator: attrs["P_operator"] != 0,
	}
	var err error
	if r.BeginBlocksOfHSS, err = readLen(og.ReadInts, "begin_blocks_of_hss", nrhss+1); err != nil {
		return nil, err
	}
	for h, begin := range r.BeginBlocksOfHSS {
		if (h == 0 && begin != 0) || (h > 0 && begin < r.BeginBlocksOfHSS[h-1]) {
			return nil, sizeMismatch("begin_blocks_of_hss %v is not a run table", r.BeginBlocksOfHSS)
		}
	}
	if nrCouplings := r.BeginBlocksOfHSS[nrhss]; nrCouplings > 0 {
		q, err := readLen(og.ReadInts, "qnumbers", nrCouplings)
		if err != nil {
			return nil, err
		}
		n, err := legCounts(reg, [3]ir.Leg{ir.BondLeg(b), ir.BondLeg(b), ir.HSSLeg})
		if err != nil {
			return nil, err
		}
		if r.Triplets, err = unpackTriplets(q, n); err != nil {
			return nil, err
		}
	}
	if nrops > 0 {
		if r.HSSOfOps, err = readLen(og.ReadInts, "hss_of_ops", nrops); err != nil {
			return nil, err
		}
		r.Operators = make([]sparse.Blocks, nrops)
	}
	for k := range r.Operators {
		hss := r.HSSOfOps[k]
		if hss < 0 || hss >= nrhss {
			return nil, ir.Errorf(ir.ErrCodeOutOfRange, "operator %d has hss %d of %d", k, hss, nrhss)
		}
		if r.Operators[k], err = readBlocks(og, blockName(k), r.NrBlocksForHSS(hss)); err != nil {
			return nil, fmt.Errorf("operator %d: %w", k, err)
		}
	}
	if err := r.Validate(reg); err != nil {
		return nil, err
	}
	return r, nil
}

// readBlocks treats absent datasets as a structurally empty block set.
func readBlocks(parent store.Group, name string, nr int) (sparse.Blocks, error) {
	g, err := parent.OpenGroup(name)
	if err != nil {
		return sparse.Blocks{}, err
	}
	n, err := store.Scalar(g, "nrBlocks")
	if err != nil {
		return sparse.Blocks{}, err
	}
	if n < 0 {
		return sparse.Blocks{}, sizeMismatch("%s declares %d blocks", g.Path(), n)
	}
	if n != nr {
		return sparse.Blocks{}, sizeMismatch("%s declares %d blocks, %d expected", g.Path(), n, nr)
	}
	if n == 0 {
		return sparse.Blocks{}, nil
	}
	begin, err := readLen(g.ReadInts, "beginblock", n+1)
	if err != nil {
		return sparse.Blocks{}, err
	}
	if begin[n] < 0 {
		return sparse.Blocks{}, sizeMismatch("%s: negative payload length %d", g.Path(), begin[n])
	}
	tel, err := readLen(g.ReadFloats, "tel", begin[n])
	if err != nil {
		return sparse.Blocks{}, err
	}
	b := sparse.Blocks{BeginBlock: begin, Tel: tel}
	if err := b.Validate(n); err != nil {
		return sparse.Blocks{}, err
	}
	return b, nil
}
